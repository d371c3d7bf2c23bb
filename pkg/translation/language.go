package translation

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageDisplayName renders a language for use in prompts. BCP 47 tags
// become their English names ("de" to "German", "zh-CN" to "Chinese
// (China)"); anything unparseable, such as an already-human name, passes
// through unchanged.
func LanguageDisplayName(s string) string {
	if s == "" {
		return ""
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return s
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return s
}
