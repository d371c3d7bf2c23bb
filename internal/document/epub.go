package document

import (
	"archive/zip"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Book is the input to the EPUB writer.
type Book struct {
	Title    string
	Author   string
	Language string
	Chapters []Chapter
}

// Chapter is one spine entry. Body is XHTML body markup; plain text is
// escaped and wrapped in paragraphs by BodyFromText.
type Chapter struct {
	Title string
	Body  string
}

// WriteEPUB writes the book as an EPUB 3 container. The mimetype entry
// must be first and stored uncompressed for readers to sniff it.
func WriteEPUB(w io.Writer, book Book) error {
	if len(book.Chapters) == 0 {
		return fmt.Errorf("epub needs at least one chapter")
	}
	if book.Title == "" {
		book.Title = "Untitled"
	}
	if book.Language == "" {
		book.Language = "en"
	}

	zw := zip.NewWriter(w)

	mimetype, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return err
	}
	if _, err := mimetype.Write([]byte("application/epub+zip")); err != nil {
		return err
	}

	files := map[string]string{
		"META-INF/container.xml": containerXML,
		"OEBPS/content.opf":      packageOPF(book),
		"OEBPS/nav.xhtml":        navXHTML(book),
	}
	for i, chapter := range book.Chapters {
		files[chapterPath(i)] = chapterXHTML(chapter, book.Language)
	}

	for name, content := range files {
		f, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(f, content); err != nil {
			return err
		}
	}
	return zw.Close()
}

// BodyFromText converts plain text to XHTML body markup, one paragraph
// per blank-line-separated chunk.
func BodyFromText(text string) string {
	var sb strings.Builder
	for _, part := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sb.WriteString("<p>")
		sb.WriteString(strings.ReplaceAll(html.EscapeString(part), "\n", "<br/>"))
		sb.WriteString("</p>\n")
	}
	return sb.String()
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

func chapterPath(i int) string {
	return fmt.Sprintf("OEBPS/chapter-%03d.xhtml", i+1)
}

func packageOPF(book Book) string {
	var manifest, spine strings.Builder
	for i := range book.Chapters {
		id := fmt.Sprintf("chapter-%03d", i+1)
		fmt.Fprintf(&manifest,
			`    <item id="%s" href="%s.xhtml" media-type="application/xhtml+xml"/>`+"\n", id, id)
		fmt.Fprintf(&spine, `    <itemref idref="%s"/>`+"\n", id)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="book-id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="book-id">urn:uuid:%s</dc:identifier>
    <dc:title>%s</dc:title>
    <dc:creator>%s</dc:creator>
    <dc:language>%s</dc:language>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
%s  </manifest>
  <spine>
%s  </spine>
</package>
`,
		uuid.New().String(),
		html.EscapeString(book.Title),
		html.EscapeString(book.Author),
		html.EscapeString(book.Language),
		manifest.String(),
		spine.String())
}

func navXHTML(book Book) string {
	var items strings.Builder
	for i, chapter := range book.Chapters {
		title := chapter.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		fmt.Fprintf(&items, `      <li><a href="chapter-%03d.xhtml">%s</a></li>`+"\n",
			i+1, html.EscapeString(title))
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head><title>%s</title></head>
<body>
  <nav epub:type="toc">
    <ol>
%s    </ol>
  </nav>
</body>
</html>
`, html.EscapeString(book.Title), items.String())
}

func chapterXHTML(chapter Chapter, language string) string {
	title := html.EscapeString(chapter.Title)
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="%s">
<head><title>%s</title></head>
<body>
<h1>%s</h1>
%s
</body>
</html>
`, html.EscapeString(language), title, title, chapter.Body)
}
