package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test", "none", "today")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	cmd := NewRootCommand("1.0.0", "abc", "today")

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["translate"])
	assert.True(t, names["providers"])
	assert.True(t, names["config"])
	assert.Contains(t, cmd.Version, "1.0.0")
}

func TestConfigInitWritesStarterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc2book.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "openai")

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err, "existing file is not overwritten without --force")

	_, err = execute(t, "config", "init", "--force", path)
	assert.NoError(t, err)
}

func TestTranslateRequiresInput(t *testing.T) {
	_, err := execute(t, "translate")
	assert.Error(t, err)
}

func TestExtractBody(t *testing.T) {
	html := `<html><head><title>x</title></head><body class="a"><p>inner</p></body></html>`
	assert.Equal(t, "<p>inner</p>", extractBody(html))

	assert.Equal(t, "<p>bare</p>", extractBody("<p>bare</p>"), "fragment passes through")
}
