package rubric

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, content []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
}

func TestLoadSubmissionPreservesDeclarationOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "helpers.py", []byte("def helper():\n    return 1\n"))
	writeFile(t, dir, "main.py", []byte("print(helper())\n"))

	sub, err := LoadSubmission(dir, []string{"main.py", "helpers.py"})
	require.NoError(t, err)
	require.Len(t, sub.Files, 2)
	require.Equal(t, "main.py", sub.Files[0].Name)
	require.Equal(t, "helpers.py", sub.Files[1].Name)
	require.Equal(t, "main.py", sub.Primary().Name)
}

func TestLoadSubmissionMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", []byte("print('hi')\n"))

	_, err := LoadSubmission(dir, []string{"main.py", "helpers.py"})
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Contains(t, configErr.Reason, "helpers.py")
}

func TestLoadSubmissionEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", nil)

	_, err := LoadSubmission(dir, []string{"main.py"})
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Contains(t, configErr.Reason, "empty")
}

func TestLoadSubmissionRejectsBinaryFile(t *testing.T) {
	dir := t.TempDir()
	// PNG magic bytes.
	writeFile(t, dir, "main.py", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00})

	_, err := LoadSubmission(dir, []string{"main.py"})
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	require.Contains(t, configErr.Reason, "not a text file")
}

func TestLoadSubmissionNoFilesDeclared(t *testing.T) {
	_, err := LoadSubmission(t.TempDir(), nil)
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
}

func TestCombinedFramesEachFile(t *testing.T) {
	sub := &Submission{Files: []SubmissionFile{
		{Name: "main.py", Content: "print('a')\n"},
		{Name: "util.py", Content: "X = 1\n"},
	}}

	combined := sub.Combined()
	require.Contains(t, combined, "# === main.py ===\nprint('a')\n")
	require.Contains(t, combined, "# === util.py ===\nX = 1\n")
	require.Less(t, strings.Index(combined, "main.py"), strings.Index(combined, "util.py"))
}
