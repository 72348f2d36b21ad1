package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.Png", "d.webp"} {
		require.True(t, IsImageFile(name), name)
	}
	for _, name := range []string{"a.gif", "b.tiff", "noext", "c.jpg.txt"} {
		require.False(t, IsImageFile(name), name)
	}
}

func TestBaseName(t *testing.T) {
	require.Equal(t, "scan_01", BaseName("/tmp/in/scan_01.JPG"))
	require.Equal(t, "archive.tar", BaseName("archive.tar.png"))
	require.Equal(t, "plain", BaseName("plain"))
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.png", "c.gif", "D.WEBP"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0755))

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	require.ElementsMatch(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.jpg"),
		filepath.Join(dir, "D.WEBP"),
	}, files)

	_, err = ListImageFiles(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.True(t, DirExists(dir))
	require.NoError(t, EnsureDir(dir))

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	require.True(t, FileExists(file))
	require.Error(t, EnsureDir(file))
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "a_b_c", SanitizeFilename("a/b:c"))
	require.Equal(t, " book ", SanitizeFilename(" book "))
}

func TestFormatFileSize(t *testing.T) {
	require.Equal(t, "512 B", FormatFileSize(512))
	require.Equal(t, "1.5 KB", FormatFileSize(1536))
	require.Equal(t, "2.0 MB", FormatFileSize(2*1024*1024))
}
