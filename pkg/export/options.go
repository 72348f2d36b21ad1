package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/menta2k/page-splitter/internal/utils"
)

// DefaultOutputDirName is the folder created next to the sources when no
// output folder is configured
const DefaultOutputDirName = "Output"

// JPEGQuality is the fixed quality used for JPEG output
const JPEGQuality = 90

// Format is an output encoding
type Format int

const (
	// JPEG writes .jpg files at JPEGQuality
	JPEG Format = iota
	// PNG writes lossless .png files
	PNG
)

// Extension returns the file extension written for the format
func (f Format) Extension() string {
	if f == PNG {
		return "png"
	}
	return "jpg"
}

func (f Format) String() string {
	return f.Extension()
}

// ParseFormat parses jpg, jpeg or png
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "jpg", "jpeg", "":
		return JPEG, nil
	case "png":
		return PNG, nil
	default:
		return JPEG, fmt.Errorf("unsupported output format %q (use jpg or png)", s)
	}
}

// FilenameMode selects how output files are named
type FilenameMode int

const (
	// Sequence names files 001.jpg, 002.jpg, ...
	Sequence FilenameMode = iota
	// Original names files <source>_001.jpg
	Original
	// Custom names files <prefix>_001.jpg
	Custom
	// OriginalAndCustom names files <source>_<prefix>_001.jpg
	OriginalAndCustom
)

var filenameModeNames = map[FilenameMode]string{
	Sequence:          "sequence",
	Original:          "original",
	Custom:            "custom",
	OriginalAndCustom: "original-custom",
}

func (m FilenameMode) String() string {
	if name, ok := filenameModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("filename-mode(%d)", int(m))
}

// ParseFilenameMode parses a filename mode name
func ParseFilenameMode(s string) (FilenameMode, error) {
	s = strings.ToLower(s)
	if s == "" {
		return Sequence, nil
	}
	for mode, name := range filenameModeNames {
		if name == s {
			return mode, nil
		}
	}
	return Sequence, fmt.Errorf("unknown filename mode %q (use sequence, original, custom or original-custom)", s)
}

// Options configures a batch export
type Options struct {
	Format       Format
	FilenameMode FilenameMode
	CustomPrefix string
	// OutputFolder overrides <source>/Output when non-empty
	OutputFolder string
}

// DefaultOptions returns JPEG output with sequence names
func DefaultOptions() Options {
	return Options{Format: JPEG, FilenameMode: Sequence}
}

// Destination resolves the directory files are written to
func (o Options) Destination(sourceFolder string) string {
	if o.OutputFolder != "" {
		return o.OutputFolder
	}
	return filepath.Join(sourceFolder, DefaultOutputDirName)
}

// Filename builds the output file name for one written crop. seq is the
// run-wide sequence number, sourcePath the page's source image.
func (o Options) Filename(sourcePath string, seq int) string {
	ext := o.Format.Extension()
	num := fmt.Sprintf("%03d", seq)
	orig := utils.BaseName(sourcePath)
	prefix := utils.SanitizeFilename(o.CustomPrefix)
	// a blank prefix counts as unset
	if strings.TrimSpace(prefix) == "" {
		prefix = ""
	}

	switch o.FilenameMode {
	case Original:
		return fmt.Sprintf("%s_%s.%s", orig, num, ext)
	case Custom:
		if prefix == "" {
			prefix = "Image"
		}
		return fmt.Sprintf("%s_%s.%s", prefix, num, ext)
	case OriginalAndCustom:
		if prefix != "" {
			return fmt.Sprintf("%s_%s_%s.%s", orig, prefix, num, ext)
		}
		return fmt.Sprintf("%s_%s.%s", orig, num, ext)
	default:
		return fmt.Sprintf("%s.%s", num, ext)
	}
}
