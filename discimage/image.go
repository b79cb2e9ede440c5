// Package discimage identifies boot images and unpacks them from
// compressed archives (ZIP, 7z, gzip, tar.gz, RAR).
package discimage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	vmcore "github.com/user-none/consolehost/api"
)

// Magic bytes for format detection
var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
	magicELF    = []byte{0x7F, 0x45, 0x4C, 0x46}
	magicISO    = []byte("CD001")
)

// The ISO9660 primary volume descriptor starts at sector 16; its standard
// identifier follows the one byte type code.
const isoIdentOffset = 16*2048 + 1

// headerSize covers the ISO identifier, the furthest magic we look at.
const headerSize = isoIdentOffset + 5

// ImageExtensions lists the file extensions accepted as bootable images.
var ImageExtensions = []string{".iso", ".bin", ".img", ".mdf", ".chd", ".cso", ".gz", ".elf", ".irx"}

var (
	// ErrEmptyPath is returned when no path was given.
	ErrEmptyPath = errors.New("empty image path")

	// ErrNoImageFile is returned when no image file is found in an archive
	ErrNoImageFile = errors.New("no image file found in archive")

	// ErrUnsupportedFormat is returned for unrecognized file formats
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when extracted content exceeds size limit
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

// Image is the result of probing a path.
type Image struct {
	Path string
	// Name is the base name, useful for display.
	Name   string
	Source vmcore.SourceKind
	// Archive is set when the image must be extracted before booting.
	Archive bool
}

type formatType int

const (
	formatUnknown formatType = iota
	formatISO
	formatELF
	formatImage // recognised by extension only
	formatZIP
	format7z
	formatGzip
	formatRAR
)

func (f formatType) archive() bool {
	switch f {
	case formatZIP, format7z, formatGzip, formatRAR:
		return true
	}
	return false
}

// Probe inspects path and reports what kind of boot source it is.
// Device nodes are treated as physical discs.
func Probe(path string) (Image, error) {
	if path == "" {
		return Image{}, ErrEmptyPath
	}

	fi, err := os.Stat(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to stat image: %w", err)
	}
	img := Image{Path: path, Name: filepath.Base(path)}

	if fi.Mode()&os.ModeDevice != 0 {
		img.Source = vmcore.SourceDisc
		return img, nil
	}
	if fi.IsDir() {
		return Image{}, fmt.Errorf("%w: %s is a directory", ErrUnsupportedFormat, path)
	}

	header, err := readHeader(path)
	if err != nil {
		return Image{}, err
	}

	switch format := detectFormat(header, path); {
	case format == formatELF:
		img.Source = vmcore.SourceELF
	case format == formatISO, format == formatImage:
		img.Source = vmcore.SourceIso
	case format.archive():
		img.Source = vmcore.SourceIso
		img.Archive = true
	default:
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	return img, nil
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, headerSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read file header: %w", err)
	}
	return header[:n], nil
}

// detectFormat determines the file format based on magic bytes and extension.
func detectFormat(header []byte, path string) formatType {
	lower := strings.ToLower(path)
	ext := filepath.Ext(lower)

	// Check magic bytes first (more reliable)
	if len(header) >= 4 {
		if bytes.HasPrefix(header, magicZIP) || bytes.HasPrefix(header, magicZIPEnd) {
			return formatZIP
		}
		if bytes.HasPrefix(header, magicRAR) {
			return formatRAR
		}
		if bytes.HasPrefix(header, magicELF) {
			return formatELF
		}
	}
	if len(header) >= 6 && bytes.HasPrefix(header, magic7z) {
		return format7z
	}
	if len(header) >= 2 && bytes.HasPrefix(header, magicGzip) {
		// Compressed ISOs are read directly by the core.
		if strings.HasSuffix(lower, ".iso.gz") {
			return formatImage
		}
		return formatGzip
	}
	if len(header) >= headerSize && bytes.Equal(header[isoIdentOffset:headerSize], magicISO) {
		return formatISO
	}

	// Fall back to extension for archive formats
	switch ext {
	case ".zip":
		return formatZIP
	case ".7z":
		return format7z
	case ".tgz":
		return formatGzip
	case ".rar":
		return formatRAR
	case ".elf", ".irx":
		return formatELF
	}
	if strings.HasSuffix(lower, ".iso.gz") {
		return formatImage
	}
	if ext == ".gz" {
		return formatGzip
	}

	if isImageFile(lower) {
		return formatImage
	}

	return formatUnknown
}

// isImageFile checks if a filename has one of the image extensions
// (case-insensitive). Archive wrappers are not images.
func isImageFile(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".gz") {
		return strings.HasSuffix(lower, ".iso.gz")
	}
	for _, ext := range ImageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
