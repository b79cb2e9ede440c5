package discimage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/user-none/consolehost/logger"
)

// maxImageSize bounds extracted output. A dual layer DVD is just under
// 8.5GB.
var maxImageSize int64 = 9 << 30

// Extract unpacks the first image entry of the archive at path into
// destDir and returns the path of the extracted file. An existing file
// with the same name is replaced.
func Extract(path, destDir string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	header, err := readHeader(path)
	if err != nil {
		return "", err
	}

	var open func(string) (string, io.ReadCloser, func() error, error)
	switch detectFormat(header, path) {
	case formatZIP:
		open = openFromZIP
	case format7z:
		open = openFrom7z
	case formatGzip:
		open = openFromGzip
	case formatRAR:
		open = openFromRAR
	default:
		return "", fmt.Errorf("%w: %s is not an archive", ErrUnsupportedFormat, path)
	}

	name, rc, closeArchive, err := open(path)
	if err != nil {
		return "", err
	}
	defer closeArchive()
	defer rc.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create destination: %w", err)
	}

	out := filepath.Join(destDir, filepath.Base(name))
	if err := writeLimited(out, rc); err != nil {
		return "", fmt.Errorf("failed to extract %s: %w", name, err)
	}

	logger.WithFunc("discimage.Extract").Info().
		Str("archive", path).
		Str("image", out).
		Msg("extracted image")

	return out, nil
}

// writeLimited copies r into a temporary file next to dst and renames it
// into place once the whole entry was read within maxImageSize.
func writeLimited(dst string, r io.Reader) error {
	tmp := dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	n, err := io.Copy(f, io.LimitReader(r, maxImageSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxImageSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dst)
}
