package discimage

import (
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"
)

// openFrom7z opens the first image entry in a 7z archive
func openFrom7z(path string) (string, io.ReadCloser, func() error, error) {
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to open 7z: %w", err)
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isImageFile(f.Name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			r.Close()
			return "", nil, nil, fmt.Errorf("failed to open %s in archive: %w", f.Name, err)
		}
		return f.Name, rc, r.Close, nil
	}

	r.Close()
	return "", nil, nil, ErrNoImageFile
}
