package discimage

import (
	"archive/zip"
	"fmt"
	"io"
)

// openFromZIP opens the first image entry in a ZIP archive
func openFromZIP(path string) (string, io.ReadCloser, func() error, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to open zip: %w", err)
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
