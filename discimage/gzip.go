package discimage

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// openFromGzip opens the first image in a tar.gz archive, or the
// decompressed stream of a plain .gz file.
func openFromGzip(path string) (string, io.ReadCloser, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to open gzip: %w", err)
	}

	gr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return "", nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	closeAll := func() error {
		gr.Close()
		return f.Close()
	}

	lowerPath := strings.ToLower(path)
	if strings.HasSuffix(lowerPath, ".tar.gz") || strings.HasSuffix(lowerPath, ".tgz") {
		tr := tar.NewReader(gr)
		name, err := seekTar(tr)
		if err != nil {
			closeAll()
			return "", nil, nil, err
		}
		return name, io.NopCloser(tr), closeAll, nil
	}

	// Plain .gz file: the decompressed content is the image, named after
	// the archive without its .gz suffix
	name := filepath.Base(path)
	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		name = name[:len(name)-3]
	}
	return name, io.NopCloser(gr), closeAll, nil
}

// seekTar advances tr to the first regular image entry
func seekTar(tr *tar.Reader) (string, error) {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read tar entry: %w", err)
		}

		if header.Typeflag != tar.TypeReg || !isImageFile(header.Name) {
			continue
		}
		return header.Name, nil
	}

	return "", ErrNoImageFile
}
