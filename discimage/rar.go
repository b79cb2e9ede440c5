package discimage

import (
	"fmt"
	"io"

	"github.com/nwaples/rardecode/v2"
)

// openFromRAR positions a RAR reader on the first image entry
func openFromRAR(path string) (string, io.ReadCloser, func() error, error) {
	r, err := rardecode.OpenReader(path)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to open rar: %w", err)
	}

	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			r.Close()
			return "", nil, nil, fmt.Errorf("failed to read rar entry: %w", err)
		}

		if header.IsDir || !isImageFile(header.Name) {
			continue
		}
		// The entry is read through the archive reader itself, which is
		// closed by the returned closer.
		return header.Name, io.NopCloser(r), r.Close, nil
	}

	r.Close()
	return "", nil, nil, ErrNoImageFile
}
