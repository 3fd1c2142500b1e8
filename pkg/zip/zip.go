// Package zip builds small in-memory archives for download endpoints.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
)

type File struct {
	Name string
	Data []byte
}

// Archive packs the files into a zip held entirely in memory. Intended for
// exports of modest size, not streaming.
func Archive(files []File) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, f := range files {
		w, err := zw.Create(f.Name)
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("zip %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
