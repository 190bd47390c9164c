package selection

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"

	"cvmatch-console/internal/shared/util"
)

// File is a document picked by the user, held in memory until submission.
type File struct {
	Name     string
	MimeType string
	Size     int64
	// Pages is the PDF page count, or 0 when unknown.
	Pages int
	data  []byte
}

// NewFile builds a File from uploaded bytes. declaredType is the client-reported
// Content-Type and may be empty.
func NewFile(name, declaredType string, data []byte) File {
	f := File{
		Name:     displayName(name),
		MimeType: ResolveMimeType(declaredType, name, data),
		Size:     int64(len(data)),
		data:     data,
	}
	if f.MimeType == MimePDF {
		f.Pages = pageCount(data)
	}
	return f
}

// ReadFile loads a file from disk, sniffing its MIME type.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return NewFile(filepath.Base(path), "", data), nil
}

// ReadFrom reads r fully into a File, rejecting payloads larger than limit bytes.
func ReadFrom(name, declaredType string, r io.Reader, limit int64) (File, error) {
	if limit <= 0 {
		limit = 32 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > limit {
		return File{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrValidation, name, limit)
	}
	return NewFile(name, declaredType, data), nil
}

// Open returns a reader over the file content.
func (f File) Open() io.Reader {
	return bytes.NewReader(f.data)
}

func displayName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	clean, err := util.SanitizeFileName(base)
	if err != nil {
		return "file"
	}
	return clean
}

func pageCount(data []byte) (n int) {
	if len(data) == 0 {
		return 0
	}
	// The PDF reader panics on some truncated inputs.
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return r.NumPage()
}
