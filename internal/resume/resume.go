// Package resume recognises the document formats accepted as resumes and
// checks that uploaded bytes actually match their claimed format.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Accepted extensions.
const (
	ExtPDF  = ".pdf"
	ExtDOC  = ".doc"
	ExtDOCX = ".docx"
)

var (
	// ErrUnsupportedType is returned for filenames outside the accepted extensions.
	ErrUnsupportedType = errors.New("resume: unsupported file type")
	// ErrContentMismatch is returned when the payload cannot be read as its extension claims.
	ErrContentMismatch = errors.New("resume: content does not match file type")
)

var contentTypes = map[string]string{
	ExtPDF:  "application/pdf",
	ExtDOC:  "application/msword",
	ExtDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// oleMagic opens every legacy Word (compound file) document.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Extension returns the lower-cased extension of filename.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
}

// IsAllowed reports whether filename carries an accepted extension.
func IsAllowed(filename string) bool {
	_, ok := contentTypes[Extension(filename)]
	return ok
}

// ContentType picks the media type stored with the file. A specific type
// declared by the client wins over the extension default.
func ContentType(filename, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if ct, ok := contentTypes[Extension(filename)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Report summarises an inspected document.
type Report struct {
	Extension string
	PageCount int
}

// Inspect parses data according to the extension of filename.
func Inspect(filename string, data []byte) (report Report, err error) {
	ext := Extension(filename)
	if _, ok := contentTypes[ext]; !ok {
		return Report{}, ErrUnsupportedType
	}
	report.Extension = ext

	// The PDF parser panics on some malformed input.
	defer func() {
		if r := recover(); r != nil {
			report, err = Report{}, fmt.Errorf("%w: %v", ErrContentMismatch, r)
		}
	}()

	switch ext {
	case ExtPDF:
		reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return Report{}, fmt.Errorf("%w: %v", ErrContentMismatch, err)
		}
		report.PageCount = reader.NumPage()
		if report.PageCount == 0 {
			return Report{}, fmt.Errorf("%w: pdf has no pages", ErrContentMismatch)
		}
	case ExtDOCX:
		doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return Report{}, fmt.Errorf("%w: %v", ErrContentMismatch, err)
		}
		_ = doc.Close()
	case ExtDOC:
		if !bytes.HasPrefix(data, oleMagic) {
			return Report{}, fmt.Errorf("%w: missing compound file header", ErrContentMismatch)
		}
	}

	return report, nil
}

// LegacyWordHeader returns the signature every .doc payload starts with.
func LegacyWordHeader() []byte {
	return append([]byte(nil), oleMagic...)
}
