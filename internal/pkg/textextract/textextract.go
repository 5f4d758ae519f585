// Package textextract turns uploaded files into plain text.
package textextract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// Supported reports whether fileName has an extension Extract can read.
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf", ".docx", ".txt", ".md":
		return true
	}
	return false
}

// Extract reads r fully and returns its text according to fileName's extension.
func Extract(fileName string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload failed: %w", err)
	}
	if len(b) == 0 {
		return "", nil
	}

	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".pdf":
		return extractPDF(b)
	case ".docx":
		text, _, err := docconv.ConvertDocx(bytes.NewReader(b))
		if err != nil {
			return "", fmt.Errorf("extract docx failed: %w", err)
		}
		return text, nil
	case ".txt", ".md":
		if !utf8.Valid(b) {
			return "", fmt.Errorf("text file is not valid utf-8")
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

func extractPDF(b []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open pdf failed: %w", err)
	}
	plainReader, err := pdfReader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", fmt.Errorf("read pdf text failed: %w", err)
	}
	return string(out), nil
}

// Clean drops control characters other than newlines and tabs, normalizes
// line endings and trims surrounding whitespace.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return '\n'
		case r == utf8.RuneError, unicode.IsControl(r):
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}
