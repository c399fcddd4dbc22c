// Package extract turns uploaded files into plain text for chunking.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/docmind/internal/domain"
)

// Supported file types, by lowercased extension without the dot.
const (
	TypePDF      = "pdf"
	TypeDOCX     = "docx"
	TypeText     = "txt"
	TypeMarkdown = "md"
)

// SupportedTypes lists accepted extensions.
var SupportedTypes = []string{TypePDF, TypeDOCX, TypeText, TypeMarkdown}

// FileType returns the normalized type of filename or ErrUnsupportedFileType.
func FileType(filename string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, t := range SupportedTypes {
		if ext == t {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: %q (allowed: .pdf, .docx, .txt, .md)", domain.ErrUnsupportedFileType, filepath.Ext(filename))
}

// Text extracts the plain text of a file. Pages and paragraphs are joined
// with blank lines so sentence splitting sees the breaks.
func Text(filename string, data []byte) (string, error) {
	ft, err := FileType(filename)
	if err != nil {
		return "", err
	}

	var text string
	switch ft {
	case TypePDF:
		text, err = pdfText(data)
	case TypeDOCX:
		text, err = docxText(data)
	default:
		text = plainText(data)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}
	return text, nil
}

// plainText decodes UTF-8, replacing invalid sequences.
func plainText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "�")
}
