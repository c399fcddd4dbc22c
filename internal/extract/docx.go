package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoDocumentXML = errors.New("word/document.xml not found")

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}
		return parseDocumentXML(body)
	}
	return "", errNoDocumentXML
}

func parseDocumentXML(body []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	var paras []string
	for _, p := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, r := range p.Runs {
			for _, t := range r.Text {
				sb.WriteString(t.Content)
			}
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			paras = append(paras, s)
		}
	}
	return strings.Join(paras, "\n\n"), nil
}
