// Package textextract converts uploaded document files into the plain text
// blob consumed by the extraction pipeline.
package textextract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"underwriter/internal/domain"
)

// Adapter implements port.TextExtractor for PDF, XLSX, and DOCX files.
type Adapter struct{}

// New builds a text extraction adapter.
func New() *Adapter {
	return &Adapter{}
}

// ExtractText converts the raw file bytes into plain text.
func (a *Adapter) ExtractText(ctx context.Context, data []byte, fileType domain.FileType) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch fileType {
	case domain.FileTypePDF:
		return extractPDF(data)
	case domain.FileTypeXLSX:
		return extractXLSX(data)
	case domain.FileTypeDOCX:
		return extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, fileType)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", fmt.Errorf("copy pdf text: %w", err)
	}
	return b.String(), nil
}

// extractXLSX renders every sheet as tab-separated rows.
func extractXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// extractDOCX reads word/document.xml from the OOXML container and joins
// paragraph runs with newlines.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx missing word/document.xml")
	}
	defer doc.Close()

	var b strings.Builder
	decoder := xml.NewDecoder(doc)
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
