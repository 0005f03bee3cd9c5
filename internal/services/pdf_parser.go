package services

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParserService is the text-extraction collaborator: bytes in, plain
// text out, *DocumentParseError on unreadable or empty input.
type PDFParserService interface {
	ExtractText(filePath string) (string, error)
	ExtractTextFromBytes(data []byte, name string) (string, error)
}

type pdfParserService struct{}

func NewPDFParserService() PDFParserService {
	return &pdfParserService{}
}

func (p *pdfParserService) ExtractText(filePath string) (string, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return "", &DocumentParseError{Path: filePath, Err: err}
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", &DocumentParseError{Path: filePath, Err: err}
	}
	defer f.Close()

	return extractAllPages(r, filePath)
}

func (p *pdfParserService) ExtractTextFromBytes(data []byte, name string) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &DocumentParseError{Path: name, Err: err}
	}

	return extractAllPages(r, name)
}

func extractAllPages(r *pdf.Reader, name string) (string, error) {
	var builder strings.Builder
	totalPages := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// One bad page should not sink the document.
			continue
		}

		builder.WriteString(text)
		builder.WriteString("\n\n")
	}

	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", &DocumentParseError{Path: name, Err: fmt.Errorf("no text content found")}
	}

	return text, nil
}
