package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"impact-rag/internal/models"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// MIME kinds accepted by the ingestion pipeline.
const (
	KindPDF  = "application/pdf"
	KindXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	KindODS  = "application/vnd.oasis.opendocument.spreadsheet"
	KindDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ParseError marks a document that could not be parsed. Batch ingestion
// skips the file and continues.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedFormatError rejects a MIME kind no parser handles.
type UnsupportedFormatError struct {
	Kind string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Kind)
}

// KindForFile maps a filename extension to a MIME kind, or "" when unknown.
func KindForFile(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF
	case ".xlsx":
		return KindXLSX
	case ".ods":
		return KindODS
	case ".docx":
		return KindDOCX
	default:
		return ""
	}
}

// Parse extracts a paged document from raw file bytes. Formats without a
// page concept (spreadsheets, DOCX) report sheets as pages or a single
// page 1.
func Parse(raw []byte, filename, kind string) (*models.Document, error) {
	var (
		pages []models.Page
		err   error
	)
	switch kind {
	case KindPDF:
		pages, err = parsePDF(raw)
	case KindXLSX:
		pages, err = parseXLSX(raw)
	case KindODS:
		pages, err = parseODS(raw)
	case KindDOCX:
		pages, err = parseDOCX(raw)
	default:
		return nil, &UnsupportedFormatError{Kind: kind}
	}
	if err != nil {
		return nil, &ParseError{File: filename, Err: err}
	}
	return &models.Document{SourceFile: filename, Pages: pages}, nil
}

func parsePDF(raw []byte) ([]models.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, models.Page{Number: i, Content: pageText})
	}
	return pages, nil
}

func parseXLSX(raw []byte) ([]models.Page, error) {
	f, err := xlsx.OpenBinary(raw)
	if err != nil {
		return nil, err
	}

	var pages []models.Page
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Hoja: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		pages = append(pages, models.Page{Number: sheetNum + 1, Content: text.String()})
	}
	return pages, nil
}

func parseODS(raw []byte) ([]models.Page, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []models.Page
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Hoja: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		pages = append(pages, models.Page{Number: sheetNum + 1, Content: text.String()})
	}
	return pages, nil
}

func parseDOCX(raw []byte) ([]models.Page, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var paragraphs []string
	for _, p := range strings.Split(content, "\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) == 0 {
		return nil, nil
	}
	// DOCX has no page markers; everything lands on page 1
	return []models.Page{{Number: 1, Content: strings.Join(paragraphs, "\n\n")}}, nil
}
