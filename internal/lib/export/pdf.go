package export

import (
	"bytes"
	"fmt"

	"LectureBot/entity"

	"github.com/jung-kurt/gofpdf"
)

const utf8Family = "lecturebot"

// Dataset is a table with named columns; rows are keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// PDFExporter renders tables into A4 landscape PDFs. Without a TTF font only
// Latin-1 text renders; Arabic names need fontPath.
type PDFExporter struct {
	fontPath string
}

func NewPDFExporter(fontPath string) *PDFExporter {
	return &PDFExporter{fontPath: fontPath}
}

func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	family := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if e.fontPath != "" {
		pdf.AddUTF8Font(utf8Family, "", e.fontPath)
		pdf.AddUTF8Font(utf8Family, "B", e.fontPath)
		family = utf8Family
		tr = func(s string) string { return s }
	}
	pdf.AddPage()

	if title != "" {
		pdf.SetFont(family, "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (width - left - right) / float64(len(data.Headers))

	pdf.SetFont(family, "B", 10)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var lectureHeaders = []string{"#", "Type", "Section", "Class", "Group", "Professor", "Subject", "Number", "Date"}

// LectureDataset flattens lectures into table rows in the given order.
func LectureDataset(lectures []entity.Lecture) Dataset {
	data := Dataset{Headers: lectureHeaders}
	for i, l := range lectures {
		data.Rows = append(data.Rows, map[string]string{
			"#":         fmt.Sprintf("%d", i+1),
			"Type":      string(l.Type),
			"Section":   l.SectionName,
			"Class":     l.ClassName,
			"Group":     l.GroupName,
			"Professor": l.ProfessorName,
			"Subject":   l.SubjectName,
			"Number":    l.LectureNumber,
			"Date":      l.Date.Format("2006-01-02"),
		})
	}
	return data
}

func (e *PDFExporter) LecturesTable(lectures []entity.Lecture) ([]byte, error) {
	return e.Render(LectureDataset(lectures), "Lectures")
}
