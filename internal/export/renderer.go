package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// Renderer streams a document into w.
type Renderer interface {
	Render(w io.Writer, doc *Document) error
	Extension() string
}

// PDFRenderer renders documents as A4 PDF pages.
type PDFRenderer struct {
	font string
}

// NewPDFRenderer returns a renderer using a core PDF font.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{font: "Helvetica"}
}

func (r *PDFRenderer) Extension() string { return ".pdf" }

func (r *PDFRenderer) Render(w io.Writer, doc *Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("deliverynote-service", true)
	pdf.AddPage()

	lines := doc.Lines()
	pdf.SetFont(r.font, "B", 20)
	pdf.CellFormat(0, 12, tr(lines[0]), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(r.font, "", 12)
	for _, line := range lines[1:] {
		if line == "" {
			pdf.Ln(4)
			continue
		}
		pdf.MultiCell(0, 7, tr(line), "", "L", false)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}
