package render

import (
	"bytes"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF emits the document's pages to w as an A4 PDF.
func WritePDF(doc *Document, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(doc.Title, false)
	pdf.SetCreator("invoice_backend", false)

	registered := map[string]bool{}
	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			switch op.Kind {
			case OpText:
				pdf.SetFont(op.Font.Family, op.Font.Style, op.Font.Size)
				pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
				pdf.Text(op.X, op.Y, op.Text)
			case OpLine:
				pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
				pdf.SetLineWidth(op.LineWidth)
				pdf.Line(op.X, op.Y, op.X2, op.Y2)
			case OpRect:
				style := "D"
				switch {
				case op.Fill && op.Stroke:
					style = "FD"
				case op.Fill:
					style = "F"
				}
				pdf.SetFillColor(op.Color.R, op.Color.G, op.Color.B)
				pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
				pdf.Rect(op.X, op.Y, op.W, op.H, style)
			case OpImage:
				if op.Image == nil {
					continue
				}
				name := op.Image.Name
				opts := gofpdf.ImageOptions{ImageType: "PNG"}
				if !registered[name] {
					pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(op.Image.Data))
					registered[name] = true
				}
				pdf.ImageOptions(name, op.X, op.Y, op.W, op.H, false, opts, 0, "")
			}
		}
		if err := pdf.Error(); err != nil {
			return err
		}
	}
	return pdf.Output(w)
}

// RenderPDF is WritePDF into a buffer.
func RenderPDF(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
