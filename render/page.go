package render

import (
	"strings"

	"github.com/shopspring/decimal"
)

// A4 portrait, millimetres.
const (
	PageWidth  = 210.0
	PageHeight = 297.0
	Margin     = 20.0
)

type OpKind int

const (
	OpText OpKind = iota
	OpLine
	OpRect
	OpImage
)

func (k OpKind) String() string {
	switch k {
	case OpText:
		return "text"
	case OpLine:
		return "line"
	case OpRect:
		return "rect"
	case OpImage:
		return "image"
	default:
		return "unknown"
	}
}

type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

type Color struct {
	R, G, B int
}

type Font struct {
	Family string
	Style  string
	Size   float64
}

// Image is a decoded, PNG re-encoded asset ready to embed.
type Image struct {
	Name   string
	Data   []byte
	Width  int
	Height int
}

// Op is one absolutely positioned draw operation.
//
// Text: X is the left edge of the run after alignment, Y the baseline.
// Line: from (X, Y) to (X2, Y2).
// Rect and Image: top-left (X, Y), size W × H.
type Op struct {
	Kind      OpKind
	X, Y      float64
	X2, Y2    float64
	W, H      float64
	Text      string
	Font      Font
	Align     Align
	Color     Color
	Fill      bool
	Stroke    bool
	LineWidth float64
	Image     *Image
}

type Page struct {
	Width  float64
	Height float64
	Ops    []Op
}

type Document struct {
	Title    string
	Filename string
	Pages    []Page
}

// Texts returns every text run in draw order, across pages.
func (d *Document) Texts() []string {
	var out []string
	for _, p := range d.Pages {
		for _, op := range p.Ops {
			if op.Kind == OpText {
				out = append(out, op.Text)
			}
		}
	}
	return out
}

// FindText returns the first text op equal to s.
func (d *Document) FindText(s string) (Op, bool) {
	for _, p := range d.Pages {
		for _, op := range p.Ops {
			if op.Kind == OpText && op.Text == s {
				return op, true
			}
		}
	}
	return Op{}, false
}

type Party struct {
	Name    string
	Email   string
	Address string
	Phone   string
	Website string
}

type Item struct {
	Title       string
	Description string
	Quantity    int
	Amount      decimal.Decimal
}

type Payment struct {
	BankName      string
	AccountHolder string
	AccountNumber string
	IFSC          string
	UPIId         string
	QRRef         string
	Terms         string
}

// HasDetails reports whether the payment block should be drawn.
func (p Payment) HasDetails() bool {
	return strings.TrimSpace(p.AccountNumber) != "" ||
		strings.TrimSpace(p.IFSC) != "" ||
		strings.TrimSpace(p.UPIId) != ""
}

// Invoice is a finalized invoice or estimate. The totals are printed as
// given and never recomputed here.
type Invoice struct {
	Estimate       bool
	Number         string
	IssueDate      string
	DueDate        string
	Company        Party
	LogoRef        string
	Client         Party
	Items          []Item
	Subtotal       decimal.Decimal
	TaxRate        decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	Payment        Payment
	Notes          string
}
