package render

import (
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	ptToMM     = 25.4 / 72
	lineFactor = 1.15
)

func lineHeight(size float64) float64 {
	return size * ptToMM * lineFactor
}

// measurer uses a private gofpdf instance purely for core-font metrics.
type measurer struct {
	pdf *gofpdf.Fpdf
}

func newMeasurer() *measurer {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont(fontFamily, "", 10)
	return &measurer{pdf: pdf}
}

func (m *measurer) setFont(f Font) {
	m.pdf.SetFont(f.Family, f.Style, f.Size)
}

func (m *measurer) width(f Font, s string) float64 {
	m.setFont(f)
	return m.pdf.GetStringWidth(s)
}

// wrap breaks encoded text into lines no wider than width. Explicit line
// breaks are kept and words longer than a line are split.
func (m *measurer) wrap(f Font, text string, width float64) []string {
	m.setFont(f)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			for len(word) > 1 && m.pdf.GetStringWidth(word) > width {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				cut := m.fit(word, width)
				lines = append(lines, word[:cut])
				word = word[cut:]
			}
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if line == "" || m.pdf.GetStringWidth(candidate) <= width {
				line = candidate
				continue
			}
			lines = append(lines, line)
			line = word
		}
		lines = append(lines, line)
	}

	for len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// fit returns the longest prefix length (at least 1) that fits in width.
func (m *measurer) fit(word string, width float64) int {
	n := 1
	for n < len(word) && m.pdf.GetStringWidth(word[:n+1]) <= width {
		n++
	}
	return n
}

var runeReplacements = map[rune]string{
	'₹':      "Rs.",
	'–':      "-",
	'—':      "-",
	'‘':      "'",
	'’':      "'",
	'“':      "\"",
	'”':      "\"",
	'…':      "...",
	'•':      "-",
	'\t':     " ",
	'\u00a0': " ",
}

// encode maps UTF-8 text onto the single-byte Latin-1 range the core PDF
// fonts cover. Runes outside it become '?'.
func encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || (r >= 0x20 && r < 0x7f):
			b.WriteByte(byte(r))
		case runeReplacements[r] != "":
			b.WriteString(runeReplacements[r])
		case r >= 0xa0 && r <= 0xff:
			b.WriteByte(byte(r))
		case r < 0x20 || r == 0x7f:
			// control characters are dropped
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}
