package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/invoice_backend/utils"
	"github.com/shopspring/decimal"
)

const fontFamily = "Helvetica"

const (
	contentWidth  = PageWidth - 2*Margin
	contentBottom = PageHeight - Margin

	logoMaxW = 40.0
	logoMaxH = 20.0
	qrSize   = 35.0

	tableHeaderHeight = 12.0
	rowBaseHeight     = 20.0
	cellPadding       = 5.0
	totalsWidth       = 75.0
)

var (
	colorBlue   = Color{37, 99, 235}
	colorDark   = Color{31, 41, 55}
	colorMuted  = Color{107, 114, 128}
	colorBorder = Color{229, 231, 235}
	colorHeader = Color{243, 244, 246}
)

var (
	descColWidth   = contentWidth * 0.65
	qtyColWidth    = contentWidth * 0.15
	amountColWidth = contentWidth * 0.20
)

// Placeholders used when required header fields are blank.
const (
	DefaultCompanyName    = "Your Company"
	DefaultClientName     = "Client Name"
	DefaultInvoiceNumber  = "INV-001"
	DefaultEstimateNumber = "EST-001"
	NoItemsText           = "No items added"
	FooterText            = "Thank you for your business!"
)

func font(style string, size float64) Font {
	return Font{Family: fontFamily, Style: style, Size: size}
}

// layout is the sequential cursor over one render call.
type layout struct {
	m     *measurer
	pages []Page
	y     float64
}

func newLayout() *layout {
	l := &layout{m: newMeasurer()}
	l.newPage()
	return l
}

func (l *layout) newPage() {
	l.pages = append(l.pages, Page{Width: PageWidth, Height: PageHeight})
	l.y = Margin
}

func (l *layout) page() *Page {
	return &l.pages[len(l.pages)-1]
}

// ensure starts a new page unless h more millimetres fit on this one.
// It reports whether a break happened.
func (l *layout) ensure(h float64) bool {
	if l.y+h <= contentBottom || l.y == Margin {
		return false
	}
	l.newPage()
	return true
}

// ensureText is ensure for blocks whose first baseline sits at l.y. After a
// break the cursor moves down one line so glyphs stay inside the margin.
func (l *layout) ensureText(h, size float64) {
	if l.ensure(h) {
		l.y += lineHeight(size)
	}
}

// text draws one pre-encoded line; x is the anchor for the given alignment.
func (l *layout) text(s string, x, baseline float64, f Font, align Align, c Color) {
	left := x
	switch align {
	case AlignRight:
		left = x - l.m.width(f, s)
	case AlignCenter:
		left = x - l.m.width(f, s)/2
	}
	l.page().Ops = append(l.page().Ops, Op{
		Kind: OpText, X: left, Y: baseline, Text: s, Font: f, Align: align, Color: c,
	})
}

func (l *layout) line(x1, y1, x2, y2, width float64, c Color) {
	l.page().Ops = append(l.page().Ops, Op{
		Kind: OpLine, X: x1, Y: y1, X2: x2, Y2: y2, LineWidth: width, Color: c, Stroke: true,
	})
}

func (l *layout) fillRect(x, y, w, h float64, c Color) {
	l.page().Ops = append(l.page().Ops, Op{
		Kind: OpRect, X: x, Y: y, W: w, H: h, Color: c, Fill: true,
	})
}

func (l *layout) image(img *Image, x, y, w, h float64) {
	l.page().Ops = append(l.page().Ops, Op{
		Kind: OpImage, X: x, Y: y, W: w, H: h, Image: img,
	})
}

// fitBox scales an image into maxW × maxH keeping its aspect ratio.
func fitBox(img *Image, maxW, maxH float64) (float64, float64) {
	if img.Width <= 0 || img.Height <= 0 {
		return maxW, maxH
	}
	ratio := float64(img.Width) / float64(img.Height)
	w, h := maxW, maxW/ratio
	if h > maxH {
		h = maxH
		w = maxH * ratio
	}
	return w, h
}

type assets struct {
	logo *Image
	qr   *Image
}

func (r *Renderer) compose(ctx context.Context, inv *Invoice, a assets) (*Document, error) {
	l := newLayout()

	r.header(l, inv, a.logo)
	r.parties(l, inv)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.itemsTable(l, inv)
	r.totals(l, inv)
	if !inv.Estimate && inv.Payment.HasDetails() {
		r.payment(l, inv, a.qr)
	}
	r.notes(l, inv)
	r.footer(l)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(l.pages) > 1 {
		for i := range l.pages {
			label := fmt.Sprintf("Page %d of %d", i+1, len(l.pages))
			l.pages[i].Ops = append(l.pages[i].Ops, pageNumberOp(l.m, label))
		}
	}

	number := documentNumber(inv)
	return &Document{
		Title:    documentTitle(inv) + " " + number,
		Filename: Filename(inv.Number),
		Pages:    l.pages,
	}, nil
}

func pageNumberOp(m *measurer, label string) Op {
	f := font("", 8)
	return Op{
		Kind:  OpText,
		X:     PageWidth - Margin - m.width(f, label),
		Y:     PageHeight - Margin/2,
		Text:  label,
		Font:  f,
		Align: AlignRight,
		Color: colorMuted,
	}
}

func documentTitle(inv *Invoice) string {
	if inv.Estimate {
		return "ESTIMATE"
	}
	return "INVOICE"
}

func documentNumber(inv *Invoice) string {
	if n := strings.TrimSpace(inv.Number); n != "" {
		return n
	}
	if inv.Estimate {
		return DefaultEstimateNumber
	}
	return DefaultInvoiceNumber
}

func (r *Renderer) header(l *layout, inv *Invoice, logo *Image) {
	top := l.y
	right := PageWidth - Margin

	l.text(documentTitle(inv), right, top+10, font("B", 28), AlignRight, colorBlue)

	leftY := top
	if logo != nil {
		w, h := fitBox(logo, logoMaxW, logoMaxH)
		l.image(logo, Margin, leftY, w, h)
		leftY += h + 4
	}

	nameFont := font("B", 20)
	name := encode(utils.FirstNonEmpty(inv.Company.Name, DefaultCompanyName))
	for _, ln := range l.m.wrap(nameFont, name, contentWidth*0.55) {
		leftY += lineHeight(nameFont.Size)
		l.text(ln, Margin, leftY, nameFont, AlignLeft, colorDark)
	}
	leftY += 3

	label := "Invoice #:"
	if inv.Estimate {
		label = "Estimate #:"
	}
	meta := []string{
		label + " " + encode(documentNumber(inv)),
		"Date: " + encode(utils.FirstNonEmpty(inv.IssueDate, r.now().Format(time.DateOnly))),
	}
	if due := strings.TrimSpace(inv.DueDate); due != "" {
		meta = append(meta, "Due Date: "+encode(due))
	}
	rightY := top + 20
	for _, ln := range meta {
		l.text(ln, right, rightY, font("", 10), AlignRight, colorDark)
		rightY += 5.5
	}

	l.y = maxf(leftY, rightY) + 6
	l.line(Margin, l.y, right, l.y, 0.3, colorBorder)
	l.y += 8
}

func (r *Renderer) parties(l *layout, inv *Invoice) {
	colW := (contentWidth - 10) / 2
	leftX, rightX := Margin, Margin+colW+10
	top := l.y

	from := []string{}
	from = append(from, l.m.wrap(font("B", 10), encode(utils.FirstNonEmpty(inv.Company.Name, DefaultCompanyName)), colW)...)
	fromPlain := r.optionalLines(l, colW,
		inv.Company.Address,
		utils.FormatPhoneNumber(inv.Company.Phone, r.phoneRegion()),
		inv.Company.Email,
		inv.Company.Website,
	)

	to := l.m.wrap(font("B", 10), encode(utils.FirstNonEmpty(inv.Client.Name, DefaultClientName)), colW)
	toPlain := r.optionalLines(l, colW, inv.Client.Address, inv.Client.Email)

	leftEnd := r.partyColumn(l, "From:", leftX, top, from, fromPlain)
	rightEnd := r.partyColumn(l, "Bill To:", rightX, top, to, toPlain)
	l.y = maxf(leftEnd, rightEnd) + 8
}

// optionalLines wraps each non-empty field; empty fields produce nothing.
func (r *Renderer) optionalLines(l *layout, width float64, fields ...string) []string {
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		out = append(out, l.m.wrap(font("", 10), encode(f), width)...)
	}
	return out
}

func (r *Renderer) partyColumn(l *layout, heading string, x, top float64, bold, plain []string) float64 {
	y := top + 5
	l.text(heading, x, y, font("B", 11), AlignLeft, colorMuted)
	y += 6.5
	for _, ln := range bold {
		l.text(ln, x, y, font("B", 10), AlignLeft, colorDark)
		y += 5
	}
	for _, ln := range plain {
		l.text(ln, x, y, font("", 10), AlignLeft, colorDark)
		y += 5
	}
	return y
}

func (l *layout) tableHeader() {
	y := l.y
	l.fillRect(Margin, y, contentWidth, tableHeaderHeight, colorHeader)
	f := font("B", 10)
	l.text("Description", Margin+cellPadding, y+8, f, AlignLeft, colorDark)
	l.text("Qty", Margin+descColWidth+qtyColWidth/2, y+8, f, AlignCenter, colorDark)
	l.text("Amount", Margin+contentWidth-cellPadding, y+8, f, AlignRight, colorDark)
	l.y += tableHeaderHeight
}

// itemRow is a laid-out but not yet drawn table row.
type itemRow struct {
	title  []string
	desc   []string
	qty    string
	amount string
	height float64
}

var (
	titleFont = font("B", 11)
	descFont  = font("", 9)
)

// measureRow derives the row height from the wrapped line counts so long
// descriptions never run into the next row.
func measureRow(m *measurer, item Item) itemRow {
	wrapWidth := descColWidth - 2*cellPadding
	row := itemRow{
		title:  m.wrap(titleFont, encode(item.Title), wrapWidth),
		qty:    fmt.Sprint(maxi(item.Quantity, 1)),
		amount: utils.FormatMoney(item.Amount.Mul(decimal.NewFromInt(int64(maxi(item.Quantity, 1))))),
	}
	if strings.TrimSpace(item.Description) != "" {
		row.desc = m.wrap(descFont, encode(item.Description), wrapWidth)
	}

	last := 8 + float64(len(row.title)-1)*lineHeight(titleFont.Size)
	if len(row.desc) > 0 {
		last += 5.5 + float64(len(row.desc)-1)*lineHeight(descFont.Size)
	}
	row.height = maxf(rowBaseHeight, last+5)
	return row
}

func (r *Renderer) itemsTable(l *layout, inv *Invoice) {
	l.ensure(tableHeaderHeight + rowBaseHeight)
	l.tableHeader()

	if len(inv.Items) == 0 {
		y := l.y
		l.text(NoItemsText, Margin+contentWidth/2, y+12, font("I", 10), AlignCenter, colorMuted)
		l.line(Margin, y+rowBaseHeight, Margin+contentWidth, y+rowBaseHeight, 0.2, colorBorder)
		l.y += rowBaseHeight
		return
	}

	for _, item := range inv.Items {
		row := measureRow(l.m, item)
		if row.height > maxRowHeight {
			l.splitRow(row)
			continue
		}
		if l.ensure(row.height) {
			l.tableHeader()
		}
		y := l.y
		baseline := y + 8
		for _, ln := range row.title {
			l.text(ln, Margin+cellPadding, baseline, titleFont, AlignLeft, colorDark)
			baseline += lineHeight(titleFont.Size)
		}
		if len(row.desc) > 0 {
			baseline += 5.5 - lineHeight(titleFont.Size)
			for _, ln := range row.desc {
				l.text(ln, Margin+cellPadding, baseline, descFont, AlignLeft, colorMuted)
				baseline += lineHeight(descFont.Size)
			}
		}
		l.text(row.qty, Margin+descColWidth+qtyColWidth/2, y+8, font("", 10), AlignCenter, colorDark)
		l.text(row.amount, Margin+contentWidth-cellPadding, y+8, font("", 10), AlignRight, colorDark)
		l.line(Margin, y+row.height, Margin+contentWidth, y+row.height, 0.2, colorBorder)
		l.y += row.height
	}
}

// maxRowHeight is the room for one row below the table header on a fresh page.
const maxRowHeight = contentBottom - Margin - tableHeaderHeight

type rowLine struct {
	text  string
	font  Font
	color Color
	gap   float64
}

// splitRow draws a row taller than a page. Its lines continue on the next
// page under a repeated table header; qty and amount appear on the first part only.
func (l *layout) splitRow(row itemRow) {
	lines := make([]rowLine, 0, len(row.title)+len(row.desc))
	for i, ln := range row.title {
		gap := lineHeight(titleFont.Size)
		if i == 0 {
			gap = 0
		}
		lines = append(lines, rowLine{ln, titleFont, colorDark, gap})
	}
	for i, ln := range row.desc {
		gap := lineHeight(descFont.Size)
		if i == 0 {
			gap = 5.5
		}
		lines = append(lines, rowLine{ln, descFont, colorMuted, gap})
	}

	if l.y+rowBaseHeight > contentBottom {
		l.newPage()
		l.tableHeader()
	}
	top := l.y
	l.text(row.qty, Margin+descColWidth+qtyColWidth/2, top+8, font("", 10), AlignCenter, colorDark)
	l.text(row.amount, Margin+contentWidth-cellPadding, top+8, font("", 10), AlignRight, colorDark)

	baseline := top + 8
	for i, ln := range lines {
		if i > 0 {
			next := baseline + ln.gap
			if next+cellPadding > contentBottom {
				bottom := baseline + cellPadding
				l.line(Margin, bottom, Margin+contentWidth, bottom, 0.2, colorBorder)
				l.newPage()
				l.tableHeader()
				top = l.y
				next = top + 8
			}
			baseline = next
		}
		l.text(ln.text, Margin+cellPadding, baseline, ln.font, AlignLeft, ln.color)
	}
	bottom := maxf(top+rowBaseHeight, baseline+cellPadding)
	l.line(Margin, bottom, Margin+contentWidth, bottom, 0.2, colorBorder)
	l.y = bottom
}

type totalLine struct {
	label string
	value string
}

func (r *Renderer) totals(l *layout, inv *Invoice) {
	lines := []totalLine{{"Subtotal:", utils.FormatMoney(inv.Subtotal)}}
	if inv.TaxRate.IsPositive() {
		lines = append(lines, totalLine{"Tax (" + utils.FormatRate(inv.TaxRate) + "%):", utils.FormatMoney(inv.TaxAmount)})
	}
	if inv.DiscountAmount.IsPositive() {
		lines = append(lines, totalLine{"Discount:", utils.FormatMoney(inv.DiscountAmount.Neg())})
	}

	l.y += 8
	l.ensureText(float64(len(lines))*7+17, 10)

	right := PageWidth - Margin
	labelX := right - totalsWidth
	for _, tl := range lines {
		l.text(tl.label, labelX, l.y, font("", 10), AlignLeft, colorMuted)
		l.text(tl.value, right, l.y, font("", 10), AlignRight, colorDark)
		l.y += 7
	}
	l.line(labelX, l.y-3, right, l.y-3, 0.5, colorBlue)
	l.y += 4
	l.text("Total:", labelX, l.y, font("B", 14), AlignLeft, colorBlue)
	l.text(utils.FormatMoney(inv.Total), right, l.y, font("B", 14), AlignRight, colorBlue)
	l.y += 10
}

func (r *Renderer) payment(l *layout, inv *Invoice, qr *Image) {
	p := inv.Payment
	var lines []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			lines = append(lines, label+" "+encode(v))
		}
	}
	add("Bank Name:", p.BankName)
	add("Account Holder:", p.AccountHolder)
	add("Account Number:", p.AccountNumber)
	add("IFSC Code:", p.IFSC)
	add("UPI ID:", p.UPIId)

	textWidth := contentWidth
	if qr != nil {
		textWidth = contentWidth - qrSize - 10
	}
	var terms []string
	if t := strings.TrimSpace(p.Terms); t != "" {
		terms = l.m.wrap(font("", 10), encode("Payment Terms: "+t), textWidth)
	}

	height := 13 + float64(len(lines)+len(terms))*5.5
	if qr != nil {
		height = maxf(height, qrSize+6)
	}
	l.y += 2
	l.ensure(height)

	top := l.y
	l.line(Margin, top, PageWidth-Margin, top, 0.3, colorBorder)
	y := top + 8
	l.text("Payment Details", Margin, y, font("B", 12), AlignLeft, colorDark)
	y += 7
	for _, ln := range append(lines, terms...) {
		l.text(ln, Margin, y, font("", 10), AlignLeft, colorDark)
		y += 5.5
	}
	if qr != nil {
		l.image(qr, PageWidth-Margin-qrSize, top+4, qrSize, qrSize)
	}
	l.y = top + height
}

func (r *Renderer) notes(l *layout, inv *Invoice) {
	notes := strings.TrimSpace(inv.Notes)
	if notes == "" {
		return
	}
	l.y += 6
	l.ensureText(7+5, 11)
	l.text("Notes:", Margin, l.y, font("B", 11), AlignLeft, colorDark)
	l.y += 6
	for _, ln := range l.m.wrap(font("", 10), encode(notes), contentWidth) {
		l.ensureText(5, 10)
		l.text(ln, Margin, l.y, font("", 10), AlignLeft, colorMuted)
		l.y += 5
	}
}

func (r *Renderer) footer(l *layout) {
	l.y += 10
	l.ensureText(6, 10)
	l.text(FooterText, PageWidth/2, l.y, font("I", 10), AlignCenter, colorMuted)
	l.y += 6
}

// Filename is "<number>.pdf", or "draft.pdf" when the number is blank.
func Filename(number string) string {
	name := strings.TrimSpace(number)
	var b strings.Builder
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'), r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ' || r == '/' || r == '\\':
			b.WriteByte('-')
		}
	}
	name = strings.Trim(b.String(), ".-")
	if name == "" {
		name = "draft"
	}
	return name + ".pdf"
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func maxi(a, b int) int {
	if a > b {
		return a
	}
	return b
}
