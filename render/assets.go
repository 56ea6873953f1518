package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/mmdatafocus/invoice_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("invoice_backend/render")

const maxImagePixels = 600

// AssetLoader resolves a stored image reference to its raw bytes.
type AssetLoader interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// QRGenerator produces a PNG QR code for content.
type QRGenerator interface {
	Generate(content string, size int) ([]byte, error)
}

// Renderer lays out finalized invoices as pages of draw operations.
// Assets and QR are optional; without them the logo and QR are omitted.
type Renderer struct {
	Assets      AssetLoader
	QR          QRGenerator
	Logger      *logrus.Logger
	PhoneRegion string
	Now         func() time.Time
}

// Render loads the optional images concurrently, then lays the document out
// in a fixed order. Asset failures never fail the render; a cancelled ctx does.
func (r *Renderer) Render(ctx context.Context, inv *Invoice) (*Document, error) {
	if inv == nil {
		return nil, fmt.Errorf("render: nil invoice")
	}
	ctx, span := tracer.Start(ctx, "Renderer.Render")
	defer span.End()
	span.SetAttributes(
		attribute.String("invoice.number", inv.Number),
		attribute.Int("invoice.items", len(inv.Items)),
	)

	var slots [2]*Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slots[0] = r.loadImage(gctx, "logo", inv.LogoRef)
		return nil
	})
	if !inv.Estimate && inv.Payment.HasDetails() {
		g.Go(func() error {
			slots[1] = r.loadQR(gctx, inv)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.compose(ctx, inv, assets{logo: slots[0], qr: slots[1]})
}

func (r *Renderer) loadImage(ctx context.Context, name, ref string) *Image {
	ref = strings.TrimSpace(ref)
	if ref == "" || r.Assets == nil {
		return nil
	}
	data, err := r.Assets.Fetch(ctx, ref)
	if err != nil {
		r.assetFailed(ref, err)
		return nil
	}
	img, err := decodeImage(name, data)
	if err != nil {
		r.assetFailed(ref, err)
		return nil
	}
	return img
}

func (r *Renderer) loadQR(ctx context.Context, inv *Invoice) *Image {
	if ref := strings.TrimSpace(inv.Payment.QRRef); ref != "" {
		return r.loadImage(ctx, "qr", ref)
	}
	upi := strings.TrimSpace(inv.Payment.UPIId)
	if r.QR == nil || upi == "" {
		return nil
	}
	content := UPIPaymentURI(upi, utils.FirstNonEmpty(inv.Payment.AccountHolder, inv.Company.Name), inv.Total.StringFixed(2))
	data, err := r.QR.Generate(content, 256)
	if err != nil {
		r.assetFailed("upi:"+upi, err)
		return nil
	}
	img, err := decodeImage("qr", data)
	if err != nil {
		r.assetFailed("upi:"+upi, err)
		return nil
	}
	return img
}

// UPIPaymentURI builds the upi://pay link encoded in generated QR codes.
func UPIPaymentURI(upiId, payee, amount string) string {
	pn := strings.ReplaceAll(url.QueryEscape(strings.TrimSpace(payee)), "+", "%20")
	return "upi://pay?pa=" + url.QueryEscape(upiId) + "&pn=" + pn + "&am=" + amount + "&cu=INR"
}

// decodeImage normalizes any supported format into a bounded PNG.
func decodeImage(name string, data []byte) (*Image, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if b := src.Bounds(); b.Dx() > maxImagePixels || b.Dy() > maxImagePixels {
		src = imaging.Fit(src, maxImagePixels, maxImagePixels, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.PNG); err != nil {
		return nil, err
	}
	return newImage(name, src, buf.Bytes()), nil
}

func newImage(name string, src image.Image, png []byte) *Image {
	b := src.Bounds()
	return &Image{Name: name, Data: png, Width: b.Dx(), Height: b.Dy()}
}

func (r *Renderer) assetFailed(ref string, err error) {
	if r.Logger == nil {
		return
	}
	aerr := &utils.AssetLoadError{Ref: truncateRef(ref), Err: err}
	r.Logger.WithFields(logrus.Fields{
		"module":   "render",
		"funcName": "loadImage",
	}).Warn(aerr.Error())
}

// data URIs can be megabytes long
func truncateRef(ref string) string {
	if len(ref) > 80 {
		return ref[:80] + "..."
	}
	return ref
}

func (r *Renderer) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Renderer) phoneRegion() string {
	if r.PhoneRegion != "" {
		return r.PhoneRegion
	}
	return "IN"
}
