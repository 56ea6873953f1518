package render

import qrcode "github.com/skip2/go-qrcode"

// SkipQR renders QR codes with github.com/skip2/go-qrcode.
type SkipQR struct{}

func (SkipQR) Generate(content string, size int) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, size)
}
