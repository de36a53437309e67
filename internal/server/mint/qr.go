package mint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// qrImageSize is the side length, in pixels, of rendered QR codes.
const qrImageSize = 256

// QRDataURL renders content as a QR code PNG and wraps it in a
// data:image/png;base64 URL, the form persisted on the certificate row and
// embedded directly into certificate previews.
func QRDataURL(content string) (string, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("qr encoding error: %w", err)
	}

	scaled, err := barcode.Scale(code, qrImageSize, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("qr scaling error: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return "", fmt.Errorf("qr rendering error: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
