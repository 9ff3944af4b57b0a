// Package qrcode builds the WhatsApp deep links printed on franchise QR codes
// and renders them as PNG data URLs.
package qrcode

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	goqrcode "github.com/skip2/go-qrcode"

	"gitlab.com/timkado/api/clinic-case-service/internal/model"
)

const (
	imageSize     = 300
	dataURLPrefix = "data:image/png;base64,"
)

// Generator renders QR codes that open a WhatsApp chat with number.
type Generator struct {
	number string
}

func NewGenerator(number string) *Generator {
	return &Generator{number: strings.TrimSpace(number)}
}

// IntakeMessage is the chat text pre-filled when a patient scans the code.
// The inbound webhook recognises the franchise id and location in it.
func IntakeMessage(franchiseID, location string) string {
	return fmt.Sprintf("Hello, I have an issue at Franchise ID: %s, Location: %s. Here is my problem:", franchiseID, location)
}

// NewCode returns FRAN-{franchiseID}-{unix millis}.
func NewCode(franchiseID string, now time.Time) string {
	return fmt.Sprintf("FRAN-%s-%d", franchiseID, now.UnixMilli())
}

// IntakeURL is the wa.me link encoded in the QR image.
func (g *Generator) IntakeURL(franchiseID, location string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", g.number, escapeComponent(IntakeMessage(franchiseID, location)))
}

// WhatsAppLink is the short link stored alongside the code.
func (g *Generator) WhatsAppLink(code string) string {
	return fmt.Sprintf("https://wa.me/%s?text=QRCODE:%s", g.number, code)
}

// DataURL encodes content as a high-recovery PNG data URL.
func (g *Generator) DataURL(content string) (string, error) {
	png, err := goqrcode.Encode(content, goqrcode.High, imageSize)
	if err != nil {
		return "", fmt.Errorf("encode qr image: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// Build fills code, link and image for franchise. The caller persists it.
func (g *Generator) Build(franchise *model.Franchise, now time.Time) (*model.QRCode, error) {
	qr := &model.QRCode{FranchiseID: franchise.ID, IsActive: true}
	if err := g.Render(qr, franchise, now); err != nil {
		return nil, err
	}
	return qr, nil
}

// Render regenerates code, link and image of qr for franchise.
func (g *Generator) Render(qr *model.QRCode, franchise *model.Franchise, now time.Time) error {
	image, err := g.DataURL(g.IntakeURL(franchise.ID, franchise.FullAddress()))
	if err != nil {
		return err
	}
	qr.FranchiseID = franchise.ID
	qr.Code = NewCode(franchise.ID, now)
	qr.WhatsappLink = g.WhatsAppLink(qr.Code)
	qr.QRImage = image
	return nil
}

func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
