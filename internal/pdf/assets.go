package pdf

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/phpdave11/gofpdf"
	"golang.org/x/image/webp"
)

const (
	brandFamily = "brand"
	coreFamily  = "Helvetica"
)

// setupFonts registers the configured TrueType fonts. Without them, or when
// one cannot be loaded, Helvetica is used through the cp1252 translator.
func (c *canvas) setupFonts(regular, bold string) {
	c.family = coreFamily
	c.utf8 = false
	c.tr = c.pdf.UnicodeTranslatorFromDescriptor("cp1252")

	if regular == "" {
		return
	}
	reg, err := os.ReadFile(regular)
	if err != nil {
		c.logger.Warn("pdf font unavailable, using Helvetica", "path", regular, "error", err)
		return
	}
	if !isTrueType(reg) {
		c.logger.Warn("pdf font is not TrueType, using Helvetica", "path", regular)
		return
	}
	boldBytes := reg
	if bold != "" {
		b, err := os.ReadFile(bold)
		switch {
		case err != nil:
			c.logger.Warn("pdf bold font unavailable, using regular", "path", bold, "error", err)
		case !isTrueType(b):
			c.logger.Warn("pdf bold font is not TrueType, using regular", "path", bold)
		default:
			boldBytes = b
		}
	}
	c.pdf.AddUTF8FontFromBytes(brandFamily, "", reg)
	c.pdf.AddUTF8FontFromBytes(brandFamily, "B", boldBytes)
	if err := c.pdf.Error(); err != nil {
		c.pdf.ClearError()
		c.logger.Warn("pdf font rejected, using Helvetica", "path", regular, "error", err)
		return
	}
	c.family = brandFamily
	c.utf8 = true
	c.tr = func(s string) string { return s }
}

// isTrueType checks the sfnt version of a font file. The UTF-8 font parser
// does not survive arbitrary bytes.
func isTrueType(b []byte) bool {
	if len(b) < 12 {
		return false
	}
	return bytes.Equal(b[:4], []byte{0, 1, 0, 0}) || string(b[:4]) == "true"
}

// logo is a registered raster image or a parsed SVG.
type logo struct {
	name string
	svg  *gofpdf.SVGBasicType
	w, h float64
}

// loadLogo resolves the configured logo. Any failure omits the logo.
func (c *canvas) loadLogo(path string) *logo {
	if path == "" {
		return nil
	}
	l, err := c.registerLogo(path)
	if err != nil {
		c.pdf.ClearError()
		c.logger.Warn("pdf logo omitted", "path", path, "error", err)
		return nil
	}
	return l
}

func (c *canvas) registerLogo(path string) (*logo, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".svg" {
		sig, err := gofpdf.SVGBasicFileParse(path)
		if err != nil {
			return nil, err
		}
		if sig.Wd <= 0 || sig.Ht <= 0 {
			return nil, fmt.Errorf("svg without dimensions")
		}
		return fitLogo(&logo{svg: &sig, w: sig.Wd, h: sig.Ht}), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var imageType string
	switch ext {
	case ".png":
		imageType = "PNG"
	case ".jpg", ".jpeg":
		imageType = "JPG"
	case ".gif":
		imageType = "GIF"
	case ".webp":
		img, err := webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode webp: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("re-encode webp: %w", err)
		}
		data, imageType = buf.Bytes(), "PNG"
	default:
		return nil, fmt.Errorf("unsupported logo format %q", ext)
	}

	info := c.pdf.RegisterImageOptionsReader("logo", gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if err := c.pdf.Error(); err != nil {
		return nil, err
	}
	if info == nil || info.Width() <= 0 || info.Height() <= 0 {
		return nil, fmt.Errorf("empty image")
	}
	return fitLogo(&logo{name: "logo", w: info.Width(), h: info.Height()}), nil
}

// fitLogo scales the natural size into the logo box, keeping the ratio.
func fitLogo(l *logo) *logo {
	scale := logoMaxH / l.h
	if l.w*scale > logoMaxW {
		scale = logoMaxW / l.w
	}
	l.w, l.h = l.w*scale, l.h*scale
	return l
}

func (c *canvas) drawLogo(l *logo, x, y float64) {
	if l.svg != nil {
		c.pdf.SetXY(x, y)
		c.pdf.SetLineWidth(0.3)
		c.pdf.SetDrawColor(c.color[0], c.color[1], c.color[2])
		c.pdf.SVGBasicWrite(l.svg, l.w/l.svg.Wd)
		return
	}
	c.pdf.ImageOptions(l.name, x, y, l.w, l.h, false, gofpdf.ImageOptions{}, 0, "")
}

// qrPayload fills the configured template. An empty template disables the code.
func qrPayload(template string, fields map[string]string) string {
	if strings.TrimSpace(template) == "" {
		return ""
	}
	pairs := make([]string, 0, 2*len(fields))
	for k, v := range fields {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// registerQR encodes payload as a PNG QR code named "qr".
func (c *canvas) registerQR(payload string) bool {
	code, err := qr.Encode(payload, qr.M, qr.Auto)
	if err == nil {
		code, err = barcode.Scale(code, 256, 256)
	}
	var buf bytes.Buffer
	if err == nil {
		err = png.Encode(&buf, code)
	}
	if err == nil {
		c.pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
		err = c.pdf.Error()
	}
	if err != nil {
		c.pdf.ClearError()
		c.logger.Warn("pdf payment qr omitted", "error", err)
		return false
	}
	return true
}

// parseColor reads #RRGGBB, falling back to the default navy.
func parseColor(s string, logger *slog.Logger) [3]int {
	def := [3]int{0x1E, 0x3A, 0x5F}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		if s != "" {
			logger.Warn("pdf brand color ignored", "color", s)
		}
		return def
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		logger.Warn("pdf brand color ignored", "color", s)
		return def
	}
	return [3]int{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}
}
