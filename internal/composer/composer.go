// Package composer renders a segment image and its text into a 3:4 card.
package composer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

// Card layout, in pixels.
const (
	CanvasWidth  = 600
	CanvasHeight = 800

	padding      = 30
	cornerRadius = 20
	imageHeight  = CanvasHeight * 3 / 4
	imageWidth   = CanvasWidth - 2*padding

	titleGap    = 20
	contentGap  = 35
	lineHeight  = 22
	maxLines    = 3
	maxPreview  = 150
	lastLineCut = 30

	tagHeight  = 20
	tagRadius  = 10
	tagPadX    = 8
	tagPadY    = 3
	tagSpacing = 8
	tagBottom  = 25

	maxDownloadBytes = 20 << 20
)

var (
	canvasColor  = color.RGBA{0xFA, 0xFA, 0xFA, 0xFF}
	titleColor   = color.RGBA{0x2C, 0x2C, 0x2C, 0xFF}
	contentColor = color.RGBA{0x66, 0x66, 0x66, 0xFF}
	tagBgColor   = color.RGBA{0xF0, 0xF0, 0xF0, 0xFF}
	tagTextColor = color.RGBA{0x88, 0x88, 0x88, 0xFF}

	tags = []string{"#AI生成", "#创意分享", "#长文本"}
)

// Config holds configuration for the composer.
type Config struct {
	FontPath   string        // TTF/OTF font; the built-in bitmap font is used when empty
	Timeout    time.Duration // Image download timeout (default: 10s)
	Quality    int           // JPEG quality (default: 95)
	HTTPClient *http.Client  // Optional (tests)
}

type faces struct {
	title   font.Face
	content font.Face
	tag     font.Face
}

var bitmapFaces = faces{title: basicfont.Face7x13, content: basicfont.Face7x13, tag: basicfont.Face7x13}

// Composer renders cards. It is safe for concurrent use; opentype faces
// are not, so each render creates its own.
type Composer struct {
	client  *http.Client
	quality int
	font    *opentype.Font // nil means the built-in bitmap font
}

// New creates a new composer, loading the configured font if any.
func New(cfg Config) (*Composer, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = 95
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	c := &Composer{client: client, quality: cfg.Quality}
	if cfg.FontPath != "" {
		f, err := loadFont(cfg.FontPath)
		if err != nil {
			return nil, err
		}
		c.font = f
		if _, err := c.newFaces(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func loadFont(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
}

// newFaces returns faces owned by the caller.
func (c *Composer) newFaces() (faces, error) {
	if c.font == nil {
		return bitmapFaces, nil
	}

	face := func(size float64) (font.Face, error) {
		return opentype.NewFace(c.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	}

	var fs faces
	var err error
	if fs.title, err = face(20); err != nil {
		return faces{}, fmt.Errorf("title face: %w", err)
	}
	if fs.content, err = face(14); err != nil {
		return faces{}, fmt.Errorf("content face: %w", err)
	}
	if fs.tag, err = face(12); err != nil {
		return faces{}, fmt.Errorf("tag face: %w", err)
	}
	return fs, nil
}

// Compose renders a card and returns it as a JPEG data URI. On any failure
// it logs and returns imageURL unchanged.
func (c *Composer) Compose(ctx context.Context, imageURL, content, summary string) string {
	data, err := c.Render(ctx, imageURL, content, summary)
	if err != nil {
		slog.Warn("card composition failed, using original image", "error", err)
		return imageURL
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}

// Render draws the card and returns the encoded JPEG.
func (c *Composer) Render(ctx context.Context, imageURL, content, summary string) ([]byte, error) {
	src, err := c.load(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	fs, err := c.newFaces()
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, CanvasWidth, CanvasHeight))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(canvasColor), image.Point{}, draw.Src)

	drawImage(canvas, src)
	drawText(canvas, fs, content, summary)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// load fetches and decodes the source image. Data URIs are decoded in place.
func (c *Composer) load(ctx context.Context, imageURL string) (image.Image, error) {
	var raw []byte
	if strings.HasPrefix(imageURL, "data:") {
		comma := strings.Index(imageURL, ",")
		if comma < 0 || !strings.Contains(imageURL[:comma], ";base64") {
			return nil, fmt.Errorf("unsupported data URI")
		}
		decoded, err := base64.StdEncoding.DecodeString(imageURL[comma+1:])
		if err != nil {
			return nil, fmt.Errorf("decode data URI: %w", err)
		}
		raw = decoded
	} else {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("download image: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("download image: status %d", resp.StatusCode)
		}
		raw, err = io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// drawImage scales src to cover the image area, centre-crops it and pastes
// it with rounded corners.
func drawImage(canvas *image.RGBA, src image.Image) {
	dstRect := image.Rect(padding, padding, padding+imageWidth, padding+imageHeight)

	scaled := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, coverCrop(src.Bounds(), imageWidth, imageHeight), draw.Src, nil)

	mask := roundedMask(imageWidth, imageHeight, cornerRadius)
	draw.DrawMask(canvas, dstRect, scaled, image.Point{}, mask, image.Point{}, draw.Over)
}

func drawText(canvas *image.RGBA, fs faces, content, summary string) {
	textTop := padding + imageHeight + titleGap
	drawString(canvas, fs.title, titleColor, padding, textTop, "✨ "+summary)

	contentTop := textTop + contentGap
	lines := Wrap(previewText(content), fs.content, CanvasWidth-2*padding)
	for i, line := range lines[:min(maxLines, len(lines))] {
		y := contentTop + i*lineHeight
		if y+lineHeight >= CanvasHeight-padding-30 {
			break
		}
		if i == maxLines-1 && len(lines) > maxLines {
			line = cutRunes(line, lastLineCut) + "..."
		}
		drawString(canvas, fs.content, contentColor, padding, y, line)
	}

	tagTop := CanvasHeight - padding - tagBottom
	x := padding
	for _, tag := range tags {
		w := font.MeasureString(fs.tag, tag).Ceil() + 2*tagPadX
		if x+w > CanvasWidth-padding {
			break
		}
		pill := image.Rect(x, tagTop, x+w, tagTop+tagHeight)
		draw.DrawMask(canvas, pill, image.NewUniform(tagBgColor), image.Point{},
			roundedMask(w, tagHeight, tagRadius), image.Point{}, draw.Over)
		drawString(canvas, fs.tag, tagTextColor, x+tagPadX, tagTop+tagPadY, tag)
		x += w + tagSpacing
	}
}

// coverCrop returns the centred region of b with the aspect ratio w:h.
func coverCrop(b image.Rectangle, w, h int) image.Rectangle {
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 {
		return b
	}
	if sw*h > sh*w {
		cw := sh * w / h
		x0 := b.Min.X + (sw-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := sw * h / w
	y0 := b.Min.Y + (sh-ch)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
}

// roundedMask returns an opaque w×h mask with corners of radius r cut away.
func roundedMask(w, h, r int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r = min(r, w/2, h/2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if insideRounded(x, y, w, h, r) {
				mask.SetAlpha(x, y, color.Alpha{A: 0xFF})
			}
		}
	}
	return mask
}

func insideRounded(x, y, w, h, r int) bool {
	cx, cy := x, y
	switch {
	case x < r:
		cx = r
	case x >= w-r:
		cx = w - r - 1
	}
	switch {
	case y < r:
		cy = r
	case y >= h-r:
		cy = h - r - 1
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}

// drawString draws s with its top-left corner at (x, top).
func drawString(dst draw.Image, face font.Face, c color.Color, x, top int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, top+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

func previewText(text string) string {
	if utf8.RuneCountInString(text) > maxPreview {
		return cutRunes(text, maxPreview) + "..."
	}
	return text
}

func cutRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
