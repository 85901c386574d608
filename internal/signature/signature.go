// Package signature normalizes freehand-drawn and uploaded signatures
// into one transportable image artifact. Capture failures degrade to a
// nil artifact; callers treat nil as "no signature yet".
package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
)

const (
	DefaultWidth  = 400
	DefaultHeight = 160

	// MaxUploadBytes bounds uploaded signature images.
	MaxUploadBytes = 2 << 20
)

var (
	ErrUploadTooLarge    = errors.New("signature: upload exceeds size limit")
	ErrUnsupportedFormat = errors.New("signature: unsupported image format")
)

// Point is one sample of a pointer stroke in pad coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Artifact is the normalized signature image.
type Artifact struct {
	Data        []byte
	ContentType string
}

// DataURL renders the artifact as an embeddable data URL, the form
// sign-off blocks store.
func (a *Artifact) DataURL() string {
	if a == nil || len(a.Data) == 0 {
		return ""
	}
	return "data:" + a.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Pad is one drawing session. Strokes are append-only; the only way
// back is Clear.
type Pad struct {
	width   int
	height  int
	strokes [][]Point
}

// NewPad creates a drawing surface. Non-positive dimensions fall back
// to the defaults rather than failing.
func NewPad(width, height int) *Pad {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Pad{width: width, height: height}
}

// Stroke appends one drawn stroke. Strokes with fewer than two points
// are kept as dots.
func (p *Pad) Stroke(points []Point) {
	if len(points) == 0 {
		return
	}
	cp := make([]Point, len(points))
	copy(cp, points)
	p.strokes = append(p.strokes, cp)
}

// Clear resets the session to empty.
func (p *Pad) Clear() {
	p.strokes = nil
}

// Empty reports whether anything has been drawn.
func (p *Pad) Empty() bool {
	return len(p.strokes) == 0
}

// Capture rasterizes the stroke log to a PNG artifact. An empty pad or
// a failed encode yields nil, never an error the caller must branch on
// differently from "no signature".
func (p *Pad) Capture() *Artifact {
	if p.Empty() {
		return nil
	}

	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	ink := color.RGBA{R: 16, G: 24, B: 40, A: 255}
	for _, stroke := range p.strokes {
		p.drawStroke(img, stroke, ink)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return &Artifact{Data: buf.Bytes(), ContentType: "image/png"}
}

func (p *Pad) drawStroke(img *image.RGBA, stroke []Point, ink color.RGBA) {
	if len(stroke) == 1 {
		p.plot(img, stroke[0].X, stroke[0].Y, ink)
		return
	}
	for i := 1; i < len(stroke); i++ {
		p.drawSegment(img, stroke[i-1], stroke[i], ink)
	}
}

func (p *Pad) drawSegment(img *image.RGBA, from, to Point, ink color.RGBA) {
	dx := to.X - from.X
	dy := to.Y - from.Y
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		p.plot(img, from.X, from.Y, ink)
		return
	}
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		p.plot(img, from.X+dx*t, from.Y+dy*t, ink)
	}
}

// plot paints a 2x2 block so strokes read as pen width on the printed
// form.
func (p *Pad) plot(img *image.RGBA, x, y float64, ink color.RGBA) {
	px := int(math.Round(x))
	py := int(math.Round(y))
	for ox := 0; ox < 2; ox++ {
		for oy := 0; oy < 2; oy++ {
			if px+ox >= 0 && px+ox < p.width && py+oy >= 0 && py+oy < p.height {
				img.SetRGBA(px+ox, py+oy, ink)
			}
		}
	}
}

// FromUpload normalizes a user-uploaded image into an artifact. Only
// PNG and JPEG payloads are accepted.
func FromUpload(data []byte) (*Artifact, error) {
	if len(data) == 0 {
		return nil, ErrUnsupportedFormat
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrUploadTooLarge, len(data))
	}

	contentType := http.DetectContentType(data)
	switch contentType {
	case "image/png", "image/jpeg":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, contentType)
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	return &Artifact{Data: cp, ContentType: contentType}, nil
}
