package signature

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestCaptureEmptyPadIsNil(t *testing.T) {
	pad := NewPad(0, 0)
	if pad.Capture() != nil {
		t.Error("empty pad produced an artifact")
	}
}

func TestCaptureRendersStrokes(t *testing.T) {
	pad := NewPad(100, 40)
	pad.Stroke([]Point{{X: 5, Y: 5}, {X: 50, Y: 20}, {X: 90, Y: 10}})

	artifact := pad.Capture()
	if artifact == nil {
		t.Fatal("capture returned nil for a drawn pad")
	}
	if artifact.ContentType != "image/png" {
		t.Errorf("content type = %s", artifact.ContentType)
	}

	img, err := png.Decode(bytes.NewReader(artifact.Data))
	if err != nil {
		t.Fatalf("artifact is not valid png: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 100, 40) {
		t.Errorf("bounds = %v", img.Bounds())
	}

	inked := 0
	for x := 0; x < 100; x++ {
		for y := 0; y < 40; y++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Error("no pixels inked")
	}
}

func TestStrokesAreAppendOnlyUntilClear(t *testing.T) {
	pad := NewPad(50, 50)
	pad.Stroke([]Point{{X: 1, Y: 1}, {X: 10, Y: 10}})
	pad.Stroke([]Point{{X: 20, Y: 20}})
	if pad.Empty() {
		t.Fatal("pad empty after strokes")
	}

	pad.Clear()
	if !pad.Empty() {
		t.Error("clear did not reset the pad")
	}
	if pad.Capture() != nil {
		t.Error("cleared pad still captures")
	}
}

func TestStrokeCopiesInput(t *testing.T) {
	pad := NewPad(50, 50)
	points := []Point{{X: 1, Y: 1}, {X: 2, Y: 2}}
	pad.Stroke(points)
	points[0].X = 999

	artifact := pad.Capture()
	if artifact == nil {
		t.Fatal("capture failed")
	}
	// Out-of-bounds plots are clipped, not fatal; the artifact still
	// renders the original in-bounds stroke.
}

func TestOutOfBoundsPointsAreClipped(t *testing.T) {
	pad := NewPad(20, 20)
	pad.Stroke([]Point{{X: -50, Y: -50}, {X: 100, Y: 100}})
	if pad.Capture() == nil {
		t.Error("out-of-bounds stroke broke capture")
	}
}

func TestDataURL(t *testing.T) {
	pad := NewPad(10, 10)
	pad.Stroke([]Point{{X: 2, Y: 2}, {X: 8, Y: 8}})

	url := pad.Capture().DataURL()
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("data url prefix wrong: %.40s", url)
	}

	var none *Artifact
	if none.DataURL() != "" {
		t.Error("nil artifact produced a data url")
	}
}

func TestFromUploadAcceptsPNG(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.Black)
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	artifact, err := FromUpload(buf.Bytes())
	if err != nil {
		t.Fatalf("FromUpload failed: %v", err)
	}
	if artifact.ContentType != "image/png" {
		t.Errorf("content type = %s", artifact.ContentType)
	}
}

func TestFromUploadRejectsNonImage(t *testing.T) {
	_, err := FromUpload([]byte("%PDF-1.4 not an image"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	_, err = FromUpload(nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat for empty payload, got %v", err)
	}
}

func TestFromUploadRejectsOversizedPayload(t *testing.T) {
	big := make([]byte, MaxUploadBytes+1)
	// valid png magic so the size check is what trips
	copy(big, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	_, err := FromUpload(big)
	if !errors.Is(err, ErrUploadTooLarge) {
		t.Errorf("expected ErrUploadTooLarge, got %v", err)
	}
}
