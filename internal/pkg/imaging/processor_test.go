package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestIconProducesSquarePNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 120))
	for x := 0; x < 300; x++ {
		for y := 0; y < 120; y++ {
			src.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var in bytes.Buffer
	if err := jpeg.Encode(&in, src, nil); err != nil {
		t.Fatalf("encode source: %v", err)
	}

	p := NewProcessor(0)
	out, err := p.Icon(in.Bytes())
	if err != nil {
		t.Fatalf("icon: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultIconSize || b.Dy() != DefaultIconSize {
		t.Fatalf("expected %dx%d, got %dx%d", DefaultIconSize, DefaultIconSize, b.Dx(), b.Dy())
	}
}

func TestIconRejectsGarbage(t *testing.T) {
	if _, err := NewProcessor(32).Icon([]byte("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}
