package codec

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 300, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 300; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 40, A: 255})
		}
	}
	return img
}

// TestPNGRoundTrip decodes an encoded buffer back and checks dimensions and
// a few pixels survive the lossless codec exactly.
func TestPNGRoundTrip(t *testing.T) {
	src := testImage()
	data, err := PNG{}.Encode(src)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if b := decoded.Bounds(); b.Dx() != 300 || b.Dy() != 400 {
		t.Errorf("bounds = %v, want 300x400", b)
	}
	for _, p := range [][2]int{{0, 0}, {150, 200}, {299, 399}} {
		r, g, b, a := decoded.At(p[0], p[1]).RGBA()
		want := src.RGBAAt(p[0], p[1])
		if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B || uint8(a>>8) != want.A {
			t.Errorf("pixel %v changed through PNG round trip", p)
		}
	}
}

// TestJPEGEncodes checks the lossy codec produces a decodable stream of the
// right size, at default and explicit qualities.
func TestJPEGEncodes(t *testing.T) {
	for _, q := range []int{0, 50, 100} {
		data, err := JPEG{Quality: q}.Encode(testImage())
		if err != nil {
			t.Fatalf("Encode(q=%d): %v", q, err)
		}
		decoded, format, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("Decode(q=%d): %v", q, err)
		}
		if format != "jpeg" {
			t.Errorf("format = %q, want jpeg", format)
		}
		if b := decoded.Bounds(); b.Dx() != 300 || b.Dy() != 400 {
			t.Errorf("bounds = %v, want 300x400", b)
		}
	}
}

// TestForName resolves configuration names, including the default.
func TestForName(t *testing.T) {
	tests := []struct {
		name        string
		wantType    string
		wantExt     string
		wantErr     bool
	}{
		{name: "", wantType: "image/png", wantExt: ".png"},
		{name: "png", wantType: "image/png", wantExt: ".png"},
		{name: "jpeg", wantType: "image/jpeg", wantExt: ".jpg"},
		{name: "jpg", wantType: "image/jpeg", wantExt: ".jpg"},
		{name: "webp", wantErr: true},
	}
	for _, tt := range tests {
		enc, err := ForName(tt.name, 0)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ForName(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ForName(%q): %v", tt.name, err)
		}
		if enc.ContentType() != tt.wantType || enc.Ext() != tt.wantExt {
			t.Errorf("ForName(%q) = %s %s, want %s %s",
				tt.name, enc.ContentType(), enc.Ext(), tt.wantType, tt.wantExt)
		}
	}
}
