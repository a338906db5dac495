// Package codec serializes rasterized crop buffers into compressed image
// byte streams. Encoders are pluggable: the editor only guarantees the
// buffer it submits is exactly frame-sized and fully opaque.
package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// Encoder turns a pixel buffer into an encoded byte stream.
type Encoder interface {
	// Encode serializes the image. It must not retain the buffer.
	Encode(img image.Image) ([]byte, error)
	// ContentType returns the MIME type of the encoded stream.
	ContentType() string
	// Ext returns the filename extension including the dot.
	Ext() string
}

// PNG encodes lossless PNG, the default export codec.
type PNG struct{}

// Encode implements Encoder.
func (PNG) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("codec: png encode: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType implements Encoder.
func (PNG) ContentType() string { return "image/png" }

// Ext implements Encoder.
func (PNG) Ext() string { return ".png" }

// JPEG encodes lossy JPEG at a fixed quality.
type JPEG struct {
	// Quality is the JPEG quality 1-100; zero selects DefaultJPEGQuality.
	Quality int
}

// DefaultJPEGQuality is used when a JPEG encoder is built without an
// explicit quality.
const DefaultJPEGQuality = 90

// Encode implements Encoder.
func (e JPEG) Encode(img image.Image) ([]byte, error) {
	q := e.Quality
	if q <= 0 || q > 100 {
		q = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("codec: jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

// ContentType implements Encoder.
func (JPEG) ContentType() string { return "image/jpeg" }

// Ext implements Encoder.
func (JPEG) Ext() string { return ".jpg" }

// ForName resolves a configuration name ("png", "jpeg") to an encoder.
// Empty input selects PNG.
func ForName(name string, jpegQuality int) (Encoder, error) {
	switch name {
	case "", "png":
		return PNG{}, nil
	case "jpeg", "jpg":
		return JPEG{Quality: jpegQuality}, nil
	}
	return nil, fmt.Errorf("codec: unknown encoder %q", name)
}
