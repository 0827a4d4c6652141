// Package fingerprint computes average-hash image fingerprints and compares
// them by Hamming distance.
package fingerprint

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/visual-search/internal/constants"
)

const (
	// DefaultWidth and DefaultHeight give the canonical 8x8 = 64 bit hash.
	DefaultWidth  = 8
	DefaultHeight = 8
)

// Decoder turns encoded image bytes into a pixel grid.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(data []byte) (image.Image, error)

// Decode calls f(data).
func (f DecoderFunc) Decode(data []byte) (image.Image, error) {
	return f(data)
}

// ImageDecoder decodes every format registered with the image package:
// JPEG, PNG and GIF from the standard library plus BMP, TIFF and WebP.
// The header is checked against MaxPixels before the raster is allocated.
type ImageDecoder struct {
	MaxPixels int // zero means constants.MaxImagePixels
}

// Decode implements Decoder.
func (d ImageDecoder) Decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	limit := d.MaxPixels
	if limit <= 0 {
		limit = constants.MaxImagePixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(limit) {
		return nil, &ImageTooLargeError{Width: cfg.Width, Height: cfg.Height, MaxPixels: limit}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeError means the input bytes are not a recognized raster image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedFormatError means the image decoded but has zero area.
type UnsupportedFormatError struct {
	Width  int
	Height int
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported image: degenerate dimensions %dx%d", e.Width, e.Height)
}

// ImageTooLargeError means the image header declares more pixels than the
// decoder accepts.
type ImageTooLargeError struct {
	Width     int
	Height    int
	MaxPixels int
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("image too large: %dx%d exceeds %d pixels", e.Width, e.Height, e.MaxPixels)
}

// IsInputError reports whether err was caused by unusable image input
// (as opposed to an internal fault).
func IsInputError(err error) bool {
	var decodeErr *DecodeError
	var formatErr *UnsupportedFormatError
	var sizeErr *ImageTooLargeError
	return errors.As(err, &decodeErr) || errors.As(err, &formatErr) || errors.As(err, &sizeErr)
}

// Generator computes average-hash fingerprints. It holds no mutable state and
// is safe for concurrent use.
type Generator struct {
	width   int
	height  int
	decoder Decoder
}

// Option configures a Generator.
type Option func(*Generator)

// WithSize sets the reduced grid size. The fingerprint has width*height bits.
func WithSize(width, height int) Option {
	return func(g *Generator) {
		g.width = width
		g.height = height
	}
}

// WithDecoder replaces the default ImageDecoder.
func WithDecoder(d Decoder) Option {
	return func(g *Generator) {
		g.decoder = d
	}
}

// NewGenerator creates a generator. The grid defaults to 8x8.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		width:   DefaultWidth,
		height:  DefaultHeight,
		decoder: ImageDecoder{},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.width <= 0 || g.height <= 0 {
		return nil, fmt.Errorf("invalid hash size %dx%d", g.width, g.height)
	}
	// The hex exchange format needs whole nibbles.
	if (g.width*g.height)%4 != 0 {
		return nil, fmt.Errorf("hash size %dx%d: bit count must be a multiple of 4", g.width, g.height)
	}
	if g.decoder == nil {
		return nil, errors.New("decoder is required")
	}
	return g, nil
}

// Bits returns the length of fingerprints produced by g.
func (g *Generator) Bits() int {
	return g.width * g.height
}

// Generate decodes imageData and returns its fingerprint.
func (g *Generator) Generate(imageData []byte) (Fingerprint, error) {
	img, err := g.decoder.Decode(imageData)
	if err != nil {
		var sizeErr *ImageTooLargeError
		if errors.As(err, &sizeErr) {
			return Fingerprint{}, sizeErr
		}
		return Fingerprint{}, &DecodeError{Err: err}
	}
	if img == nil {
		return Fingerprint{}, &DecodeError{Err: errors.New("decoder returned no image")}
	}
	return g.GenerateImage(img)
}

// GenerateImage fingerprints an already decoded image.
//
// The image is stretched to the grid, reduced to 8-bit luminance, and each
// sample becomes a 1 bit when it is >= the mean luminance. A uniform image
// therefore hashes to all ones.
func (g *Generator) GenerateImage(img image.Image) (Fingerprint, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return Fingerprint{}, &UnsupportedFormatError{Width: bounds.Dx(), Height: bounds.Dy()}
	}

	resized := resizeImage(img, g.width, g.height)
	luma := toGrayscale(resized)

	var sum float64
	for _, v := range luma {
		sum += float64(v)
	}
	mean := sum / float64(len(luma))

	bitset := make([]bool, len(luma))
	for i, v := range luma {
		bitset[i] = float64(v) >= mean
	}
	return FromBits(bitset), nil
}

// resizeImage stretches an image to exactly width x height, ignoring the
// source aspect ratio.
func resizeImage(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// toGrayscale returns the ITU-R BT.601 luminance of every pixel in row-major
// order.
func toGrayscale(img *image.RGBA) []uint8 {
	bounds := img.Bounds()
	luma := make([]uint8, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.GrayModel.Convert(img.RGBAAt(x, y)).(color.Gray)
			luma = append(luma, gray.Y)
		}
	}
	return luma
}
