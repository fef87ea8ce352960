// Package texd provides the raw texture (TEXD) resource and TGA import.
package texd

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/Faultbox/primio/pkg/rid"
)

// ResourceType is the four character type tag of raw texture resources.
const ResourceType = "TEXD"

// TEXD format errors.
var (
	ErrInvalidMagic = errors.New("invalid TEXD magic: expected 'TEXD'")
	ErrTruncated    = errors.New("truncated TEXD data")
)

const magic = "TEXD"

// Format identifies the pixel layout of a texture.
type Format uint16

// Pixel formats.
const (
	FormatRGBA8 Format = 1
)

// Texture is a raw texture resource.
type Texture struct {
	ID     rid.ID
	Format Format
	Width  uint16
	Height uint16
	Pixels []byte
}

// FromImage wraps an RGBA image as a texture.
func FromImage(id rid.ID, img *image.RGBA) (*Texture, error) {
	b := img.Bounds()
	if b.Dx() > 0xFFFF || b.Dy() > 0xFFFF {
		return nil, fmt.Errorf("texture %s: %dx%d exceeds maximum size", id, b.Dx(), b.Dy())
	}

	pixels := make([]byte, 0, b.Dx()*b.Dy()*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		pixels = append(pixels, row...)
	}

	return &Texture{
		ID:     id,
		Format: FormatRGBA8,
		Width:  uint16(b.Dx()),
		Height: uint16(b.Dy()),
		Pixels: pixels,
	}, nil
}

// LoadTGAFile reads a TGA file as a texture with the given id.
func LoadTGAFile(id rid.ID, path string) (*Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TGA file: %w", err)
	}
	img, err := DecodeTGA(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return FromImage(id, img)
}

// Encode serializes the texture. Pixel data is zlib compressed.
func (t *Texture) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(magic)
	binary.Write(&buf, binary.LittleEndian, t.Format)
	binary.Write(&buf, binary.LittleEndian, t.Width)
	binary.Write(&buf, binary.LittleEndian, t.Height)

	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(t.Pixels); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Parse parses TEXD data. The returned texture has a zero ID.
func Parse(data []byte) (*Texture, error) {
	if len(data) < 10 {
		return nil, ErrTruncated
	}
	if string(data[:4]) != magic {
		return nil, ErrInvalidMagic
	}

	t := &Texture{
		Format: Format(binary.LittleEndian.Uint16(data[4:])),
		Width:  binary.LittleEndian.Uint16(data[6:]),
		Height: binary.LittleEndian.Uint16(data[8:]),
	}

	zr, err := zlib.NewReader(bytes.NewReader(data[10:]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	defer zr.Close()

	t.Pixels = make([]byte, int(t.Width)*int(t.Height)*4)
	if _, err := io.ReadFull(zr, t.Pixels); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return t, nil
}
