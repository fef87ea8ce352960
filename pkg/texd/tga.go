package texd

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image types.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// TGA decoding errors.
var (
	ErrTGATruncated   = errors.New("TGA data truncated")
	ErrTGAUnsupported = errors.New("unsupported TGA format")
)

const tgaHeaderSize = 18

// DecodeTGA decodes uncompressed (type 2) and RLE (type 10) true-color TGA
// images with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, ErrTGATruncated
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped", ErrTGAUnsupported)
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("%w: type %d", ErrTGAUnsupported, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: %d bits per pixel", ErrTGAUnsupported, bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: empty %dx%d image", ErrTGAUnsupported, width, height)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, ErrTGATruncated
	}

	p := &tgaPixels{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		src:         data[offset:],
		width:       width,
		height:      height,
		bytesPP:     bpp / 8,
		topToBottom: topToBottom,
	}

	var err error
	if imageType == TGATypeUncompressed {
		err = p.decodeRaw()
	} else {
		err = p.decodeRLE()
	}
	if err != nil {
		return nil, err
	}
	return p.img, nil
}

type tgaPixels struct {
	img         *image.RGBA
	src         []byte
	pos         int
	width       int
	height      int
	bytesPP     int
	topToBottom bool
}

// next reads one BGR(A) pixel from the source.
func (p *tgaPixels) next() (color.RGBA, error) {
	if p.pos+p.bytesPP > len(p.src) {
		return color.RGBA{}, ErrTGATruncated
	}
	px := p.src[p.pos:]
	c := color.RGBA{R: px[2], G: px[1], B: px[0], A: 255}
	if p.bytesPP == 4 {
		c.A = px[3]
	}
	p.pos += p.bytesPP
	return c, nil
}

// set stores pixel i in file order, flipping bottom-up images.
func (p *tgaPixels) set(i int, c color.RGBA) {
	x := i % p.width
	y := i / p.width
	if !p.topToBottom {
		y = p.height - 1 - y
	}
	p.img.SetRGBA(x, y, c)
}

func (p *tgaPixels) decodeRaw() error {
	for i := 0; i < p.width*p.height; i++ {
		c, err := p.next()
		if err != nil {
			return err
		}
		p.set(i, c)
	}
	return nil
}

func (p *tgaPixels) decodeRLE() error {
	total := p.width * p.height
	for i := 0; i < total; {
		if p.pos >= len(p.src) {
			return ErrTGATruncated
		}
		packet := p.src[p.pos]
		p.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			// Run-length packet
			c, err := p.next()
			if err != nil {
				return err
			}
			for ; count > 0 && i < total; count-- {
				p.set(i, c)
				i++
			}
			continue
		}

		// Raw packet
		for ; count > 0 && i < total; count-- {
			c, err := p.next()
			if err != nil {
				return err
			}
			p.set(i, c)
			i++
		}
	}
	return nil
}
