package texture

import (
	"fmt"
	"image"
)

// encode rasterizes img into the raw byte layout format expects. Only the
// four formats with a nonzero pixel size in the format table are accepted;
// any other format is an error, never a fallback to a default.
func encode(img image.Image, format PixelFormat) ([]byte, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*format.BytesPerPixel())

	switch format {
	case FormatA8R8G8B8:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := (y*w + x) * 4
				out[i+0] = byte(bl >> 8)
				out[i+1] = byte(g >> 8)
				out[i+2] = byte(r >> 8)
				out[i+3] = byte(a >> 8)
			}
		}
	case FormatR8G8B8:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := (y*w + x) * 3
				out[i+0] = byte(bl >> 8)
				out[i+1] = byte(g >> 8)
				out[i+2] = byte(r >> 8)
			}
		}
	case FormatR5G6B5:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				v := uint16(r>>11)<<11 | uint16(g>>10)<<5 | uint16(bl>>11)
				i := (y*w + x) * 2
				out[i+0] = byte(v)
				out[i+1] = byte(v >> 8)
			}
		}
	case FormatA4R4G4B4:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				v := uint16(a>>12)<<12 | uint16(r>>12)<<8 | uint16(g>>12)<<4 | uint16(bl>>12)
				i := (y*w + x) * 2
				out[i+0] = byte(v)
				out[i+1] = byte(v >> 8)
			}
		}
	default:
		return nil, fmt.Errorf("convert: %v has no encoder", format)
	}

	return out, nil
}
