package texture

// PixelFormat is the wire value stored in an archive's texture header.
type PixelFormat byte

const (
	FormatUnknown   PixelFormat = 0
	FormatA8R8G8B8  PixelFormat = 1
	FormatUnused2   PixelFormat = 2
	FormatR5G6B5    PixelFormat = 3
	FormatR8G8B8    PixelFormat = 4
	FormatA4R4G4B4  PixelFormat = 5
)

// formatInfo describes how to interpret the bytes of one pixel format.
// Indexed by PixelFormat the way the teacher's ppu package indexes a
// fixed palette array by color index.
type formatInfo struct {
	bytesPerPixel int
	name          string
}

var formats = [6]formatInfo{
	FormatUnknown:  {0, "unknown"},
	FormatA8R8G8B8: {4, "A8R8G8B8"},
	FormatUnused2:  {0, "reserved"},
	FormatR5G6B5:   {2, "R5G6B5"},
	FormatR8G8B8:   {3, "R8G8B8"},
	FormatA4R4G4B4: {2, "A4R4G4B4"},
}

func (f PixelFormat) valid() bool {
	return f >= 0 && int(f) < len(formats) && formats[f].bytesPerPixel > 0
}

// BytesPerPixel returns the storage width of f, or 0 if f is not a usable
// format.
func (f PixelFormat) BytesPerPixel() int {
	if !f.valid() {
		return 0
	}
	return formats[f].bytesPerPixel
}

func (f PixelFormat) String() string {
	if int(f) >= len(formats) {
		return "invalid"
	}
	return formats[f].name
}

// lowColor maps a format to its 16-bit-or-narrower equivalent, used when
// Store.ForceLowColor is set. Formats already narrow map to themselves.
func (f PixelFormat) lowColor() PixelFormat {
	switch f {
	case FormatA8R8G8B8:
		return FormatA4R4G4B4
	case FormatR8G8B8:
		return FormatR5G6B5
	default:
		return f
	}
}
