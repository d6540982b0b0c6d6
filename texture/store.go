package texture

import (
	"fmt"
	"image"
	_ "image/png"
	"io"

	xdraw "golang.org/x/image/draw"

	"github.com/GensokyoClub/th06/errs"
)

// MaxSlots bounds how many textures can be resident at once, mirroring the
// archive format's fixed-size texture table.
const MaxSlots = 256

// Handle identifies a texture uploaded to the graphics backend. It is
// opaque to this package; the backend decides what it means.
type Handle uint32

// Texture is one GPU-resident image plus the bookkeeping needed to detect
// a stale reference into this store.
type Texture struct {
	Handle       Handle
	Width        int
	Height       int
	Format       PixelFormat
	GenerationID uint64
	name         string
}

// Uploader is the subset of a graphics backend the store needs in order to
// create and fill textures. Kept narrow so tests can supply a fake.
type Uploader interface {
	CreateTexture(w, h int, format PixelFormat) (Handle, error)
	UploadTexture(handle Handle, w, h int, format PixelFormat, pixels []byte) error
	DeleteTexture(handle Handle)
}

// OpenFunc resolves a texture name to its backing bytes. Production code
// points this at an archive's virtual filesystem; tests point it at an
// in-memory map.
type OpenFunc func(name string) (io.ReadCloser, error)

// Store owns every resident texture and the slot free-list.
type Store struct {
	backend Uploader
	open    OpenFunc
	slots   [MaxSlots]*Texture
	free    []int
	gen     uint64

	// ForceLowColor downgrades every loaded format to its narrow
	// equivalent before conversion, mirroring config.Options.Force16Bit.
	ForceLowColor bool

	// ReblitOnMismatch controls behavior when a decoded image's
	// dimensions differ from the archive-declared texture size: when
	// true the image is scaled into an archive-sized surface before
	// upload; when false the declared size is trusted and the image is
	// uploaded as-is, left to the backend to clip or stretch. See Open
	// Question 1 in the spec's design notes.
	ReblitOnMismatch bool

	dummy Handle
}

// New creates a Store backed by uploader, resolving texture names to
// readers via open.
func New(backend Uploader, open OpenFunc) (*Store, error) {
	s := &Store{
		backend: backend,
		open:    open,
	}
	for i := range s.slots {
		s.free = append(s.free, len(s.slots)-1-i)
	}

	h, err := backend.CreateTexture(1, 1, FormatA8R8G8B8)
	if err != nil {
		return nil, fmt.Errorf("texture: new: unable to create dummy texture: %w", err)
	}
	if err := backend.UploadTexture(h, 1, 1, FormatA8R8G8B8, []byte{0xff, 0xff, 0xff, 0xff}); err != nil {
		return nil, fmt.Errorf("texture: new: unable to upload dummy texture: %w", err)
	}
	s.dummy = h
	return s, nil
}

// Dummy returns the 1x1 opaque-white fallback texture bound whenever a
// draw call has no real texture to sample.
func (s *Store) Dummy() Handle { return s.dummy }

// AllocSlot reserves and returns a free slot index for callers that do not
// track their own texture indices.
func (s *Store) AllocSlot() (int, error) {
	return s.allocSlot()
}

func (s *Store) allocSlot() (int, error) {
	if len(s.free) == 0 {
		return 0, fmt.Errorf("texture: alloc: %w", errs.ErrOutOfSlots)
	}
	idx := s.free[len(s.free)-1]
	s.free = s.free[:len(s.free)-1]
	return idx, nil
}

// Load decodes the named image, uploads it under format, stores it in
// slot idx, and returns the new Texture. width and height are the archive-declared
// dimensions; if they disagree with the decoded image and
// ReblitOnMismatch is set, the image is resampled to fit.
func (s *Store) Load(idx int, name string, format PixelFormat, width, height int) (*Texture, error) {
	if idx < 0 || idx >= len(s.slots) {
		return nil, fmt.Errorf("texture: load %q: slot %d: %w", name, idx, errs.ErrOutOfSlots)
	}
	if !format.valid() {
		return nil, fmt.Errorf("texture: load %q: format %v: %w", name, format, errs.ErrUnsupportedPixelFormat)
	}

	r, err := s.open(name)
	if err != nil {
		return nil, fmt.Errorf("texture: load %q: %w: %s", name, errs.ErrIoError, err)
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("texture: load %q: %w: %s", name, errs.ErrCorruptArchive, err)
	}

	if width <= 0 {
		width = img.Bounds().Dx()
	}
	if height <= 0 {
		height = img.Bounds().Dy()
	}

	if s.ReblitOnMismatch && (img.Bounds().Dx() != width || img.Bounds().Dy() != height) {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
		img = dst
	}

	effective := format
	if s.ForceLowColor {
		effective = format.lowColor()
	}

	pixels, err := encode(img, effective)
	if err != nil {
		return nil, fmt.Errorf("texture: load %q: %w: %s", name, errs.ErrUnsupportedPixelFormat, err)
	}

	handle, err := s.backend.CreateTexture(width, height, effective)
	if err != nil {
		return nil, fmt.Errorf("texture: load %q: %w: %s", name, errs.ErrGpuUploadFailed, err)
	}
	if err := s.backend.UploadTexture(handle, width, height, effective, pixels); err != nil {
		return nil, fmt.Errorf("texture: load %q: %w: %s", name, errs.ErrGpuUploadFailed, err)
	}

	s.gen++
	t := &Texture{Handle: handle, Width: width, Height: height, Format: effective, GenerationID: s.gen, name: name}
	s.releaseSlot(idx)
	s.slots[idx] = t
	return t, nil
}

// CreateEmpty allocates a blank texture of the next power-of-two
// dimensions at or above width/height, used for archive entries whose
// name is a render-target marker rather than an image file.
func (s *Store) CreateEmpty(idx int, format PixelFormat, width, height int) (*Texture, error) {
	if idx < 0 || idx >= len(s.slots) {
		return nil, fmt.Errorf("texture: create empty: slot %d: %w", idx, errs.ErrOutOfSlots)
	}
	if !format.valid() {
		return nil, fmt.Errorf("texture: create empty: format %v: %w", format, errs.ErrUnsupportedPixelFormat)
	}

	w, h := nextPow2(width), nextPow2(height)
	handle, err := s.backend.CreateTexture(w, h, format)
	if err != nil {
		return nil, fmt.Errorf("texture: create empty: %w: %s", errs.ErrGpuUploadFailed, err)
	}

	s.gen++
	t := &Texture{Handle: handle, Width: w, Height: h, Format: format, GenerationID: s.gen}
	s.releaseSlot(idx)
	s.slots[idx] = t
	return t, nil
}

// At returns the texture in slot idx, or nil if the slot is empty.
func (s *Store) At(idx int) *Texture {
	if idx < 0 || idx >= len(s.slots) {
		return nil
	}
	return s.slots[idx]
}

// Release frees the texture in slot idx, if any, and returns the slot to
// the free list used by allocSlot.
func (s *Store) Release(idx int) {
	if s.releaseSlot(idx) {
		s.free = append(s.free, idx)
	}
}

// releaseSlot destroys the backend texture occupying idx, if any, without
// touching the free list. Used both by Release and by Load/CreateEmpty
// when overwriting a slot the caller addressed directly.
func (s *Store) releaseSlot(idx int) bool {
	if idx < 0 || idx >= len(s.slots) {
		return false
	}
	if t := s.slots[idx]; t != nil {
		s.backend.DeleteTexture(t.Handle)
		s.slots[idx] = nil
		return true
	}
	return false
}

// nextPow2 rounds n up to the next power of two, with a floor of 1.
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
