// Package sprite maps archive-declared pixel rectangles into the
// normalized UV coordinates the draw frontend samples.
package sprite

import (
	"fmt"

	"github.com/GensokyoClub/th06/errs"
)

// Sprite is one named rectangle within a texture, expressed both in
// source pixels and in half-texel-inset UV space.
type Sprite struct {
	TextureIdx int
	// OffsetX/Y, SizeX/Y are the archive-declared pixel rectangle.
	OffsetX, OffsetY float32
	SizeX, SizeY     float32

	UVStart [2]float32
	UVEnd   [2]float32

	GenerationID uint64
}

// Table owns every sprite loaded so far, addressed by a global id that
// stays stable across reloads of unrelated archives.
type Table struct {
	sprites   map[int]*Sprite
	generation uint64
}

// New creates an empty Table.
func New() *Table {
	return &Table{sprites: make(map[int]*Sprite)}
}

// Record is one sprite rectangle as decoded from an archive. ID is the
// global sprite id: the caller has already applied any archive index
// offset.
type Record struct {
	ID         int
	TextureIdx int
	OffsetX    float32
	OffsetY    float32
	SizeX      float32
	SizeY      float32
}

// Load registers each record under its own ID, computing each
// sprite's UV rectangle against the given texture dimensions. It bumps the
// table's generation counter once, not once per sprite, so every sprite
// loaded by one archive shares a generation.
//
// The UV formula matches AnmManager::LoadSprite exactly: a half-texel
// inset on both the start and end edges, computed per axis in x-then-y
// order.
func (t *Table) Load(records []Record, texWidth, texHeight []float32) ([]int, error) {
	if len(records) != len(texWidth) || len(records) != len(texHeight) {
		return nil, fmt.Errorf("sprite: load: %w: mismatched dimension slices", errs.ErrCorruptArchive)
	}

	t.generation++
	ids := make([]int, 0, len(records))
	for i, r := range records {
		tw, th := texWidth[i], texHeight[i]
		if tw <= 0 || th <= 0 {
			return nil, fmt.Errorf("sprite: load id %d: %w: texture has zero extent", r.ID, errs.ErrCorruptArchive)
		}

		s := &Sprite{
			TextureIdx:   r.TextureIdx,
			OffsetX:      r.OffsetX,
			OffsetY:      r.OffsetY,
			SizeX:        r.SizeX,
			SizeY:        r.SizeY,
			GenerationID: t.generation,
		}
		s.UVStart[0] = (r.OffsetX + 0.5) / tw
		s.UVEnd[0] = (r.OffsetX + r.SizeX - 0.5) / tw
		s.UVStart[1] = (r.OffsetY + 0.5) / th
		s.UVEnd[1] = (r.OffsetY + r.SizeY - 0.5) / th

		t.sprites[r.ID] = s
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// Get returns the sprite registered under id, or nil if none exists.
func (t *Table) Get(id int) *Sprite {
	return t.sprites[id]
}

// Release drops the sprite registered under id.
func (t *Table) Release(id int) {
	delete(t.sprites, id)
}

// Generation returns the table's current generation counter, for callers
// that want to stamp a value to compare later via Stale.
func (t *Table) Generation() uint64 {
	return t.generation
}

// Stale reports whether the sprite currently registered under id is not
// the one a caller cached (identified by cachedGen, the GenerationID it
// read at the time it cached the pointer). A caller that finds its cached
// pointer stale must call Get again rather than keep using it, since the
// id may have been reused by an unrelated Load.
func (t *Table) Stale(id int, cachedGen uint64) bool {
	s := t.sprites[id]
	return s == nil || s.GenerationID != cachedGen
}
