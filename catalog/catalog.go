// Package catalog parses the binary sprite/script archive format and
// wires decoded sprites and textures into a sprite.Table and texture.Store.
package catalog

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/GensokyoClub/th06/errs"
	"github.com/GensokyoClub/th06/sprite"
	"github.com/GensokyoClub/th06/texture"
)

// Script is a named run of not-yet-decoded opcode bytes. Decoding into
// instructions is left to the anmvm/eclvm packages, which know the two
// different opcode tables.
type Script struct {
	ID   int
	Data []byte
}

// entry is one loaded archive: its decoded header, the sprite ids and
// texture slot it registered, and its script directory.
type entry struct {
	header     rawHeader
	slab       []byte
	spriteIDs  []int
	textureIdx int
	scripts    map[int]Script
}

// Catalog owns every loaded archive entry plus the shared sprite and
// texture stores they populate.
type Catalog struct {
	sprites  *sprite.Table
	textures *texture.Store
	entries  map[int]*entry
	nextID   int
}

// New creates a Catalog that registers sprites and textures into the
// given stores.
func New(sprites *sprite.Table, textures *texture.Store) *Catalog {
	return &Catalog{
		sprites:  sprites,
		textures: textures,
		entries:  make(map[int]*entry),
	}
}

// Load reads the archive at path and registers its sprites and texture.
// spriteIndexOffset is added to every sprite id the archive declares,
// letting callers pack several archives into disjoint id ranges.
func (c *Catalog) Load(path string, spriteIndexOffset int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("catalog: load %s: %w: %s", path, errs.ErrIoError, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("catalog: load %s: %w: %s", path, errs.ErrIoError, err)
	}

	return c.LoadReader(f, info.Size(), spriteIndexOffset)
}

// LoadReader is Load without touching the filesystem directly, for
// embedding or testing.
func (c *Catalog) LoadReader(r io.ReaderAt, size int64, spriteIndexOffset int) (int, error) {
	slab := make([]byte, size)
	if _, err := r.ReadAt(slab, 0); err != nil && err != io.EOF {
		return 0, fmt.Errorf("catalog: load reader: %w: %s", errs.ErrIoError, err)
	}

	buf := bytes.NewReader(slab)

	var h rawHeader
	if err := binary.Read(buf, binary.LittleEndian, &h); err != nil {
		return 0, fmt.Errorf("catalog: load reader: %w: unable to read header: %s", errs.ErrCorruptArchive, err)
	}
	// The loader's spriteIndexOffset parameter always wins over whatever
	// the archive declares, the same way AnmManager::LoadAnm overwrites
	// anm->spriteIdxOffset from its load-time argument.
	h.SpriteIdxOffset = uint32(spriteIndexOffset)

	spriteOffsets := make([]uint32, h.NumSprites)
	if err := binary.Read(buf, binary.LittleEndian, &spriteOffsets); err != nil {
		return 0, fmt.Errorf("catalog: load reader: %w: unable to read sprite offset table: %s", errs.ErrCorruptArchive, err)
	}

	scripts := make([]rawScript, h.NumScripts)
	if err := binary.Read(buf, binary.LittleEndian, &scripts); err != nil {
		return 0, fmt.Errorf("catalog: load reader: %w: unable to read script table: %s", errs.ErrCorruptArchive, err)
	}

	sprites := make([]rawSprite, len(spriteOffsets))
	for i, off := range spriteOffsets {
		if uint64(off)+20 > uint64(len(slab)) {
			return 0, fmt.Errorf("catalog: load reader: %w: sprite %d offset out of range", errs.ErrCorruptArchive, i)
		}
		rec := bytes.NewReader(slab[off:])
		if err := binary.Read(rec, binary.LittleEndian, &sprites[i]); err != nil {
			return 0, fmt.Errorf("catalog: load reader: %w: unable to read sprite %d: %s", errs.ErrCorruptArchive, i, err)
		}
	}

	name := readCString(slab, h.NameOffset)

	textureIdx := -1 // no texture slot unless the archive names a texture
	format := texture.PixelFormat(h.Format)
	if len(name) > 0 && name[0] == '@' {
		slot, err := c.textures.AllocSlot()
		if err != nil {
			return 0, fmt.Errorf("catalog: load reader: %w", err)
		}
		if _, err := c.textures.CreateEmpty(slot, format, int(h.Width), int(h.Height)); err != nil {
			return 0, fmt.Errorf("catalog: load reader: %w", err)
		}
		textureIdx = slot
	} else if name != "" {
		slot, err := c.textures.AllocSlot()
		if err != nil {
			return 0, fmt.Errorf("catalog: load reader: %w", err)
		}
		if _, err := c.textures.Load(slot, name, format, int(h.Width), int(h.Height)); err != nil {
			return 0, fmt.Errorf("catalog: load reader: %w", err)
		}
		textureIdx = slot
	}

	records := make([]sprite.Record, len(sprites))
	widths := make([]float32, len(sprites))
	heights := make([]float32, len(sprites))
	for i, s := range sprites {
		records[i] = sprite.Record{
			ID:         int(h.SpriteIdxOffset + s.ID),
			TextureIdx: textureIdx,
			OffsetX:    s.OffsetX,
			OffsetY:    s.OffsetY,
			SizeX:      s.SizeX,
			SizeY:      s.SizeY,
		}
		widths[i] = float32(h.Width)
		heights[i] = float32(h.Height)
	}

	spriteIDs, err := c.sprites.Load(records, widths, heights)
	if err != nil {
		return 0, fmt.Errorf("catalog: load reader: %w", err)
	}

	sorted := append([]rawScript(nil), scripts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	decoded := make(map[int]Script, len(scripts))
	for i, s := range sorted {
		end := uint32(len(slab))
		if i+1 < len(sorted) {
			end = sorted[i+1].Offset
		}
		if s.Offset > uint32(len(slab)) || end > uint32(len(slab)) || end < s.Offset {
			return 0, fmt.Errorf("catalog: load reader: %w: script %d offset out of range", errs.ErrCorruptArchive, s.ID)
		}
		decoded[int(s.ID)] = Script{ID: int(s.ID), Data: slab[s.Offset:end]}
	}

	c.nextID++
	id := c.nextID
	c.entries[id] = &entry{
		header:     h,
		slab:       slab,
		spriteIDs:  spriteIDs,
		textureIdx: textureIdx,
		scripts:    decoded,
	}
	return id, nil
}

// Release unloads the archive entry id, releasing its texture slot and
// every sprite it registered. Scripts already executing keep their
// decoded Script value: its Data is a sub-slice of the entry's byte slab,
// which that slice keeps reachable after the entry is dropped. NameAt and
// Script on this id return zero values afterward.
func (c *Catalog) Release(id int) {
	e, ok := c.entries[id]
	if !ok {
		return
	}
	c.textures.Release(e.textureIdx)
	for _, sid := range e.spriteIDs {
		c.sprites.Release(sid)
	}
	delete(c.entries, id)
}

// NameAt returns the NUL-terminated byte string stored at offset within
// entry id's byte slab, or nil if the entry does not exist. It exists
// primarily so callers can recheck the texture-name marker convention
// without re-parsing the whole entry.
func (c *Catalog) NameAt(id int, offset uint32) []byte {
	e, ok := c.entries[id]
	if !ok {
		return nil
	}
	return []byte(readCString(e.slab, offset))
}

// Script returns the script registered under scriptID within entry id.
func (c *Catalog) Script(id int, scriptID int) (Script, bool) {
	e, ok := c.entries[id]
	if !ok {
		return Script{}, false
	}
	s, ok := e.scripts[scriptID]
	return s, ok
}

func readCString(slab []byte, offset uint32) string {
	if slab == nil || int(offset) >= len(slab) {
		return ""
	}
	end := int(offset)
	for end < len(slab) && slab[end] != 0 {
		end++
	}
	return string(slab[offset:end])
}
