package catalog

// rawHeader is the fixed-layout prefix of one archive entry, read with
// encoding/binary.Read the way nes/cartridge.go reads its iNES header.
// There is no magic number; a short read is the only structural check
// available before the offset table is walked.
type rawHeader struct {
	NameOffset      uint32
	AlphaNameOffset uint32
	Format          uint32
	Width           uint32
	Height          uint32
	ColorKey        uint32
	TextureIdx      uint32
	SpriteIdxOffset uint32
	NumSprites      uint32
	NumScripts      uint32
}

// rawSprite is one sprite record, addressed through the spriteOffsets
// indirection table rather than stored inline: the header is followed by
// NumSprites absolute u32 offsets, each pointing at a separate record.
// Every record carries its own id rather than being keyed by table
// position.
type rawSprite struct {
	ID               uint32
	OffsetX, OffsetY float32
	SizeX, SizeY     float32
}

// rawScript is one fixed-size script directory entry, repeated
// NumScripts times immediately after the spriteOffsets table. Offset is
// relative to the start of the entry's byte slab and points at a run of
// opcode records; the next script's offset (or the slab's length) bounds
// its end.
type rawScript struct {
	ID     uint32
	Offset uint32
}
