package eclvm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Instruction is one decoded ECL bytecode record.
type Instruction struct {
	Time     uint16
	SkipMask uint8
	Opcode   Opcode
	Args     []Arg
}

// rawHeaderSize is the fixed prefix of one instruction record, preceding
// its argument list: {Time uint16}{Opcode uint16}{OffsetToNext
// uint16}{ArgsCount uint16}{SkipForDifficulty byte}{_pad byte}.
const rawHeaderSize = 10

// Each encoded Arg is a tag byte followed by either a float32 (immediate)
// or an int32 variable id.
const rawArgSize = 5

// Decode parses a raw script byte slice into an instruction sequence.
// OffsetToNext is the self-reported record length and is what drives the
// decode cursor, independent of ArgsCount; a mismatch between ArgsCount
// and an opcode's declared argument count decodes as OpNop instead of
// failing the whole script.
func Decode(data []byte) ([]Instruction, error) {
	var instrs []Instruction
	off := 0
	for off < len(data) {
		if off+rawHeaderSize > len(data) {
			return nil, fmt.Errorf("eclvm: decode: truncated instruction header at offset %d", off)
		}

		timeVal := binary.LittleEndian.Uint16(data[off:])
		opcode := Opcode(binary.LittleEndian.Uint16(data[off+2:]))
		offsetToNext := binary.LittleEndian.Uint16(data[off+4:])
		argsCount := binary.LittleEndian.Uint16(data[off+6:])
		skipMask := data[off+8]
		// data[off+9] is pad, unread.

		if int(offsetToNext) < rawHeaderSize || off+int(offsetToNext) > len(data) {
			return nil, fmt.Errorf("eclvm: decode: instruction at offset %d has invalid offsetToNext %d", off, offsetToNext)
		}

		argBytes := data[off+rawHeaderSize : off+int(offsetToNext)]
		wantArgs := opcode.ArgCount()

		instr := Instruction{Time: timeVal, SkipMask: skipMask}
		if wantArgs < 0 || int(argsCount) != wantArgs || len(argBytes) != wantArgs*rawArgSize {
			instr.Opcode = OpNop
		} else {
			instr.Opcode = opcode
			instr.Args = make([]Arg, wantArgs)
			for i := range instr.Args {
				rec := argBytes[i*rawArgSize:]
				if rec[0] == byte(ArgVarRef) {
					instr.Args[i] = Arg{Kind: ArgVarRef, VarID: int32(binary.LittleEndian.Uint32(rec[1:]))}
				} else {
					instr.Args[i] = Arg{Kind: ArgImmediate, Float: math.Float32frombits(binary.LittleEndian.Uint32(rec[1:]))}
				}
			}
		}

		instrs = append(instrs, instr)
		off += int(offsetToNext)
	}
	return instrs, nil
}
