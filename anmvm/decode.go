package anmvm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Instruction is one decoded ANM bytecode record.
type Instruction struct {
	Time   uint16
	Opcode Opcode
	Args   []float32
}

// rawInstrHeaderSize is the byte length of the fixed part of one
// instruction record, preceding its argument floats.
const rawInstrHeaderSize = 8

// Decode parses a raw script byte slice into an instruction sequence.
// Instructions are packed as {Time uint16}{Opcode uint16}{ArgsCount
// uint16}{Pad uint16} followed by ArgsCount float32 arguments; there is
// no separate record-length field, so ArgsCount alone determines how far
// to advance. An opcode outside the known table, or an ArgsCount that
// does not match its declared argument count, decodes as OpNop rather
// than failing the whole script: malformed instructions are documented
// no-ops.
func Decode(data []byte) ([]Instruction, error) {
	var instrs []Instruction
	off := 0
	for off < len(data) {
		if off+rawInstrHeaderSize > len(data) {
			return nil, fmt.Errorf("anmvm: decode: truncated instruction header at offset %d", off)
		}

		timeVal := binary.LittleEndian.Uint16(data[off:])
		opcode := Opcode(binary.LittleEndian.Uint16(data[off+2:]))
		argsCount := binary.LittleEndian.Uint16(data[off+4:])
		// data[off+6:off+8] is pad, unread.

		step := rawInstrHeaderSize + int(argsCount)*4
		if off+step > len(data) {
			return nil, fmt.Errorf("anmvm: decode: instruction at offset %d overruns script with argsCount %d", off, argsCount)
		}

		argBytes := data[off+rawInstrHeaderSize : off+step]
		wantArgs := opcode.ArgCount()

		instr := Instruction{Time: timeVal}
		if wantArgs < 0 || int(argsCount) != wantArgs {
			instr.Opcode = OpNop
		} else {
			instr.Opcode = opcode
			instr.Args = make([]float32, wantArgs)
			for i := range instr.Args {
				bits := binary.LittleEndian.Uint32(argBytes[i*4:])
				instr.Args[i] = math.Float32frombits(bits)
			}
		}

		instrs = append(instrs, instr)
		off += step
	}
	return instrs, nil
}
