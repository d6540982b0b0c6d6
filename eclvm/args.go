package eclvm

import (
	"math"

	"github.com/GensokyoClub/th06/enemy"
)

// ArgKind tags what an Arg's Value means: a literal, or an indirection
// through the enemy's signed variable-id space (negative ids address the
// enemy's local bank, non-negative ids address the scene-global bank).
type ArgKind byte

const (
	ArgImmediate ArgKind = iota
	ArgVarRef
)

// Arg is one instruction operand. It is a tagged sum type rather than two
// parallel arrays so a single []Arg can mix immediates and variable
// references freely, matching how the original's instruction args union
// raw floats with variable-id indirection.
type Arg struct {
	Kind  ArgKind
	Float float32
	VarID int32
}

// Resolve returns the operand's effective value against e's variable
// banks.
func (a Arg) Resolve(e *enemy.Enemy, globals *[16]int32) float32 {
	if a.Kind == ArgImmediate {
		return a.Float
	}
	if a.VarID < 0 {
		idx := -a.VarID - 1
		if int(idx) < len(e.Variables) {
			return float32(e.Variables[idx])
		}
		return 0
	}
	if int(a.VarID) < len(globals) {
		return float32(globals[a.VarID])
	}
	return 0
}

// Assign writes value into the variable a refers to. It is a no-op for
// an immediate arg, matching the "malformed opcodes are no-ops" policy
// for an instruction that tries to assign through a literal.
func (a Arg) Assign(e *enemy.Enemy, globals *[16]int32, value int32) {
	if a.Kind != ArgVarRef {
		return
	}
	if a.VarID < 0 {
		idx := -a.VarID - 1
		if int(idx) < len(e.Variables) {
			e.Variables[idx] = value
		}
		return
	}
	if int(a.VarID) < len(globals) {
		globals[a.VarID] = value
	}
}

// rawInt32 returns the unconverted int32 bits stored in the variable a
// refers to, or 0 for an immediate or out-of-range id.
func (a Arg) rawInt32(e *enemy.Enemy, globals *[16]int32) int32 {
	if a.Kind != ArgVarRef {
		return 0
	}
	if a.VarID < 0 {
		idx := -a.VarID - 1
		if int(idx) < len(e.Variables) {
			return e.Variables[idx]
		}
		return 0
	}
	if int(a.VarID) < len(globals) {
		return globals[a.VarID]
	}
	return 0
}

// ResolveFloat is Resolve for the "float" variant of the arithmetic
// opcodes: an immediate is returned as-is, a variable reference is
// reinterpreted bit-for-bit as a float32 rather than converted, the same
// variable slot viewed through a different typed lens.
func (a Arg) ResolveFloat(e *enemy.Enemy, globals *[16]int32) float32 {
	if a.Kind == ArgImmediate {
		return a.Float
	}
	return math.Float32frombits(uint32(a.rawInt32(e, globals)))
}

// AssignFloat is Assign for the float variant: value is stored as its
// bit pattern, not truncated to an integer.
func (a Arg) AssignFloat(e *enemy.Enemy, globals *[16]int32, value float32) {
	a.Assign(e, globals, int32(math.Float32bits(value)))
}
