package anmvm

import "github.com/GensokyoClub/th06/sprite"

// BlendMode selects how a sprite's alpha combines with the framebuffer.
type BlendMode int

const (
	BlendDefault BlendMode = iota
	BlendAdditive
)

// interp tracks an in-flight linear-to-eased interpolation of one
// position axis triple, driven by PosTime* opcodes.
type interp struct {
	active   bool
	start    [3]float32
	target   [3]float32
	duration int32
	elapsed  int32
	ease     Ease
}

// Vm is one sprite's visual state machine: the data AnmInterpreter.Step
// reads and mutates every tick.
type Vm struct {
	SpriteID         int
	spriteGeneration uint64

	Position [3]float32
	Scale    [2]float32
	Rotation [3]float32
	AngleVel [3]float32
	Color    [3]byte
	Alpha    byte

	FlipX, FlipY bool
	UsePosOffset bool
	AutoRotate   bool
	Anchor       int
	Visible      bool
	ZWriteDisable bool

	Blend BlendMode

	UVScroll      [2]float32
	uvScrollSpeed [2]float32

	scaleSpeed [2]float32
	fadeSpeed  float32
	fadeTarget byte

	script    []Instruction
	pc        int
	time      int32
	stopped   bool
	hidden    bool

	posInterp interp

	labels          map[int]int // interrupt label id -> instruction index
	fallbackIdx     int         // index of the first InterruptLabel(-1), or -1 if none
	pendingInterrupt int        // -1 when nothing pending
}

// New creates a Vm bound to spriteID and ready to execute script.
func New(spriteID int, generation uint64, script []Instruction) *Vm {
	v := &Vm{
		SpriteID:         spriteID,
		spriteGeneration: generation,
		Scale:            [2]float32{1, 1},
		Alpha:            255,
		Color:            [3]byte{255, 255, 255},
		Visible:          true,
		script:           script,
		pendingInterrupt: -1,
		fallbackIdx:      -1,
	}
	v.indexLabels()
	return v
}

func (v *Vm) indexLabels() {
	v.labels = make(map[int]int)
	v.fallbackIdx = -1
	for i, instr := range v.script {
		if instr.Opcode != OpInterruptLabel || len(instr.Args) != 1 {
			continue
		}
		label := int(instr.Args[0])
		if label == -1 {
			if v.fallbackIdx < 0 {
				v.fallbackIdx = i
			}
			continue
		}
		v.labels[label] = i
	}
}

// Interrupt requests a jump to the instruction following the given
// interrupt label on the VM's next Step, the same priority every ECL
// interrupt has over its currently-executing instruction stream.
func (v *Vm) Interrupt(label int) {
	v.pendingInterrupt = label
}

// SetScript replaces the VM's instruction stream and resets its cursor to
// the beginning, the "reloading sets current-instruction to
// begin-of-script" behavior an ECL-driven script swap needs.
func (v *Vm) SetScript(script []Instruction) {
	v.script = script
	v.pc = 0
	v.time = 0
	v.stopped = false
	v.hidden = false
	v.pendingInterrupt = -1
	v.indexLabels()
}

// Stale reports whether the sprite this VM was bound to has since been
// replaced in table (same id, different generation).
func (v *Vm) Stale(table *sprite.Table) bool {
	return table.Stale(v.SpriteID, v.spriteGeneration)
}

// Done reports whether the VM has reached Exit/ExitHide and will no
// longer advance. Stop/StopHide are not terminal: they re-execute every
// tick, holding the instruction stream in place while continuous effects
// (rotation, interpolation, UV scroll) and interrupt dispatch keep
// running, so a later Interrupt can still resume the script.
func (v *Vm) Done() bool { return v.stopped }

// Hidden reports whether the VM's sprite should be skipped by the draw
// frontend this frame.
func (v *Vm) Hidden() bool { return v.hidden || !v.Visible }
