// Package enemy holds the per-enemy state the ECL interpreter reads and
// mutates: position, motion, difficulty-gated script cursor, call stack,
// bullet/laser shooter configuration, boss/life bookkeeping, and
// spellcard bookkeeping.
package enemy

import "log"

// Rank carries the difficulty-driven scaling coefficients ECL bullet and
// motion opcodes consult (bullet count/speed scale with the game's
// difficulty setting in the original).
type Rank struct {
	BulletCountScale float32
	BulletSpeedScale float32
}

// Spellcard records one active or completed spellcard's scoring state.
type Spellcard struct {
	Index           int
	Name            string
	Active          bool
	Captured        bool
	BaseScore       int32
	BonusMultiplier float32
	CaptureBonus    int32
	CaptureCount    int32
	// NameChecksum is the identifier the archive's spellcard-start
	// instruction supplies for this card's name, carried as an opaque
	// numeric id rather than recomputed here; the bytecode has no
	// mechanism for passing a string operand.
	NameChecksum uint32
}

// frame is one saved call-stack entry: the instruction index and time to
// resume at when the called subroutine returns.
type frame struct {
	returnPC   int
	returnTime int32
}

// maxCallDepth bounds the saved-context stack; pushing past it drops the
// oldest save silently (the stack saturates) rather than growing.
const maxCallDepth = 8

// MotionKind selects which per-tick continuous-motion rule TickMotion
// applies.
type MotionKind uint8

const (
	MotionNone MotionKind = iota
	MotionAngular
	MotionTimed
)

// PoseClass classifies an enemy's horizontal axis-speed sign for
// pose-animation sub-vm switching.
type PoseClass uint8

const (
	PoseCenter PoseClass = iota
	PoseLeft
	PoseRight
	PoseFarLeft
	PoseFarRight
)

// AimMode selects how a BulletConfig's count-by-count grid maps to
// per-bullet angle/speed.
type AimMode int32

const (
	AimFan AimMode = iota
	AimAimedFan
	AimCircle
	AimAimedCircle
	AimRandomAngle
	AimRandomSpeed
	AimRandom
)

// BulletConfig is a shooter's parametrized emission pattern, set by ECL
// bullet-emission opcodes and consulted every time the shoot-interval
// timer wraps.
type BulletConfig struct {
	CountX, CountY                 int32
	AimMode                        AimMode
	BaseAngle, BaseSpeed           float32
	SecondaryAngle, SecondarySpeed float32
	SpriteID                       int32
	ColorOffset                    int32
	Flags                          uint32
	ExtraInt                       int32
	ExtraFloat                     float32
}

// LaserSlot is one persisted laser emission, addressable by index for
// later rotate/offset/cancel opcodes.
type LaserSlot struct {
	Active                 bool
	Kind                   int32
	Speed, Angle           float32
	Length, Width          float32
	OffsetX, OffsetY       float32
}

// maxLaserSlots bounds the persisted laser array, matching the original's
// small fixed-size per-enemy laser table.
const maxLaserSlots = 8

// Enemy is one enemy's full interpreted state.
type Enemy struct {
	Position     [3]float32
	Velocity     [3]float32
	Angle        float32
	Speed        float32
	Acceleration float32
	AxisSpeed    [2]float32 // speed decomposed along x/y, recomputed by TickMotion

	AngularVelocity float32

	Rank Rank

	AnmVmID int // id into the owning engine's anmvm.Vm set, -1 if none

	// SlotVmIDs holds auxiliary anmvm.Vm ids (lasers, sub-sprites) the
	// ECL coupling opcodes address by slot index.
	SlotVmIDs [maxLaserSlots]int

	Health int32
	Dead   bool

	Difficulty int // 0=Easy .. 3=Lunatic, matching the archive's difficulty-skip bitmask

	Spellcard Spellcard

	Variables [16]int32 // indexed by the signed "local" half of ECL's variable-id space
	globals   *[16]int32

	CompareReg int8 // -1, 0, 1: result of the most recent Cmp opcode

	script  []byte
	pc      int
	time    int32
	stopped bool

	callStack []frame

	runInterrupt int // -1 when nothing pending, matching EclManager.cpp's sentinel convention

	// InterruptTable maps an ECL-visible interrupt index (0..N) to a
	// sub-id, populated by the interrupt-table-set state opcode and
	// consulted by Interrupt(n).
	InterruptTable map[int]int

	exVars map[int]float32 // scratch storage for extrinsic-call results (ExCall table callbacks)

	motionKind     MotionKind
	motionInitial  [3]float32
	motionDelta    [3]float32
	motionDuration int32
	motionTimer    int32
	motionEase     uint8

	Bullets      BulletConfig
	ShootInterval int32
	shootTimer    int32

	LaserSlots [maxLaserSlots]LaserSlot

	HitboxWidth, HitboxHeight float32

	Life, MaxLife int32

	BossID int32
	IsBoss bool

	Active         bool
	NoClamp        bool
	ShootDisabled  bool
	Immortal       bool
	DeathCallbackValid bool

	DeathSub int // -1 if unset

	LifeCallbackThreshold int32
	LifeCallbackSub       int // -1 if unset
	lifeCallbackFired     bool

	TimerCallbackThreshold int32
	TimerCallbackSub       int // -1 if unset
	timerCallbackFired     bool

	PoseEnabled             bool
	PoseCenterScript        int
	PoseLeftScript          int
	PoseRightScript         int
	PoseFarLeftThreshold    float32
	PoseFarRightThreshold   float32
	poseClass               PoseClass

	// TickCallbackIndex selects an entry in the interpreter's ExCall
	// table to invoke once per tick (the "func-set-callback" slot),
	// or -1 if none is set.
	TickCallbackIndex int

	// DisableCallStack turns CallSub into a tail switch: no frame is
	// pushed, so Return has nothing to pop and logs instead.
	DisableCallStack bool
}

// New creates an Enemy bound to script, sharing the given global variable
// bank (owned by the scene/engine, not the enemy).
func New(script []byte, globals *[16]int32) *Enemy {
	e := &Enemy{
		script:            script,
		globals:           globals,
		runInterrupt:      -1,
		exVars:            make(map[int]float32),
		InterruptTable:    make(map[int]int),
		AnmVmID:           -1,
		DeathSub:          -1,
		LifeCallbackSub:   -1,
		TimerCallbackSub:  -1,
		TickCallbackIndex: -1,
	}
	for i := range e.SlotVmIDs {
		e.SlotVmIDs[i] = -1
	}
	return e
}

// RequestInterrupt marks label as the next interrupt to service, taking
// priority over whatever instruction the enemy would otherwise execute
// next. Matches EclManager::RunEcl's "if 0 <= runInterrupt, goto
// HANDLE_INTERRUPT" priority check.
func (e *Enemy) RequestInterrupt(label int) {
	e.runInterrupt = label
}

// PushCall saves the current execution point and jumps to subPC. If the
// call stack is already at maxCallDepth, the oldest save is dropped to
// make room (the stack saturates instead of growing) and PushCall
// returns false; otherwise it returns true. With DisableCallStack set, no
// frame is saved and the call becomes a plain jump.
func (e *Enemy) PushCall(subPC int) bool {
	if e.DisableCallStack {
		e.pc = subPC
		return true
	}
	saturated := len(e.callStack) >= maxCallDepth
	if saturated {
		e.callStack = append(e.callStack[:0], e.callStack[1:]...)
	}
	e.callStack = append(e.callStack, frame{returnPC: e.pc, returnTime: e.time})
	e.pc = subPC
	return !saturated
}

// PopCall returns to the caller saved by the most recent PushCall. It is
// a no-op if the call stack is empty (a dangling Return is a documented
// no-op, like any other malformed instruction). With DisableCallStack
// set, a Return always finds the stack empty and just logs.
func (e *Enemy) PopCall() {
	if len(e.callStack) == 0 {
		if e.DisableCallStack {
			log.Printf("enemy: Return with call stack disabled, ignoring")
		}
		return
	}
	top := e.callStack[len(e.callStack)-1]
	e.callStack = e.callStack[:len(e.callStack)-1]
	e.pc = top.returnPC
	e.time = top.returnTime
}

// CallDepth reports how many subroutine calls are currently nested.
func (e *Enemy) CallDepth() int { return len(e.callStack) }

// SkipForDifficulty reports whether an instruction whose skip mask is
// mask should be skipped at the enemy's current difficulty, mirroring
// EclManager.cpp's "instruction->skipForDifficulty & (1 << difficulty)"
// check.
func (e *Enemy) SkipForDifficulty(mask uint8) bool {
	return mask&(1<<uint(e.Difficulty)) != 0
}

func (e *Enemy) Done() bool { return e.stopped || e.Dead }

// Stop halts script execution, the ECL equivalent of anmvm's Exit opcode.
func (e *Enemy) Stop() { e.stopped = true }

// PC returns the enemy's current instruction index.
func (e *Enemy) PC() int { return e.pc }

// JumpTo sets the enemy's instruction index directly.
func (e *Enemy) JumpTo(pc int) { e.pc = pc }

// Advance moves the instruction cursor past the instruction about to run.
func (e *Enemy) Advance() { e.pc++ }

// Time returns the enemy's current script time.
func (e *Enemy) Time() int32 { return e.time }

// SetTime sets the enemy's script time directly, used by Jump.
func (e *Enemy) SetTime(t int32) { e.time = t }

// TickTime advances the enemy's script time by one, called once per Step.
func (e *Enemy) TickTime() { e.time++ }

// RunInterrupt returns the pending interrupt label, or -1 if none.
func (e *Enemy) RunInterrupt() int { return e.runInterrupt }

// ClearInterrupt clears the pending interrupt.
func (e *Enemy) ClearInterrupt() { e.runInterrupt = -1 }

// Kill marks the enemy dead and reports whether a death callback should
// fire (DeathCallbackValid was set and a DeathSub is registered).
func (e *Enemy) Kill() (sub int, ok bool) {
	e.Dead = true
	if e.DeathCallbackValid && e.DeathSub >= 0 {
		return e.DeathSub, true
	}
	return 0, false
}

// DamageLife applies delta (negative for damage) to Life, clamping at
// zero, and reports the life-callback sub to run the first time Life
// crosses below LifeCallbackThreshold, if one is registered. Immortal
// enemies ignore damage entirely.
func (e *Enemy) DamageLife(delta int32) (sub int, ok bool) {
	if e.Immortal {
		return 0, false
	}
	e.Life += delta
	if e.Life < 0 {
		e.Life = 0
	}
	if !e.lifeCallbackFired && e.LifeCallbackSub >= 0 && e.Life <= e.LifeCallbackThreshold {
		e.lifeCallbackFired = true
		return e.LifeCallbackSub, true
	}
	return 0, false
}

// CheckTimerCallback reports the timer-callback sub to run the first
// time the enemy's script time reaches TimerCallbackThreshold, if one is
// registered.
func (e *Enemy) CheckTimerCallback() (sub int, ok bool) {
	if !e.timerCallbackFired && e.TimerCallbackSub >= 0 && e.time >= e.TimerCallbackThreshold {
		e.timerCallbackFired = true
		return e.TimerCallbackSub, true
	}
	return 0, false
}
