package eclvm

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/GensokyoClub/th06/enemy"
)

func encodeArg(a Arg) []byte {
	buf := make([]byte, rawArgSize)
	buf[0] = byte(a.Kind)
	if a.Kind == ArgImmediate {
		binary.LittleEndian.PutUint32(buf[1:], math.Float32bits(a.Float))
	} else {
		binary.LittleEndian.PutUint32(buf[1:], uint32(a.VarID))
	}
	return buf
}

func imm(f float32) Arg { return Arg{Kind: ArgImmediate, Float: f} }
func varRef(id int32) Arg { return Arg{Kind: ArgVarRef, VarID: id} }

func encodeInstr(t uint16, skip uint8, op Opcode, args ...Arg) []byte {
	buf := make([]byte, rawHeaderSize+len(args)*rawArgSize)
	binary.LittleEndian.PutUint16(buf[0:], t)
	binary.LittleEndian.PutUint16(buf[2:], uint16(op))
	binary.LittleEndian.PutUint16(buf[4:], uint16(len(buf)))
	binary.LittleEndian.PutUint16(buf[6:], uint16(len(args)))
	buf[8] = skip
	// buf[9] is pad, left zero.
	for i, a := range args {
		copy(buf[rawHeaderSize+i*rawArgSize:], encodeArg(a))
	}
	return buf
}

func TestDecodeRoundTrip(t *testing.T) {
	data := encodeInstr(0, 0, OpSetPosition, imm(1), imm(2), imm(3))
	instrs, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(instrs) != 1 || instrs[0].Opcode != OpSetPosition {
		t.Fatalf("unexpected decode result: %+v", instrs)
	}
	if instrs[0].Args[1].Float != 2 {
		t.Errorf("unexpected arg: %+v", instrs[0].Args[1])
	}
}

func buildScript(instrs ...[]byte) *Script {
	var data []byte
	for _, i := range instrs {
		data = append(data, i...)
	}
	decoded, err := Decode(data)
	if err != nil {
		panic(err)
	}
	return &Script{Instructions: decoded, Subs: map[int]int{}}
}

func newEnemy(globals *[16]int32) *enemy.Enemy {
	return enemy.New(nil, globals)
}

func TestCallReturnRoundTrip(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpCallSub, imm(2)), // index 0: call sub at instruction 2
		encodeInstr(0, 0, OpExit),            // index 1: only reached after return
		encodeInstr(0, 0, OpSetVar, varRef(-1), imm(42)), // index 2: sub body
		encodeInstr(0, 0, OpReturn),                      // index 3
	)

	var globals [16]int32
	e := newEnemy(&globals)
	interp := NewInterpreter(&globals, nil, nil, nil, nil, nil)

	interp.Step(e, script)

	if e.Variables[0] != 42 {
		t.Fatalf("expected sub body to run, Variables[0] = %d", e.Variables[0])
	}
	if !e.Done() {
		t.Fatalf("expected enemy to reach Exit after returning from sub")
	}
}

func TestDifficultySkipInvariant(t *testing.T) {
	// SkipMask bit 0 gates difficulty 0 (Easy).
	script := buildScript(
		encodeInstr(0, 1<<0, OpSetVar, varRef(-1), imm(99)),
	)

	var globals [16]int32
	e := newEnemy(&globals)
	e.Difficulty = 0
	interp := NewInterpreter(&globals, nil, nil, nil, nil, nil)
	interp.Step(e, script)

	if e.Variables[0] == 99 {
		t.Fatalf("expected instruction to be skipped at difficulty 0")
	}
}

type fakeEmitter struct {
	bullets []BulletSpawn
	lasers  []LaserSpawn
	effects int
	drops   int
}

func (f *fakeEmitter) SpawnBullet(e *enemy.Enemy, b BulletSpawn) { f.bullets = append(f.bullets, b) }
func (f *fakeEmitter) SpawnLaser(e *enemy.Enemy, l LaserSpawn)   { f.lasers = append(f.lasers, l) }
func (f *fakeEmitter) SpawnEffect(e *enemy.Enemy, kind int32, offsetX, offsetY float32) {
	f.effects++
}
func (f *fakeEmitter) DropItems(e *enemy.Enemy, count int32, radius, powerThreshold float32) {
	f.drops++
}

func TestSpawnBulletScaledByRank(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpSpawnBullet, imm(1), imm(2), imm(0), imm(0), imm(0)),
	)

	var globals [16]int32
	e := newEnemy(&globals)
	e.Rank.BulletSpeedScale = 2
	emitter := &fakeEmitter{}
	interp := NewInterpreter(&globals, emitter, nil, nil, nil, nil)
	interp.Step(e, script)

	if len(emitter.bullets) != 1 || emitter.bullets[0].Speed != 4 {
		t.Fatalf("expected rank-scaled bullet speed 4, got %+v", emitter.bullets)
	}
}

func TestConditionalJumpsFollowCompareRegister(t *testing.T) {
	tests := []struct {
		name   string
		op     Opcode
		reg    int8
		jumped bool
	}{
		{"less taken", OpJumpIfLess, -1, true},
		{"less not taken", OpJumpIfLess, 0, false},
		{"equal taken", OpJumpIfEqual, 0, true},
		{"greaterOrEqual taken on equal", OpJumpIfGreaterOrEqual, 0, true},
		{"notEqual taken", OpJumpIfNotEqual, 1, true},
		{"notEqual not taken", OpJumpIfNotEqual, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			script := buildScript(
				encodeInstr(0, 0, tc.op, imm(5)),
				encodeInstr(0, 0, OpExit),
				encodeInstr(0, 0, OpExit),
				encodeInstr(0, 0, OpExit),
				encodeInstr(0, 0, OpExit),
				encodeInstr(0, 0, OpSetVar, varRef(-1), imm(7)),
			)
			var globals [16]int32
			e := newEnemy(&globals)
			e.CompareReg = tc.reg
			interp := NewInterpreter(&globals, nil, nil, nil, nil, nil)
			interp.Step(e, script)
			// A taken jump lands on instruction 5, which is due in the
			// same tick and runs, leaving PC just past it at 6.
			if tc.jumped && e.PC() != 6 {
				t.Fatalf("expected jump to instruction 5 (PC 6 after it runs), PC = %d", e.PC())
			}
			if !tc.jumped && e.PC() == 6 {
				t.Fatalf("expected no jump, but instruction 5 ran (PC = 6)")
			}
		})
	}
}

func TestCmpIntSetsCompareRegister(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpCmpInt, imm(3), imm(5)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	interp := NewInterpreter(&globals, nil, nil, nil, nil, nil)
	interp.Step(e, script)
	if e.CompareReg != -1 {
		t.Fatalf("expected CompareReg -1 for 3 < 5, got %d", e.CompareReg)
	}
}

func TestJumpDecStopsAtZero(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpJumpDec, varRef(-1), imm(0)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	e.Variables[0] = 1
	interp := NewInterpreter(&globals, nil, nil, nil, nil, nil)
	interp.Step(e, script)
	if e.Variables[0] != 0 {
		t.Fatalf("expected var decremented to 0, got %d", e.Variables[0])
	}
	if e.PC() != 1 {
		t.Fatalf("expected no jump once counter reaches 0, PC = %d", e.PC())
	}
}

func TestFloatArithmeticReinterpretsBits(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpSetVarF, varRef(-1), imm(1.5)),
		encodeInstr(0, 0, OpAddVarF, varRef(-1), imm(0.25)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	interp := NewInterpreter(&globals, nil, nil, nil, nil, nil)
	interp.Step(e, script)
	got := varRef(-1).ResolveFloat(e, &globals)
	if got != 1.75 {
		t.Fatalf("expected float accumulator 1.75, got %v", got)
	}
}

type fakeCoupler struct {
	mainScript  int
	slotScripts map[int]int
	mainLabel   int
	slotLabel   map[int]int
}

func newFakeCoupler() *fakeCoupler {
	return &fakeCoupler{slotScripts: map[int]int{}, slotLabel: map[int]int{}}
}

func (f *fakeCoupler) SetMainScript(e *enemy.Enemy, scriptID int) { f.mainScript = scriptID }
func (f *fakeCoupler) SetSlotScript(e *enemy.Enemy, slot int, scriptID int) {
	f.slotScripts[slot] = scriptID
}
func (f *fakeCoupler) InterruptMain(e *enemy.Enemy, label int) { f.mainLabel = label }
func (f *fakeCoupler) InterruptSlot(e *enemy.Enemy, slot int, label int) {
	f.slotLabel[slot] = label
}

func TestAnmCouplingOpcodesReachCoupler(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpSetMainVmScript, imm(3)),
		encodeInstr(0, 0, OpSetSlotVmScript, imm(1), imm(4)),
		encodeInstr(0, 0, OpInterruptMainVm, imm(9)),
		encodeInstr(0, 0, OpInterruptSlotVm, imm(1), imm(2)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	coupler := newFakeCoupler()
	interp := NewInterpreter(&globals, nil, nil, nil, coupler, nil)
	interp.Step(e, script)

	if coupler.mainScript != 3 {
		t.Errorf("expected main script 3, got %d", coupler.mainScript)
	}
	if coupler.slotScripts[1] != 4 {
		t.Errorf("expected slot 1 script 4, got %d", coupler.slotScripts[1])
	}
	if coupler.mainLabel != 9 {
		t.Errorf("expected main interrupt label 9, got %d", coupler.mainLabel)
	}
	if coupler.slotLabel[1] != 2 {
		t.Errorf("expected slot 1 interrupt label 2, got %d", coupler.slotLabel[1])
	}
}

type fakePlayer struct{ x, y float32 }

func (f fakePlayer) Position() (float32, float32) { return f.x, f.y }

func TestMoveToPlayerAimsAtPlayer(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpMoveToPlayer, imm(2)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	e.Position = [3]float32{0, 0, 0}
	interp := NewInterpreter(&globals, nil, nil, nil, nil, fakePlayer{x: 10, y: 0})
	interp.Step(e, script)

	if e.Velocity[0] <= 0 || e.Velocity[1] != 0 {
		t.Fatalf("expected velocity aimed along +x toward player, got %+v", e.Velocity)
	}
}

func TestMoveTimeLinearInterpolatesAndSnaps(t *testing.T) {
	var globals [16]int32
	e := newEnemy(&globals)
	interp := NewInterpreter(&globals, nil, nil, nil, nil, nil)

	script := buildScript(
		encodeInstr(0, 0, OpMoveTimeLinear, imm(10), imm(0), imm(0), imm(2)),
	)
	interp.Step(e, script)
	if e.Position[0] <= 0 || e.Position[0] >= 10 {
		t.Fatalf("expected partial progress toward target after first tick, got %v", e.Position[0])
	}

	interp.Step(e, buildScript(encodeInstr(0, 0, OpNop)))
	if e.Position[0] != 10 {
		t.Fatalf("expected position to snap to target once duration elapses, got %v", e.Position[0])
	}
}

func TestShootIntervalFiresConfiguredPattern(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpSetBulletPattern, imm(3), imm(1), imm(float32(enemy.AimFan)), imm(0), imm(1), imm(0.5), imm(0), imm(0)),
		encodeInstr(0, 0, OpSetShootInterval, imm(1)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	e.Rank.BulletCountScale = 1
	e.Rank.BulletSpeedScale = 1
	e.Life = 1 // only a living enemy's shoot timer runs
	emitter := &fakeEmitter{}
	interp := NewInterpreter(&globals, emitter, nil, nil, nil, nil)
	interp.Step(e, script)
	if len(emitter.bullets) != 3 {
		t.Fatalf("expected 3 bullets from a 3x1 fan pattern, got %d", len(emitter.bullets))
	}
}

func TestShootIntervalClampsRankToMinimums(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpSetBulletPattern, imm(5), imm(1), imm(float32(enemy.AimFan)), imm(0), imm(1), imm(0), imm(0), imm(0)),
		encodeInstr(0, 0, OpSetShootInterval, imm(1)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	e.Rank.BulletCountScale = 0
	e.Rank.BulletSpeedScale = 0
	e.Life = 1 // only a living enemy's shoot timer runs
	emitter := &fakeEmitter{}
	interp := NewInterpreter(&globals, emitter, nil, nil, nil, nil)
	interp.Step(e, script)
	if len(emitter.bullets) != 1 {
		t.Fatalf("expected count clamped to 1 even at zero rank scale, got %d", len(emitter.bullets))
	}
	if emitter.bullets[0].Speed != 0.3 {
		t.Fatalf("expected speed clamped to 0.3, got %v", emitter.bullets[0].Speed)
	}
}

func TestSpawnLaserPersistsSlot(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpSpawnLaser, imm(2), imm(1), imm(3), imm(0), imm(50), imm(4)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	emitter := &fakeEmitter{}
	interp := NewInterpreter(&globals, emitter, nil, nil, nil, nil)
	interp.Step(e, script)
	if !e.LaserSlots[2].Active || e.LaserSlots[2].Speed != 3 {
		t.Fatalf("expected laser slot 2 persisted, got %+v", e.LaserSlots[2])
	}
	if len(emitter.lasers) != 1 {
		t.Fatalf("expected one laser spawn recorded")
	}

	cancel := buildScript(encodeInstr(0, 0, OpCancelLaser, imm(2)))
	e.JumpTo(0) // the enemy's cursor is past the first script; start the new one from its top
	interp.Step(e, cancel)
	if e.LaserSlots[2].Active {
		t.Fatalf("expected laser slot 2 cancelled")
	}
}

func TestLifeCallbackFiresOnceOnThresholdCross(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpSetLife, imm(100)),
		encodeInstr(0, 0, OpSetLifeCallback, imm(50), imm(7)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	interp := NewInterpreter(&globals, nil, nil, nil, nil, nil)
	interp.Step(e, script)

	sub, ok := e.DamageLife(-60)
	if !ok || sub != 7 {
		t.Fatalf("expected life callback sub 7 to fire, got sub=%d ok=%v", sub, ok)
	}
	_, ok = e.DamageLife(-1)
	if ok {
		t.Fatalf("expected life callback to fire only once")
	}
}

func TestInterruptOpcodeUsesInterruptTable(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpSetInterruptTableEntry, imm(4), imm(9)),
		encodeInstr(0, 0, OpInterrupt, imm(4)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	interp := NewInterpreter(&globals, nil, nil, nil, nil, nil)
	interp.Step(e, script)
	if e.RunInterrupt() != 9 {
		t.Fatalf("expected pending interrupt sub 9, got %d", e.RunInterrupt())
	}
}

func TestExRepeatSetsAndClearsTickCallback(t *testing.T) {
	var calls int
	calls1 := func(e *enemy.Enemy, args []float32) { calls++ }
	script := buildScript(
		encodeInstr(0, 0, OpExRepeat, imm(0)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	interp := NewInterpreter(&globals, nil, nil, []ExCall{calls1}, nil, nil)
	interp.Step(e, script)
	if calls != 1 {
		t.Fatalf("expected tick callback invoked once during the Step that set it, got %d", calls)
	}

	clear := buildScript(encodeInstr(0, 0, OpExRepeat, imm(-1)))
	e.JumpTo(0) // the enemy's cursor is past the first script; start the new one from its top
	interp.Step(e, clear)
	if e.TickCallbackIndex != -1 {
		t.Fatalf("expected tick callback cleared")
	}
}

func TestSetDisableCallStackTurnsCallIntoTailJump(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpSetDisableCallStack, imm(1)), // index 0
		encodeInstr(0, 0, OpCallSub, imm(3)),             // index 1: call sub at instruction 3
		encodeInstr(0, 0, OpExit),                        // index 2: skipped, no frame to return to
		encodeInstr(0, 0, OpSetVar, varRef(-1), imm(7)),  // index 3: sub body
		encodeInstr(0, 0, OpReturn),                      // index 4: nothing to pop, logs and continues
		encodeInstr(0, 0, OpSetVar, varRef(-2), imm(9)),  // index 5
	)

	var globals [16]int32
	e := newEnemy(&globals)
	interp := NewInterpreter(&globals, nil, nil, nil, nil, nil)
	interp.Step(e, script)

	if !e.DisableCallStack {
		t.Fatalf("expected DisableCallStack set")
	}
	if e.Variables[0] != 7 {
		t.Fatalf("expected sub body to run, Variables[0] = %d", e.Variables[0])
	}
	if e.Variables[1] != 9 {
		t.Fatalf("expected execution to fall through Return into instruction after it, Variables[1] = %d", e.Variables[1])
	}
	if e.CallDepth() != 0 {
		t.Fatalf("expected no frame pushed with the call stack disabled, depth = %d", e.CallDepth())
	}
}

func TestTimeSetAdjustsCurrentTime(t *testing.T) {
	script := buildScript(
		encodeInstr(0, 0, OpTimeSet, imm(10)),
	)
	var globals [16]int32
	e := newEnemy(&globals)
	interp := NewInterpreter(&globals, nil, nil, nil, nil, nil)
	interp.Step(e, script)
	if e.Time() != 11 { // TimeSet(+10) then the per-tick TickTime()
		t.Fatalf("expected time 11 after TimeSet(10) and the tick increment, got %d", e.Time())
	}
}
