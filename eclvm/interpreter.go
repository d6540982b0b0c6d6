// Package eclvm implements the per-enemy behavior bytecode interpreter:
// motion, bullet/laser emission, subroutine call/return, spellcard
// lifecycle, difficulty gating, ANM-coupling, and the host extrinsic-call
// table.
package eclvm

import (
	"math"

	"github.com/GensokyoClub/th06/enemy"
)

// Script is a decoded instruction stream plus its subroutine directory.
// Interpreter.Step resolves an interrupt's subroutine id (recorded by
// Enemy.RequestInterrupt) through Subs, mirroring
// EclManager::CallEclSub's "ctx->currentInstr = subTable[subId]"
// indirection.
type Script struct {
	Instructions []Instruction
	Subs         map[int]int
}

// BulletSpawn is one bullet emission request, whether a one-off
// OpSpawnBullet or one cell of a fired BulletConfig pattern.
type BulletSpawn struct {
	Kind             int32
	Speed, Angle     float32
	OffsetX, OffsetY float32
	SpriteID         int32
	ColorOffset      int32
	Flags            uint32
}

// LaserSpawn is one laser emission request.
type LaserSpawn struct {
	Slot          int
	Kind          int32
	Speed, Angle  float32
	Length, Width float32
}

// Emitter receives bullet/laser/effect/item spawn requests. Kept narrow
// so tests can record spawns without a real bullet-pool implementation.
type Emitter interface {
	SpawnBullet(e *enemy.Enemy, b BulletSpawn)
	SpawnLaser(e *enemy.Enemy, l LaserSpawn)
	SpawnEffect(e *enemy.Enemy, kind int32, offsetX, offsetY float32)
	DropItems(e *enemy.Enemy, count int32, radius, powerThreshold float32)
}

// RNG supplies the uniform randomness the Rand opcodes and random-aim
// bullet modes consume. The interpreter never seeds or owns one,
// matching anmvm's "keep RNG out of the pure step function" rule.
type RNG interface{ Float32() float32 }

// ExCall is one host-provided callback reachable via OpExCall or the
// per-tick OpExRepeat slot, the Go equivalent of one entry in the
// original's g_EclExInsn function-pointer table.
type ExCall func(e *enemy.Enemy, args []float32)

// AnmCoupler lets an enemy's ECL script drive its bound animation VMs:
// swapping the script a main or slot VM runs, and raising an interrupt
// on either, the single point where ECL and ANM interpreters meet.
type AnmCoupler interface {
	SetMainScript(e *enemy.Enemy, scriptID int)
	SetSlotScript(e *enemy.Enemy, slot int, scriptID int)
	InterruptMain(e *enemy.Enemy, label int)
	InterruptSlot(e *enemy.Enemy, slot int, label int)
}

// Player exposes the position MoveToPlayer and aimed bullet patterns
// need, kept to a single method so tests can fake it trivially.
type Player interface {
	Position() (x, y float32)
}

// Interpreter steps Enemy values against a Script. Like anmvm.Interpreter
// it holds no per-enemy state of its own.
type Interpreter struct {
	globals *[16]int32
	emitter Emitter
	rng     RNG
	exCalls []ExCall
	coupler AnmCoupler
	player  Player
}

// NewInterpreter creates an EclInterpreter. exCalls is captured as-is: it
// is the indexed slice of closures built once by the caller at startup
// from whatever host callbacks this scene needs (OpExCall's first
// argument selects an index into it). coupler and player may be nil; the
// ANM-coupling and MoveToPlayer/aimed-emission opcodes become no-ops
// (falling back to the enemy's own heading) without them.
func NewInterpreter(globals *[16]int32, emitter Emitter, rng RNG, exCalls []ExCall, coupler AnmCoupler, player Player) *Interpreter {
	return &Interpreter{globals: globals, emitter: emitter, rng: rng, exCalls: exCalls, coupler: coupler, player: player}
}

// Step advances e by one tick against script: it services any pending
// interrupt, then runs every instruction whose Time is at or before e's
// current time and whose SkipMask does not gate it out at e's difficulty, then
// applies the per-tick continuous-update rules (motion, shoot interval,
// pose switching, the tick callback) before advancing time.
func (in *Interpreter) Step(e *enemy.Enemy, script *Script) {
	if e.Done() {
		return
	}

	if e.RunInterrupt() >= 0 {
		if pc, ok := script.Subs[e.RunInterrupt()]; ok {
			e.JumpTo(pc)
		}
		e.ClearInterrupt()
	}

	for {
		pc := e.PC()
		if pc < 0 || pc >= len(script.Instructions) {
			break
		}
		instr := script.Instructions[pc]
		if int32(instr.Time) > e.Time() {
			break
		}

		e.Advance()
		if !e.SkipForDifficulty(instr.SkipMask) {
			in.exec(e, instr)
		}
		if e.Done() {
			return
		}
	}

	e.TickMotion()
	if e.TickShoot() {
		in.fireBulletPattern(e)
	}
	if e.PoseEnabled {
		if class, changed := e.ClassifyPose(); changed {
			in.switchPoseScript(e, class)
		}
	}
	if e.TickCallbackIndex >= 0 && e.TickCallbackIndex < len(in.exCalls) && in.exCalls[e.TickCallbackIndex] != nil {
		in.exCalls[e.TickCallbackIndex](e, nil)
	}
	if sub, ok := e.CheckTimerCallback(); ok {
		e.RequestInterrupt(sub)
	}
	e.TickTime()
}

// switchPoseScript drives the main VM to whichever pose-animation script
// matches class; the far-left and far-right classes use the left and
// right scripts respectively (the original's "far" thresholds only gate when the
// transition happens, not which sub-vm script ends up running).
func (in *Interpreter) switchPoseScript(e *enemy.Enemy, class enemy.PoseClass) {
	if in.coupler == nil {
		return
	}
	var script int
	switch class {
	case enemy.PoseLeft, enemy.PoseFarLeft:
		script = e.PoseLeftScript
	case enemy.PoseRight, enemy.PoseFarRight:
		script = e.PoseRightScript
	default:
		script = e.PoseCenterScript
	}
	in.coupler.SetMainScript(e, script)
}

func (in *Interpreter) exec(e *enemy.Enemy, instr Instruction) {
	a := instr.Args
	g := in.globals
	switch instr.Opcode {
	case OpNop:

	// Control
	case OpJump:
		target := int(a[0].Resolve(e, g))
		newTime := int32(a[1].Resolve(e, g))
		e.JumpTo(target)
		e.SetTime(newTime)
	case OpJumpDec:
		cur := int32(a[0].Resolve(e, g)) - 1
		a[0].Assign(e, g, cur)
		if cur > 0 {
			e.JumpTo(int(a[1].Resolve(e, g)))
		}
	case OpJumpIfLess:
		if e.CompareReg < 0 {
			e.JumpTo(int(a[0].Resolve(e, g)))
		}
	case OpJumpIfLessOrEqual:
		if e.CompareReg <= 0 {
			e.JumpTo(int(a[0].Resolve(e, g)))
		}
	case OpJumpIfEqual:
		if e.CompareReg == 0 {
			e.JumpTo(int(a[0].Resolve(e, g)))
		}
	case OpJumpIfGreater:
		if e.CompareReg > 0 {
			e.JumpTo(int(a[0].Resolve(e, g)))
		}
	case OpJumpIfGreaterOrEqual:
		if e.CompareReg >= 0 {
			e.JumpTo(int(a[0].Resolve(e, g)))
		}
	case OpJumpIfNotEqual:
		if e.CompareReg != 0 {
			e.JumpTo(int(a[0].Resolve(e, g)))
		}
	case OpCallSub:
		e.PushCall(int(a[0].Resolve(e, g)))
	case OpReturn:
		e.PopCall()
	case OpCallSubIf:
		if int8(a[0].Resolve(e, g)) == e.CompareReg {
			e.PushCall(int(a[1].Resolve(e, g)))
		}
	case OpInterrupt:
		if sub, ok := e.InterruptTable[int(a[0].Resolve(e, g))]; ok {
			e.RequestInterrupt(sub)
		}
	case OpSetDisableCallStack:
		e.DisableCallStack = a[0].Resolve(e, g) != 0
	case OpExit:
		e.Stop()

	// Arithmetic: int
	case OpSetVar:
		a[0].Assign(e, g, int32(a[1].Resolve(e, g)))
	case OpAddVar:
		cur := int32(a[0].Resolve(e, g))
		a[0].Assign(e, g, cur+int32(a[1].Resolve(e, g)))
	case OpSubVar:
		cur := int32(a[0].Resolve(e, g))
		a[0].Assign(e, g, cur-int32(a[1].Resolve(e, g)))
	case OpMulVar:
		cur := int32(a[0].Resolve(e, g))
		a[0].Assign(e, g, cur*int32(a[1].Resolve(e, g)))
	case OpDivVar:
		div := int32(a[1].Resolve(e, g))
		if div != 0 {
			cur := int32(a[0].Resolve(e, g))
			a[0].Assign(e, g, cur/div)
		}
	case OpModVar:
		div := int32(a[1].Resolve(e, g))
		if div != 0 {
			cur := int32(a[0].Resolve(e, g))
			a[0].Assign(e, g, cur%div)
		}
	case OpIncVar:
		a[0].Assign(e, g, int32(a[0].Resolve(e, g))+1)
	case OpDecVar:
		a[0].Assign(e, g, int32(a[0].Resolve(e, g))-1)
	case OpRandVar:
		lo, hi := a[1].Resolve(e, g), a[2].Resolve(e, g)
		var r float32
		if in.rng != nil && hi > lo {
			r = lo + in.rng.Float32()*(hi-lo)
		} else {
			r = lo
		}
		a[0].Assign(e, g, int32(r))
	case OpRandMinVar:
		lo, hi := a[1].Resolve(e, g), a[2].Resolve(e, g)
		var r float32 = lo
		if in.rng != nil && hi > lo {
			r = lo + in.rng.Float32()*(hi-lo)
		}
		a[0].Assign(e, g, int32(math.Floor(float64(r))))
	case OpAtan2Var:
		a[0].Assign(e, g, int32(atan2_32(a[1].Resolve(e, g), a[2].Resolve(e, g))))
	case OpNormalizeAngleVar:
		a[0].Assign(e, g, int32(normalizeAngle32(a[0].Resolve(e, g))))

	// Arithmetic: float
	case OpSetVarF:
		a[0].AssignFloat(e, g, a[1].ResolveFloat(e, g))
	case OpAddVarF:
		a[0].AssignFloat(e, g, a[0].ResolveFloat(e, g)+a[1].ResolveFloat(e, g))
	case OpSubVarF:
		a[0].AssignFloat(e, g, a[0].ResolveFloat(e, g)-a[1].ResolveFloat(e, g))
	case OpMulVarF:
		a[0].AssignFloat(e, g, a[0].ResolveFloat(e, g)*a[1].ResolveFloat(e, g))
	case OpDivVarF:
		div := a[1].ResolveFloat(e, g)
		if div != 0 {
			a[0].AssignFloat(e, g, a[0].ResolveFloat(e, g)/div)
		}

	// Compare
	case OpCmpInt:
		e.CompareReg = compareSign(float32(int32(a[0].Resolve(e, g))), float32(int32(a[1].Resolve(e, g))))
	case OpCmpFloat:
		e.CompareReg = compareSign(a[0].ResolveFloat(e, g), a[1].ResolveFloat(e, g))

	// Motion
	case OpSetPosition:
		e.CancelMotion()
		e.Position[0] = a[0].Resolve(e, g)
		e.Position[1] = a[1].Resolve(e, g)
		e.Position[2] = a[2].Resolve(e, g)
	case OpSetVelocity:
		e.CancelMotion()
		e.Velocity[0] = a[0].Resolve(e, g)
		e.Velocity[1] = a[1].Resolve(e, g)
		e.Velocity[2] = a[2].Resolve(e, g)
	case OpSetAcceleration:
		e.Acceleration = a[0].Resolve(e, g)
	case OpSetSpeedAngle:
		e.CancelMotion()
		e.Speed = a[0].Resolve(e, g)
		e.Angle = a[1].Resolve(e, g)
		e.Velocity[0] = e.Speed * cos32(e.Angle)
		e.Velocity[1] = e.Speed * sin32(e.Angle)
	case OpSetAngularVelocity:
		e.AngularVelocity = a[0].Resolve(e, g)
		e.StartAngularMotion()
	case OpAddPosition:
		e.Position[0] += a[0].Resolve(e, g)
		e.Position[1] += a[1].Resolve(e, g)
		e.Position[2] += a[2].Resolve(e, g)
	case OpMoveToPlayer:
		speed := a[0].Resolve(e, g)
		angle := e.Angle
		if in.player != nil {
			px, py := in.player.Position()
			angle = atan2_32(py-e.Position[1], px-e.Position[0])
		}
		e.CancelMotion()
		e.Speed = speed
		e.Angle = angle
		e.Velocity[0] = speed * cos32(angle)
		e.Velocity[1] = speed * sin32(angle)
	case OpMoveTimeLinear:
		in.startTimedMove(e, a, g, 0)
	case OpMoveTimeDecel:
		in.startTimedMove(e, a, g, 1)
	case OpMoveTimeDecelFast:
		in.startTimedMove(e, a, g, 2)
	case OpMoveTimeAccel:
		in.startTimedMove(e, a, g, 3)
	case OpMoveTimeAccelFast:
		in.startTimedMove(e, a, g, 4)

	// ANM coupling
	case OpSetMainVmScript:
		if in.coupler != nil {
			in.coupler.SetMainScript(e, int(a[0].Resolve(e, g)))
		}
	case OpSetSlotVmScript:
		if in.coupler != nil {
			in.coupler.SetSlotScript(e, int(a[0].Resolve(e, g)), int(a[1].Resolve(e, g)))
		}
	case OpInterruptMainVm:
		if in.coupler != nil {
			in.coupler.InterruptMain(e, int(a[0].Resolve(e, g)))
		}
	case OpInterruptSlotVm:
		if in.coupler != nil {
			in.coupler.InterruptSlot(e, int(a[0].Resolve(e, g)), int(a[1].Resolve(e, g)))
		}

	// Bullet / laser emission
	case OpSetBulletPattern:
		e.Bullets = enemy.BulletConfig{
			CountX:         int32(a[0].Resolve(e, g)),
			CountY:         int32(a[1].Resolve(e, g)),
			AimMode:        enemy.AimMode(int32(a[2].Resolve(e, g))),
			BaseAngle:      a[3].Resolve(e, g),
			BaseSpeed:      a[4].Resolve(e, g),
			SecondaryAngle: a[5].Resolve(e, g),
			SecondarySpeed: a[6].Resolve(e, g),
			SpriteID:       int32(a[7].Resolve(e, g)),
		}
	case OpSetShootInterval:
		e.ShootInterval = int32(a[0].Resolve(e, g))
	case OpSpawnBullet:
		if in.emitter != nil {
			in.emitter.SpawnBullet(e, BulletSpawn{
				Kind:    int32(a[0].Resolve(e, g)),
				Speed:   a[1].Resolve(e, g) * e.Rank.BulletSpeedScale,
				Angle:   a[2].Resolve(e, g),
				OffsetX: a[3].Resolve(e, g),
				OffsetY: a[4].Resolve(e, g),
			})
		}
	case OpSpawnLaser:
		slot := int(a[0].Resolve(e, g))
		ls := enemy.LaserSlot{
			Active: true,
			Kind:   int32(a[1].Resolve(e, g)),
			Speed:  a[2].Resolve(e, g),
			Angle:  a[3].Resolve(e, g),
			Length: a[4].Resolve(e, g),
			Width:  a[5].Resolve(e, g),
		}
		if slot >= 0 && slot < len(e.LaserSlots) {
			e.LaserSlots[slot] = ls
		}
		if in.emitter != nil {
			in.emitter.SpawnLaser(e, LaserSpawn{
				Slot:   slot,
				Kind:   ls.Kind,
				Speed:  ls.Speed,
				Angle:  ls.Angle,
				Length: ls.Length,
				Width:  ls.Width,
			})
		}
	case OpCancelLaser:
		slot := int(a[0].Resolve(e, g))
		if slot >= 0 && slot < len(e.LaserSlots) {
			e.LaserSlots[slot].Active = false
		}

	// State
	case OpRegisterBoss:
		e.BossID = int32(a[0].Resolve(e, g))
		e.IsBoss = a[1].Resolve(e, g) != 0
		e.Active = true
	case OpUnregisterBoss:
		e.IsBoss = false
		e.Active = false
	case OpSetLife:
		life := int32(a[0].Resolve(e, g))
		e.Life = life
		if life > e.MaxLife {
			e.MaxLife = life
		}
	case OpSetHitbox:
		e.HitboxWidth = a[0].Resolve(e, g)
		e.HitboxHeight = a[1].Resolve(e, g)
	case OpSetDeathCallback:
		e.DeathCallbackValid = true
		e.DeathSub = int(a[0].Resolve(e, g))
	case OpSetLifeCallback:
		e.LifeCallbackThreshold = int32(a[0].Resolve(e, g))
		e.LifeCallbackSub = int(a[1].Resolve(e, g))
	case OpSetTimerCallback:
		e.TimerCallbackThreshold = int32(a[0].Resolve(e, g))
		e.TimerCallbackSub = int(a[1].Resolve(e, g))
	case OpSetInterruptTableEntry:
		e.InterruptTable[int(a[0].Resolve(e, g))] = int(a[1].Resolve(e, g))
	case OpStartSpellcard:
		idx := clampIdx(int(a[0].Resolve(e, g)))
		e.Spellcard.Index = idx
		e.Spellcard.Active = true
		e.Spellcard.Captured = false
		e.Spellcard.BaseScore = SpellcardBaseScore[idx]
		e.Spellcard.NameChecksum = uint32(int32(a[1].Resolve(e, g)))
	case OpEndSpellcard:
		e.Spellcard.Active = false
		e.Spellcard.Captured = a[0].Resolve(e, g) != 0
		if e.Spellcard.Captured {
			e.Spellcard.CaptureCount++
			e.Spellcard.BonusMultiplier = a[1].Resolve(e, g)
			e.Spellcard.CaptureBonus = SpellcardBonus(e.Spellcard.Index, e.Spellcard.BonusMultiplier)
		}

	// Effects / items
	case OpSpawnEffect:
		if in.emitter != nil {
			in.emitter.SpawnEffect(e, int32(a[0].Resolve(e, g)), a[1].Resolve(e, g), a[2].Resolve(e, g))
		}
	case OpDropItems:
		if in.emitter != nil {
			in.emitter.DropItems(e, int32(a[0].Resolve(e, g)), a[1].Resolve(e, g), a[2].Resolve(e, g))
		}

	// Extrinsic calls
	case OpExCall:
		idx := int(a[0].Resolve(e, g))
		if idx >= 0 && idx < len(in.exCalls) && in.exCalls[idx] != nil {
			extra := make([]float32, len(a)-1)
			for i, arg := range a[1:] {
				extra[i] = arg.Resolve(e, g)
			}
			in.exCalls[idx](e, extra)
		}
	case OpExRepeat:
		idx := int(a[0].Resolve(e, g))
		if idx < 0 {
			e.TickCallbackIndex = -1
		} else {
			e.TickCallbackIndex = idx
		}

	// Time
	case OpTimeSet:
		e.SetTime(e.Time() + int32(a[0].Resolve(e, g)))
	}
}

// startTimedMove decodes a MoveTime* instruction's (x, y, z, frames) args
// and hands them to the enemy's timed-interpolation state.
func (in *Interpreter) startTimedMove(e *enemy.Enemy, a []Arg, g *[16]int32, easeMode uint8) {
	target := [3]float32{a[0].Resolve(e, g), a[1].Resolve(e, g), a[2].Resolve(e, g)}
	frames := int32(a[3].Resolve(e, g))
	e.StartTimedMotion(target, frames, easeMode)
}

// fireBulletPattern emits one shoot-interval volley from e's configured
// BulletConfig, applying rank-influenced clamps: counts never drop below
// 1 and speeds never drop below 0.3, so a difficulty scale of zero can
// thin a pattern but never silence it outright.
func (in *Interpreter) fireBulletPattern(e *enemy.Enemy) {
	if in.emitter == nil {
		return
	}
	cfg := e.Bullets

	countX := int32(float32(cfg.CountX) * e.Rank.BulletCountScale)
	if countX < 1 {
		countX = 1
	}
	countY := cfg.CountY
	if countY < 1 {
		countY = 1
	}
	speed := cfg.BaseSpeed * e.Rank.BulletSpeedScale
	if speed < 0.3 {
		speed = 0.3
	}

	aimAngle := cfg.BaseAngle
	if cfg.AimMode == enemy.AimAimedFan || cfg.AimMode == enemy.AimAimedCircle {
		if in.player != nil {
			px, py := in.player.Position()
			aimAngle = atan2_32(py-e.Position[1], px-e.Position[0])
		} else {
			aimAngle = e.Angle
		}
	}

	for yi := int32(0); yi < countY; yi++ {
		rowSpeed := speed + float32(yi)*cfg.SecondarySpeed
		for xi := int32(0); xi < countX; xi++ {
			angle := in.fanAngle(cfg, aimAngle, xi, countX)
			in.emitter.SpawnBullet(e, BulletSpawn{
				Kind:        cfg.SpriteID,
				Speed:       rowSpeed,
				Angle:       angle,
				OffsetX:     e.Position[0],
				OffsetY:     e.Position[1],
				SpriteID:    cfg.SpriteID,
				ColorOffset: cfg.ColorOffset,
				Flags:       cfg.Flags,
			})
		}
	}
}

// fanAngle returns the angle of bullet index xi of count in a pattern
// centered on aimAngle, per the configured aim mode.
func (in *Interpreter) fanAngle(cfg enemy.BulletConfig, aimAngle float32, xi, count int32) float32 {
	switch cfg.AimMode {
	case enemy.AimCircle, enemy.AimAimedCircle:
		if count <= 1 {
			return aimAngle
		}
		return aimAngle + float32(xi)*(2*math.Pi/float32(count))
	case enemy.AimRandomAngle:
		if in.rng != nil {
			return in.rng.Float32() * 2 * math.Pi
		}
		return aimAngle
	default: // AimFan, AimAimedFan, AimRandomSpeed, AimRandom all fan around aimAngle
		if count <= 1 {
			return aimAngle
		}
		spread := cfg.SecondaryAngle
		return aimAngle + spread*(float32(xi)-float32(count-1)/2)
	}
}

func clampIdx(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(SpellcardBaseScore) {
		return len(SpellcardBaseScore) - 1
	}
	return i
}
