package eclvm

// Opcode identifies one ECL bytecode operation, grouped the way spec
// documents them: control flow, arithmetic, compare, motion, ANM
// coupling, bullet/laser emission, state, effects/items, extrinsic
// calls, and time.
type Opcode uint16

const (
	OpNop Opcode = iota

	// Control
	OpJump
	OpJumpDec // decrement var, jump to target if still > 0
	OpJumpIfLess
	OpJumpIfLessOrEqual
	OpJumpIfEqual
	OpJumpIfGreater
	OpJumpIfGreaterOrEqual
	OpJumpIfNotEqual
	OpCallSub
	OpReturn
	OpCallSubIf // conditional call gated the same way the jumps are (compare-register == arg)
	OpInterrupt // raise this enemy's own InterruptTable[n]
	OpSetDisableCallStack
	OpExit

	// Arithmetic: int
	OpSetVar
	OpAddVar
	OpSubVar
	OpMulVar
	OpDivVar
	OpModVar
	OpIncVar
	OpDecVar
	OpRandVar    // min, max: uniform int in [min, max)
	OpRandMinVar // min, max: uniform int in [min, max), floored at min
	OpAtan2Var
	OpNormalizeAngleVar

	// Arithmetic: float (share argCounts with their int counterparts;
	// Resolve/Assign always operate through the same int32-backed
	// variable slots, matching the single typed id space the design
	// notes describe)
	OpSetVarF
	OpAddVarF
	OpSubVarF
	OpMulVarF
	OpDivVarF

	// Compare
	OpCmpInt
	OpCmpFloat

	// Motion
	OpSetPosition
	OpSetVelocity
	OpSetAcceleration
	OpSetSpeedAngle
	OpSetAngularVelocity
	OpAddPosition
	OpMoveToPlayer
	OpMoveTimeLinear
	OpMoveTimeDecel
	OpMoveTimeDecelFast
	OpMoveTimeAccel
	OpMoveTimeAccelFast

	// ANM coupling
	OpSetMainVmScript
	OpSetSlotVmScript
	OpInterruptMainVm
	OpInterruptSlotVm

	// Bullet / laser emission
	OpSetBulletPattern // countX, countY, aimMode, baseAngle, baseSpeed, secondaryAngle, secondarySpeed, spriteID
	OpSetShootInterval
	OpSpawnBullet // one-off emission outside the pattern/interval machinery
	OpSpawnLaser
	OpCancelLaser

	// State
	OpRegisterBoss
	OpUnregisterBoss
	OpSetLife
	OpSetHitbox
	OpSetDeathCallback
	OpSetLifeCallback
	OpSetTimerCallback
	OpSetInterruptTableEntry
	OpStartSpellcard
	OpEndSpellcard

	// Effects / items
	OpSpawnEffect
	OpDropItems

	// Extrinsic calls
	OpExCall
	OpExRepeat

	// Time
	OpTimeSet

	numOpcodes
)

// argCounts gives each opcode's fixed Arg-slot count, used by Decode to
// size a record's argument list.
var argCounts = [numOpcodes]int{
	OpNop: 0,

	OpJump:                  2, // target, time
	OpJumpDec:                2, // var, target
	OpJumpIfLess:             1, // target (compare-register set by a prior Cmp)
	OpJumpIfLessOrEqual:      1,
	OpJumpIfEqual:            1,
	OpJumpIfGreater:          1,
	OpJumpIfGreaterOrEqual:   1,
	OpJumpIfNotEqual:         1,
	OpCallSub:                1,
	OpReturn:                 0,
	OpCallSubIf:              2, // compare result to match, sub-target
	OpInterrupt:              1, // interrupt-table index
	OpSetDisableCallStack:    1, // 0/1
	OpExit:                   0,

	OpSetVar:           2,
	OpAddVar:           2,
	OpSubVar:           2,
	OpMulVar:           2,
	OpDivVar:           2,
	OpModVar:           2,
	OpIncVar:           1,
	OpDecVar:           1,
	OpRandVar:          3,
	OpRandMinVar:       3,
	OpAtan2Var:         3, // dest, y, x
	OpNormalizeAngleVar: 1,

	OpSetVarF: 2,
	OpAddVarF: 2,
	OpSubVarF: 2,
	OpMulVarF: 2,
	OpDivVarF: 2,

	OpCmpInt:   2,
	OpCmpFloat: 2,

	OpSetPosition:         3,
	OpSetVelocity:         3,
	OpSetAcceleration:     1,
	OpSetSpeedAngle:       2,
	OpSetAngularVelocity:  1,
	OpAddPosition:         3,
	OpMoveToPlayer:        1, // speed
	OpMoveTimeLinear:      4, // x, y, z, frames
	OpMoveTimeDecel:       4,
	OpMoveTimeDecelFast:   4,
	OpMoveTimeAccel:       4,
	OpMoveTimeAccelFast:   4,

	OpSetMainVmScript:  1,
	OpSetSlotVmScript:  2, // slot, scriptID
	OpInterruptMainVm:  1,
	OpInterruptSlotVm:  2,

	OpSetBulletPattern: 8,
	OpSetShootInterval: 1,
	OpSpawnBullet:      5, // kind, speed, angle, offsetX, offsetY
	OpSpawnLaser:       6, // slot, kind, speed, angle, length, width
	OpCancelLaser:      1,

	OpRegisterBoss:           2, // bossID, isBoss
	OpUnregisterBoss:         0,
	OpSetLife:                1,
	OpSetHitbox:              2,
	OpSetDeathCallback:       1,
	OpSetLifeCallback:        2, // threshold, sub
	OpSetTimerCallback:       2, // threshold, sub
	OpSetInterruptTableEntry: 2, // index, subID
	OpStartSpellcard:         2, // spellcardIndex, nameChecksum
	OpEndSpellcard:           2, // captured (0/1), timeRemainingFraction

	OpSpawnEffect: 3, // kind, offsetX, offsetY
	OpDropItems:   3, // count, radius, powerThreshold

	OpExCall:   4, // callIndex + up to 3 extra args
	OpExRepeat: 1, // callIndex, or negative to clear

	OpTimeSet: 1,
}

// ArgCount reports how many Arg slots opcode decodes, or -1 if opcode is
// outside the known table.
func (o Opcode) ArgCount() int {
	if int(o) < 0 || int(o) >= len(argCounts) {
		return -1
	}
	return argCounts[o]
}
