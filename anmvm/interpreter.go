// Package anmvm implements the per-sprite animation bytecode interpreter:
// position/scale/rotation/color/blend-mode/UV-scroll state driven by a
// decoded Instruction stream, advanced one tick at a time.
package anmvm

// Interpreter steps a set of Vm instances. It holds no state of its own;
// every call is a pure function of the Vm passed in, matching the
// teacher's cpu.execute(bus) shape: state lives in the struct being
// stepped, not in the stepper.
type Interpreter struct{}

// NewInterpreter creates an AnmInterpreter.
func NewInterpreter() *Interpreter { return &Interpreter{} }

// Step advances vm by one tick: it applies any pending interrupt, runs
// every instruction whose Time is at or before the VM's current time, then
// advances in-flight interpolations and UV scroll by one tick. Stop and
// StopHide do not end the Step early: they hold the instruction stream
// in place (the same instruction is reattempted next tick) while
// everything below the instruction loop keeps ticking.
func (in *Interpreter) Step(vm *Vm) {
	if vm.stopped {
		return
	}

	halted := false
	if vm.pendingInterrupt >= 0 {
		target := vm.pendingInterrupt
		vm.pendingInterrupt = -1
		if idx, ok := vm.labels[target]; ok {
			vm.pc = idx
		} else if vm.fallbackIdx >= 0 {
			vm.pc = vm.fallbackIdx
		} else {
			halted = true
			vm.time--
		}
	}

	if !halted {
		for vm.pc < len(vm.script) && int32(vm.script[vm.pc].Time) <= vm.time {
			instr := vm.script[vm.pc]
			vm.pc++
			if in.exec(vm, instr) {
				vm.pc--
				vm.time--
				break
			}
			if vm.stopped {
				return
			}
		}
	}

	in.tickInterp(vm)
	vm.UVScroll[0] += vm.uvScrollSpeed[0]
	vm.UVScroll[1] += vm.uvScrollSpeed[1]

	if vm.fadeSpeed != 0 {
		in.tickFade(vm)
	}
	if vm.scaleSpeed[0] != 0 || vm.scaleSpeed[1] != 0 {
		vm.Scale[0] += vm.scaleSpeed[0]
		vm.Scale[1] += vm.scaleSpeed[1]
	}
	vm.Rotation[0] += vm.AngleVel[0]
	vm.Rotation[1] += vm.AngleVel[1]
	vm.Rotation[2] += vm.AngleVel[2]

	vm.time++
}

func (in *Interpreter) tickInterp(vm *Vm) {
	p := &vm.posInterp
	if !p.active {
		return
	}
	p.elapsed++
	t := float32(p.elapsed) / float32(p.duration)
	eased := p.ease.apply(t)
	for i := 0; i < 3; i++ {
		vm.Position[i] = p.start[i] + (p.target[i]-p.start[i])*eased
	}
	if p.elapsed >= p.duration {
		vm.Position = p.target
		p.active = false
	}
}

func (in *Interpreter) tickFade(vm *Vm) {
	a := int32(vm.Alpha) + int32(vm.fadeSpeed)
	target := int32(vm.fadeTarget)
	if (vm.fadeSpeed > 0 && a >= target) || (vm.fadeSpeed < 0 && a <= target) {
		vm.Alpha = vm.fadeTarget
		vm.fadeSpeed = 0
		return
	}
	if a < 0 {
		a = 0
	}
	if a > 255 {
		a = 255
	}
	vm.Alpha = byte(a)
}

// exec runs one instruction against vm and reports whether it halted the
// instruction stream for this tick (Stop/StopHide). Terminal opcodes
// (Exit/ExitHide) set vm.stopped directly instead.
func (in *Interpreter) exec(vm *Vm, instr Instruction) bool {
	a := instr.Args
	switch instr.Opcode {
	case OpExit:
		vm.stopped = true
	case OpExitHide:
		vm.stopped = true
		vm.hidden = true
	case OpSetActiveSprite:
		vm.SpriteID = int(a[0])
	case OpSetRandomSprite:
		// Args: [base, count). Random selection is a host concern (the
		// design notes keep RNG out of the interpreter's pure step
		// function); this interpreter takes no RNG, so it always selects
		// the base sprite and the count argument is unused.
		vm.SpriteID = int(a[0])
	case OpSetScale:
		vm.Scale[0], vm.Scale[1] = a[0], a[1]
	case OpSetAlpha:
		vm.Alpha = clampByte(a[0])
	case OpSetColor:
		vm.Color[0], vm.Color[1], vm.Color[2] = clampByte(a[0]), clampByte(a[1]), clampByte(a[2])
	case OpJump:
		target := int(a[0])
		if target >= 0 && target < len(vm.script) {
			vm.pc = target
			vm.time = int32(a[1])
		}
	case OpFlipX:
		vm.FlipX = !vm.FlipX
	case OpFlipY:
		vm.FlipY = !vm.FlipY
	case OpUsePosOffset:
		vm.UsePosOffset = a[0] != 0
	case OpSetRotation:
		vm.Rotation[0], vm.Rotation[1], vm.Rotation[2] = a[0], a[1], a[2]
	case OpSetAngleVel:
		vm.AngleVel[0], vm.AngleVel[1], vm.AngleVel[2] = a[0], a[1], a[2]
	case OpScaleTime:
		// Args: [targetX, targetY, duration]
		if a[2] > 0 {
			vm.scaleSpeed[0] = (a[0] - vm.Scale[0]) / a[2]
			vm.scaleSpeed[1] = (a[1] - vm.Scale[1]) / a[2]
		}
	case OpSetScaleSpeed:
		vm.scaleSpeed[0], vm.scaleSpeed[1] = a[0], a[1]
	case OpFade:
		// Args: [targetAlpha, duration]
		vm.fadeTarget = clampByte(a[0])
		if a[1] > 0 {
			vm.fadeSpeed = (a[0] - float32(vm.Alpha)) / a[1]
		}
	case OpSetBlendAdditive:
		vm.Blend = BlendAdditive
	case OpSetBlendDefault:
		vm.Blend = BlendDefault
	case OpSetPosition:
		vm.Position[0], vm.Position[1], vm.Position[2] = a[0], a[1], a[2]
		vm.posInterp.active = false
	case OpPosTimeLinear, OpPosTimeDecel, OpPosTimeDecelFast, OpPosTimeAccel, OpPosTimeAccelFast:
		dur := int32(a[3])
		vm.posInterp = interp{
			active:   dur > 0,
			start:    vm.Position,
			target:   [3]float32{a[0], a[1], a[2]},
			duration: dur,
			ease:     easeForOpcode(instr.Opcode),
		}
		if dur <= 0 {
			vm.Position = vm.posInterp.target
		}
	case OpStop:
		return true
	case OpStopHide:
		vm.hidden = true
		return true
	case OpInterruptLabel:
		// No runtime effect; labels are indexed once at construction.
	case OpSetVisibility:
		vm.Visible = a[0] != 0
	case OpSetAnchor:
		vm.Anchor = int(a[0])
	case OpSetAutoRotate:
		vm.AutoRotate = a[0] != 0
	case OpUVScrollX:
		vm.uvScrollSpeed[0] = a[0]
	case OpUVScrollY:
		vm.uvScrollSpeed[1] = a[0]
	case OpSetZWriteDisable:
		vm.ZWriteDisable = a[0] != 0
	case OpNop:
		// documented no-op for malformed or reserved opcodes
	}
	return false
}

func easeForOpcode(op Opcode) Ease {
	switch op {
	case OpPosTimeLinear:
		return EaseLinear
	case OpPosTimeDecel:
		return EaseDecel
	case OpPosTimeDecelFast:
		return EaseDecelFast
	case OpPosTimeAccel:
		return EaseAccel
	case OpPosTimeAccelFast:
		return EaseAccelFast
	default:
		return EaseLinear
	}
}

func clampByte(f float32) byte {
	if f < 0 {
		return 0
	}
	if f > 255 {
		return 255
	}
	return byte(f)
}
