package enemy

import "math"

// ease applies one of the five position-interpolation curves shared with
// the animation VM, given normalized t in [0,1].
func ease(mode uint8, t float32) float32 {
	switch mode {
	case 1: // decel
		u := 1 - t
		return 1 - u*u
	case 2: // decel fast
		u := 1 - t
		uu := u * u
		return 1 - uu*uu
	case 3: // accel
		return t * t
	case 4: // accel fast
		tt := t * t
		return tt * tt
	default: // linear
		return t
	}
}

func cos32(rad float32) float32 { return float32(math.Cos(float64(rad))) }
func sin32(rad float32) float32 { return float32(math.Sin(float64(rad))) }

// StartAngularMotion switches the enemy to angle/speed-driven motion:
// every tick its angle advances by angular velocity, its speed by
// acceleration, and position velocity is recomputed from the resulting
// axis-speed.
func (e *Enemy) StartAngularMotion() {
	e.motionKind = MotionAngular
}

// StartTimedMotion switches the enemy to eased position interpolation
// toward target over duration ticks. A non-positive duration applies the
// target immediately.
func (e *Enemy) StartTimedMotion(target [3]float32, duration int32, easeMode uint8) {
	if duration <= 0 {
		e.Position = target
		e.motionKind = MotionNone
		return
	}
	e.motionKind = MotionTimed
	e.motionInitial = e.Position
	e.motionDelta = [3]float32{target[0] - e.Position[0], target[1] - e.Position[1], target[2] - e.Position[2]}
	e.motionDuration = duration
	e.motionTimer = 0
	e.motionEase = easeMode
}

// CancelMotion drops any in-flight timed interpolation, the way a direct
// position/velocity-setting opcode overrides whatever continuous motion
// rule was previously driving the enemy.
func (e *Enemy) CancelMotion() {
	e.motionKind = MotionNone
}

// TickMotion advances whichever continuous motion rule is active, then
// integrates Position by Velocity for every mode except MotionTimed
// (which drives Position directly via interpolation instead).
func (e *Enemy) TickMotion() {
	switch e.motionKind {
	case MotionAngular:
		e.Angle += e.AngularVelocity
		e.Speed += e.Acceleration
		e.AxisSpeed[0] = e.Speed * cos32(e.Angle)
		e.AxisSpeed[1] = e.Speed * sin32(e.Angle)
		e.Velocity[0] = e.AxisSpeed[0]
		e.Velocity[1] = e.AxisSpeed[1]
		e.Position[0] += e.Velocity[0]
		e.Position[1] += e.Velocity[1]
		e.Position[2] += e.Velocity[2]
	case MotionTimed:
		e.motionTimer++
		t := float32(e.motionTimer) / float32(e.motionDuration)
		eased := ease(e.motionEase, t)
		for i := 0; i < 3; i++ {
			e.Position[i] = e.motionInitial[i] + e.motionDelta[i]*eased
		}
		if e.motionTimer >= e.motionDuration {
			e.Position = [3]float32{
				e.motionInitial[0] + e.motionDelta[0],
				e.motionInitial[1] + e.motionDelta[1],
				e.motionInitial[2] + e.motionDelta[2],
			}
			e.motionKind = MotionNone
		}
	default:
		e.Position[0] += e.Velocity[0]
		e.Position[1] += e.Velocity[1]
		e.Position[2] += e.Velocity[2]
	}
}

// TickShoot advances the shoot-interval timer and reports whether it
// wrapped this tick (the configured bullet pattern should fire), the
// ECL "if life > 0: advance shoot-interval timer and, on wrap, spawn"
// per-tick rule. Disabled shooters, enemies with no life left, and
// non-positive intervals never fire.
func (e *Enemy) TickShoot() bool {
	if e.ShootDisabled || e.ShootInterval <= 0 || e.Life <= 0 {
		return false
	}
	e.shootTimer++
	if e.shootTimer >= e.ShootInterval {
		e.shootTimer = 0
		return true
	}
	return false
}

// ClassifyPose reports the enemy's current pose classification from its
// horizontal axis-speed and whether it differs from the last call's
// result, letting a caller decide whether to switch sub-vm scripts only
// on a transition.
func (e *Enemy) ClassifyPose() (class PoseClass, changed bool) {
	next := PoseCenter
	switch {
	case e.PoseFarLeftThreshold != 0 && e.AxisSpeed[0] <= -e.PoseFarLeftThreshold:
		next = PoseFarLeft
	case e.PoseFarRightThreshold != 0 && e.AxisSpeed[0] >= e.PoseFarRightThreshold:
		next = PoseFarRight
	case e.AxisSpeed[0] < 0:
		next = PoseLeft
	case e.AxisSpeed[0] > 0:
		next = PoseRight
	}
	changed = next != e.poseClass
	e.poseClass = next
	return next, changed
}
