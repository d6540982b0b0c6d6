package enemy

import "testing"

func TestEaseEndpoints(t *testing.T) {
	for mode := uint8(0); mode <= 4; mode++ {
		if got := ease(mode, 0); got != 0 {
			t.Errorf("mode %d: ease(0) = %v, want 0", mode, got)
		}
		if got := ease(mode, 1); got != 1 {
			t.Errorf("mode %d: ease(1) = %v, want 1", mode, got)
		}
	}
}

func TestStartTimedMotionAppliesImmediatelyWithNonPositiveDuration(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)
	e.StartTimedMotion([3]float32{5, 6, 7}, 0, 0)
	if e.Position != [3]float32{5, 6, 7} {
		t.Fatalf("expected immediate position set, got %+v", e.Position)
	}
	if e.motionKind != MotionNone {
		t.Fatalf("expected motion kind to stay None for a zero-duration move")
	}
}

func TestTickMotionAngularRecomputesAxisSpeed(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)
	e.Speed = 2
	e.AngularVelocity = 0
	e.Angle = 0
	e.StartAngularMotion()

	e.TickMotion()
	if e.Velocity[0] != 2 || e.Velocity[1] != 0 {
		t.Fatalf("expected velocity aligned with angle 0 at speed 2, got %+v", e.Velocity)
	}
	if e.Position[0] != 2 {
		t.Fatalf("expected position integrated by velocity, got %v", e.Position[0])
	}
}

func TestTickMotionTimedSnapsToTargetAtDuration(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)
	e.StartTimedMotion([3]float32{10, 0, 0}, 2, 0)

	e.TickMotion()
	if e.Position[0] <= 0 || e.Position[0] >= 10 {
		t.Fatalf("expected partial progress after tick 1, got %v", e.Position[0])
	}
	e.TickMotion()
	if e.Position[0] != 10 {
		t.Fatalf("expected snap to target at duration, got %v", e.Position[0])
	}
	if e.motionKind != MotionNone {
		t.Fatalf("expected motion kind cleared after completion")
	}
}

func TestTickShootRespectsDisabledAndInterval(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)
	e.Life = 1 // only a living enemy's shoot timer runs
	e.ShootInterval = 0
	if e.TickShoot() {
		t.Fatalf("expected no fire with a non-positive interval")
	}

	e.ShootInterval = 2
	if e.TickShoot() {
		t.Fatalf("expected no fire before the interval elapses")
	}
	if !e.TickShoot() {
		t.Fatalf("expected fire once the interval elapses")
	}

	e.ShootDisabled = true
	if e.TickShoot() {
		t.Fatalf("expected disabled shooter to never fire")
	}
}

func TestClassifyPoseReportsChangeOnTransition(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)

	if class, changed := e.ClassifyPose(); class != PoseCenter || changed {
		t.Fatalf("expected initial classification center with no change, got %v changed=%v", class, changed)
	}

	e.AxisSpeed[0] = -1
	class, changed := e.ClassifyPose()
	if class != PoseLeft || !changed {
		t.Fatalf("expected transition to left, got %v changed=%v", class, changed)
	}

	class, changed = e.ClassifyPose()
	if class != PoseLeft || changed {
		t.Fatalf("expected no further change while axis speed stays negative")
	}
}

func TestClassifyPoseFarThresholds(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)
	e.PoseFarLeftThreshold = 5
	e.AxisSpeed[0] = -6

	class, _ := e.ClassifyPose()
	if class != PoseFarLeft {
		t.Fatalf("expected far-left classification past the threshold, got %v", class)
	}
}
