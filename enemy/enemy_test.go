package enemy

import "testing"

func TestPushCallSaturatesAtMaxDepth(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)

	for i := 0; i < maxCallDepth; i++ {
		if !e.PushCall(i) {
			t.Fatalf("expected PushCall %d to succeed under the depth cap", i)
		}
	}
	if e.PushCall(99) {
		t.Fatalf("expected PushCall to report saturation once the stack is full")
	}
	if e.CallDepth() != maxCallDepth {
		t.Fatalf("expected call depth to stay at the cap, got %d", e.CallDepth())
	}
}

func TestPopCallRestoresCallerState(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)
	e.JumpTo(3)
	e.SetTime(7)

	e.PushCall(10)
	if e.PC() != 10 {
		t.Fatalf("expected PushCall to jump to the sub, PC = %d", e.PC())
	}

	e.PopCall()
	if e.PC() != 3 || e.Time() != 7 {
		t.Fatalf("expected Return to restore caller PC=3 time=7, got PC=%d time=%d", e.PC(), e.Time())
	}
}

func TestPopCallOnEmptyStackIsNoOp(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)
	e.JumpTo(5)
	e.PopCall()
	if e.PC() != 5 {
		t.Fatalf("expected dangling Return to be a no-op, PC = %d", e.PC())
	}
}

func TestSkipForDifficultyMasksByBit(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)
	e.Difficulty = 2
	if !e.SkipForDifficulty(1 << 2) {
		t.Fatalf("expected mask with bit 2 set to skip at difficulty 2")
	}
	if e.SkipForDifficulty(1 << 1) {
		t.Fatalf("expected mask without bit 2 set to not skip at difficulty 2")
	}
}

func TestKillFiresDeathCallbackOnlyWhenValid(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)

	if _, ok := e.Kill(); ok {
		t.Fatalf("expected no death callback without DeathCallbackValid")
	}
	if !e.Dead {
		t.Fatalf("expected Kill to mark the enemy dead regardless of callback state")
	}

	e2 := New(nil, &globals)
	e2.DeathCallbackValid = true
	e2.DeathSub = 4
	sub, ok := e2.Kill()
	if !ok || sub != 4 {
		t.Fatalf("expected death callback sub 4, got sub=%d ok=%v", sub, ok)
	}
}

func TestDamageLifeClampsAtZeroAndIgnoresImmortal(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)
	e.Life = 10
	e.DamageLife(-100)
	if e.Life != 0 {
		t.Fatalf("expected life clamped at 0, got %d", e.Life)
	}

	e.Immortal = true
	e.Life = 10
	e.DamageLife(-5)
	if e.Life != 10 {
		t.Fatalf("expected immortal enemy to ignore damage, got %d", e.Life)
	}
}

func TestCheckTimerCallbackFiresOnceAtThreshold(t *testing.T) {
	var globals [16]int32
	e := New(nil, &globals)
	e.TimerCallbackThreshold = 3
	e.TimerCallbackSub = 2

	for i := 0; i < 3; i++ {
		if _, ok := e.CheckTimerCallback(); ok {
			t.Fatalf("did not expect timer callback before time reaches threshold, tick %d", i)
		}
		e.TickTime()
	}
	sub, ok := e.CheckTimerCallback()
	if !ok || sub != 2 {
		t.Fatalf("expected timer callback sub 2 at threshold, got sub=%d ok=%v", sub, ok)
	}
	if _, ok := e.CheckTimerCallback(); ok {
		t.Fatalf("expected timer callback to fire only once")
	}
}
