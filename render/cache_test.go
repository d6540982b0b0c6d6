package render

import "testing"

type recordingSink struct {
	matrixCalls int
	blendCalls  int
	lastBlend   BlendMode
}

func (s *recordingSink) SetMatrix(slot MatrixSlot, m Matrix) { s.matrixCalls++ }
func (s *recordingSink) SetBlendMode(mode BlendMode)         { s.blendCalls++; s.lastBlend = mode }
func (s *recordingSink) SetFog(near, far float32, color [4]float32) {}
func (s *recordingSink) SetDepthMask(write bool)                    {}
func (s *recordingSink) SetDepthFunc(fn DepthFunc)                  {}
func (s *recordingSink) SetColorOp(op ColorOp)                      {}
func (s *recordingSink) SetTextureFactor(argb uint32)               {}

func TestFlushOnlyTouchesDirtyFields(t *testing.T) {
	c := New()
	sink := &recordingSink{}
	c.Flush(sink) // primes, everything dirty initially

	sink2 := &recordingSink{}
	c.Flush(sink2)
	if sink2.matrixCalls != 0 || sink2.blendCalls != 0 {
		t.Fatalf("expected no-op flush after a clean flush, got matrix=%d blend=%d", sink2.matrixCalls, sink2.blendCalls)
	}

	c.SetBlendMode(BlendAdditive)
	sink3 := &recordingSink{}
	c.Flush(sink3)
	if sink3.blendCalls != 1 || sink3.lastBlend != BlendAdditive {
		t.Fatalf("expected exactly one blend flush with BlendAdditive, got %+v", sink3)
	}
	if sink3.matrixCalls != 0 {
		t.Fatalf("expected matrices to stay clean, got %d calls", sink3.matrixCalls)
	}
}

func TestSettingSameValueStaysClean(t *testing.T) {
	c := New()
	c.Flush(&recordingSink{})

	c.SetDepthMask(true) // already true from New()
	if c.Dirty() {
		t.Fatalf("expected no dirty bit when setting an unchanged value")
	}
}

func TestMatrixRotationZMatchesTrig(t *testing.T) {
	var m Matrix
	m.RotationZ(0)
	var id Matrix
	id.Identity()
	if m != id {
		t.Fatalf("RotationZ(0) should equal identity, got %+v", m)
	}
}
