package sprite

import "testing"

func TestLoadComputesHalfTexelUV(t *testing.T) {
	table := New()
	ids, err := table.Load([]Record{
		{ID: 1, TextureIdx: 0, OffsetX: 0, OffsetY: 0, SizeX: 32, SizeY: 32},
	}, []float32{256}, []float32{256})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("unexpected ids: %v", ids)
	}

	s := table.Get(1)
	if s == nil {
		t.Fatalf("Get(1) returned nil")
	}

	wantUStart := float32(0.5) / 256
	wantUEnd := float32(0+32-0.5) / 256
	if s.UVStart[0] != wantUStart || s.UVEnd[0] != wantUEnd {
		t.Errorf("u uv = [%v, %v], want [%v, %v]", s.UVStart[0], s.UVEnd[0], wantUStart, wantUEnd)
	}
}

func TestStaleDetectsReuse(t *testing.T) {
	table := New()
	table.Load([]Record{{ID: 5, SizeX: 1, SizeY: 1}}, []float32{8}, []float32{8})
	cachedGen := table.Get(5).GenerationID

	if table.Stale(5, cachedGen) {
		t.Fatalf("sprite should not be stale immediately after load")
	}

	table.Load([]Record{{ID: 5, SizeX: 1, SizeY: 1}}, []float32{8}, []float32{8})
	if !table.Stale(5, cachedGen) {
		t.Fatalf("sprite should be stale after id 5 is reloaded")
	}
}

func TestLoadRejectsMismatchedDimensionSlices(t *testing.T) {
	table := New()
	_, err := table.Load([]Record{{ID: 1}}, []float32{1, 2}, []float32{1})
	if err == nil {
		t.Fatalf("expected error for mismatched slice lengths")
	}
}
