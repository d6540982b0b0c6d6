package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
)

type fakeBackend struct {
	next    Handle
	created map[Handle][2]int
	deleted []Handle
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{created: make(map[Handle][2]int)}
}

func (f *fakeBackend) CreateTexture(w, h int, format PixelFormat) (Handle, error) {
	f.next++
	f.created[f.next] = [2]int{w, h}
	return f.next, nil
}

func (f *fakeBackend) UploadTexture(handle Handle, w, h int, format PixelFormat, pixels []byte) error {
	return nil
}

func (f *fakeBackend) DeleteTexture(handle Handle) {
	f.deleted = append(f.deleted, handle)
}

func pngOf(w, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func openerFor(files map[string][]byte) OpenFunc {
	return func(name string) (io.ReadCloser, error) {
		data, ok := files[name]
		if !ok {
			return nil, image.ErrFormat
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}
}

func TestStoreLoadAssignsGeneration(t *testing.T) {
	files := map[string][]byte{"sprite.png": pngOf(4, 4, color.RGBA{255, 0, 0, 255})}
	backend := newFakeBackend()
	store, err := New(backend, openerFor(files))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tex, err := store.Load(0, "sprite.png", FormatA8R8G8B8, 4, 4)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tex.GenerationID == 0 {
		t.Fatalf("expected nonzero generation id")
	}
	if store.At(0) != tex {
		t.Fatalf("At(0) did not return loaded texture")
	}

	tex2, err := store.Load(0, "sprite.png", FormatA8R8G8B8, 4, 4)
	if err != nil {
		t.Fatalf("Load (reload): %v", err)
	}
	if tex2.GenerationID == tex.GenerationID {
		t.Fatalf("expected generation id to advance on reload")
	}
	if len(backend.deleted) != 1 || backend.deleted[0] != tex.Handle {
		t.Fatalf("expected old handle to be deleted on reload, got %v", backend.deleted)
	}
}

func TestStoreForceLowColorDowngradesFormat(t *testing.T) {
	files := map[string][]byte{"sprite.png": pngOf(2, 2, color.RGBA{255, 255, 255, 255})}
	backend := newFakeBackend()
	store, err := New(backend, openerFor(files))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	store.ForceLowColor = true

	tex, err := store.Load(0, "sprite.png", FormatA8R8G8B8, 2, 2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tex.Format != FormatA4R4G4B4 {
		t.Fatalf("expected downgraded format A4R4G4B4, got %v", tex.Format)
	}
}

func TestStoreOutOfSlots(t *testing.T) {
	backend := newFakeBackend()
	store, err := New(backend, openerFor(nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Load(MaxSlots, "x.png", FormatA8R8G8B8, 1, 1); err == nil {
		t.Fatalf("expected out-of-range slot to fail")
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 5: 8, 64: 64, 65: 128}
	for in, want := range cases {
		if got := nextPow2(in); got != want {
			t.Errorf("nextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}
