// Package sdlbackend implements backend.Backend on top of an
// *sdl.Renderer, the same library (and the same Lock/Unlock/Copy texture
// idiom) the teacher project's cmd/vnes/draw.go uses for its own
// presentation layer.
package sdlbackend

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/GensokyoClub/th06/render"
	"github.com/GensokyoClub/th06/texture"
)

// Backend adapts an SDL2 renderer to backend.Backend. SDL2's 2D renderer
// has no native fog, depth test, or matrix stack, so that state is
// tracked here only to decide how BindTexture's blend mode and
// RenderGeometry calls are parameterized; render.Cache remains the
// authority on what the *logical* state is.
type Backend struct {
	renderer *sdl.Renderer
	textures map[texture.Handle]*sdl.Texture
	next     texture.Handle

	bound texture.Handle
	blend render.BlendMode

	model render.Matrix // World * View * Projection, recomputed on SetMatrix
	world render.Matrix
	view  render.Matrix
	proj  render.Matrix

	textureFactor uint32
}

// New wraps renderer. renderer is not owned by Backend; the caller is
// responsible for destroying it.
func New(renderer *sdl.Renderer) *Backend {
	b := &Backend{
		renderer: renderer,
		textures: make(map[texture.Handle]*sdl.Texture),
	}
	b.world.Identity()
	b.view.Identity()
	b.proj.Identity()
	return b
}

func (b *Backend) CreateTexture(w, h int, format texture.PixelFormat) (texture.Handle, error) {
	pf, err := sdlPixelFormat(format)
	if err != nil {
		return 0, fmt.Errorf("sdlbackend: create texture: %s", err)
	}

	tex, err := b.renderer.CreateTexture(pf, sdl.TEXTUREACCESS_STREAMING, int32(w), int32(h))
	if err != nil {
		return 0, fmt.Errorf("sdlbackend: create texture: %s", err)
	}
	if err := tex.SetBlendMode(sdl.BLENDMODE_BLEND); err != nil {
		tex.Destroy()
		return 0, fmt.Errorf("sdlbackend: create texture: unable to set blend mode: %s", err)
	}

	b.next++
	b.textures[b.next] = tex
	return b.next, nil
}

func (b *Backend) UploadTexture(handle texture.Handle, w, h int, format texture.PixelFormat, pixels []byte) error {
	tex, ok := b.textures[handle]
	if !ok {
		return fmt.Errorf("sdlbackend: upload texture: unknown handle %d", handle)
	}

	dst, _, err := tex.Lock(nil)
	if err != nil {
		return fmt.Errorf("sdlbackend: upload texture: unable to lock: %s", err)
	}
	copy(dst, pixels)
	tex.Unlock()
	return nil
}

func (b *Backend) DeleteTexture(handle texture.Handle) {
	if tex, ok := b.textures[handle]; ok {
		tex.Destroy()
		delete(b.textures, handle)
	}
}

func (b *Backend) BindTexture(handle texture.Handle) {
	b.bound = handle
}

func (b *Backend) SetBlendMode(mode render.BlendMode) {
	b.blend = mode
}

func (b *Backend) SetFog(near, far float32, color [4]float32) {
	// SDL2's 2D renderer has no fog stage; render.Cache still tracks the
	// logical value so a future backend can honor it.
}

func (b *Backend) SetDepthMask(write bool) {}
func (b *Backend) SetDepthFunc(fn render.DepthFunc) {}
func (b *Backend) SetColorOp(op render.ColorOp) {}

func (b *Backend) SetTextureFactor(argb uint32) {
	b.textureFactor = argb
}

func (b *Backend) SetMatrix(slot render.MatrixSlot, m render.Matrix) {
	switch slot {
	case render.World:
		b.world = m
	case render.View:
		b.view = m
	case render.Projection:
		b.proj = m
	}

	var wv render.Matrix
	wv.Mul(&b.world, &b.view)
	b.model.Mul(&wv, &b.proj)
}

func (b *Backend) DrawQuad(verts [4]render.VertexPT) {
	var withColor [4]render.VertexPTC
	for i, v := range verts {
		withColor[i] = render.VertexPTC{Pos: v.Pos, UV: v.UV, Color: 0xffffffff}
	}
	b.DrawQuadC(withColor)
}

func (b *Backend) DrawQuadC(verts [4]render.VertexPTC) {
	tex := b.textures[b.bound]

	sdlVerts := make([]sdl.Vertex, 4)
	for i, v := range verts {
		p := b.project(v.Pos)
		sdlVerts[i] = sdl.Vertex{
			Position: sdl.FPoint{X: p.X, Y: p.Y},
			Color:    argbToColor(v.Color),
			TexCoord: sdl.FPoint{X: v.UV.X, Y: v.UV.Y},
		}
	}

	indices := []int32{0, 1, 2, 0, 2, 3}
	b.renderer.RenderGeometry(tex, sdlVerts, indices)
}

// project applies the backend's current world*view*projection matrix to
// a model-space position, producing the screen-space point RenderGeometry
// expects.
func (b *Backend) project(v render.Vec3) render.Vec2 {
	x := v.X*b.model[0][0] + v.Y*b.model[1][0] + v.Z*b.model[2][0] + b.model[3][0]
	y := v.X*b.model[0][1] + v.Y*b.model[1][1] + v.Z*b.model[2][1] + b.model[3][1]
	return render.Vec2{X: x, Y: y}
}

func (b *Backend) Present() {
	b.renderer.Present()
}

func argbToColor(argb uint32) sdl.Color {
	return sdl.Color{
		A: byte(argb >> 24),
		R: byte(argb >> 16),
		G: byte(argb >> 8),
		B: byte(argb),
	}
}

func sdlPixelFormat(format texture.PixelFormat) (uint32, error) {
	switch format {
	case texture.FormatA8R8G8B8:
		return sdl.PIXELFORMAT_ARGB8888, nil
	case texture.FormatR8G8B8:
		return sdl.PIXELFORMAT_RGB888, nil
	case texture.FormatR5G6B5:
		return sdl.PIXELFORMAT_RGB565, nil
	case texture.FormatA4R4G4B4:
		return sdl.PIXELFORMAT_ARGB4444, nil
	default:
		return 0, fmt.Errorf("unsupported pixel format %v", format)
	}
}
