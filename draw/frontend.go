// Package draw builds the vertex quads for one sprite's current AnmVm
// state and submits them through a graphics backend, selecting one of
// three vertex transforms depending on whether the VM uses rotation and
// whether perspective (Euler X/Y/Z) rotation is in play.
package draw

import (
	"github.com/GensokyoClub/th06/anmvm"
	"github.com/GensokyoClub/th06/render"
	"github.com/GensokyoClub/th06/sprite"
	"github.com/GensokyoClub/th06/texture"
)

// Sink is what Frontend submits quads and texture binds to. Narrower
// than backend.Backend so this package does not need to import it.
type Sink interface {
	BindTexture(handle texture.Handle)
	DrawQuad(verts [4]render.VertexPT)
	DrawQuadC(verts [4]render.VertexPTC)
}

// Frontend draws sprites through a Sink. Its useVertexColor flag selects
// between the two vertex layouts described in the component design:
// position+UV only, or position+UV+packed diffuse color. The flag is
// resolved once at construction from
// config.Options.NoVertexBuffer, not per draw call.
type Frontend struct {
	sink          Sink
	useVertexColor bool
	dummy         texture.Handle
}

// New creates a Frontend. useVertexColor should be the negation of
// config.Options.NoVertexBuffer.
func New(sink Sink, useVertexColor bool, dummy texture.Handle) *Frontend {
	return &Frontend{sink: sink, useVertexColor: useVertexColor, dummy: dummy}
}

// Draw renders one sprite for vm, resolving its texture through tex. It
// silently does nothing if vm is hidden or its sprite reference is gone.
func (f *Frontend) Draw(vm *anmvm.Vm, spr *sprite.Sprite, tex *texture.Texture) {
	if vm.Hidden() || spr == nil {
		return
	}

	handle := f.dummy
	if tex != nil {
		handle = tex.Handle
	}
	f.sink.BindTexture(handle)

	corners := f.localCorners(vm, spr)
	uv := f.uvCorners(vm, spr)

	hasRotation := vm.Rotation[0] != 0 || vm.Rotation[1] != 0
	switch {
	case vm.Rotation[0] == 0 && vm.Rotation[1] == 0 && vm.Rotation[2] == 0:
		f.drawNoRotation(vm, corners, uv)
	case !hasRotation:
		f.drawZRotation(vm, corners, uv)
	default:
		f.drawPerspective(vm, corners, uv)
	}
}

// localCorners returns the sprite's half-size quad centered on the
// origin, before any position/rotation transform, with flip flags
// already baked in by swapping left/right or top/bottom.
func (f *Frontend) localCorners(vm *anmvm.Vm, spr *sprite.Sprite) [4]render.Vec2 {
	hw := spr.SizeX * vm.Scale[0] / 2
	hh := spr.SizeY * vm.Scale[1] / 2
	if vm.FlipX {
		hw = -hw
	}
	if vm.FlipY {
		hh = -hh
	}
	return [4]render.Vec2{
		{X: -hw, Y: -hh},
		{X: hw, Y: -hh},
		{X: hw, Y: hh},
		{X: -hw, Y: hh},
	}
}

func (f *Frontend) uvCorners(vm *anmvm.Vm, spr *sprite.Sprite) [4]render.Vec2 {
	u0 := spr.UVStart[0] + vm.UVScroll[0]
	u1 := spr.UVEnd[0] + vm.UVScroll[0]
	v0 := spr.UVStart[1] + vm.UVScroll[1]
	v1 := spr.UVEnd[1] + vm.UVScroll[1]
	return [4]render.Vec2{
		{X: u0, Y: v0},
		{X: u1, Y: v0},
		{X: u1, Y: v1},
		{X: u0, Y: v1},
	}
}

// drawNoRotation translates the quad directly to vm's rounded pixel
// position, the cheapest of the three paths (AnmManager::DrawNoRotation).
func (f *Frontend) drawNoRotation(vm *anmvm.Vm, corners, uv [4]render.Vec2) {
	px, py := roundf(vm.Position[0]), roundf(vm.Position[1])
	f.submit(vm, corners, uv, func(c render.Vec2) render.Vec3 {
		return render.Vec3{X: c.X + px, Y: c.Y + py, Z: vm.Position[2]}
	})
}

// drawZRotation rotates each corner about Z before translating to vm's
// rounded pixel position (AnmManager::Draw / TranslateRotation).
func (f *Frontend) drawZRotation(vm *anmvm.Vm, corners, uv [4]render.Vec2) {
	s, c := sincos32(vm.Rotation[2])
	px, py := roundf(vm.Position[0])-0.5, -roundf(vm.Position[1])+0.5
	f.submit(vm, corners, uv, func(corner render.Vec2) render.Vec3 {
		x := corner.X*c - corner.Y*s
		y := corner.X*s + corner.Y*c
		return render.Vec3{X: x + px, Y: y + py, Z: vm.Position[2]}
	})
}

// drawPerspective applies the full Euler X-Y-Z rotation before
// translating, used whenever the VM has a nonzero X or Y rotation
// (AnmManager::Draw3).
func (f *Frontend) drawPerspective(vm *anmvm.Vm, corners, uv [4]render.Vec2) {
	var m render.Matrix
	m.RotationXYZ(vm.Rotation[0], vm.Rotation[1], vm.Rotation[2])

	f.submit(vm, corners, uv, func(corner render.Vec2) render.Vec3 {
		x := corner.X*m[0][0] + corner.Y*m[1][0]
		y := corner.X*m[0][1] + corner.Y*m[1][1]
		z := corner.X*m[0][2] + corner.Y*m[1][2]
		return render.Vec3{
			X: x + vm.Position[0],
			Y: y + vm.Position[1],
			Z: z + vm.Position[2],
		}
	})
}

func (f *Frontend) submit(vm *anmvm.Vm, corners, uv [4]render.Vec2, place func(render.Vec2) render.Vec3) {
	color := packColor(vm.Color, vm.Alpha)

	if f.useVertexColor {
		var verts [4]render.VertexPTC
		for i := range corners {
			verts[i] = render.VertexPTC{Pos: place(corners[i]), UV: uv[i], Color: color}
		}
		f.sink.DrawQuadC(verts)
		return
	}

	var verts [4]render.VertexPT
	for i := range corners {
		verts[i] = render.VertexPT{Pos: place(corners[i]), UV: uv[i]}
	}
	f.sink.DrawQuad(verts)
}

func packColor(c [3]byte, alpha byte) uint32 {
	return uint32(alpha)<<24 | uint32(c[0])<<16 | uint32(c[1])<<8 | uint32(c[2])
}

func roundf(v float32) float32 {
	if v >= 0 {
		return float32(int32(v + 0.5))
	}
	return float32(int32(v - 0.5))
}

func sincos32(rad float32) (float32, float32) {
	s, c := sincos(float64(rad))
	return float32(s), float32(c)
}
