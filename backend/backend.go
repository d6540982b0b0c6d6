// Package backend defines the graphics-backend boundary that render and
// draw issue their final state changes and quad submissions through. It
// has no SDL or OpenGL dependency itself; backend/sdlbackend is one
// implementation.
package backend

import (
	"github.com/GensokyoClub/th06/render"
	"github.com/GensokyoClub/th06/texture"
)

// Backend is everything the render cache and draw frontend need from a
// concrete graphics API. render.Cache.Flush only needs the render.Sink
// subset of this; draw.Frontend needs the texture-bind and quad-submission
// methods, and texture.Store needs the texture lifecycle methods.
type Backend interface {
	render.Sink

	BindTexture(handle texture.Handle)
	DrawQuad(verts [4]render.VertexPT)
	DrawQuadC(verts [4]render.VertexPTC)

	CreateTexture(w, h int, format texture.PixelFormat) (texture.Handle, error)
	UploadTexture(handle texture.Handle, w, h int, format texture.PixelFormat, pixels []byte) error
	DeleteTexture(handle texture.Handle)

	// Present flips the backend's render target, ending a frame.
	Present()
}
