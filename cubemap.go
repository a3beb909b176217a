package glctx

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Cubemap is the six-image analogue of Texture. Faces follow device order:
// +X, -X, +Y, -Y, +Z, -Z. All faces must be square and the same size.
type Cubemap struct {
	id      resourceID
	name    string
	size    int
	faces   [6][]byte // RGBA per face
	mipmaps bool

	ready Readiness
}

// CubemapOption configures a cubemap at construction.
type CubemapOption func(*Cubemap)

// WithCubemapMipmaps enables mipmap generation on upload.
func WithCubemapMipmaps() CubemapOption {
	return func(cm *Cubemap) { cm.mipmaps = true }
}

// NewCubemap creates a cubemap from six images in face order. The images
// are converted to RGBA if necessary. The cubemap is immediately ready.
func NewCubemap(name string, faces [6]image.Image, opts ...CubemapOption) *Cubemap {
	cm := &Cubemap{id: nextResourceID(), name: name}
	for _, opt := range opts {
		opt(cm)
	}
	cm.setFaces(faces)
	cm.ready.MarkReady()
	return cm
}

// NewPendingCubemap creates a cubemap whose faces arrive later.
func NewPendingCubemap(name string, opts ...CubemapOption) *Cubemap {
	cm := &Cubemap{id: nextResourceID(), name: name}
	for _, opt := range opts {
		opt(cm)
	}
	return cm
}

// SetFaces supplies the six face images and marks the cubemap ready.
func (cm *Cubemap) SetFaces(faces [6]image.Image) {
	cm.setFaces(faces)
	cm.ready.MarkReady()
}

func (cm *Cubemap) setFaces(faces [6]image.Image) {
	for i, img := range faces {
		b := img.Bounds()
		if i == 0 {
			cm.size = b.Dx()
		}
		if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*cm.size && b.Dx() == cm.size {
			cm.faces[i] = rgba.Pix
			continue
		}
		rgba := image.NewRGBA(image.Rect(0, 0, cm.size, cm.size))
		xdraw.BiLinear.Scale(rgba, rgba.Bounds(), img, b, xdraw.Src, nil)
		cm.faces[i] = rgba.Pix
	}
}

// Name returns the cubemap's name.
func (cm *Cubemap) Name() string { return cm.name }

// Size returns the face dimension in pixels. Zero until faces are set.
func (cm *Cubemap) Size() int { return cm.size }

// Ready reports whether the face data is available.
func (cm *Cubemap) Ready() bool { return cm.ready.Ready() }

// WhenReady runs fn once the face data is available, which may be
// immediately.
func (cm *Cubemap) WhenReady(fn func()) { cm.ready.WhenReady(fn) }

func (cm *Cubemap) binderID() resourceID { return cm.id }
func (cm *Cubemap) binderName() string   { return cm.name }

func (cm *Cubemap) bindAtActiveUnit(c *Context) {
	c.dev.BindCubemap(c.textureHandles[cm.id])
}

// upload creates the device cubemap for c and uploads all six faces.
// Called by Context.AddCubemap.
func (cm *Cubemap) upload(c *Context) {
	handle := c.dev.CreateTexture()
	c.textureHandles[cm.id] = handle
	unit := c.BindTexture(cm, -1, false)
	for face, pixels := range cm.faces {
		c.dev.TexImageCubeFace(CubemapFace(face), cm.size, cm.size, pixels)
	}
	if cm.mipmaps {
		c.dev.GenerateMipmaps(true)
	}
	c.dev.SetTextureFilter(c.effectiveFilter(), cm.mipmaps, true)
	Logger().Debug("glctx: cubemap uploaded",
		"context", c.name, "cubemap", cm.name, "face", cm.size, "unit", unit)
}
