package glctx

import (
	"image"
	"sync/atomic"

	xdraw "golang.org/x/image/draw"
)

// resourceID uniquely identifies a logical resource across all contexts.
// Contexts key their device-handle and binding side tables by it, so the
// resource objects themselves stay context-agnostic.
type resourceID uint64

var resourceIDCounter atomic.Uint64

func nextResourceID() resourceID {
	return resourceID(resourceIDCounter.Add(1))
}

// TextureBinder is the closed set of resources that can occupy a texture
// unit: Texture, Cubemap, and a FrameBuffer's sampling target. The
// unexported methods keep the set closed.
type TextureBinder interface {
	// binderID identifies the resource in the context's side tables.
	binderID() resourceID
	// binderName is the resource name, for diagnostics.
	binderName() string
	// bindAtActiveUnit issues the device bind call at the context's
	// currently active texture unit.
	bindAtActiveUnit(c *Context)
}

// Texture is a 2D texture: CPU-side RGBA pixels plus per-context device
// state. A texture may be added to multiple contexts; each context keeps
// its own device handle and last-bound-unit record. The pixel data is
// shared between contexts and must not be modified after it is set.
type Texture struct {
	id      resourceID
	name    string
	width   int
	height  int
	pixels  []byte // RGBA, 4 bytes per pixel
	mipmaps bool

	ready Readiness
}

// TextureOption configures a texture at construction.
type TextureOption func(*Texture)

// WithMipmaps enables mipmap generation on upload.
func WithMipmaps() TextureOption {
	return func(t *Texture) { t.mipmaps = true }
}

// NewTexture creates a texture from an image. The image is converted to
// RGBA if necessary. The texture is immediately ready.
func NewTexture(name string, img image.Image, opts ...TextureOption) *Texture {
	t := &Texture{id: nextResourceID(), name: name}
	for _, opt := range opts {
		opt(t)
	}
	t.setImage(img)
	t.ready.MarkReady()
	return t
}

// NewPendingTexture creates a texture whose image arrives later, typically
// from an asynchronous loader. Work queued with WhenReady runs once
// SetImage is called.
func NewPendingTexture(name string, opts ...TextureOption) *Texture {
	t := &Texture{id: nextResourceID(), name: name}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetImage supplies the pixel data of a pending texture and marks it
// ready. Calling it on an already-ready texture replaces the CPU pixels
// but does not re-upload to contexts the texture was already added to.
func (t *Texture) SetImage(img image.Image) {
	t.setImage(img)
	t.ready.MarkReady()
}

func (t *Texture) setImage(img image.Image) {
	b := img.Bounds()
	t.width, t.height = b.Dx(), b.Dy()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*t.width {
		t.pixels = rgba.Pix
		return
	}
	rgba := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	t.pixels = rgba.Pix
}

// Name returns the texture's name.
func (t *Texture) Name() string { return t.name }

// Size returns the pixel dimensions. Zero until the image is set.
func (t *Texture) Size() (width, height int) { return t.width, t.height }

// Ready reports whether the texture's image data is available.
func (t *Texture) Ready() bool { return t.ready.Ready() }

// WhenReady runs fn once the texture's image data is available, which may
// be immediately.
func (t *Texture) WhenReady(fn func()) { t.ready.WhenReady(fn) }

func (t *Texture) binderID() resourceID { return t.id }
func (t *Texture) binderName() string   { return t.name }

func (t *Texture) bindAtActiveUnit(c *Context) {
	c.dev.BindTexture2D(c.textureHandles[t.id])
}

// upload creates the device texture for c and uploads the pixel data.
// Called by Context.AddTexture.
func (t *Texture) upload(c *Context) {
	handle := c.dev.CreateTexture()
	c.textureHandles[t.id] = handle
	unit := c.BindTexture(t, -1, false)
	c.dev.TexImage2D(t.width, t.height, t.pixels)
	if t.mipmaps {
		c.dev.GenerateMipmaps(false)
	}
	c.dev.SetTextureFilter(c.effectiveFilter(), t.mipmaps, false)
	Logger().Debug("glctx: texture uploaded",
		"context", c.name, "texture", t.name,
		"size", t.width*t.height*4, "unit", unit)
}
