package glctx

import (
	"errors"
	"fmt"
)

// Framebuffer errors.
var (
	// ErrFramebufferIncomplete is returned when the device reports the
	// framebuffer unusable after construction.
	ErrFramebufferIncomplete = errors.New("glctx: framebuffer incomplete")

	// ErrDepthTextureUnsupported is returned when a depth-only
	// framebuffer is requested on a device without depth textures.
	ErrDepthTextureUnsupported = errors.New("glctx: depth textures not supported")
)

// FrameBuffer is an off-screen render target: a framebuffer object with a
// color texture and a depth renderbuffer, or a single depth texture when
// depth-only. The rendered texture can be sampled afterwards through
// Target.
//
// Device objects are created on the first Setup against a context and
// released by Destroy, after which Setup may run again. A FrameBuffer
// belongs to one context at a time.
type FrameBuffer struct {
	name      string
	width     int
	height    int
	depthOnly bool

	fbo     FramebufferID
	texture TextureID
	depthRB RenderbufferID
	done    bool

	target FrameBufferTarget
}

// FrameBufferOption configures a framebuffer at construction.
type FrameBufferOption func(*FrameBuffer)

// WithDepthOnly makes the framebuffer render depth into a depth texture
// with no color attachment (shadow maps).
func WithDepthOnly() FrameBufferOption {
	return func(fb *FrameBuffer) { fb.depthOnly = true }
}

// NewFrameBuffer creates a framebuffer of the given pixel size. No device
// objects exist until Setup.
func NewFrameBuffer(name string, width, height int, opts ...FrameBufferOption) *FrameBuffer {
	fb := &FrameBuffer{name: name, width: width, height: height}
	for _, opt := range opts {
		opt(fb)
	}
	fb.target = FrameBufferTarget{id: nextResourceID(), fb: fb}
	return fb
}

// Name returns the framebuffer's name.
func (fb *FrameBuffer) Name() string { return fb.name }

// Size returns the pixel dimensions.
func (fb *FrameBuffer) Size() (width, height int) { return fb.width, fb.height }

// Target returns the texture-unit-bindable view of the rendered texture:
// the color attachment, or the depth texture when depth-only.
func (fb *FrameBuffer) Target() *FrameBufferTarget { return &fb.target }

// Setup creates the device objects for c. It is idempotent: a second call
// while the objects exist does nothing. On incompleteness every distinct
// status gets its own diagnostic, partial objects are released, and the
// framebuffer stays unconstructed.
func (fb *FrameBuffer) Setup(c *Context) error {
	if fb.done {
		return nil
	}
	if fb.depthOnly && !c.caps.DepthTexture {
		return fmt.Errorf("%w: framebuffer %q", ErrDepthTextureUnsupported, fb.name)
	}
	if max := c.caps.MaxRenderbufferSize; fb.width > max || fb.height > max {
		Logger().Warn("glctx: framebuffer clamped to device limit",
			"framebuffer", fb.name, "width", fb.width, "height", fb.height, "max", max)
		fb.width = min(fb.width, max)
		fb.height = min(fb.height, max)
	}

	dev := c.dev
	fb.fbo = dev.CreateFramebuffer()
	fb.texture = dev.CreateTexture()
	c.textureHandles[fb.target.id] = fb.texture

	// Allocate the target texture through the unit allocator so the
	// binding caches stay truthful.
	c.BindTexture(&fb.target, -1, false)
	if fb.depthOnly {
		dev.TexImageDepth(fb.width, fb.height)
	} else {
		dev.TexImage2D(fb.width, fb.height, nil)
	}
	dev.SetTextureFilter(FilterBilinear, false, false)

	// Attachment goes through the context's binding cache so the render
	// target recorded there stays truthful across lazy construction.
	c.bindFramebuffer(fb.fbo)
	if fb.depthOnly {
		dev.FramebufferDepthTexture(fb.texture)
	} else {
		dev.FramebufferColorTexture(fb.texture)
		fb.depthRB = dev.CreateRenderbuffer(fb.width, fb.height)
		dev.FramebufferDepthRenderbuffer(fb.depthRB)
	}
	status := dev.FramebufferStatus()
	c.bindFramebuffer(0)
	if status != FramebufferComplete {
		Logger().Warn("glctx: framebuffer construction failed",
			"framebuffer", fb.name, "status", status.String())
		fb.Destroy(c)
		return fmt.Errorf("%w: %q: %s", ErrFramebufferIncomplete, fb.name, status)
	}
	fb.done = true
	Logger().Info("glctx: framebuffer ready",
		"context", c.name, "framebuffer", fb.name,
		"width", fb.width, "height", fb.height, "depthOnly", fb.depthOnly)
	return nil
}

// Constructed reports whether the device objects currently exist.
func (fb *FrameBuffer) Constructed() bool { return fb.done }

// BindForRender makes the framebuffer the render target and sets the
// viewport to its size.
func (fb *FrameBuffer) BindForRender(c *Context) {
	c.bindFramebuffer(fb.fbo)
	c.dev.Viewport(0, 0, fb.width, fb.height)
}

// Destroy releases the device objects. Setup may be called again
// afterwards.
func (fb *FrameBuffer) Destroy(c *Context) {
	if fb.texture != 0 {
		c.forgetBoundTexture(fb.target.id)
		delete(c.textureHandles, fb.target.id)
		c.dev.DeleteTexture(fb.texture)
		fb.texture = 0
	}
	if fb.depthRB != 0 {
		c.dev.DeleteRenderbuffer(fb.depthRB)
		fb.depthRB = 0
	}
	if fb.fbo != 0 {
		c.forgetFramebuffer(fb.fbo)
		c.dev.DeleteFramebuffer(fb.fbo)
		fb.fbo = 0
	}
	fb.done = false
}

// FrameBufferTarget lets a framebuffer's rendered texture occupy a texture
// unit like any other texture. Reserve its unit while the framebuffer is
// also the render target of the pass sampling it.
type FrameBufferTarget struct {
	id resourceID
	fb *FrameBuffer
}

func (t *FrameBufferTarget) binderID() resourceID { return t.id }
func (t *FrameBufferTarget) binderName() string   { return t.fb.name }

func (t *FrameBufferTarget) bindAtActiveUnit(c *Context) {
	c.dev.BindTexture2D(c.textureHandles[t.id])
}
