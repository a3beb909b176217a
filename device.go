package glctx

import "fmt"

// TextureID is a device texture object handle. The zero value is the null
// handle.
type TextureID uint32

// BufferID is a device buffer object handle. The zero value is the null
// handle.
type BufferID uint32

// ProgramID is a device program object handle. The zero value is the null
// handle.
type ProgramID uint32

// FramebufferID is a device framebuffer object handle. The zero value binds
// the default framebuffer.
type FramebufferID uint32

// RenderbufferID is a device renderbuffer object handle. The zero value is
// the null handle.
type RenderbufferID uint32

// UniformID is a device uniform location within a program.
type UniformID int32

// UniformNone marks a uniform location that could not be resolved
// (optimized out by the driver, or misspelled).
const UniformNone UniformID = -1

// AttribLocation is a device vertex attribute location within a program.
type AttribLocation int32

// AttribNone marks an attribute location that could not be resolved.
const AttribNone AttribLocation = -1

// DrawMode selects the primitive assembly mode for draw calls.
type DrawMode uint8

const (
	// DrawTriangles assembles independent triangles.
	DrawTriangles DrawMode = iota
	// DrawTriangleStrip assembles a connected strip of triangles.
	DrawTriangleStrip
	// DrawLines assembles independent line segments (wireframe rendering).
	DrawLines
	// DrawPoints renders one point per vertex.
	DrawPoints
)

// BlendMode selects how a shader's output is combined with the framebuffer.
type BlendMode uint8

const (
	// BlendOpaque disables blending.
	BlendOpaque BlendMode = iota
	// BlendAlpha is standard premultiplied-style source-over blending.
	BlendAlpha
	// BlendAdditive accumulates source color onto the destination.
	BlendAdditive
)

// String returns a human-readable name for the blend mode.
func (b BlendMode) String() string {
	switch b {
	case BlendOpaque:
		return "opaque"
	case BlendAlpha:
		return "alpha"
	case BlendAdditive:
		return "additive"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(b))
	}
}

// FilterMode selects texture sampling quality.
type FilterMode uint8

const (
	// FilterNearest is nearest-neighbor sampling.
	FilterNearest FilterMode = iota
	// FilterBilinear is linear sampling without mipmap interpolation.
	FilterBilinear
	// FilterTrilinear is linear sampling with mipmap interpolation.
	FilterTrilinear
	// FilterAnisotropic is trilinear plus anisotropic filtering, when the
	// device supports it. Falls back to trilinear otherwise.
	FilterAnisotropic
)

// String returns a human-readable name for the filter mode.
func (f FilterMode) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterBilinear:
		return "bilinear"
	case FilterTrilinear:
		return "trilinear"
	case FilterAnisotropic:
		return "anisotropic"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(f))
	}
}

// CubemapFace identifies one of the six cubemap faces, in device order:
// +X, -X, +Y, -Y, +Z, -Z.
type CubemapFace int

// FramebufferStatus is the device's completeness report for a framebuffer.
type FramebufferStatus uint8

const (
	// FramebufferComplete means the framebuffer is usable.
	FramebufferComplete FramebufferStatus = iota
	// FramebufferIncompleteAttachment means an attachment is invalid.
	FramebufferIncompleteAttachment
	// FramebufferMissingAttachment means no image is attached at all.
	FramebufferMissingAttachment
	// FramebufferUnsupported means the attachment combination is not
	// supported by the driver.
	FramebufferUnsupported
	// FramebufferIncompleteMultisample means attachments disagree on
	// sample counts.
	FramebufferIncompleteMultisample
	// FramebufferStatusUnknown covers any other driver-specific code.
	FramebufferStatusUnknown
)

// String returns the diagnostic message for the status.
func (s FramebufferStatus) String() string {
	switch s {
	case FramebufferComplete:
		return "framebuffer complete"
	case FramebufferIncompleteAttachment:
		return "framebuffer incomplete: attachment is not renderable"
	case FramebufferMissingAttachment:
		return "framebuffer incomplete: no attachment"
	case FramebufferUnsupported:
		return "framebuffer unsupported by driver"
	case FramebufferIncompleteMultisample:
		return "framebuffer incomplete: inconsistent multisample counts"
	default:
		return "framebuffer incomplete: unknown status"
	}
}

// Device is the closed set of device entry points the managed layer issues.
// backend/gl implements it on OpenGL 4.1 core; tests implement it with a
// recording fake.
//
// Device calls follow the underlying API's bind-then-operate discipline:
// texture uploads act on the texture bound at the active unit, buffer
// uploads act on the currently bound array buffer, uniform sends act on the
// program made current by UseProgram.
//
// All methods must be called from the thread that owns the device context.
type Device interface {
	// Capabilities reports the device's hardware limits and extension
	// availability. The result is constant for the lifetime of the device.
	Capabilities() Capabilities

	// ActiveTexture selects the active texture unit for subsequent binds
	// and uploads. unit must be in [0, Capabilities().MaxTextureUnits).
	ActiveTexture(unit int)
	// BindTexture2D binds a 2D texture at the active unit. Zero unbinds.
	BindTexture2D(TextureID)
	// BindCubemap binds a cubemap texture at the active unit. Zero unbinds.
	BindCubemap(TextureID)

	// CreateTexture allocates a texture object.
	CreateTexture() TextureID
	// DeleteTexture releases a texture object.
	DeleteTexture(TextureID)
	// TexImage2D uploads RGBA8 pixels to the 2D texture bound at the
	// active unit. A nil pixels slice allocates uninitialized storage
	// (render targets).
	TexImage2D(width, height int, pixels []byte)
	// TexImageDepth allocates depth-texture storage for the 2D texture
	// bound at the active unit. Requires Capabilities().DepthTexture.
	TexImageDepth(width, height int)
	// TexImageCubeFace uploads RGBA8 pixels to one face of the cubemap
	// bound at the active unit.
	TexImageCubeFace(face CubemapFace, width, height int, pixels []byte)
	// GenerateMipmaps builds the mipmap chain for the 2D texture or
	// cubemap bound at the active unit.
	GenerateMipmaps(cubemap bool)
	// SetTextureFilter configures sampling for the 2D texture or cubemap
	// bound at the active unit.
	SetTextureFilter(filter FilterMode, mipmaps, cubemap bool)

	// CreateBuffer allocates a buffer object.
	CreateBuffer() BufferID
	// DeleteBuffer releases a buffer object.
	DeleteBuffer(BufferID)
	// BindArrayBuffer binds a buffer to the array-buffer target.
	BindArrayBuffer(BufferID)
	// BufferData uploads the full contents of the bound array buffer.
	// dynamic hints that the buffer will be rewritten every frame.
	BufferData(data []float32, dynamic bool)

	// EnableVertexAttrib enables the vertex attribute array at loc.
	EnableVertexAttrib(loc AttribLocation)
	// DisableVertexAttrib disables the vertex attribute array at loc.
	DisableVertexAttrib(loc AttribLocation)
	// VertexAttribPointer points the attribute at loc into the bound
	// array buffer: arity consecutive float32s per element.
	VertexAttribPointer(loc AttribLocation, arity int)
	// VertexAttribDivisor sets the attribute's instance divisor.
	// Requires Capabilities().Instancing for divisor > 0.
	VertexAttribDivisor(loc AttribLocation, divisor int)

	// CreateProgram compiles both stages and links them. On compile or
	// link failure it returns the zero ProgramID and an error carrying
	// the driver's diagnostic log.
	CreateProgram(vertexSrc, fragmentSrc string) (ProgramID, error)
	// DeleteProgram releases a program object.
	DeleteProgram(ProgramID)
	// UseProgram makes a program current. Zero unbinds.
	UseProgram(ProgramID)
	// AttribLocation resolves a vertex attribute by name, AttribNone if
	// the driver does not expose it.
	AttribLocation(p ProgramID, name string) AttribLocation
	// UniformLocation resolves a uniform by name, UniformNone if the
	// driver does not expose it.
	UniformLocation(p ProgramID, name string) UniformID

	// Uniform sends act on the current program.
	Uniform1f(UniformID, float32)
	Uniform1i(UniformID, int32)
	Uniform2f(u UniformID, x, y float32)
	Uniform3f(u UniformID, x, y, z float32)
	Uniform4f(u UniformID, x, y, z, w float32)
	// Uniform1fv sends a float array uniform.
	Uniform1fv(UniformID, []float32)
	// Uniform1iv sends an int or bool array uniform. Integer locations
	// reject float data, so these never go through Uniform1fv.
	Uniform1iv(UniformID, []int32)
	// Uniform2fv sends a vec2 array uniform from packed components.
	Uniform2fv(UniformID, []float32)
	// Uniform3fv sends a vec3 array uniform from packed components.
	Uniform3fv(UniformID, []float32)
	// Uniform4fv sends a vec4 array uniform from packed components.
	Uniform4fv(UniformID, []float32)
	// UniformMatrix3fv sends a 3x3 column-major matrix.
	UniformMatrix3fv(UniformID, []float32)
	// UniformMatrix4fv sends a 4x4 column-major matrix.
	UniformMatrix4fv(UniformID, []float32)

	// CreateFramebuffer allocates a framebuffer object.
	CreateFramebuffer() FramebufferID
	// DeleteFramebuffer releases a framebuffer object.
	DeleteFramebuffer(FramebufferID)
	// BindFramebuffer makes a framebuffer the render target. Zero binds
	// the default framebuffer.
	BindFramebuffer(FramebufferID)
	// FramebufferColorTexture attaches a 2D texture as the bound
	// framebuffer's color attachment.
	FramebufferColorTexture(TextureID)
	// FramebufferDepthTexture attaches a 2D depth texture as the bound
	// framebuffer's depth attachment.
	FramebufferDepthTexture(TextureID)
	// CreateRenderbuffer allocates a renderbuffer with depth storage.
	CreateRenderbuffer(width, height int) RenderbufferID
	// DeleteRenderbuffer releases a renderbuffer object.
	DeleteRenderbuffer(RenderbufferID)
	// FramebufferDepthRenderbuffer attaches a depth renderbuffer to the
	// bound framebuffer.
	FramebufferDepthRenderbuffer(RenderbufferID)
	// FramebufferStatus reports the bound framebuffer's completeness.
	FramebufferStatus() FramebufferStatus

	// SetBlendMode configures the fixed-function blend state.
	SetBlendMode(BlendMode)
	// ColorMask enables or disables writes per color channel.
	ColorMask(r, g, b, a bool)
	// DepthMask enables or disables depth writes.
	DepthMask(write bool)
	// Viewport sets the render viewport in pixels.
	Viewport(x, y, width, height int)
	// Clear clears the color and/or depth planes of the bound framebuffer.
	Clear(color, depth bool)

	// DrawArrays draws count vertices starting at first.
	DrawArrays(mode DrawMode, first, count int)
	// DrawArraysInstanced draws count vertices instances times.
	// Requires Capabilities().Instancing.
	DrawArraysInstanced(mode DrawMode, first, count, instances int)
}
