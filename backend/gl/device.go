package gl

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/gogpu/glctx"
)

// Device errors.
var (
	// ErrDriverUnsupported is returned when GL initialization fails or
	// the driver reports unusable limits. The error message carries the
	// capability dump gathered so far.
	ErrDriverUnsupported = errors.New("gl: driver unsupported")
)

// Anisotropic filtering extension enums, not part of core 4.1.
const (
	textureMaxAnisotropy    = 0x84FE
	maxTextureMaxAnisotropy = 0x84FF
)

// Device implements glctx.Device on OpenGL 4.1 core.
type Device struct {
	caps glctx.Capabilities
	vao  uint32
}

var _ glctx.Device = (*Device)(nil)

// NewDevice initializes GL function pointers against the current context
// and queries the driver's capabilities. A nil Device with an error means
// the driver is unusable; the error includes the capability dump for the
// fatal report.
func NewDevice() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDriverUnsupported, err)
	}
	d := &Device{caps: queryCapabilities()}
	if d.caps.MaxTextureUnits <= 0 || d.caps.MaxTextureSize <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDriverUnsupported, d.caps.String())
	}

	// Core profile requires a bound vertex array for attribute pointers;
	// one VAO serves the whole device.
	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	gl.Enable(gl.DEPTH_TEST)

	glctx.Logger().Info("gl: device initialized", "caps", d.caps.String())
	return d, nil
}

func queryCapabilities() glctx.Capabilities {
	geti := func(name uint32) int {
		var v int32
		gl.GetIntegerv(name, &v)
		return int(v)
	}
	caps := glctx.Capabilities{
		Vendor:                    gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer:                  gl.GoStr(gl.GetString(gl.RENDERER)),
		MaxTextureUnits:           geti(gl.MAX_TEXTURE_IMAGE_UNITS),
		MaxTextureSize:            geti(gl.MAX_TEXTURE_SIZE),
		MaxCubemapSize:            geti(gl.MAX_CUBE_MAP_TEXTURE_SIZE),
		MaxRenderbufferSize:       geti(gl.MAX_RENDERBUFFER_SIZE),
		MaxVertexAttribs:          geti(gl.MAX_VERTEX_ATTRIBS),
		MaxVertexUniformVectors:   geti(gl.MAX_VERTEX_UNIFORM_COMPONENTS) / 4,
		MaxFragmentUniformVectors: geti(gl.MAX_FRAGMENT_UNIFORM_COMPONENTS) / 4,
		MaxVaryingVectors:         geti(gl.MAX_VARYING_COMPONENTS) / 4,
		// Core 4.1 guarantees both.
		Instancing:   true,
		DepthTexture: true,
	}
	if hasExtension("GL_EXT_texture_filter_anisotropic") {
		caps.AnisotropicFiltering = true
		var aniso float32
		gl.GetFloatv(maxTextureMaxAnisotropy, &aniso)
		caps.MaxAnisotropy = aniso
	}
	return caps
}

func hasExtension(name string) bool {
	var count int32
	gl.GetIntegerv(gl.NUM_EXTENSIONS, &count)
	for i := int32(0); i < count; i++ {
		if gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))) == name {
			return true
		}
	}
	return false
}

// Capabilities reports the limits queried at initialization.
func (d *Device) Capabilities() glctx.Capabilities { return d.caps }

func (d *Device) ActiveTexture(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
}

func (d *Device) BindTexture2D(t glctx.TextureID) {
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (d *Device) BindCubemap(t glctx.TextureID) {
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(t))
}

func (d *Device) CreateTexture() glctx.TextureID {
	var t uint32
	gl.GenTextures(1, &t)
	return glctx.TextureID(t)
}

func (d *Device) DeleteTexture(t glctx.TextureID) {
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

func (d *Device) TexImage2D(width, height int, pixels []byte) {
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, pixelPtr(pixels))
}

// pixelPtr returns nil for empty slices so texture storage can be
// allocated without an upload (render targets).
func pixelPtr(pixels []byte) unsafe.Pointer {
	if len(pixels) == 0 {
		return nil
	}
	return gl.Ptr(pixels)
}

func (d *Device) TexImageDepth(width, height int) {
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, int32(width), int32(height), 0,
		gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_COMPARE_MODE, gl.NONE)
}

func (d *Device) TexImageCubeFace(face glctx.CubemapFace, width, height int, pixels []byte) {
	gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), 0, gl.RGBA8,
		int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, pixelPtr(pixels))
}

func (d *Device) GenerateMipmaps(cubemap bool) {
	gl.GenerateMipmap(textureTarget(cubemap))
}

func (d *Device) SetTextureFilter(filter glctx.FilterMode, mipmaps, cubemap bool) {
	target := textureTarget(cubemap)

	mag := int32(gl.LINEAR)
	min := int32(gl.LINEAR)
	switch filter {
	case glctx.FilterNearest:
		mag = gl.NEAREST
		min = gl.NEAREST
		if mipmaps {
			min = gl.NEAREST_MIPMAP_NEAREST
		}
	case glctx.FilterBilinear:
		if mipmaps {
			min = gl.LINEAR_MIPMAP_NEAREST
		}
	case glctx.FilterTrilinear, glctx.FilterAnisotropic:
		if mipmaps {
			min = gl.LINEAR_MIPMAP_LINEAR
		}
	}
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, mag)
	gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, min)

	if cubemap {
		gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	} else {
		gl.TexParameteri(target, gl.TEXTURE_WRAP_S, gl.REPEAT)
		gl.TexParameteri(target, gl.TEXTURE_WRAP_T, gl.REPEAT)
	}
	if filter == glctx.FilterAnisotropic && d.caps.AnisotropicFiltering {
		gl.TexParameterf(target, textureMaxAnisotropy, d.caps.MaxAnisotropy)
	}
}

func textureTarget(cubemap bool) uint32 {
	if cubemap {
		return gl.TEXTURE_CUBE_MAP
	}
	return gl.TEXTURE_2D
}

func (d *Device) CreateBuffer() glctx.BufferID {
	var b uint32
	gl.GenBuffers(1, &b)
	return glctx.BufferID(b)
}

func (d *Device) DeleteBuffer(b glctx.BufferID) {
	id := uint32(b)
	gl.DeleteBuffers(1, &id)
}

func (d *Device) BindArrayBuffer(b glctx.BufferID) {
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(b))
}

func (d *Device) BufferData(data []float32, dynamic bool) {
	usage := uint32(gl.STATIC_DRAW)
	if dynamic {
		usage = gl.DYNAMIC_DRAW
	}
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = gl.Ptr(data)
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(data), ptr, usage)
}

func (d *Device) EnableVertexAttrib(loc glctx.AttribLocation) {
	gl.EnableVertexAttribArray(uint32(loc))
}

func (d *Device) DisableVertexAttrib(loc glctx.AttribLocation) {
	gl.DisableVertexAttribArray(uint32(loc))
}

func (d *Device) VertexAttribPointer(loc glctx.AttribLocation, arity int) {
	gl.VertexAttribPointerWithOffset(uint32(loc), int32(arity), gl.FLOAT, false, 0, 0)
}

func (d *Device) VertexAttribDivisor(loc glctx.AttribLocation, divisor int) {
	gl.VertexAttribDivisor(uint32(loc), uint32(divisor))
}

// CreateProgram compiles both stages and links them, returning the
// driver's info log on failure.
func (d *Device) CreateProgram(vertexSrc, fragmentSrc string) (glctx.ProgramID, error) {
	vert, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", strings.TrimRight(log, "\x00"))
	}
	return glctx.ProgramID(prog), nil
}

// Stage preambles mapping the restricted legacy shader subset onto GLSL
// 410 core, which is the only dialect a core-profile context accepts.
// Prepended when a source carries no #version directive of its own.
const (
	vertexPreamble = "#version 410 core\n" +
		"#define attribute in\n" +
		"#define varying out\n" +
		"#define texture2D texture\n" +
		"#define textureCube texture\n"
	fragmentPreamble = "#version 410 core\n" +
		"#define varying in\n" +
		"#define texture2D texture\n" +
		"#define textureCube texture\n" +
		"out vec4 fragColorOut;\n" +
		"#define gl_FragColor fragColorOut\n"
)

func prepareSource(src string, shaderType uint32) string {
	if strings.Contains(src, "#version") {
		return src
	}
	if shaderType == gl.VERTEX_SHADER {
		return vertexPreamble + src
	}
	return fragmentPreamble + src
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(prepareSource(src, shaderType) + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func (d *Device) DeleteProgram(p glctx.ProgramID) {
	gl.DeleteProgram(uint32(p))
}

func (d *Device) UseProgram(p glctx.ProgramID) {
	gl.UseProgram(uint32(p))
}

func (d *Device) AttribLocation(p glctx.ProgramID, name string) glctx.AttribLocation {
	return glctx.AttribLocation(gl.GetAttribLocation(uint32(p), gl.Str(name+"\x00")))
}

func (d *Device) UniformLocation(p glctx.ProgramID, name string) glctx.UniformID {
	return glctx.UniformID(gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00")))
}

func (d *Device) Uniform1f(u glctx.UniformID, v float32) { gl.Uniform1f(int32(u), v) }
func (d *Device) Uniform1i(u glctx.UniformID, v int32)   { gl.Uniform1i(int32(u), v) }

func (d *Device) Uniform2f(u glctx.UniformID, x, y float32) { gl.Uniform2f(int32(u), x, y) }

func (d *Device) Uniform3f(u glctx.UniformID, x, y, z float32) {
	gl.Uniform3f(int32(u), x, y, z)
}

func (d *Device) Uniform4f(u glctx.UniformID, x, y, z, w float32) {
	gl.Uniform4f(int32(u), x, y, z, w)
}

func (d *Device) Uniform1fv(u glctx.UniformID, data []float32) {
	gl.Uniform1fv(int32(u), int32(len(data)), &data[0])
}

func (d *Device) Uniform1iv(u glctx.UniformID, data []int32) {
	gl.Uniform1iv(int32(u), int32(len(data)), &data[0])
}

func (d *Device) Uniform2fv(u glctx.UniformID, data []float32) {
	gl.Uniform2fv(int32(u), int32(len(data)/2), &data[0])
}

func (d *Device) Uniform3fv(u glctx.UniformID, data []float32) {
	gl.Uniform3fv(int32(u), int32(len(data)/3), &data[0])
}

func (d *Device) Uniform4fv(u glctx.UniformID, data []float32) {
	gl.Uniform4fv(int32(u), int32(len(data)/4), &data[0])
}

func (d *Device) UniformMatrix3fv(u glctx.UniformID, data []float32) {
	gl.UniformMatrix3fv(int32(u), int32(len(data)/9), false, &data[0])
}

func (d *Device) UniformMatrix4fv(u glctx.UniformID, data []float32) {
	gl.UniformMatrix4fv(int32(u), int32(len(data)/16), false, &data[0])
}

func (d *Device) CreateFramebuffer() glctx.FramebufferID {
	var f uint32
	gl.GenFramebuffers(1, &f)
	return glctx.FramebufferID(f)
}

func (d *Device) DeleteFramebuffer(f glctx.FramebufferID) {
	id := uint32(f)
	gl.DeleteFramebuffers(1, &id)
}

func (d *Device) BindFramebuffer(f glctx.FramebufferID) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(f))
}

func (d *Device) FramebufferColorTexture(t glctx.TextureID) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(t), 0)
}

func (d *Device) FramebufferDepthTexture(t glctx.TextureID) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, uint32(t), 0)
	// Depth-only target: no color plane to draw or read.
	gl.DrawBuffer(gl.NONE)
	gl.ReadBuffer(gl.NONE)
}

func (d *Device) CreateRenderbuffer(width, height int) glctx.RenderbufferID {
	var r uint32
	gl.GenRenderbuffers(1, &r)
	gl.BindRenderbuffer(gl.RENDERBUFFER, r)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)
	return glctx.RenderbufferID(r)
}

func (d *Device) DeleteRenderbuffer(r glctx.RenderbufferID) {
	id := uint32(r)
	gl.DeleteRenderbuffers(1, &id)
}

func (d *Device) FramebufferDepthRenderbuffer(r glctx.RenderbufferID) {
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, uint32(r))
}

func (d *Device) FramebufferStatus() glctx.FramebufferStatus {
	switch gl.CheckFramebufferStatus(gl.FRAMEBUFFER) {
	case gl.FRAMEBUFFER_COMPLETE:
		return glctx.FramebufferComplete
	case gl.FRAMEBUFFER_INCOMPLETE_ATTACHMENT:
		return glctx.FramebufferIncompleteAttachment
	case gl.FRAMEBUFFER_INCOMPLETE_MISSING_ATTACHMENT:
		return glctx.FramebufferMissingAttachment
	case gl.FRAMEBUFFER_UNSUPPORTED:
		return glctx.FramebufferUnsupported
	case gl.FRAMEBUFFER_INCOMPLETE_MULTISAMPLE:
		return glctx.FramebufferIncompleteMultisample
	default:
		return glctx.FramebufferStatusUnknown
	}
}

func (d *Device) SetBlendMode(mode glctx.BlendMode) {
	switch mode {
	case glctx.BlendOpaque:
		gl.Disable(gl.BLEND)
	case glctx.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	case glctx.BlendAdditive:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	}
}

func (d *Device) ColorMask(r, g, b, a bool) {
	gl.ColorMask(r, g, b, a)
}

func (d *Device) DepthMask(write bool) {
	gl.DepthMask(write)
}

func (d *Device) Viewport(x, y, width, height int) {
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *Device) Clear(color, depth bool) {
	var mask uint32
	if color {
		mask |= gl.COLOR_BUFFER_BIT
	}
	if depth {
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
}

func (d *Device) DrawArrays(mode glctx.DrawMode, first, count int) {
	gl.DrawArrays(drawMode(mode), int32(first), int32(count))
}

func (d *Device) DrawArraysInstanced(mode glctx.DrawMode, first, count, instances int) {
	gl.DrawArraysInstanced(drawMode(mode), int32(first), int32(count), int32(instances))
}

func drawMode(mode glctx.DrawMode) uint32 {
	switch mode {
	case glctx.DrawTriangleStrip:
		return gl.TRIANGLE_STRIP
	case glctx.DrawLines:
		return gl.LINES
	case glctx.DrawPoints:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}

// Release deletes the device's vertex array object. The GL context itself
// belongs to the host application.
func (d *Device) Release() {
	if d.vao != 0 {
		gl.DeleteVertexArrays(1, &d.vao)
		d.vao = 0
	}
}
