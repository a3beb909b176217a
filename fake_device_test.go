package glctx

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// fakeDevice is a recording Device for tests: every call is appended to a
// log so cache-hit properties (a suppressed call is zero calls) can be
// asserted, and handles are allocated sequentially.
type fakeDevice struct {
	caps  Capabilities
	calls []string

	nextTexture      uint32
	nextBuffer       uint32
	nextProgram      uint32
	nextFramebuffer  uint32
	nextRenderbuffer uint32

	attribLocs  map[string]AttribLocation
	uniformLocs map[string]UniformID
	nextAttrib  AttribLocation
	nextUniform UniformID

	failCompile bool
	fbStatus    FramebufferStatus
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		caps: Capabilities{
			Vendor:                    "fake",
			Renderer:                  "recorder",
			MaxTextureUnits:           8,
			MaxTextureSize:            4096,
			MaxCubemapSize:            2048,
			MaxRenderbufferSize:       4096,
			MaxVertexAttribs:          16,
			MaxVertexUniformVectors:   256,
			MaxFragmentUniformVectors: 224,
			MaxVaryingVectors:         15,
			Instancing:                true,
			DepthTexture:              true,
		},
		attribLocs:  make(map[string]AttribLocation),
		uniformLocs: make(map[string]UniformID),
		fbStatus:    FramebufferComplete,
	}
}

func (f *fakeDevice) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// reset clears the call log.
func (f *fakeDevice) reset() { f.calls = nil }

// count returns the number of logged calls whose name has the prefix.
func (f *fakeDevice) count(prefix string) int {
	n := 0
	for _, call := range f.calls {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeDevice) Capabilities() Capabilities { return f.caps }

func (f *fakeDevice) ActiveTexture(unit int) { f.record("ActiveTexture(%d)", unit) }

func (f *fakeDevice) BindTexture2D(t TextureID) { f.record("BindTexture2D(%d)", t) }
func (f *fakeDevice) BindCubemap(t TextureID)   { f.record("BindCubemap(%d)", t) }

func (f *fakeDevice) CreateTexture() TextureID {
	f.nextTexture++
	f.record("CreateTexture(%d)", f.nextTexture)
	return TextureID(f.nextTexture)
}

func (f *fakeDevice) DeleteTexture(t TextureID) { f.record("DeleteTexture(%d)", t) }

func (f *fakeDevice) TexImage2D(w, h int, pixels []byte) { f.record("TexImage2D(%dx%d)", w, h) }
func (f *fakeDevice) TexImageDepth(w, h int)             { f.record("TexImageDepth(%dx%d)", w, h) }

func (f *fakeDevice) TexImageCubeFace(face CubemapFace, w, h int, pixels []byte) {
	f.record("TexImageCubeFace(%d,%dx%d)", face, w, h)
}

func (f *fakeDevice) GenerateMipmaps(cubemap bool) { f.record("GenerateMipmaps(%v)", cubemap) }

func (f *fakeDevice) SetTextureFilter(filter FilterMode, mipmaps, cubemap bool) {
	f.record("SetTextureFilter(%v,%v,%v)", filter, mipmaps, cubemap)
}

func (f *fakeDevice) CreateBuffer() BufferID {
	f.nextBuffer++
	f.record("CreateBuffer(%d)", f.nextBuffer)
	return BufferID(f.nextBuffer)
}

func (f *fakeDevice) DeleteBuffer(b BufferID) { f.record("DeleteBuffer(%d)", b) }

func (f *fakeDevice) BindArrayBuffer(b BufferID) { f.record("BindArrayBuffer(%d)", b) }

func (f *fakeDevice) BufferData(data []float32, dynamic bool) {
	f.record("BufferData(%d,%v)", len(data), dynamic)
}

func (f *fakeDevice) EnableVertexAttrib(loc AttribLocation) {
	f.record("EnableVertexAttrib(%d)", loc)
}

func (f *fakeDevice) DisableVertexAttrib(loc AttribLocation) {
	f.record("DisableVertexAttrib(%d)", loc)
}

func (f *fakeDevice) VertexAttribPointer(loc AttribLocation, arity int) {
	f.record("VertexAttribPointer(%d,%d)", loc, arity)
}

func (f *fakeDevice) VertexAttribDivisor(loc AttribLocation, divisor int) {
	f.record("VertexAttribDivisor(%d,%d)", loc, divisor)
}

func (f *fakeDevice) CreateProgram(vertexSrc, fragmentSrc string) (ProgramID, error) {
	if f.failCompile {
		return 0, errors.New("0:1: syntax error (fake driver log)")
	}
	f.nextProgram++
	f.record("CreateProgram(%d)", f.nextProgram)
	return ProgramID(f.nextProgram), nil
}

func (f *fakeDevice) DeleteProgram(p ProgramID) { f.record("DeleteProgram(%d)", p) }
func (f *fakeDevice) UseProgram(p ProgramID)    { f.record("UseProgram(%d)", p) }

func (f *fakeDevice) AttribLocation(p ProgramID, name string) AttribLocation {
	key := fmt.Sprintf("%d:%s", p, name)
	if loc, ok := f.attribLocs[key]; ok {
		return loc
	}
	loc := f.nextAttrib
	f.nextAttrib++
	f.attribLocs[key] = loc
	return loc
}

func (f *fakeDevice) UniformLocation(p ProgramID, name string) UniformID {
	key := fmt.Sprintf("%d:%s", p, name)
	if loc, ok := f.uniformLocs[key]; ok {
		return loc
	}
	loc := f.nextUniform
	f.nextUniform++
	f.uniformLocs[key] = loc
	return loc
}

func (f *fakeDevice) Uniform1f(u UniformID, v float32) { f.record("Uniform1f(%d,%g)", u, v) }
func (f *fakeDevice) Uniform1i(u UniformID, v int32)   { f.record("Uniform1i(%d,%d)", u, v) }

func (f *fakeDevice) Uniform2f(u UniformID, x, y float32) {
	f.record("Uniform2f(%d,%g,%g)", u, x, y)
}

func (f *fakeDevice) Uniform3f(u UniformID, x, y, z float32) {
	f.record("Uniform3f(%d,%g,%g,%g)", u, x, y, z)
}

func (f *fakeDevice) Uniform4f(u UniformID, x, y, z, w float32) {
	f.record("Uniform4f(%d,%g,%g,%g,%g)", u, x, y, z, w)
}

func (f *fakeDevice) Uniform1fv(u UniformID, data []float32) {
	f.record("Uniform1fv(%d,%d)", u, len(data))
}

func (f *fakeDevice) Uniform1iv(u UniformID, data []int32) {
	f.record("Uniform1iv(%d,%d)", u, len(data))
}

func (f *fakeDevice) Uniform2fv(u UniformID, data []float32) {
	f.record("Uniform2fv(%d,%d)", u, len(data))
}

func (f *fakeDevice) Uniform3fv(u UniformID, data []float32) {
	f.record("Uniform3fv(%d,%d)", u, len(data))
}

func (f *fakeDevice) Uniform4fv(u UniformID, data []float32) {
	f.record("Uniform4fv(%d,%d)", u, len(data))
}

func (f *fakeDevice) UniformMatrix3fv(u UniformID, data []float32) {
	f.record("UniformMatrix3fv(%d,%d)", u, len(data))
}

func (f *fakeDevice) UniformMatrix4fv(u UniformID, data []float32) {
	f.record("UniformMatrix4fv(%d,%d)", u, len(data))
}

func (f *fakeDevice) CreateFramebuffer() FramebufferID {
	f.nextFramebuffer++
	f.record("CreateFramebuffer(%d)", f.nextFramebuffer)
	return FramebufferID(f.nextFramebuffer)
}

func (f *fakeDevice) DeleteFramebuffer(fb FramebufferID) { f.record("DeleteFramebuffer(%d)", fb) }
func (f *fakeDevice) BindFramebuffer(fb FramebufferID)   { f.record("BindFramebuffer(%d)", fb) }

func (f *fakeDevice) FramebufferColorTexture(t TextureID) {
	f.record("FramebufferColorTexture(%d)", t)
}

func (f *fakeDevice) FramebufferDepthTexture(t TextureID) {
	f.record("FramebufferDepthTexture(%d)", t)
}

func (f *fakeDevice) CreateRenderbuffer(w, h int) RenderbufferID {
	f.nextRenderbuffer++
	f.record("CreateRenderbuffer(%d,%dx%d)", f.nextRenderbuffer, w, h)
	return RenderbufferID(f.nextRenderbuffer)
}

func (f *fakeDevice) DeleteRenderbuffer(r RenderbufferID) { f.record("DeleteRenderbuffer(%d)", r) }

func (f *fakeDevice) FramebufferDepthRenderbuffer(r RenderbufferID) {
	f.record("FramebufferDepthRenderbuffer(%d)", r)
}

func (f *fakeDevice) FramebufferStatus() FramebufferStatus { return f.fbStatus }

func (f *fakeDevice) SetBlendMode(mode BlendMode) { f.record("SetBlendMode(%v)", mode) }

func (f *fakeDevice) ColorMask(r, g, b, a bool) {
	f.record("ColorMask(%v,%v,%v,%v)", r, g, b, a)
}

func (f *fakeDevice) DepthMask(write bool) { f.record("DepthMask(%v)", write) }

func (f *fakeDevice) Viewport(x, y, w, h int) { f.record("Viewport(%d,%d,%d,%d)", x, y, w, h) }

func (f *fakeDevice) Clear(color, depth bool) { f.record("Clear(%v,%v)", color, depth) }

func (f *fakeDevice) DrawArrays(mode DrawMode, first, count int) {
	f.record("DrawArrays(%d,%d,%d)", mode, first, count)
}

func (f *fakeDevice) DrawArraysInstanced(mode DrawMode, first, count, instances int) {
	f.record("DrawArraysInstanced(%d,%d,%d,%d)", mode, first, count, instances)
}

// newTestContext builds a context on a fresh fake device with the call log
// cleared of construction noise.
func newTestContext(t interface{ Fatalf(string, ...any) }) (*Context, *fakeDevice) {
	dev := newFakeDevice()
	c, err := NewContext("test", dev)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	dev.reset()
	return c, dev
}

// grayImage returns a small solid RGBA test image.
func grayImage(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	return img
}
