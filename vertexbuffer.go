package glctx

import (
	"errors"
	"fmt"
)

// Vertex buffer errors.
var (
	// ErrBufferFull is returned when AddVector runs past the buffer's
	// allocated capacity.
	ErrBufferFull = errors.New("glctx: vertex buffer is full")

	// ErrBufferArity is returned when a written vector's component count
	// does not match the buffer's arity.
	ErrBufferArity = errors.New("glctx: vector does not match buffer arity")

	// ErrBufferOutOfRange is returned when SetData addresses an element
	// beyond the buffer's capacity.
	ErrBufferOutOfRange = errors.New("glctx: element index out of range")

	// ErrBufferNotResident is returned when operating on a buffer whose
	// CPU store has already been released.
	ErrBufferNotResident = errors.New("glctx: vertex buffer data already uploaded")
)

// VertexBuffer is a named array of float vectors destined for a vertex
// attribute. The name doubles as the shader attribute name it feeds.
//
// A buffer is allocated with a fixed element capacity, filled either by
// absolute element index (SetData) or progressively (AddVector), then
// uploaded per context. Upload releases the CPU store unless the buffer is
// retained; instance buffers are retained because they are rewritten and
// re-uploaded every frame.
type VertexBuffer struct {
	id    resourceID
	name  string
	arity int

	data     []float32
	cursor   int // next element for AddVector
	capacity int // elements

	retain  bool
	dynamic bool

	// handleRefs counts contexts currently holding a device handle. When
	// it drops to zero the CPU store and cached attribute locations are
	// discarded with it.
	handleRefs int
}

// VertexBufferOption configures a buffer at construction.
type VertexBufferOption func(*VertexBuffer)

// WithRetainedData keeps the CPU store alive after upload so the buffer
// can be rewritten and re-uploaded.
func WithRetainedData() VertexBufferOption {
	return func(vb *VertexBuffer) { vb.retain = true; vb.dynamic = true }
}

// NewVertexBuffer allocates a buffer holding elementCount vectors of arity
// components each.
func NewVertexBuffer(name string, arity, elementCount int, opts ...VertexBufferOption) *VertexBuffer {
	vb := &VertexBuffer{
		id:       nextResourceID(),
		name:     name,
		arity:    arity,
		capacity: elementCount,
		data:     make([]float32, arity*elementCount),
	}
	for _, opt := range opts {
		opt(vb)
	}
	return vb
}

// Name returns the buffer's name, which is also the attribute it binds to.
func (vb *VertexBuffer) Name() string { return vb.name }

// Arity returns the number of components per element.
func (vb *VertexBuffer) Arity() int { return vb.arity }

// Capacity returns the allocated element count.
func (vb *VertexBuffer) Capacity() int { return vb.capacity }

// Resident reports whether the CPU store is still held.
func (vb *VertexBuffer) Resident() bool { return vb.data != nil }

// SetData writes one vector at an absolute element index.
func (vb *VertexBuffer) SetData(element int, v ...float32) error {
	if vb.data == nil {
		return ErrBufferNotResident
	}
	if len(v) != vb.arity {
		return fmt.Errorf("%w: buffer %q arity %d, got %d components",
			ErrBufferArity, vb.name, vb.arity, len(v))
	}
	if element < 0 || element >= vb.capacity {
		return fmt.Errorf("%w: buffer %q element %d of %d",
			ErrBufferOutOfRange, vb.name, element, vb.capacity)
	}
	copy(vb.data[element*vb.arity:], v)
	return nil
}

// AddVector appends one vector at the write cursor.
func (vb *VertexBuffer) AddVector(v ...float32) error {
	if vb.data == nil {
		return ErrBufferNotResident
	}
	if len(v) != vb.arity {
		return fmt.Errorf("%w: buffer %q arity %d, got %d components",
			ErrBufferArity, vb.name, vb.arity, len(v))
	}
	if vb.cursor >= vb.capacity {
		return fmt.Errorf("%w: buffer %q capacity %d", ErrBufferFull, vb.name, vb.capacity)
	}
	copy(vb.data[vb.cursor*vb.arity:], v)
	vb.cursor++
	return nil
}

// Len returns the number of elements written through AddVector since the
// last Reset.
func (vb *VertexBuffer) Len() int { return vb.cursor }

// Reset rewinds the write cursor so the buffer can be refilled.
func (vb *VertexBuffer) Reset() { vb.cursor = 0 }

// Upload creates the device buffer for c if needed and uploads the CPU
// store. Unless the buffer is retained, the CPU store is released; the
// handle stays valid.
func (vb *VertexBuffer) Upload(c *Context) error {
	if vb.data == nil {
		return ErrBufferNotResident
	}
	handle, ok := c.bufferHandles[vb.id]
	if !ok {
		handle = c.dev.CreateBuffer()
		c.bufferHandles[vb.id] = handle
		vb.handleRefs++
	}
	c.bindArrayBuffer(handle)
	c.dev.BufferData(vb.data, vb.dynamic)
	if !vb.retain {
		vb.data = nil
	}
	return nil
}

// Delete releases the device buffer held for c. When the last context's
// handle is gone, the CPU store and the cached attribute locations for
// this buffer's name are discarded too.
func (vb *VertexBuffer) Delete(c *Context) {
	handle, ok := c.bufferHandles[vb.id]
	if !ok {
		return
	}
	c.forgetArrayBuffer(handle)
	c.dev.DeleteBuffer(handle)
	delete(c.bufferHandles, vb.id)
	c.forgetAttribLocations(vb.name)
	vb.handleRefs--
	if vb.handleRefs == 0 {
		vb.data = nil
		vb.cursor = 0
	}
}

// bind points the attribute named after this buffer, in shader's program
// for c, at this buffer's device storage. divisor is 0 for per-vertex
// attributes and 1 for per-instance attributes.
//
// The context's attribute-binding table is the source of truth for what
// the device has enabled and pointed where; bind consults it and skips
// device calls whose effect is already in place.
func (vb *VertexBuffer) bind(c *Context, s *Shader, divisor int) {
	loc := c.attribLocation(s, vb.name)
	if loc == AttribNone {
		return
	}
	handle := c.bufferHandles[vb.id]
	if !c.enabledAttribs[loc] {
		c.dev.EnableVertexAttrib(loc)
		c.enabledAttribs[loc] = true
	}
	if c.attribBindings[loc] == handle {
		return
	}
	c.bindArrayBuffer(handle)
	c.dev.VertexAttribPointer(loc, vb.arity)
	if c.caps.Instancing && (divisor > 0 || c.attribDivisors[loc] > 0) {
		c.dev.VertexAttribDivisor(loc, divisor)
		c.attribDivisors[loc] = divisor
	}
	c.attribBindings[loc] = handle
}
