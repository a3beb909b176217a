package glctx

import (
	"errors"
	"fmt"
)

// Context errors.
var (
	// ErrNilDevice is returned when a context is created without a
	// device.
	ErrNilDevice = errors.New("glctx: device is nil")
)

// ContextState is the context's setup lifecycle state.
type ContextState uint8

const (
	// StateDirty means resources were added or caches cleared since the
	// last Setup; device buffers and bindings are stale.
	StateDirty ContextState = iota
	// StateReady means Setup has run and all registered resources are
	// usable.
	StateReady
)

// attribKey addresses a cached attribute location: one shader's program in
// this context, one attribute name.
type attribKey struct {
	shader resourceID
	name   string
}

// uniformKey addresses a cached uniform location, by fully prefixed name
// ("u_lights[3].color").
type uniformKey struct {
	shader resourceID
	name   string
}

// scalarKey addresses a cached last-sent scalar uniform value.
type scalarKey struct {
	shader resourceID
	name   string
}

// unitSlot is one entry of the texture unit table: what occupies the unit
// and whether it is pinned against automatic eviction.
type unitSlot struct {
	binder   TextureBinder // nil when the unit is free
	reserved bool
}

// Context manages all device resources and device state for one rendering
// surface. It owns the texture unit table, the named vertex buffer and
// framebuffer sets, the attached shaders and models, and every
// redundant-call suppression cache.
//
// The context's caches are the only valid description of device state.
// Device calls issued outside the context silently desynchronize them and
// cause incorrect suppression afterwards.
//
// A logical resource may be attached to several contexts at once; all
// per-context device handles and location caches live in the context's
// side tables, keyed by resource identity, so contexts never interfere.
type Context struct {
	name   string
	dev    Device
	caps   Capabilities
	filter FilterMode

	// Texture unit allocator state.
	units      []unitSlot
	rotation   int
	activeUnit int
	lastUnit   map[resourceID]int

	// Side tables: resource identity to device handle. Textures and
	// cubemaps additionally track registration, which precedes handle
	// existence while a pending resource's data is still loading.
	registered     map[resourceID]bool
	textureHandles map[resourceID]TextureID
	bufferHandles  map[resourceID]BufferID
	programs       map[resourceID]ProgramID

	// Location and last-value caches.
	attribLocs  map[attribKey]AttribLocation
	uniformLocs map[uniformKey]UniformID
	scalarCache map[scalarKey]float32

	// Registered resources.
	vertexBuffers map[string]*VertexBuffer
	frameBuffers  map[string]*FrameBuffer
	shaders       []*Shader
	models        []Model

	// Device state caches.
	currentShader    *Shader
	currentBlend     BlendMode
	colorMask        [4]bool
	depthWrite       bool
	boundArrayBuffer BufferID
	boundFramebuffer FramebufferID
	enabledAttribs   map[AttribLocation]bool
	attribBindings   map[AttribLocation]BufferID
	attribDivisors   map[AttribLocation]int

	state ContextState
}

// ContextOption configures a context at construction.
type ContextOption func(*Context)

// WithFilterMode sets the texture filtering quality used for uploads in
// this context. FilterAnisotropic degrades to trilinear on devices without
// the extension. The default is FilterTrilinear.
func WithFilterMode(f FilterMode) ContextOption {
	return func(c *Context) { c.filter = f }
}

// NewContext creates a context bound to a device surface. It issues the
// calls needed to bring the device's blend, mask, and unit state in line
// with the context's caches, so suppression starts from known state.
func NewContext(name string, dev Device, opts ...ContextOption) (*Context, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	caps := dev.Capabilities()
	c := &Context{
		name:           name,
		dev:            dev,
		caps:           caps,
		filter:         FilterTrilinear,
		units:          make([]unitSlot, caps.MaxTextureUnits),
		lastUnit:       make(map[resourceID]int),
		registered:     make(map[resourceID]bool),
		textureHandles: make(map[resourceID]TextureID),
		bufferHandles:  make(map[resourceID]BufferID),
		programs:       make(map[resourceID]ProgramID),
		attribLocs:     make(map[attribKey]AttribLocation),
		uniformLocs:    make(map[uniformKey]UniformID),
		scalarCache:    make(map[scalarKey]float32),
		vertexBuffers:  make(map[string]*VertexBuffer),
		frameBuffers:   make(map[string]*FrameBuffer),
		enabledAttribs: make(map[AttribLocation]bool),
		attribBindings: make(map[AttribLocation]BufferID),
		attribDivisors: make(map[AttribLocation]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.syncDeviceState()
	Logger().Info("glctx: context created", "context", name, "caps", caps.String())
	return c, nil
}

// syncDeviceState forces the device into the state the caches describe.
func (c *Context) syncDeviceState() {
	c.dev.ActiveTexture(0)
	c.activeUnit = 0
	c.dev.SetBlendMode(BlendOpaque)
	c.currentBlend = BlendOpaque
	c.dev.ColorMask(true, true, true, true)
	c.colorMask = [4]bool{true, true, true, true}
	c.dev.DepthMask(true)
	c.depthWrite = true
}

// Name returns the context's name.
func (c *Context) Name() string { return c.name }

// Device returns the underlying device. Issuing state-changing calls on it
// directly desynchronizes the context's caches; models use it for draw
// calls only.
func (c *Context) Device() Device { return c.dev }

// Capabilities returns the device's limits and extension flags.
func (c *Context) Capabilities() Capabilities { return c.caps }

// State returns the setup lifecycle state.
func (c *Context) State() ContextState { return c.state }

// effectiveFilter resolves the configured filter mode against device
// capabilities, falling back to the nearest supported mode.
func (c *Context) effectiveFilter() FilterMode {
	if c.filter == FilterAnisotropic && !c.caps.AnisotropicFiltering {
		Logger().Warn("glctx: anisotropic filtering unavailable, using trilinear",
			"context", c.name)
		return FilterTrilinear
	}
	return c.filter
}

// AddTexture registers a texture with this context. The device texture is
// created and uploaded once the texture's image data is ready, which may
// be immediately. Adding an already-registered texture is a no-op, whether
// or not its data has arrived yet.
func (c *Context) AddTexture(t *Texture) {
	if c.registered[t.id] {
		return
	}
	c.registered[t.id] = true
	t.ready.WhenReady(func() { c.uploadRegistered(t.id, func() { t.upload(c) }) })
}

// uploadRegistered runs a deferred upload unless the resource was removed
// while its data was loading, or an earlier queued callback already
// uploaded it.
func (c *Context) uploadRegistered(id resourceID, upload func()) {
	if !c.registered[id] {
		return
	}
	if _, ok := c.textureHandles[id]; ok {
		return
	}
	upload()
}

// RemoveTexture unregisters a texture and destroys the device texture held
// for this context; removing it before its data arrived cancels the queued
// upload. The CPU-side image data is untouched; its lifetime belongs to
// the loader.
func (c *Context) RemoveTexture(t *Texture) {
	delete(c.registered, t.id)
	handle, ok := c.textureHandles[t.id]
	if !ok {
		return
	}
	c.forgetBoundTexture(t.id)
	delete(c.textureHandles, t.id)
	c.dev.DeleteTexture(handle)
}

// AddCubemap registers a cubemap with this context, uploading once its
// face data is ready. Adding an already-registered cubemap is a no-op.
func (c *Context) AddCubemap(cm *Cubemap) {
	if c.registered[cm.id] {
		return
	}
	c.registered[cm.id] = true
	cm.ready.WhenReady(func() { c.uploadRegistered(cm.id, func() { cm.upload(c) }) })
}

// RemoveCubemap unregisters a cubemap and destroys the device cubemap held
// for this context, cancelling a queued upload if the faces never arrived.
func (c *Context) RemoveCubemap(cm *Cubemap) {
	delete(c.registered, cm.id)
	handle, ok := c.textureHandles[cm.id]
	if !ok {
		return
	}
	c.forgetBoundTexture(cm.id)
	delete(c.textureHandles, cm.id)
	c.dev.DeleteTexture(handle)
}

// AddShader attaches a shader. The shader is pre-flighted against the
// device limits and compiled; on either failure it is not attached and the
// returned error carries the reason (the driver log, for compile
// failures). Attaching an already-attached shader is a no-op. A successful
// attach marks the context dirty.
func (c *Context) AddShader(s *Shader) error {
	for _, attached := range c.shaders {
		if attached == s {
			return nil
		}
	}
	if !c.caps.Satisfies(s.Cost()) {
		return fmt.Errorf("%w: %q needs %+v", ErrShaderUnsupported, s.name, s.Cost())
	}
	if err := s.compile(c); err != nil {
		return err
	}
	c.shaders = append(c.shaders, s)
	c.state = StateDirty
	return nil
}

// RemoveShader detaches a shader: its instance buffers and compiled
// program for this context are destroyed and all of its cached locations
// and uniform values are forgotten.
func (c *Context) RemoveShader(s *Shader) {
	index := -1
	for i, attached := range c.shaders {
		if attached == s {
			index = i
			break
		}
	}
	if index < 0 {
		return
	}
	c.shaders = append(c.shaders[:index], c.shaders[index+1:]...)
	s.deleteInstanceBuffers(c)
	if program := c.programs[s.id]; program != 0 {
		c.dev.DeleteProgram(program)
	}
	delete(c.programs, s.id)
	c.forgetShaderCaches(s.id)
	if c.currentShader == s {
		c.currentShader = nil
	}
}

// RemoveShaders detaches every shader.
func (c *Context) RemoveShaders() {
	for len(c.shaders) > 0 {
		c.RemoveShader(c.shaders[len(c.shaders)-1])
	}
}

// Shaders returns the attached shaders in attachment order. The returned
// slice must not be modified.
func (c *Context) Shaders() []*Shader { return c.shaders }

// AddModel attaches a model, whose vertex data will be written into the
// named buffers on the next Setup. Attaching an already-attached model is
// a no-op; otherwise the context is marked dirty.
func (c *Context) AddModel(m Model) {
	for _, attached := range c.models {
		if attached == m {
			return
		}
	}
	c.models = append(c.models, m)
	c.state = StateDirty
}

// AddFrameBuffer registers a framebuffer by name. It is constructed on the
// next Setup if it does not already exist.
func (c *Context) AddFrameBuffer(fb *FrameBuffer) {
	if _, ok := c.frameBuffers[fb.name]; ok {
		return
	}
	c.frameBuffers[fb.name] = fb
	c.state = StateDirty
}

// FrameBuffer returns a registered framebuffer by name, nil if absent.
func (c *Context) FrameBuffer(name string) *FrameBuffer { return c.frameBuffers[name] }

// VertexBuffer returns a named vertex buffer built by Setup, nil if
// absent.
func (c *Context) VertexBuffer(name string) *VertexBuffer { return c.vertexBuffers[name] }

// VertexBuffers returns the named vertex buffer set built by Setup.
func (c *Context) VertexBuffers() map[string]*VertexBuffer { return c.vertexBuffers }

// BuffersForRole returns the vertex buffers feeding attributes with the
// given role, across all attached shaders. Models use it to write their
// attribute arrays without knowing shader-specific attribute names.
func (c *Context) BuffersForRole(role AttributeRole) []*VertexBuffer {
	var out []*VertexBuffer
	seen := make(map[string]bool)
	for _, s := range c.shaders {
		for _, attr := range s.attributes {
			if attr.Role != role || seen[attr.Name] {
				continue
			}
			if vb, ok := c.vertexBuffers[attr.Name]; ok {
				seen[attr.Name] = true
				out = append(out, vb)
			}
		}
	}
	return out
}

// RemoveVertexBuffer destroys a named buffer's device storage for this
// context and drops it from the named set.
func (c *Context) RemoveVertexBuffer(name string) {
	vb, ok := c.vertexBuffers[name]
	if !ok {
		return
	}
	vb.Delete(c)
	delete(c.vertexBuffers, name)
}

// Setup transitions the context from dirty to ready: it rebuilds the named
// vertex buffer set from the attached shaders' attributes, sized for every
// attached model across its levels of detail; has each model write its
// data at sequentially assigned offsets; uploads the buffers and frees
// their CPU stores; rebinds every shader's attributes to the new device
// buffers; and constructs any pending framebuffers.
//
// Setup while already ready is a no-op, so calling it twice allocates
// nothing twice.
func (c *Context) Setup() error {
	if c.state == StateReady {
		return nil
	}

	totalVertices := 0
	for _, m := range c.models {
		totalVertices += m.BufferSize(c)
	}

	// Rebuild the named buffer set: one buffer per distinct vertex
	// attribute name across all attached shaders.
	for name, vb := range c.vertexBuffers {
		vb.Delete(c)
		delete(c.vertexBuffers, name)
	}
	for _, s := range c.shaders {
		for _, attr := range s.attributes {
			if _, ok := c.vertexBuffers[attr.Name]; ok {
				continue
			}
			c.vertexBuffers[attr.Name] = NewVertexBuffer(attr.Name, attr.Arity, totalVertices)
		}
	}
	Logger().Debug("glctx: vertex buffers rebuilt",
		"context", c.name, "buffers", len(c.vertexBuffers), "vertices", totalVertices)

	offset := 0
	for _, m := range c.models {
		for lod := m.MinLOD(); lod <= m.MaxLOD(); lod++ {
			offset += m.LoadToVertexBuffers(c, offset, lod)
		}
	}

	var errs []error
	for _, vb := range c.vertexBuffers {
		if err := vb.Upload(c); err != nil {
			errs = append(errs, err)
		}
	}
	for _, s := range c.shaders {
		s.bindAttributes(c)
	}
	for _, fb := range c.frameBuffers {
		if fb.Constructed() {
			continue
		}
		if err := fb.Setup(c); err != nil {
			errs = append(errs, err)
		}
	}

	c.state = StateReady
	Logger().Info("glctx: context ready",
		"context", c.name, "shaders", len(c.shaders), "models", len(c.models),
		"vertices", totalVertices)
	return errors.Join(errs...)
}

// SetCurrentShader makes s's program current, updating the blend state and
// attribute bindings only as far as the caches show they differ. It
// reports whether a program switch actually happened; callers use that to
// decide whether per-shader state like uniforms must be re-sent.
func (c *Context) SetCurrentShader(s *Shader) bool {
	if c.currentShader == s {
		return false
	}
	program := c.programs[s.id]
	if program == 0 {
		Logger().Debug("glctx: shader unusable in context", "context", c.name, "shader", s.name)
		return false
	}
	c.dev.UseProgram(program)
	if s.blend != c.currentBlend {
		c.dev.SetBlendMode(s.blend)
		c.currentBlend = s.blend
	}
	s.bindAttributes(c)
	c.currentShader = s
	return true
}

// CurrentShader returns the shader whose program is current, nil if none.
func (c *Context) CurrentShader() *Shader { return c.currentShader }

// SetColorMask enables or disables color channel writes, skipping the
// device call when the cached mask already matches.
func (c *Context) SetColorMask(r, g, b, a bool) {
	mask := [4]bool{r, g, b, a}
	if c.colorMask == mask {
		return
	}
	c.dev.ColorMask(r, g, b, a)
	c.colorMask = mask
}

// SetDepthMask enables or disables depth writes, skipping the device call
// when the cached mask already matches.
func (c *Context) SetDepthMask(write bool) {
	if c.depthWrite == write {
		return
	}
	c.dev.DepthMask(write)
	c.depthWrite = write
}

// BindDefaultFramebuffer makes the default framebuffer the render target.
func (c *Context) BindDefaultFramebuffer() {
	c.bindFramebuffer(0)
}

// Clear resets the context after the underlying surface was invalidated,
// for example by a resize that recreated it: framebuffers are torn down,
// the current-shader record is dropped, every texture unit is unbound and
// forgotten, and every enabled attribute index is disabled. Registered
// resources stay attached; a following Setup restores full functionality.
func (c *Context) Clear() {
	for _, fb := range c.frameBuffers {
		fb.Destroy(c)
	}
	c.currentShader = nil
	for i := range c.units {
		if c.units[i].binder == nil {
			continue
		}
		c.setActiveUnit(i)
		c.dev.BindTexture2D(0)
		c.dev.BindCubemap(0)
		c.units[i] = unitSlot{}
	}
	clear(c.lastUnit)
	c.rotation = 0
	for loc := range c.enabledAttribs {
		c.dev.DisableVertexAttrib(loc)
	}
	clear(c.enabledAttribs)
	clear(c.attribBindings)
	clear(c.attribDivisors)
	clear(c.scalarCache)
	c.boundArrayBuffer = 0
	c.boundFramebuffer = 0
	c.syncDeviceState()
	c.state = StateDirty
	Logger().Info("glctx: context cleared", "context", c.name)
}

// attribLocation resolves and caches an attribute location in s's program
// for this context.
func (c *Context) attribLocation(s *Shader, name string) AttribLocation {
	key := attribKey{s.id, name}
	if loc, ok := c.attribLocs[key]; ok {
		return loc
	}
	loc := AttribNone
	if program := c.programs[s.id]; program != 0 {
		loc = c.dev.AttribLocation(program, name)
	}
	c.attribLocs[key] = loc
	return loc
}

// uniformLocation resolves and caches a uniform location by fully
// prefixed name in s's program for this context.
func (c *Context) uniformLocation(s *Shader, name string) UniformID {
	key := uniformKey{s.id, name}
	if loc, ok := c.uniformLocs[key]; ok {
		return loc
	}
	loc := UniformNone
	if program := c.programs[s.id]; program != 0 {
		loc = c.dev.UniformLocation(program, name)
	}
	c.uniformLocs[key] = loc
	return loc
}

// forgetShaderCaches drops every cached location and scalar value for one
// shader's program. Cached entries are only valid for the context/program
// pair they were captured under.
func (c *Context) forgetShaderCaches(id resourceID) {
	for key := range c.attribLocs {
		if key.shader == id {
			delete(c.attribLocs, key)
		}
	}
	for key := range c.uniformLocs {
		if key.shader == id {
			delete(c.uniformLocs, key)
		}
	}
	for key := range c.scalarCache {
		if key.shader == id {
			delete(c.scalarCache, key)
		}
	}
}

// forgetAttribLocations drops cached locations for one attribute name
// across all shaders, when the buffer feeding it goes away entirely.
func (c *Context) forgetAttribLocations(name string) {
	for key := range c.attribLocs {
		if key.name == name {
			delete(c.attribLocs, key)
		}
	}
}

// bindArrayBuffer binds a buffer to the array target unless the cache
// shows it is already bound.
func (c *Context) bindArrayBuffer(handle BufferID) {
	if c.boundArrayBuffer == handle {
		return
	}
	c.dev.BindArrayBuffer(handle)
	c.boundArrayBuffer = handle
}

// forgetArrayBuffer clears cache entries referring to a buffer about to be
// deleted.
func (c *Context) forgetArrayBuffer(handle BufferID) {
	if c.boundArrayBuffer == handle {
		c.boundArrayBuffer = 0
	}
	for loc, bound := range c.attribBindings {
		if bound == handle {
			delete(c.attribBindings, loc)
		}
	}
}

// bindFramebuffer binds a framebuffer unless the cache shows it is already
// the render target.
func (c *Context) bindFramebuffer(handle FramebufferID) {
	if c.boundFramebuffer == handle {
		return
	}
	c.dev.BindFramebuffer(handle)
	c.boundFramebuffer = handle
}

// forgetFramebuffer rebinds the default framebuffer if the one being
// destroyed is current.
func (c *Context) forgetFramebuffer(handle FramebufferID) {
	if c.boundFramebuffer == handle {
		c.bindFramebuffer(0)
	}
}
