package glctx

import (
	"errors"
	"fmt"
)

// Shader errors.
var (
	// ErrShaderUnsupported is returned when a shader's resource cost
	// exceeds the device's reported limits.
	ErrShaderUnsupported = errors.New("glctx: shader exceeds device limits")

	// ErrShaderCompile is returned when the driver rejects the shader
	// source. The wrapped error carries the driver's diagnostic log.
	ErrShaderCompile = errors.New("glctx: shader compilation failed")

	// ErrUnknownAttribute is returned when an attribute declaration
	// appears in neither the role table nor the instance table.
	ErrUnknownAttribute = errors.New("glctx: attribute has no declared role")

	// ErrStructUndefined is returned when a uniform's struct type is
	// referenced but never defined.
	ErrStructUndefined = errors.New("glctx: struct type not defined")

	// ErrUniformUnknown is returned when assigning a uniform the shader
	// never declared.
	ErrUniformUnknown = errors.New("glctx: shader does not declare uniform")
)

// Shader is a managed shader program. Its attribute/uniform contract and
// device-resource cost are derived from the source text at construction
// and are identical across every context the shader is added to; only
// compiled program handles and resolved locations vary per context, and
// those live in the contexts' side tables.
//
// The stored sources are the post-#define-substitution text; the same text
// the device compiles is the text the contract was parsed from.
type Shader struct {
	id   resourceID
	name string

	vertexSrc   string
	fragmentSrc string

	blend BlendMode

	attributes    []*ShaderAttribute // per-vertex, in declaration order
	instanceAttrs []*ShaderAttribute // per-instance, in declaration order
	uniforms      []*ShaderUniform   // in declaration order
	cost          ShaderCost

	// instanceBuffers holds one buffer per instance attribute, keyed by
	// caller-chosen queue index so independent batches sharing the
	// shader do not clobber each other across frames.
	instanceBuffers map[int][]*VertexBuffer
}

// shaderConfig collects the construction inputs consumed by parsing.
type shaderConfig struct {
	roles         map[string]AttributeRole
	instanceAttrs map[string]bool
	overrides     map[string]string
	blend         BlendMode
}

// ShaderOption configures a shader at construction.
type ShaderOption func(*shaderConfig)

// WithAttributeRoles supplies the table mapping attribute names, as
// spelled in the shader source, to the model-data roles that feed them.
func WithAttributeRoles(roles map[string]AttributeRole) ShaderOption {
	return func(cfg *shaderConfig) {
		if cfg.roles == nil {
			cfg.roles = make(map[string]AttributeRole, len(roles))
		}
		for name, role := range roles {
			cfg.roles[name] = role
		}
	}
}

// WithInstanceAttributes names the attributes whose data comes from
// per-instance buffers instead of per-vertex model arrays.
func WithInstanceAttributes(names ...string) ShaderOption {
	return func(cfg *shaderConfig) {
		if cfg.instanceAttrs == nil {
			cfg.instanceAttrs = make(map[string]bool, len(names))
		}
		for _, n := range names {
			cfg.instanceAttrs[n] = true
		}
	}
}

// WithDefineOverrides replaces the values of #define constants before
// parsing and compilation, specializing array sizes per shader variant.
func WithDefineOverrides(overrides map[string]string) ShaderOption {
	return func(cfg *shaderConfig) {
		if cfg.overrides == nil {
			cfg.overrides = make(map[string]string, len(overrides))
		}
		for name, value := range overrides {
			cfg.overrides[name] = value
		}
	}
}

// WithBlendMode sets how the shader's output blends into the framebuffer.
// The default is BlendOpaque.
func WithBlendMode(mode BlendMode) ShaderOption {
	return func(cfg *shaderConfig) { cfg.blend = mode }
}

// NewShader parses both stage sources and builds the shader's contract.
// Construction fails if an attribute has no role, a struct type is never
// defined, or a declaration line cannot be understood; it does not touch
// any device.
func NewShader(name, vertexSrc, fragmentSrc string, opts ...ShaderOption) (*Shader, error) {
	var cfg shaderConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Shader{
		id:              nextResourceID(),
		name:            name,
		blend:           cfg.blend,
		instanceBuffers: make(map[int][]*VertexBuffer),
	}
	p := newSourceParser(&cfg)
	var err error
	s.vertexSrc, err = p.parseStage(vertexSrc, stageVertex, s)
	if err != nil {
		return nil, fmt.Errorf("shader %q vertex stage: %w", name, err)
	}
	s.fragmentSrc, err = p.parseStage(fragmentSrc, stageFragment, s)
	if err != nil {
		return nil, fmt.Errorf("shader %q fragment stage: %w", name, err)
	}
	return s, nil
}

// Name returns the shader's name.
func (s *Shader) Name() string { return s.name }

// BlendMode returns the shader's blend mode.
func (s *Shader) BlendMode() BlendMode { return s.blend }

// Cost returns the shader's device-resource footprint.
func (s *Shader) Cost() ShaderCost { return s.cost }

// Attributes returns the per-vertex attribute descriptors in declaration
// order. The returned slice must not be modified.
func (s *Shader) Attributes() []*ShaderAttribute { return s.attributes }

// InstanceAttributes returns the per-instance attribute descriptors in
// declaration order. The returned slice must not be modified.
func (s *Shader) InstanceAttributes() []*ShaderAttribute { return s.instanceAttrs }

// Uniforms returns the uniform descriptors in declaration order. The
// returned slice must not be modified.
func (s *Shader) Uniforms() []*ShaderUniform { return s.uniforms }

// Uniform returns the descriptor for a top-level uniform by name, nil if
// the shader does not declare it.
func (s *Shader) Uniform(name string) *ShaderUniform {
	for _, u := range s.uniforms {
		if u.Name == name {
			return u
		}
	}
	return nil
}

// VertexSource returns the vertex stage source after #define substitution.
func (s *Shader) VertexSource() string { return s.vertexSrc }

// FragmentSource returns the fragment stage source after #define
// substitution.
func (s *Shader) FragmentSource() string { return s.fragmentSrc }

// compile builds the program for c, resolving nothing yet; locations are
// cached lazily as they are first used.
func (s *Shader) compile(c *Context) error {
	program, err := c.dev.CreateProgram(s.vertexSrc, s.fragmentSrc)
	if err != nil {
		// Record the null handle so the shader is visibly unusable in
		// this context.
		c.programs[s.id] = 0
		return fmt.Errorf("%w: %q: %v", ErrShaderCompile, s.name, err)
	}
	c.programs[s.id] = program
	Logger().Info("glctx: shader linked", "context", c.name, "shader", s.name)
	return nil
}

// bindAttributes points every per-vertex attribute at its named buffer in
// c. Buffers that do not exist yet (before the first Setup) are skipped.
func (s *Shader) bindAttributes(c *Context) {
	for _, attr := range s.attributes {
		vb, ok := c.vertexBuffers[attr.Name]
		if !ok {
			continue
		}
		vb.bind(c, s, 0)
	}
}
