package glctx

import "fmt"

// Capabilities describes the hardware limits and extension availability of
// a device. A Device reports it once at creation; glctx uses it to size the
// texture unit table and to pre-flight shaders before compiling them.
type Capabilities struct {
	// Vendor and Renderer identify the driver, for diagnostics only.
	Vendor   string
	Renderer string

	// MaxTextureUnits is the number of texture binding slots usable from
	// the fragment stage.
	MaxTextureUnits int

	// MaxTextureSize is the maximum 2D texture dimension in pixels.
	MaxTextureSize int
	// MaxCubemapSize is the maximum cubemap face dimension in pixels.
	MaxCubemapSize int
	// MaxRenderbufferSize is the maximum renderbuffer dimension in pixels.
	MaxRenderbufferSize int

	// MaxVertexAttribs is the number of vertex attribute vectors a shader
	// may declare.
	MaxVertexAttribs int
	// MaxVertexUniformVectors is the number of 4-component uniform
	// vectors available to the vertex stage.
	MaxVertexUniformVectors int
	// MaxFragmentUniformVectors is the number of 4-component uniform
	// vectors available to the fragment stage.
	MaxFragmentUniformVectors int
	// MaxVaryingVectors is the number of 4-component vectors that may be
	// interpolated between stages.
	MaxVaryingVectors int

	// AnisotropicFiltering reports the anisotropic filtering extension.
	AnisotropicFiltering bool
	// MaxAnisotropy is the maximum anisotropy degree, 0 when unavailable.
	MaxAnisotropy float32
	// Instancing reports instanced draw and attribute divisor support.
	Instancing bool
	// DepthTexture reports depth-texture attachment support.
	DepthTexture bool
}

// String returns a one-line capability dump for diagnostics.
func (c Capabilities) String() string {
	return fmt.Sprintf("%s %s: units=%d tex=%d cube=%d rb=%d attribs=%d vuni=%d funi=%d vary=%d aniso=%v inst=%v depthtex=%v",
		c.Vendor, c.Renderer,
		c.MaxTextureUnits, c.MaxTextureSize, c.MaxCubemapSize, c.MaxRenderbufferSize,
		c.MaxVertexAttribs, c.MaxVertexUniformVectors, c.MaxFragmentUniformVectors, c.MaxVaryingVectors,
		c.AnisotropicFiltering, c.Instancing, c.DepthTexture)
}

// ShaderCost is a shader's device-resource footprint, derived from its
// source by introspection. All counts are in 4-component vector units
// except TextureUnits.
type ShaderCost struct {
	// AttributeVectors is the number of vertex attribute vectors.
	AttributeVectors int
	// VertexUniformVectors is the vertex stage's uniform vector count.
	VertexUniformVectors int
	// FragmentUniformVectors is the fragment stage's uniform vector count.
	FragmentUniformVectors int
	// VaryingVectors is the number of interpolated vectors.
	VaryingVectors int
	// TextureUnits is the number of sampler bindings, counting each
	// element of a sampler array.
	TextureUnits int
}

// Add accumulates another cost into c.
func (c *ShaderCost) Add(other ShaderCost) {
	c.AttributeVectors += other.AttributeVectors
	c.VertexUniformVectors += other.VertexUniformVectors
	c.FragmentUniformVectors += other.FragmentUniformVectors
	c.VaryingVectors += other.VaryingVectors
	c.TextureUnits += other.TextureUnits
}

// Satisfies reports whether a shader with the given cost is guaranteed to
// fit within the device's limits. A false result means the shader may still
// compile on a generous driver, but is not portable to this device class.
func (c Capabilities) Satisfies(cost ShaderCost) bool {
	return cost.AttributeVectors <= c.MaxVertexAttribs &&
		cost.VertexUniformVectors <= c.MaxVertexUniformVectors &&
		cost.FragmentUniformVectors <= c.MaxFragmentUniformVectors &&
		cost.VaryingVectors <= c.MaxVaryingVectors &&
		cost.TextureUnits <= c.MaxTextureUnits
}
