package glctx

// AttributeRole names the semantic meaning of a vertex attribute, linking a
// shader's attribute declarations to the attribute arrays a model can
// supply. The caller's role table maps attribute names (as spelled in
// shader source) to roles; models enumerate their data by role.
type AttributeRole string

// Conventional roles. Any non-empty string is a valid role; these cover
// the common model attribute arrays.
const (
	RolePosition AttributeRole = "position"
	RoleNormal   AttributeRole = "normal"
	RoleUV       AttributeRole = "uv"
	RoleColor    AttributeRole = "color"
)

// UniformKind classifies a uniform variable's resolved type.
type UniformKind uint8

const (
	// KindFloat is a single float.
	KindFloat UniformKind = iota
	// KindInt is a single integer.
	KindInt
	// KindBool is a single boolean.
	KindBool
	// KindVec2 is a 2-component float vector.
	KindVec2
	// KindVec3 is a 3-component float vector.
	KindVec3
	// KindVec4 is a 4-component float vector.
	KindVec4
	// KindMat3 is a 3x3 float matrix.
	KindMat3
	// KindMat4 is a 4x4 float matrix.
	KindMat4
	// KindSampler2D is a 2D texture sampler.
	KindSampler2D
	// KindSamplerCube is a cubemap sampler.
	KindSamplerCube
	// KindStruct is a user-declared struct; its fields are described by
	// the descriptor's Members.
	KindStruct
)

// Sampler reports whether the kind consumes a texture unit.
func (k UniformKind) Sampler() bool {
	return k == KindSampler2D || k == KindSamplerCube
}

// vectorCost is the number of 4-component uniform vectors one element of
// this kind occupies. Struct cost is computed from members.
func (k UniformKind) vectorCost() int {
	switch k {
	case KindMat3:
		return 3
	case KindMat4:
		return 4
	default:
		return 1
	}
}

// ShaderAttribute describes one vertex attribute declared by a shader.
type ShaderAttribute struct {
	// Name is the attribute name as spelled in the shader source. It is
	// also the name of the vertex buffer that feeds it.
	Name string
	// Arity is the number of float components per element.
	Arity int
	// Role is the semantic role resolved from the caller's role table.
	// Empty for instance attributes, whose data comes from instance
	// buffers instead of model arrays.
	Role AttributeRole
	// Instance marks a per-instance attribute.
	Instance bool
}

// ShaderUniform describes one uniform declared by a shader. For struct
// uniforms, Members describes the fields recursively; leaf descriptors
// have a concrete scalar/vector/matrix/sampler kind.
type ShaderUniform struct {
	// Name is the uniform name as spelled in the shader source.
	Name string
	// Kind is the resolved type.
	Kind UniformKind
	// ArraySize is the declared array length, 0 for a non-array uniform.
	ArraySize int
	// Members describes struct fields, in declaration order. Nil unless
	// Kind is KindStruct.
	Members []*ShaderUniform
}

// elements returns the number of array elements to iterate: 1 for a
// scalar declaration.
func (u *ShaderUniform) elements() int {
	if u.ArraySize > 0 {
		return u.ArraySize
	}
	return 1
}

// VectorCost is the number of 4-component uniform vectors the whole
// declaration occupies: per-element cost times array length, where a
// struct element costs the sum of its member costs.
func (u *ShaderUniform) VectorCost() int {
	per := u.Kind.vectorCost()
	if u.Kind == KindStruct {
		per = 0
		for _, m := range u.Members {
			per += m.VectorCost()
		}
	}
	return per * u.elements()
}

// TextureUnits is the number of texture units the declaration consumes,
// counting each element of sampler arrays and sampler struct members.
func (u *ShaderUniform) TextureUnits() int {
	per := 0
	if u.Kind.Sampler() {
		per = 1
	}
	if u.Kind == KindStruct {
		for _, m := range u.Members {
			per += m.TextureUnits()
		}
	}
	return per * u.elements()
}
