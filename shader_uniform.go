package glctx

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// AssignUniforms makes the shader current in c and writes the supplied
// uniform values. Map keys are top-level uniform names; values may be:
//
//   - float32, float64, int, or bool for scalar uniforms
//   - mgl32.Vec2/Vec3/Vec4, fixed-size float32 arrays, or []float32 for
//     vector uniforms
//   - mgl32.Mat3/Mat4 or []float32 for matrix uniforms
//   - a Texture, Cubemap, or FrameBuffer target for sampler uniforms; the
//     resource is bound to a texture unit and the unit index is sent
//   - []float32, []int, []bool, []mgl32.VecN, []mgl32.MatN, or
//     []TextureBinder for array uniforms; int and bool arrays reach the
//     device as integer data
//   - map[string]any for struct uniforms, nested per member; []map[string]any
//     for struct arrays
//   - func() any anywhere a value is expected, evaluated at send time
//
// Scalar (non-array) uniforms cache the last value sent for this context
// and skip the device call when it is unchanged; the comparison is exact,
// with no floating-point tolerance.
//
// The returned flag reports whether making the shader current actually
// switched programs; callers use it to decide whether per-shader state
// beyond the supplied values must be re-sent.
func (s *Shader) AssignUniforms(c *Context, values map[string]any) (switched bool, err error) {
	switched = c.SetCurrentShader(s)
	if c.programs[s.id] == 0 {
		return switched, fmt.Errorf("%w: %q in context %q", ErrShaderCompile, s.name, c.name)
	}
	for name := range values {
		if s.Uniform(name) == nil {
			return switched, fmt.Errorf("%w: %q in shader %q", ErrUniformUnknown, name, s.name)
		}
	}
	for _, u := range s.uniforms {
		value, ok := values[u.Name]
		if !ok {
			continue
		}
		if err := s.sendUniform(c, u, "", value); err != nil {
			return switched, fmt.Errorf("shader %q uniform %q: %w", s.name, u.Name, err)
		}
	}
	return switched, nil
}

// sendUniform writes one descriptor's value, recursing through struct
// members with a growing name prefix ("u_lights[3]." for member sends of
// array element 3).
func (s *Shader) sendUniform(c *Context, u *ShaderUniform, prefix string, value any) error {
	if fn, ok := value.(func() any); ok {
		value = fn()
	}
	name := prefix + u.Name

	if u.Kind == KindStruct {
		return s.sendStruct(c, u, name, value)
	}
	if u.Kind.Sampler() {
		return s.sendSampler(c, u, name, value)
	}
	if u.ArraySize > 0 {
		return s.sendArray(c, u, name, value)
	}

	loc := c.uniformLocation(s, name)
	if loc == UniformNone {
		return nil
	}
	switch u.Kind {
	case KindFloat, KindInt, KindBool:
		f, ok := toFloat32(value)
		if !ok {
			return fmt.Errorf("glctx: cannot convert %T to scalar", value)
		}
		// Exact comparison: a scalar re-sent with the same bits is
		// suppressed entirely.
		if cached, ok := c.scalarCache[scalarKey{s.id, name}]; ok && cached == f {
			return nil
		}
		c.scalarCache[scalarKey{s.id, name}] = f
		if u.Kind == KindFloat {
			c.dev.Uniform1f(loc, f)
		} else {
			c.dev.Uniform1i(loc, int32(f))
		}
	case KindVec2, KindVec3, KindVec4:
		v, ok := toComponents(value, u.Kind.components())
		if !ok {
			return fmt.Errorf("glctx: cannot convert %T to vec%d", value, u.Kind.components())
		}
		switch u.Kind {
		case KindVec2:
			c.dev.Uniform2f(loc, v[0], v[1])
		case KindVec3:
			c.dev.Uniform3f(loc, v[0], v[1], v[2])
		case KindVec4:
			c.dev.Uniform4f(loc, v[0], v[1], v[2], v[3])
		}
	case KindMat3:
		m, ok := toComponents(value, 9)
		if !ok {
			return fmt.Errorf("glctx: cannot convert %T to mat3", value)
		}
		c.dev.UniformMatrix3fv(loc, m)
	case KindMat4:
		m, ok := toComponents(value, 16)
		if !ok {
			return fmt.Errorf("glctx: cannot convert %T to mat4", value)
		}
		c.dev.UniformMatrix4fv(loc, m)
	}
	return nil
}

// sendStruct writes a struct uniform member by member. Only members
// present in the value map are sent.
func (s *Shader) sendStruct(c *Context, u *ShaderUniform, name string, value any) error {
	if u.ArraySize > 0 {
		elements, ok := toStructElements(value)
		if !ok {
			return fmt.Errorf("glctx: cannot convert %T to struct array", value)
		}
		for i, element := range elements {
			if i >= u.ArraySize {
				break
			}
			prefix := fmt.Sprintf("%s[%d].", name, i)
			if err := s.sendMembers(c, u, prefix, element); err != nil {
				return err
			}
		}
		return nil
	}
	fields, ok := toStructFields(value)
	if !ok {
		return fmt.Errorf("glctx: cannot convert %T to struct", value)
	}
	return s.sendMembers(c, u, name+".", fields)
}

func (s *Shader) sendMembers(c *Context, u *ShaderUniform, prefix string, fields map[string]any) error {
	for _, m := range u.Members {
		v, ok := fields[m.Name]
		if !ok {
			continue
		}
		if err := s.sendUniform(c, m, prefix, v); err != nil {
			return err
		}
	}
	return nil
}

// sendSampler binds the texture resource and sends its allocated unit
// index, with the same scalar suppression as other non-array scalars.
func (s *Shader) sendSampler(c *Context, u *ShaderUniform, name string, value any) error {
	if u.ArraySize > 0 {
		binders, ok := toBinders(value)
		if !ok {
			return fmt.Errorf("glctx: cannot convert %T to sampler array", value)
		}
		for i, binder := range binders {
			if i >= u.ArraySize {
				break
			}
			element := fmt.Sprintf("%s[%d]", name, i)
			if err := s.sendOneSampler(c, element, binder); err != nil {
				return err
			}
		}
		return nil
	}
	binder, ok := value.(TextureBinder)
	if !ok {
		return fmt.Errorf("glctx: cannot convert %T to sampler", value)
	}
	return s.sendOneSampler(c, name, binder)
}

func (s *Shader) sendOneSampler(c *Context, name string, binder TextureBinder) error {
	loc := c.uniformLocation(s, name)
	if loc == UniformNone {
		return nil
	}
	unit := c.BindTexture(binder, -1, false)
	f := float32(unit)
	if cached, ok := c.scalarCache[scalarKey{s.id, name}]; ok && cached == f {
		return nil
	}
	c.scalarCache[scalarKey{s.id, name}] = f
	c.dev.Uniform1i(loc, int32(unit))
	return nil
}

// sendArray writes a non-struct array uniform as one packed device call.
func (s *Shader) sendArray(c *Context, u *ShaderUniform, name string, value any) error {
	loc := c.uniformLocation(s, name)
	if loc == UniformNone {
		return nil
	}
	data, ok := flatten(value)
	if !ok {
		return fmt.Errorf("glctx: cannot convert %T to array uniform", value)
	}
	if len(data) == 0 {
		return nil
	}
	switch u.Kind {
	case KindFloat:
		c.dev.Uniform1fv(loc, data)
	case KindInt, KindBool:
		ints := make([]int32, len(data))
		for i, v := range data {
			ints[i] = int32(v)
		}
		c.dev.Uniform1iv(loc, ints)
	case KindVec2:
		c.dev.Uniform2fv(loc, data)
	case KindVec3:
		c.dev.Uniform3fv(loc, data)
	case KindVec4:
		c.dev.Uniform4fv(loc, data)
	case KindMat3:
		c.dev.UniformMatrix3fv(loc, data)
	case KindMat4:
		c.dev.UniformMatrix4fv(loc, data)
	}
	return nil
}

// components is the float component count of a vector kind, 1 for scalars.
func (k UniformKind) components() int {
	switch k {
	case KindVec2:
		return 2
	case KindVec3:
		return 3
	case KindVec4:
		return 4
	default:
		return 1
	}
}

func toFloat32(value any) (float32, bool) {
	switch v := value.(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int:
		return float32(v), true
	case int32:
		return float32(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// toComponents extracts exactly n float components from a vector or
// matrix value.
func toComponents(value any, n int) ([]float32, bool) {
	var data []float32
	switch v := value.(type) {
	case mgl32.Vec2:
		data = v[:]
	case mgl32.Vec3:
		data = v[:]
	case mgl32.Vec4:
		data = v[:]
	case mgl32.Mat3:
		data = v[:]
	case mgl32.Mat4:
		data = v[:]
	case [2]float32:
		data = v[:]
	case [3]float32:
		data = v[:]
	case [4]float32:
		data = v[:]
	case []float32:
		data = v
	default:
		return nil, false
	}
	if len(data) != n {
		return nil, false
	}
	return data, true
}

// flatten packs an array uniform value into consecutive float components.
func flatten(value any) ([]float32, bool) {
	switch v := value.(type) {
	case []float32:
		return v, true
	case []mgl32.Vec2:
		out := make([]float32, 0, len(v)*2)
		for _, e := range v {
			out = append(out, e[:]...)
		}
		return out, true
	case []mgl32.Vec3:
		out := make([]float32, 0, len(v)*3)
		for _, e := range v {
			out = append(out, e[:]...)
		}
		return out, true
	case []mgl32.Vec4:
		out := make([]float32, 0, len(v)*4)
		for _, e := range v {
			out = append(out, e[:]...)
		}
		return out, true
	case []mgl32.Mat3:
		out := make([]float32, 0, len(v)*9)
		for _, e := range v {
			out = append(out, e[:]...)
		}
		return out, true
	case []mgl32.Mat4:
		out := make([]float32, 0, len(v)*16)
		for _, e := range v {
			out = append(out, e[:]...)
		}
		return out, true
	case []float64:
		out := make([]float32, len(v))
		for i, e := range v {
			out[i] = float32(e)
		}
		return out, true
	case []int:
		out := make([]float32, len(v))
		for i, e := range v {
			out[i] = float32(e)
		}
		return out, true
	case []int32:
		out := make([]float32, len(v))
		for i, e := range v {
			out[i] = float32(e)
		}
		return out, true
	case []bool:
		out := make([]float32, len(v))
		for i, e := range v {
			if e {
				out[i] = 1
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func toStructFields(value any) (map[string]any, bool) {
	m, ok := value.(map[string]any)
	return m, ok
}

func toStructElements(value any) ([]map[string]any, bool) {
	switch v := value.(type) {
	case []map[string]any:
		return v, true
	case []any:
		out := make([]map[string]any, len(v))
		for i, e := range v {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, false
			}
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

func toBinders(value any) ([]TextureBinder, bool) {
	switch v := value.(type) {
	case []TextureBinder:
		return v, true
	case []any:
		out := make([]TextureBinder, len(v))
		for i, e := range v {
			b, ok := e.(TextureBinder)
			if !ok {
				return nil, false
			}
			out[i] = b
		}
		return out, true
	default:
		return nil, false
	}
}
