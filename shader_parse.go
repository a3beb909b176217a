package glctx

import (
	"fmt"
	"strconv"
	"strings"
)

// shaderStage identifies which stage's source is being parsed.
type shaderStage uint8

const (
	stageVertex shaderStage = iota
	stageFragment
)

// builtinKinds maps GLSL-subset type tokens to uniform kinds. Any other
// type token in a uniform declaration is taken to be a struct name.
var builtinKinds = map[string]UniformKind{
	"float":       KindFloat,
	"int":         KindInt,
	"bool":        KindBool,
	"vec2":        KindVec2,
	"vec3":        KindVec3,
	"vec4":        KindVec4,
	"mat3":        KindMat3,
	"mat4":        KindMat4,
	"sampler2D":   KindSampler2D,
	"samplerCube": KindSamplerCube,
}

// attributeArities maps attribute type tokens to component counts.
var attributeArities = map[string]int{
	"float": 1,
	"vec2":  2,
	"vec3":  3,
	"vec4":  4,
}

// precisionQualifiers are tolerated before a type token and skipped.
var precisionQualifiers = map[string]bool{
	"lowp":    true,
	"mediump": true,
	"highp":   true,
}

// sourceParser runs the two-pass introspection over one shader's stage
// sources. Defines and the seen-uniform set are shared across stages so a
// uniform referenced by both is described once.
type sourceParser struct {
	cfg          *shaderConfig
	defines      map[string]string
	seenUniforms map[string]bool
}

func newSourceParser(cfg *shaderConfig) *sourceParser {
	return &sourceParser{
		cfg:          cfg,
		defines:      make(map[string]string),
		seenUniforms: make(map[string]bool),
	}
}

// parseStage scans src line by line, populating s's descriptor lists and
// cost counters, and returns the rewritten source: #define values
// substituted from the override table and statically out-of-bounds lines
// blanked.
func (p *sourceParser) parseStage(src string, stage shaderStage, s *Shader) (string, error) {
	lines := strings.Split(src, "\n")

	// arraySizes records every array declared in this stage with a
	// resolvable size, for the out-of-bounds pass. declLines marks the
	// declarations themselves, which that pass must leave alone.
	arraySizes := make(map[string]int)
	declLines := make(map[int]bool)

	for i, line := range lines {
		if name, ok := p.parseDefine(line); ok {
			if value, overridden := p.cfg.overrides[name]; overridden {
				p.defines[name] = value
				lines[i] = "#define " + name + " " + value
			}
			continue
		}
		tokens := tokenizeLine(line)
		if len(tokens) == 0 {
			continue
		}
		switch tokens[0] {
		case "attribute":
			if stage != stageVertex {
				continue
			}
			if err := p.parseAttribute(tokens, s); err != nil {
				return "", err
			}
			declLines[i] = true
		case "uniform":
			size, err := p.parseUniform(tokens, lines, stage, s)
			if err != nil {
				return "", err
			}
			if decl := declName(tokens); decl != "" && size > 0 {
				arraySizes[decl] = size
			}
			declLines[i] = true
		case "varying":
			if stage == stageFragment {
				if kind, ok := builtinKinds[typeToken(tokens[1:])]; ok {
					s.cost.VaryingVectors += kind.vectorCost()
				}
			}
			declLines[i] = true
		default:
			// Local array declarations participate in the
			// out-of-bounds pass too.
			if name, size, ok := p.parseLocalArray(tokens); ok {
				arraySizes[name] = size
				declLines[i] = true
			}
		}
	}

	blankOutOfBounds(lines, arraySizes, declLines)
	return strings.Join(lines, "\n"), nil
}

// parseDefine handles a "#define NAME VALUE" line, recording the value.
// It reports whether the line was a define.
func (p *sourceParser) parseDefine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#define") {
		return "", false
	}
	fields := strings.Fields(trimmed)
	if len(fields) < 3 {
		return "", false
	}
	name := fields[1]
	if _, overridden := p.cfg.overrides[name]; !overridden {
		p.defines[name] = fields[2]
	}
	return name, true
}

// parseAttribute handles an "attribute [precision] TYPE NAME;" line.
func (p *sourceParser) parseAttribute(tokens []string, s *Shader) error {
	rest := skipPrecision(tokens[1:])
	if len(rest) < 2 {
		return fmt.Errorf("glctx: malformed attribute declaration %q", strings.Join(tokens, " "))
	}
	typeTok, name := rest[0], rest[1]
	arity, ok := attributeArities[typeTok]
	if !ok {
		return fmt.Errorf("glctx: unsupported attribute type %q for %q", typeTok, name)
	}
	if role, ok := p.cfg.roles[name]; ok {
		s.attributes = append(s.attributes, &ShaderAttribute{
			Name:  name,
			Arity: arity,
			Role:  role,
		})
	} else if p.cfg.instanceAttrs[name] {
		s.instanceAttrs = append(s.instanceAttrs, &ShaderAttribute{
			Name:     name,
			Arity:    arity,
			Instance: true,
		})
	} else {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	s.cost.AttributeVectors++
	return nil
}

// parseUniform handles a "uniform [precision] TYPE NAME[SIZE];" line. It
// returns the resolved array size (0 for scalars) for the out-of-bounds
// pass.
func (p *sourceParser) parseUniform(tokens []string, lines []string, stage shaderStage, s *Shader) (int, error) {
	rest := skipPrecision(tokens[1:])
	if len(rest) < 2 {
		return 0, fmt.Errorf("glctx: malformed uniform declaration %q", strings.Join(tokens, " "))
	}
	typeTok, name := rest[0], rest[1]
	size, err := p.arraySuffix(rest[2:], name)
	if err != nil {
		return 0, err
	}

	u := &ShaderUniform{Name: name, ArraySize: size}
	if kind, ok := builtinKinds[typeTok]; ok {
		u.Kind = kind
	} else {
		u.Kind = KindStruct
		u.Members, err = p.parseStructMembers(lines, typeTok)
		if err != nil {
			return 0, err
		}
	}

	switch stage {
	case stageVertex:
		s.cost.VertexUniformVectors += u.VectorCost()
	case stageFragment:
		s.cost.FragmentUniformVectors += u.VectorCost()
	}
	// A uniform may be declared in both stages; describe it and count
	// its texture units once.
	if !p.seenUniforms[name] {
		p.seenUniforms[name] = true
		s.cost.TextureUnits += u.TextureUnits()
		s.uniforms = append(s.uniforms, u)
	}
	return size, nil
}

// parseStructMembers locates "struct TYPE { ... }" in the stage source and
// recursively builds member descriptors from its field lines.
func (p *sourceParser) parseStructMembers(lines []string, typeName string) ([]*ShaderUniform, error) {
	start := -1
	for i, line := range lines {
		tokens := tokenizeLine(line)
		if len(tokens) >= 2 && tokens[0] == "struct" && tokens[1] == typeName {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: %q", ErrStructUndefined, typeName)
	}

	var members []*ShaderUniform
	for i := start + 1; i < len(lines); i++ {
		tokens := tokenizeLine(lines[i])
		if len(tokens) == 0 {
			continue
		}
		if tokens[0] == "}" {
			return members, nil
		}
		rest := skipPrecision(tokens)
		if len(rest) < 2 {
			return nil, fmt.Errorf("glctx: malformed member %q in struct %q",
				strings.Join(tokens, " "), typeName)
		}
		typeTok, name := rest[0], rest[1]
		size, err := p.arraySuffix(rest[2:], name)
		if err != nil {
			return nil, err
		}
		m := &ShaderUniform{Name: name, ArraySize: size}
		if kind, ok := builtinKinds[typeTok]; ok {
			m.Kind = kind
		} else {
			m.Kind = KindStruct
			m.Members, err = p.parseStructMembers(lines, typeTok)
			if err != nil {
				return nil, err
			}
		}
		members = append(members, m)
	}
	return nil, fmt.Errorf("glctx: unterminated struct %q", typeName)
}

// arraySuffix resolves an optional "[SIZE]" following a declared name,
// where SIZE is a literal or a recorded #define.
func (p *sourceParser) arraySuffix(tokens []string, name string) (int, error) {
	if len(tokens) == 0 || tokens[0] != "[" {
		return 0, nil
	}
	if len(tokens) < 3 || tokens[2] != "]" {
		return 0, fmt.Errorf("glctx: malformed array suffix on %q", name)
	}
	return p.resolveSize(tokens[1], name)
}

func (p *sourceParser) resolveSize(tok, name string) (int, error) {
	if n, err := strconv.Atoi(tok); err == nil {
		return n, nil
	}
	if value, ok := p.defines[tok]; ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("glctx: array size %q of %q is neither a literal nor a #define", tok, name)
}

// parseLocalArray recognizes "[precision] TYPE NAME [ SIZE ]" declaration
// lines in function bodies, whose size may come from a #define.
func (p *sourceParser) parseLocalArray(tokens []string) (string, int, bool) {
	rest := skipPrecision(tokens)
	if len(rest) < 5 {
		return "", 0, false
	}
	if _, ok := builtinKinds[rest[0]]; !ok {
		return "", 0, false
	}
	if rest[2] != "[" || rest[4] != "]" {
		return "", 0, false
	}
	size, err := p.resolveSize(rest[3], rest[1])
	if err != nil {
		return "", 0, false
	}
	return rest[1], size, true
}

// blankOutOfBounds clears every non-declaration line that indexes a known
// array with a literal at or past its resolved size. After a #define
// override shrinks an array, leftover literal indexes would otherwise fail
// compilation.
func blankOutOfBounds(lines []string, arraySizes map[string]int, declLines map[int]bool) {
	if len(arraySizes) == 0 {
		return
	}
	for i, line := range lines {
		if declLines[i] {
			continue
		}
		tokens := tokenizeLine(line)
		for j := 0; j+3 < len(tokens); j++ {
			size, known := arraySizes[tokens[j]]
			if !known || tokens[j+1] != "[" || tokens[j+3] != "]" {
				continue
			}
			index, err := strconv.Atoi(tokens[j+2])
			if err != nil {
				continue
			}
			if index >= size {
				lines[i] = ""
				break
			}
		}
	}
}

// declName extracts the declared identifier of an attribute/uniform/
// varying line for bookkeeping, empty if the line is malformed.
func declName(tokens []string) string {
	rest := skipPrecision(tokens[1:])
	if len(rest) < 2 {
		return ""
	}
	return rest[1]
}

// typeToken returns the type token after any precision qualifier.
func typeToken(tokens []string) string {
	rest := skipPrecision(tokens)
	if len(rest) == 0 {
		return ""
	}
	return rest[0]
}

func skipPrecision(tokens []string) []string {
	for len(tokens) > 0 && precisionQualifiers[tokens[0]] {
		tokens = tokens[1:]
	}
	return tokens
}

// tokenizeLine splits one source line into identifier, number, and
// punctuation tokens. A "//" comment ends the line.
func tokenizeLine(line string) []string {
	var tokens []string
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return tokens
		case isIdentStart(c):
			j := i + 1
			for j < len(line) && isIdentPart(line[j]) {
				j++
			}
			tokens = append(tokens, line[i:j])
			i = j
		case c >= '0' && c <= '9':
			j := i + 1
			for j < len(line) && (line[j] >= '0' && line[j] <= '9' || line[j] == '.') {
				j++
			}
			tokens = append(tokens, line[i:j])
			i = j
		case c == ' ' || c == '\t' || c == '\r':
			i++
		default:
			tokens = append(tokens, string(c))
			i++
		}
	}
	return tokens
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '#'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}
