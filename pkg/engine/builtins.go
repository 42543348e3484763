package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/projview/pkg/idcolor"
	"github.com/chazu/projview/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// preprocessSource rewrites scene script source before passing it to zygomys.
// It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: rgba-id -> rgba_id
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
//  3. Line comments: ; and ;; become //, the zygomys comment syntax.
//
// All transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// String literals are copied unchanged.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// ; line comments
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// :=
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// A hyphen between identifier characters is part of a name, not a minus.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// Values passed between builtins.

type sexpGeometry struct {
	g scene.Geometry
}

func (s *sexpGeometry) SexpString(ps *zygo.PrintState) string {
	return "(geometry " + scene.Fingerprint(s.g) + ")"
}
func (s *sexpGeometry) Type() *zygo.RegisteredType { return nil }

type sexpShape struct {
	shape *scene.Shape
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(shape %d %s)", s.shape.ID, scene.Fingerprint(s.shape.Geometry))
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

type sexpMaterial struct {
	m scene.Material
}

func (s *sexpMaterial) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(material :color %q :transparency %g)", s.m.Color, s.m.Transparency)
}
func (s *sexpMaterial) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct {
	vec scene.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string and returns its
// name without the prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// number returns the keyword argument key, or the positional argument at
// pos when the keyword is absent. pos < 0 disables the fallback.
func (a kwArgs) number(key string, pos int) (float64, bool, error) {
	v, ok := a.kw[key]
	if !ok {
		if pos < 0 || pos >= len(a.positional) {
			return 0, false, nil
		}
		v = a.positional[pos]
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", key, err)
	}
	return f, true, nil
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toID extracts a shape identifier. Identifiers are unsigned 32-bit
// integers.
func toID(s zygo.Sexp) (uint32, error) {
	v, ok := s.(*zygo.SexpInt)
	if !ok {
		return 0, fmt.Errorf("expected integer id, got %T (%s)", s, s.SexpString(nil))
	}
	if v.Val < 0 || v.Val > int64(idcolor.NoID) {
		return 0, fmt.Errorf("id %d out of range 0..%d", v.Val, idcolor.NoID)
	}
	return uint32(v.Val), nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (scene.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return scene.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toGeometry(s zygo.Sexp) (scene.Geometry, error) {
	if g, ok := s.(*sexpGeometry); ok {
		return g.g, nil
	}
	return nil, fmt.Errorf("expected geometry, got %T (%s)", s, s.SexpString(nil))
}

func toMaterial(s zygo.Sexp) (scene.Material, error) {
	if m, ok := s.(*sexpMaterial); ok {
		return m.m, nil
	}
	return scene.Material{}, fmt.Errorf("expected material, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// transformArgs reads the operand of a transform builtin followed by the
// geometry it wraps: (op (vec3 x y z) geom) or (op x y z geom). When uniform
// is set (op k geom) is accepted too.
func transformArgs(args []zygo.Sexp, uniform bool) (scene.Vec3, scene.Geometry, error) {
	if len(args) < 2 {
		return scene.Vec3{}, nil, fmt.Errorf("expected an operand and a geometry, got %d arguments", len(args))
	}
	g, err := toGeometry(args[len(args)-1])
	if err != nil {
		return scene.Vec3{}, nil, err
	}
	ops := args[:len(args)-1]
	switch len(ops) {
	case 1:
		if v, err := toVec3(ops[0]); err == nil {
			return v, g, nil
		}
		if uniform {
			k, err := toFloat64(ops[0])
			if err != nil {
				return scene.Vec3{}, nil, fmt.Errorf("expected vec3 or number: %w", err)
			}
			return scene.Vec3{X: k, Y: k, Z: k}, g, nil
		}
		return scene.Vec3{}, nil, fmt.Errorf("expected vec3, got %s", ops[0].SexpString(nil))
	case 3:
		var xyz [3]float64
		for i, s := range ops {
			f, err := toFloat64(s)
			if err != nil {
				return scene.Vec3{}, nil, err
			}
			xyz[i] = f
		}
		return scene.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, g, nil
	}
	return scene.Vec3{}, nil, fmt.Errorf("expected 1 or 3 operands, got %d", len(ops))
}

// registerBuiltins installs the scene builtins into a zygomys environment.
// Shapes enter sc only through add.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, sc *scene.Scene, codec idcolor.Codec) {

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: scene.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// (sphere :radius 0.5) or (sphere 0.5)
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		r, ok, err := parseArgs(args).number("radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("sphere requires a radius")
		}
		return &sexpGeometry{g: scene.Sphere{Radius: r}}, nil
	})

	// (box :size (vec3 1 2 3)) or (box 1 2 3)
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if v, ok := pa.kw["size"]; ok {
			size, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			return &sexpGeometry{g: scene.Box{Size: size}}, nil
		}
		if len(pa.positional) != 3 {
			return zygo.SexpNull, fmt.Errorf("box requires :size or 3 dimensions")
		}
		var xyz [3]float64
		for i, a := range pa.positional {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
			xyz[i] = f
		}
		return &sexpGeometry{g: scene.Box{Size: scene.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}}, nil
	})

	// (cylinder :radius 0.5 :height 2)
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		r, rok, err := pa.number("radius", 0)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		h, hok, err := pa.number("height", 1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		if !rok || !hok {
			return zygo.SexpNull, fmt.Errorf("cylinder requires a radius and a height")
		}
		return &sexpGeometry{g: scene.Cylinder{Radius: r, Height: h}}, nil
	})

	// (translated 1 2 1 geom) or (translated (vec3 1 2 1) geom)
	env.AddFunction("translated", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, g, err := transformArgs(args, false)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translated: %w", err)
		}
		return &sexpGeometry{g: scene.Translated{Offset: v, Geometry: g}}, nil
	})

	// (scaled 2 geom), (scaled 1 2 1 geom) or (scaled (vec3 1 2 1) geom)
	env.AddFunction("scaled", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, g, err := transformArgs(args, true)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scaled: %w", err)
		}
		return &sexpGeometry{g: scene.Scaled{Factor: v, Geometry: g}}, nil
	})

	// (rotated 0 0 90 geom), angles in degrees
	env.AddFunction("rotated", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, g, err := transformArgs(args, false)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotated: %w", err)
		}
		return &sexpGeometry{g: scene.Rotated{Angles: v, Geometry: g}}, nil
	})

	// (material :color "#ff0000" :transparency 0.5)
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		m := scene.DefaultMaterial()
		if v, ok := pa.kw["color"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("material: color: %w", err)
			}
			m.Color = s
		}
		t, ok, err := pa.number("transparency", -1)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("material: %w", err)
		}
		if ok {
			m.Transparency = t
		}
		if _, err := m.RGB(); err != nil {
			return zygo.SexpNull, fmt.Errorf("material: %w", err)
		}
		return &sexpMaterial{m: m}, nil
	})

	// (rgba-id 100) => "#00000064"
	env.AddFunction("rgba_id", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("rgba-id requires exactly 1 argument, got %d", len(args))
		}
		id, err := toID(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rgba-id: %w", err)
		}
		return &zygo.SexpStr{S: codec.Encode(id).String()}, nil
	})

	// (id-material 100) is a material painted in the id's own color, its
	// alpha lane used as transparency.
	env.AddFunction("id_material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("id-material requires exactly 1 argument, got %d", len(args))
		}
		id, err := toID(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("id-material: %w", err)
		}
		k := codec.Encode(id)
		return &sexpMaterial{m: scene.Material{
			Color:        fmt.Sprintf("#%02x%02x%02x", k.R, k.G, k.B),
			Transparency: float64(k.A) / 255,
		}}, nil
	})

	// (shape geom :id 100 :name "ball" :material m)
	env.AddFunction("shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("shape requires exactly one geometry")
		}
		g, err := toGeometry(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: %w", err)
		}
		v, ok := pa.kw["id"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("shape requires :id")
		}
		id, err := toID(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: id: %w", err)
		}
		var opts []scene.ShapeOption
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("shape: name: %w", err)
			}
			opts = append(opts, scene.WithName(s))
		}
		if v, ok := pa.kw["material"]; ok {
			m, err := toMaterial(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("shape: material: %w", err)
			}
			opts = append(opts, scene.WithMaterial(m))
		}
		s, err := scene.NewShape(id, g, opts...)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpShape{shape: s}, nil
	})

	// (add s1 s2 ...) also accepts lists of shapes. Returns the scene size.
	env.AddFunction("add", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var shapes []*scene.Shape
		var collect func(a zygo.Sexp) error
		collect = func(a zygo.Sexp) error {
			if s, ok := a.(*sexpShape); ok {
				shapes = append(shapes, s.shape)
				return nil
			}
			items, err := sexpListToSlice(a)
			if err != nil {
				return fmt.Errorf("expected shape, got %T (%s)", a, a.SexpString(nil))
			}
			for _, it := range items {
				if err := collect(it); err != nil {
					return err
				}
			}
			return nil
		}
		for _, a := range args {
			if err := collect(a); err != nil {
				return zygo.SexpNull, fmt.Errorf("add: %w", err)
			}
		}
		if err := sc.Add(shapes...); err != nil {
			return zygo.SexpNull, fmt.Errorf("add: %w", err)
		}
		return &zygo.SexpInt{Val: int64(sc.Len())}, nil
	})
}
