package dihelper

import (
	"fmt"
	"reflect"
	"strings"
)

// TypeDescriptor describes the static type a bean was declared with.
// Two descriptors are equal only when they denote the identical Go type,
// so generic instantiations, array lengths, pointer-ness and interface versus
// concrete types are all told apart. Assignability is never considered.
type TypeDescriptor struct {
	rt reflect.Type
}

// TypeOf returns the descriptor of T. For interface types the descriptor is
// the interface itself, not the dynamic type of any value.
func TypeOf[T any]() TypeDescriptor {
	return TypeDescriptor{rt: reflect.TypeFor[T]()}
}

// DescriptorOf wraps an existing reflect.Type.
func DescriptorOf(rt reflect.Type) TypeDescriptor {
	return TypeDescriptor{rt: rt}
}

// Reflect returns the underlying reflect.Type, nil for the zero descriptor.
func (d TypeDescriptor) Reflect() reflect.Type {
	return d.rt
}

// IsZero reports whether the descriptor carries no type.
func (d TypeDescriptor) IsZero() bool {
	return d.rt == nil
}

// Equal is structural identity of the described types.
func (d TypeDescriptor) Equal(other TypeDescriptor) bool {
	return d.rt != nil && d.rt == other.rt
}

// Base is the type constructor: "[]", "[N]", "map", "*", "chan", "func" for
// composite kinds, otherwise the qualified name without type arguments.
func (d TypeDescriptor) Base() string {
	if d.rt == nil {
		return ""
	}
	switch d.rt.Kind() {
	case reflect.Slice:
		if d.rt.Name() == "" {
			return "[]"
		}
	case reflect.Array:
		if d.rt.Name() == "" {
			return fmt.Sprintf("[%d]", d.rt.Len())
		}
	case reflect.Map:
		if d.rt.Name() == "" {
			return "map"
		}
	case reflect.Pointer:
		return "*"
	case reflect.Chan:
		if d.rt.Name() == "" {
			return "chan"
		}
	case reflect.Func:
		if d.rt.Name() == "" {
			return "func"
		}
	}
	name := d.rt.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return d.rt.String()
	}
	if pkg := d.rt.PkgPath(); pkg != "" {
		return pkg + "." + name
	}
	return name
}

// Args lists the ordered component descriptors of unnamed composite types:
// the element for slices, arrays, pointers and channels, key then element for
// maps. Named types report no arguments: reflect does not expose the type
// arguments of a generic instantiation, see TypeArgNames.
func (d TypeDescriptor) Args() []TypeDescriptor {
	if d.rt == nil {
		return nil
	}
	if d.rt.Kind() == reflect.Pointer {
		return []TypeDescriptor{{rt: d.rt.Elem()}}
	}
	if d.rt.Name() != "" {
		return nil
	}
	switch d.rt.Kind() {
	case reflect.Slice, reflect.Array, reflect.Chan:
		return []TypeDescriptor{{rt: d.rt.Elem()}}
	case reflect.Map:
		return []TypeDescriptor{{rt: d.rt.Key()}, {rt: d.rt.Elem()}}
	}
	return nil
}

// TypeArgNames returns the type arguments of a named generic instantiation
// as reflect prints them, in order. List[int] gives ["int"]; non-generic and
// unnamed types give nil.
func (d TypeDescriptor) TypeArgNames() []string {
	if d.rt == nil {
		return nil
	}
	name := d.rt.Name()
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return nil
	}

	var (
		args  []string
		depth int
		start = open + 1
	)
	inner := name[:len(name)-1]
	for i := start; i < len(inner); i++ {
		switch inner[i] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(inner[start:]))
}

func (d TypeDescriptor) String() string {
	if d.rt == nil {
		return "<nil>"
	}
	return d.rt.String()
}
