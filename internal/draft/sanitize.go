package draft

import (
	"encoding"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Handle marks a value that holds a live resource such as an open upload.
// Handles are persisted as null and have to be picked again after a restore.
type Handle interface {
	DraftHandle()
}

var (
	handleType        = reflect.TypeFor[Handle]()
	readerType        = reflect.TypeFor[io.Reader]()
	closerType        = reflect.TypeFor[io.Closer]()
	osFileType        = reflect.TypeFor[*os.File]()
	fileHeaderType    = reflect.TypeFor[*multipart.FileHeader]()
	jsonMarshalerType = reflect.TypeFor[jsonMarshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

type jsonMarshaler interface {
	MarshalJSON() ([]byte, error)
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type sanitizer struct {
	visiting map[visit]bool
}

// Sanitize converts v into a tree of maps, slices and scalars that can be
// serialised as JSON. Resource handles become nil. Functions and channels are
// dropped from maps and structs and become nil inside slices. Values that
// marshal themselves are passed through untouched.
//
// Cyclic values, complex numbers, NaN/Inf floats and unsupported map keys
// return an error matching ErrSerialization.
func Sanitize(v any) (any, error) {
	s := &sanitizer{visiting: make(map[visit]bool)}
	out, keep, err := s.walk(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	if !keep {
		return nil, nil
	}
	return out, nil
}

// IsHandle reports whether v is treated as a resource handle.
func IsHandle(v any) bool {
	if v == nil {
		return false
	}
	return isHandle(reflect.ValueOf(v))
}

func isHandle(v reflect.Value) bool {
	t := v.Type()
	switch {
	case t == osFileType, t == fileHeaderType:
		return true
	case t.Implements(handleType):
		return true
	case v.CanAddr() && reflect.PointerTo(t).Implements(handleType):
		return true
	case t.Implements(readerType) && t.Implements(closerType):
		return true
	}
	return false
}

func (s *sanitizer) walk(v reflect.Value) (any, bool, error) {
	if !v.IsValid() {
		return nil, true, nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil, true, nil
		}
		return s.walk(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			return nil, true, nil
		}
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, false, nil
	}

	if isHandle(v) {
		return nil, true, nil
	}
	if m, ok := marshaler(v); ok {
		return m, true, nil
	}

	switch v.Kind() {
	case reflect.Pointer:
		leave, err := s.enter(visit{ptr: v.Pointer(), typ: v.Type()})
		if err != nil {
			return nil, false, err
		}
		defer leave()
		return s.walk(v.Elem())
	case reflect.Map:
		return s.walkMap(v)
	case reflect.Slice:
		if v.IsNil() {
			return nil, true, nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return append([]byte(nil), v.Bytes()...), true, nil
		}
		leave, err := s.enter(visit{ptr: v.Pointer(), typ: v.Type(), len: v.Len()})
		if err != nil {
			return nil, false, err
		}
		defer leave()
		return s.walkList(v)
	case reflect.Array:
		return s.walkList(v)
	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		if err := s.collectFields(v, out); err != nil {
			return nil, false, err
		}
		return out, true, nil
	case reflect.Bool:
		return v.Bool(), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), true, nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false, unsupported("non-finite float %v", f)
		}
		return f, true, nil
	case reflect.String:
		return v.String(), true, nil
	default:
		return nil, false, unsupported("unsupported type %s", v.Type())
	}
}

func (s *sanitizer) enter(key visit) (func(), error) {
	if s.visiting[key] {
		return nil, unsupported("cyclic value of type %s", key.typ)
	}
	s.visiting[key] = true
	return func() { delete(s.visiting, key) }, nil
}

func (s *sanitizer) walkMap(v reflect.Value) (any, bool, error) {
	if v.IsNil() {
		return nil, true, nil
	}
	leave, err := s.enter(visit{ptr: v.Pointer(), typ: v.Type()})
	if err != nil {
		return nil, false, err
	}
	defer leave()

	out := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, err := mapKey(iter.Key())
		if err != nil {
			return nil, false, err
		}
		val, keep, err := s.walk(iter.Value())
		if err != nil {
			return nil, false, err
		}
		if keep {
			out[key] = val
		}
	}
	return out, true, nil
}

func (s *sanitizer) walkList(v reflect.Value) (any, bool, error) {
	out := make([]any, v.Len())
	for i := range out {
		val, keep, err := s.walk(v.Index(i))
		if err != nil {
			return nil, false, err
		}
		if keep {
			out[i] = val
		}
	}
	return out, true, nil
}

func (s *sanitizer) collectFields(v reflect.Value, out map[string]any) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := v.Field(i)

		if f.Anonymous && name == "" {
			promoted, err := s.collectEmbedded(fv, out)
			if err != nil {
				return err
			}
			if promoted {
				continue
			}
		}

		if name == "" {
			name = f.Name
		}
		if hasOption(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		val, keep, err := s.walk(fv)
		if err != nil {
			return err
		}
		if keep {
			out[name] = val
		}
	}
	return nil
}

// collectEmbedded promotes the fields of an embedded struct, or of the struct
// an embedded pointer refers to, into out.
func (s *sanitizer) collectEmbedded(fv reflect.Value, out map[string]any) (bool, error) {
	ev := fv
	if ev.Kind() == reflect.Pointer {
		if ev.IsNil() {
			return true, nil
		}
		ev = ev.Elem()
	}
	if ev.Kind() != reflect.Struct {
		return false, nil
	}
	if _, ok := marshaler(ev); ok {
		return false, nil
	}
	if fv.Kind() == reflect.Pointer {
		leave, err := s.enter(visit{ptr: fv.Pointer(), typ: fv.Type()})
		if err != nil {
			return false, err
		}
		defer leave()
	}
	return true, s.collectFields(ev, out)
}

func marshaler(v reflect.Value) (any, bool) {
	t := v.Type()
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return v.Interface(), true
	}
	if v.CanAddr() {
		pt := reflect.PointerTo(t)
		if pt.Implements(jsonMarshalerType) || pt.Implements(textMarshalerType) {
			return v.Addr().Interface(), true
		}
	}
	return nil, false
}

func mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "", unsupported("nil map key")
		}
		k = k.Elem()
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok && k.Kind() != reflect.String {
		b, err := tm.MarshalText()
		if err != nil {
			return "", unsupported("map key: %v", err)
		}
		return string(b), nil
	}
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", unsupported("unsupported map key type %s", k.Type())
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

func unsupported(format string, args ...any) error {
	return &Error{Kind: KindSerialization, Err: fmt.Errorf(format, args...)}
}
