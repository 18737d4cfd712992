package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Component is implemented by values that take part in generation, such as
// units and routers. Components are never treated as configuration data.
type Component interface {
	ComponentID() string
}

// BaseConfigKeys are structural keys shared by every unit. They are excluded
// from configuration hashing and from editable configuration views.
var BaseConfigKeys = []string{
	"id",
	"project",
	"cacheStrategy",
	"cache_strategy",
	"dependencies",
	"configStore",
	"config_store",
}

// IsBaseConfigKey reports whether key names a structural field.
func IsBaseConfigKey(key string) bool {
	for _, k := range BaseConfigKeys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

var componentType = reflect.TypeFor[Component]()

// IsComponentValue reports whether v holds a Component, a func or a chan.
func IsComponentValue(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(Component); ok {
		return true
	}
	switch reflect.TypeOf(v).Kind() { //nolint:exhaustive // only callables are special
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// HashConfig derives a ContentHash from a plain data structure.
//
// Maps, slices, arrays, structs and pointers are walked recursively. Map keys
// and struct fields are visited in sorted order so the result does not depend
// on insertion order. Struct fields are named by their mapstructure tag and a
// tag of "-" marks a structural field that is skipped. Base keys, keys listed
// in ignore, Components, funcs and chans are skipped at every depth.
func HashConfig(v any, ignore ...string) ContentHash {
	w := &configHasher{h: sha256.New(), ignore: ignore}
	w.value(reflect.ValueOf(v))
	var out ContentHash
	copy(out[:], w.h.Sum(nil))
	return out
}

type configHasher struct {
	h      hash.Hash
	ignore []string
}

type field struct {
	name  string
	value reflect.Value
}

func (w *configHasher) skipKey(key string) bool {
	return IsBaseConfigKey(key) || slices.Contains(w.ignore, key)
}

func (w *configHasher) tag(t byte) {
	_, _ = w.h.Write([]byte{t})
}

func (w *configHasher) str(s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	_, _ = w.h.Write(n[:])
	_, _ = w.h.Write([]byte(s))
}

func skipValue(v reflect.Value) bool {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return false
	}
	switch v.Kind() { //nolint:exhaustive // only callables are special
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return v.Type().Implements(componentType)
	}
}

//nolint:cyclop // one case per reflect kind
func (w *configHasher) value(v reflect.Value) {
	if !v.IsValid() {
		w.tag('n')
		return
	}

	switch v.Kind() { //nolint:exhaustive // remaining kinds hash as their string form
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			w.tag('n')
			return
		}
		w.value(v.Elem())
	case reflect.Bool:
		w.tag('b')
		if v.Bool() {
			w.tag(1)
		} else {
			w.tag(0)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w.number(float64(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		w.number(float64(v.Uint()))
	case reflect.Float32, reflect.Float64:
		w.number(v.Float())
	case reflect.String:
		w.tag('s')
		w.str(v.String())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			w.tag('x')
			w.str(string(v.Bytes()))
			return
		}
		w.list(v)
	case reflect.Array:
		w.list(v)
	case reflect.Map:
		w.mapping(v)
	case reflect.Struct:
		w.structure(v)
	default:
		w.tag('?')
		w.str(v.String())
	}
}

// number hashes integers and floats the same way when they are equal, so a
// config decoded from JSON hashes like the typed struct it came from.
func (w *configHasher) number(f float64) {
	w.tag('d')
	w.str(strconv.FormatFloat(f, 'g', -1, 64))
}

func (w *configHasher) list(v reflect.Value) {
	w.tag('l')
	n := 0
	for i := range v.Len() {
		if !skipValue(v.Index(i)) {
			n++
		}
	}
	w.str(strconv.Itoa(n))
	for i := range v.Len() {
		item := v.Index(i)
		if skipValue(item) {
			continue
		}
		w.value(item)
	}
}

func (w *configHasher) mapping(v reflect.Value) {
	fields := make([]field, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key := keyString(iter.Key())
		if w.skipKey(key) || skipValue(iter.Value()) {
			continue
		}
		fields = append(fields, field{name: key, value: iter.Value()})
	}
	w.fields(fields)
}

func (w *configHasher) structure(v reflect.Value) {
	t := v.Type()
	fields := make([]field, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ","); tag != "" {
			if tag == "-" {
				continue
			}
			name = tag
		}
		fv := v.Field(i)
		if w.skipKey(name) || skipValue(fv) {
			continue
		}
		fields = append(fields, field{name: name, value: fv})
	}
	w.fields(fields)
}

func (w *configHasher) fields(fields []field) {
	slices.SortFunc(fields, func(a, b field) int { return strings.Compare(a.name, b.name) })
	w.tag('m')
	w.str(strconv.Itoa(len(fields)))
	for _, f := range fields {
		w.str(f.name)
		w.value(f.value)
	}
}

func keyString(k reflect.Value) string {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	switch k.Kind() { //nolint:exhaustive // non-string keys use their formatted value
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10)
	default:
		return k.String()
	}
}
