package debugui

import (
	"reflect"
	"strings"
	"sync"
)

// FieldInfo describes a struct field shown by the component inspector.
type FieldInfo struct {
	// Name is the label from the field's debug tag, or the field name.
	Name     string
	Index    int
	ReadOnly bool
}

// ReflectionCache memoises the inspectable fields of struct types.
//
// Exported fields are listed in declaration order. A `debug` struct tag
// adjusts a field: `debug:"-"` hides it, `debug:"label"` renames it and a
// ",readonly" option shows it without an editor.
type ReflectionCache struct {
	fields sync.Map // reflect.Type -> []FieldInfo
}

func NewReflectionCache() *ReflectionCache {
	return &ReflectionCache{}
}

// GetFields returns the inspectable fields of t, or nil if t is not a struct.
func (rc *ReflectionCache) GetFields(t reflect.Type) []FieldInfo {
	if cached, ok := rc.fields.Load(t); ok {
		return cached.([]FieldInfo)
	}
	actual, _ := rc.fields.LoadOrStore(t, inspectableFields(t))
	return actual.([]FieldInfo)
}

func inspectableFields(t reflect.Type) []FieldInfo {
	if t.Kind() != reflect.Struct {
		return nil
	}
	var fields []FieldInfo
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		info := FieldInfo{Name: field.Name, Index: i}
		if tag, ok := field.Tag.Lookup("debug"); ok {
			if tag == "-" {
				continue
			}
			label, opts, _ := strings.Cut(tag, ",")
			if label != "" {
				info.Name = label
			}
			info.ReadOnly = opts == "readonly"
		}
		fields = append(fields, info)
	}
	return fields
}

var globalReflectionCache = NewReflectionCache()
