package utils

import (
	"reflect"
	"strings"
)

// UpdatesFromPtrDTO builds a map[string]any containing only non-nil *fields from a pointer DTO.
// It uses the `json` tag (before any comma options) as the column/key name.
// Optionally provide a renames map to translate json->db column.
func UpdatesFromPtrDTO(dto any, renames map[string]string) map[string]any {
	out := map[string]any{}
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr {
		return out
	}
	s := v.Elem()
	if s.Kind() != reflect.Struct {
		return out
	}
	t := s.Type()
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if f.Kind() != reflect.Ptr || f.IsNil() {
			continue
		}
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if renamed, ok := renames[name]; ok {
			name = renamed
		}
		out[name] = f.Elem().Interface()
	}
	return out
}
