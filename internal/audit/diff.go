package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"sort"
)

// VolatileRecordFields are provenance record fields expected to differ
// between otherwise identical runs. The diff skips them by JSON name.
var VolatileRecordFields = map[string]bool{
	"rendered_at":   true,
	"output_path":   true,
	"captions_path": true,
}

// Diff compares two documents of the same type and returns the paths of
// fields whose values differ, in declaration order for structs and sorted
// order for maps. skip names fields (by JSON tag) excluded at any depth.
func Diff(a, b any, skip map[string]bool) []string {
	var diffs []string
	walk(reflect.ValueOf(a), reflect.ValueOf(b), "", skip, &diffs)
	return diffs
}

func walk(a, b reflect.Value, path string, skip map[string]bool, diffs *[]string) {
	// A JSON null decodes to an invalid Value; treat two nulls as equal and
	// a null against anything else as a diff.
	if !a.IsValid() || !b.IsValid() {
		if a.IsValid() != b.IsValid() {
			*diffs = append(*diffs, path)
		}
		return
	}
	if a.Kind() == reflect.Pointer || a.Kind() == reflect.Interface {
		if a.IsNil() != b.IsNil() {
			*diffs = append(*diffs, path)
			return
		}
		if a.IsNil() {
			return
		}
		walk(a.Elem(), b.Elem(), path, skip, diffs)
		return
	}
	if a.Type() != b.Type() {
		*diffs = append(*diffs, path)
		return
	}

	switch a.Kind() {
	case reflect.Struct:
		t := a.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := jsonName(field)
			if skip[name] {
				continue
			}
			walk(a.Field(i), b.Field(i), join(path, name), skip, diffs)
		}
	case reflect.Slice, reflect.Array:
		if a.Len() != b.Len() {
			*diffs = append(*diffs, join(path, "length"))
			return
		}
		for i := 0; i < a.Len(); i++ {
			walk(a.Index(i), b.Index(i), fmt.Sprintf("%s[%d]", path, i), skip, diffs)
		}
	case reflect.Map:
		keys := map[string]bool{}
		for _, k := range a.MapKeys() {
			keys[fmt.Sprint(k.Interface())] = true
		}
		for _, k := range b.MapKeys() {
			keys[fmt.Sprint(k.Interface())] = true
		}
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)
		for _, key := range sorted {
			if skip[key] {
				continue
			}
			kv := reflect.ValueOf(key)
			av := a.MapIndex(kv)
			bv := b.MapIndex(kv)
			child := join(path, key)
			if !av.IsValid() || !bv.IsValid() {
				*diffs = append(*diffs, child)
				continue
			}
			walk(av, bv, child, skip, diffs)
		}
	default:
		if !reflect.DeepEqual(a.Interface(), b.Interface()) {
			*diffs = append(*diffs, path)
		}
	}
}

func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			if i == 0 {
				return field.Name
			}
			return tag[:i]
		}
	}
	return tag
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// CompareFiles diffs two JSON documents on disk. Both are decoded to the
// generic representation first so field ordering and typing in the files
// never influence the comparison.
func CompareFiles(pathA, pathB string, skip map[string]bool) ([]string, error) {
	a, err := loadJSON(pathA)
	if err != nil {
		return nil, err
	}
	b, err := loadJSON(pathB)
	if err != nil {
		return nil, err
	}
	return Diff(a, b, skip), nil
}

func loadJSON(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}
