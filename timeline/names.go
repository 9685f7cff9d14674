package timeline

import (
	"github.com/eliasdoehne/stellaris-dashboard-sub000/save"
)

// flattenName renders a name field to a stable string. Plain string names
// pass through unchanged; structured names (localization keys with variable
// substitutions) serialize to their canonical text form, so the same
// structure always yields the same stored name.
func flattenName(v save.Value) string {
	if s, ok := v.Str(); ok {
		return s
	}
	if v.IsZero() {
		return ""
	}
	return save.SerializeValue(v)
}

// objectName flattens the name field of an object, falling back when the
// field is absent or empty.
func objectName(o *save.Object, key, fallback string) string {
	v, ok := o.Get(key)
	if !ok {
		return fallback
	}
	if name := flattenName(v); name != "" {
		return name
	}
	return fallback
}
