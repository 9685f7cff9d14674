package save

import (
	"strconv"
	"strings"
)

// SerializeObject renders a value tree back into gamestate text. Parsing the
// output yields a tree equal to the input, with one caveat inherited from the
// format itself: strings containing quote characters are written escaped but
// the parser never unescapes, so such strings do not survive a round trip.
// The game files have the same property.
func SerializeObject(o *Object) string {
	var b strings.Builder
	for _, e := range o.Entries() {
		writeKey(&b, e.Key)
		b.WriteByte('=')
		writeValue(&b, e.Value, 0)
		b.WriteByte('\n')
	}
	return b.String()
}

// SerializeValue renders a single value.
func SerializeValue(v Value) string {
	var b strings.Builder
	writeValue(&b, v, 0)
	return b.String()
}

func writeValue(b *strings.Builder, v Value, indent int) {
	switch v.kind {
	case KindString:
		writeString(b, v.str)
	case KindInt:
		b.WriteString(strconv.FormatInt(v.num, 10))
	case KindFloat:
		writeFloat(b, v.real)
	case KindList:
		writeList(b, v.list, indent)
	case KindObject:
		writeObject(b, v.obj, indent)
	}
}

func writeList(b *strings.Builder, elems []Value, indent int) {
	if len(elems) == 0 {
		b.WriteString("{}")
		return
	}
	b.WriteString("{ ")
	for i, e := range elems {
		if i > 0 {
			b.WriteByte(' ')
		}
		writeValue(b, e, indent)
	}
	b.WriteString(" }")
}

func writeObject(b *strings.Builder, o *Object, indent int) {
	b.WriteString("{\n")
	for _, e := range o.Entries() {
		for i := 0; i <= indent; i++ {
			b.WriteByte('\t')
		}
		writeKey(b, e.Key)
		b.WriteByte('=')
		writeValue(b, e.Value, indent+1)
		b.WriteByte('\n')
	}
	for i := 0; i < indent; i++ {
		b.WriteByte('\t')
	}
	b.WriteByte('}')
}

func writeKey(b *strings.Builder, k Key) {
	if k.IsNum {
		b.WriteString(strconv.FormatInt(k.Num, 10))
		return
	}
	writeString(b, k.Raw)
}

// writeString quotes a string when the bare form would tokenize differently:
// empty strings, strings with structural characters or whitespace, and
// strings that would classify as numbers.
func writeString(b *strings.Builder, s string) {
	if !needsQuoting(s) {
		b.WriteString(s)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	if strings.ContainsAny(s, " \t\n\r={}\"") {
		return true
	}
	return looksLikeInt(s) || looksLikeFloat(s)
}

// writeFloat renders a float so that it re-tokenizes as a float: the output
// always contains a decimal point.
func writeFloat(b *strings.Builder, f float64) {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	b.WriteString(s)
	if !strings.Contains(s, ".") {
		b.WriteString(".0")
	}
}

// Plain converts a value tree into plain Go data (string, int64, float64,
// []any and map[string]any) for generic encoders such as YAML or JSON. Key
// order is lost; encounter-order output needs SerializeValue instead.
func (v Value) Plain() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.real
	case KindList:
		elems := make([]any, len(v.list))
		for i, e := range v.list {
			elems[i] = e.Plain()
		}
		return elems
	case KindObject:
		return v.obj.Plain()
	default:
		return nil
	}
}

// Plain converts an object into a map of plain Go data.
func (o *Object) Plain() map[string]any {
	m := make(map[string]any, o.Len())
	for _, e := range o.Entries() {
		m[e.Key.Raw] = e.Value.Plain()
	}
	return m
}
