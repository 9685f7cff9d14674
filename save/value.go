package save

import (
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is one node of a parsed gamestate tree: a scalar (string, int or
// float), a list of values, or a keyed object. The zero Value is invalid and
// every accessor on it reports false.
type Value struct {
	kind Kind
	str  string
	num  int64
	real float64
	list []Value
	obj  *Object
}

func StringValue(s string) Value  { return Value{kind: KindString, str: s} }
func IntValue(n int64) Value      { return Value{kind: KindInt, num: n} }
func FloatValue(f float64) Value  { return Value{kind: KindFloat, real: f} }
func ListValue(vs []Value) Value  { return Value{kind: KindList, list: vs} }
func ObjectValue(o *Object) Value { return Value{kind: KindObject, obj: o} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsZero() bool { return v.kind == KindInvalid }

// Str returns the string content when the value is a string scalar.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Int returns the integer content when the value is an int scalar.
func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.num, true
}

// Float returns the float content when the value is a float scalar.
func (v Value) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.real, true
}

// Number returns the value as a float64 when it is an int or float scalar.
// Game files switch freely between 5 and 5.0 for the same field, so numeric
// readers should use Number rather than Int or Float.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.num), true
	case KindFloat:
		return v.real, true
	default:
		return 0, false
	}
}

// List returns the elements when the value is a list.
func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Object returns the keyed entries when the value is an object.
func (v Value) Object() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Seq flattens a value into a slice: a list yields its elements, an invalid
// value yields nil, and anything else yields itself as a single element.
// Fields that hold one value in small saves and a list in large ones (for
// example war participants) are read through Seq.
func (v Value) Seq() []Value {
	switch v.kind {
	case KindList:
		return v.list
	case KindInvalid:
		return nil
	default:
		return []Value{v}
	}
}

// Key is an object key. Numeric keys keep their parsed value so collections
// indexed by game id can be read without re-parsing the text.
type Key struct {
	Raw   string
	Num   int64
	IsNum bool
}

func StringKey(s string) Key { return Key{Raw: s} }

func NumKey(n int64) Key {
	return Key{Raw: strconv.FormatInt(n, 10), Num: n, IsNum: true}
}

func (k Key) String() string { return k.Raw }

// Entry is a single key-value pair of an Object, in encounter order.
type Entry struct {
	Key   Key
	Value Value

	// merged marks entries whose value was converted to a list by the
	// duplicate-key rule, so later duplicates append instead of re-wrapping.
	merged bool
}

// Object is an ordered collection of key-value pairs. Keys repeat in the raw
// text; Add folds repeats into lists, so a stored key is unique.
type Object struct {
	entries []Entry
	index   map[Key]int
}

// Objects below this size resolve duplicate keys by linear scan. Most objects
// in a save are a handful of fields; only the big id-keyed collections pay for
// an index.
const objectIndexThreshold = 16

func NewObject() *Object { return &Object{} }

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.entries)
}

// Entries returns the key-value pairs in encounter order. The returned slice
// is owned by the object and must not be modified.
func (o *Object) Entries() []Entry {
	if o == nil {
		return nil
	}
	return o.entries
}

func (o *Object) find(k Key) int {
	if o.index != nil {
		if i, ok := o.index[k]; ok {
			return i
		}
		return -1
	}
	for i := range o.entries {
		if o.entries[i].Key == k {
			return i
		}
	}
	return -1
}

// Add appends a key-value pair, folding duplicate keys: the second occurrence
// of a key converts the existing value into a two-element list, later
// occurrences append to that list.
func (o *Object) Add(k Key, v Value) {
	if i := o.find(k); i >= 0 {
		e := &o.entries[i]
		if e.merged {
			e.Value.list = append(e.Value.list, v)
		} else {
			e.Value = ListValue([]Value{e.Value, v})
			e.merged = true
		}
		return
	}
	o.entries = append(o.entries, Entry{Key: k, Value: v})
	if o.index != nil {
		o.index[k] = len(o.entries) - 1
	} else if len(o.entries) > objectIndexThreshold {
		o.index = make(map[Key]int, 2*len(o.entries))
		for i := range o.entries {
			o.index[o.entries[i].Key] = i
		}
	}
}

// Get returns the value stored under a string key.
func (o *Object) Get(name string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	if i := o.find(StringKey(name)); i >= 0 {
		return o.entries[i].Value, true
	}
	return Value{}, false
}

// GetID returns the value stored under a numeric key.
func (o *Object) GetID(id int64) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	if i := o.find(NumKey(id)); i >= 0 {
		return o.entries[i].Value, true
	}
	return Value{}, false
}

func (o *Object) GetString(name string) (string, bool) {
	v, ok := o.Get(name)
	if !ok {
		return "", false
	}
	return v.Str()
}

func (o *Object) GetInt(name string) (int64, bool) {
	v, ok := o.Get(name)
	if !ok {
		return 0, false
	}
	return v.Int()
}

func (o *Object) GetNumber(name string) (float64, bool) {
	v, ok := o.Get(name)
	if !ok {
		return 0, false
	}
	return v.Number()
}

func (o *Object) GetObject(name string) (*Object, bool) {
	v, ok := o.Get(name)
	if !ok {
		return nil, false
	}
	return v.Object()
}

func (o *Object) GetList(name string) ([]Value, bool) {
	v, ok := o.Get(name)
	if !ok {
		return nil, false
	}
	return v.List()
}

// GetSeq returns the value under name flattened through Value.Seq. A missing
// key yields nil.
func (o *Object) GetSeq(name string) []Value {
	v, ok := o.Get(name)
	if !ok {
		return nil
	}
	return v.Seq()
}

// Equal reports deep structural equality of two values. Lists compare
// elementwise, objects compare entries in order.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindString:
		return a.str == b.str
	case KindInt:
		return a.num == b.num
	case KindFloat:
		return a.real == b.real
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return EqualObjects(a.obj, b.obj)
	default:
		return true
	}
}

// EqualObjects reports whether two objects hold equal entries in the same
// order.
func EqualObjects(a, b *Object) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.Entries() {
		ae, be := a.entries[i], b.entries[i]
		if ae.Key != be.Key || !Equal(ae.Value, be.Value) {
			return false
		}
	}
	return true
}
