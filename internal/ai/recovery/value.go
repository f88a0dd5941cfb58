package recovery

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind discriminates the dynamic type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is a JSON value of unknown shape produced by a model. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	obj  Object
}

// Object is a recovered JSON object.
type Object map[string]Value

// Get returns the value stored under key, or null when the key is absent.
func (o Object) Get(key string) Value {
	if o == nil {
		return Value{}
	}
	return o[key]
}

// Interface converts the object back to plain Go values.
func (o Object) Interface() map[string]any {
	out := make(map[string]any, len(o))
	for k, v := range o {
		out[k] = v.Interface()
	}
	return out
}

func (o Object) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Interface())
}

func String(s string) Value { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }
func FromObject(o Object) Value {
	if o == nil {
		o = Object{}
	}
	return Value{kind: KindObject, obj: o}
}

// FromAny converts a decoded JSON tree (or a hand-built Go value) into a Value.
// Types with no JSON meaning become null.
func FromAny(v any) Value {
	switch val := v.(type) {
	case nil:
		return Value{}
	case Value:
		return val
	case Object:
		return FromObject(val)
	case string:
		return String(val)
	case bool:
		return Bool(val)
	case float64:
		return Number(val)
	case float32:
		return Number(float64(val))
	case int:
		return Number(float64(val))
	case int64:
		return Number(float64(val))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return String(val.String())
		}
		return Number(f)
	case []any:
		list := make([]Value, 0, len(val))
		for _, item := range val {
			list = append(list, FromAny(item))
		}
		return List(list...)
	case []string:
		list := make([]Value, 0, len(val))
		for _, item := range val {
			list = append(list, String(item))
		}
		return List(list...)
	case map[string]any:
		return FromObject(objectFromMap(val))
	default:
		return Value{}
	}
}

func objectFromMap(m map[string]any) Object {
	obj := make(Object, len(m))
	for k, v := range m {
		obj[k] = FromAny(v)
	}
	return obj
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) Num() (float64, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) Boolean() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) Items() ([]Value, bool) {
	return v.list, v.kind == KindList
}

func (v Value) Obj() (Object, bool) {
	return v.obj, v.kind == KindObject
}

// Scalar renders strings, numbers and booleans as text. Lists, objects and null
// report false.
func (v Value) Scalar() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindNumber:
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1e15 {
			return strconv.FormatInt(int64(v.num), 10), true
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// Interface converts the value back to plain Go values.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]any, 0, len(v.list))
		for _, item := range v.list {
			out = append(out, item.Interface())
		}
		return out
	case KindObject:
		return v.obj.Interface()
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}
