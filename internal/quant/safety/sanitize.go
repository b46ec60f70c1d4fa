// Package safety implements the engine's numeric-safety boundary:
// recursive non-finite float elimination before JSON serialization.
// Strategy parameter validation lives in strategy.ValidateParams.
// Grounded on spec.md's design note that
// float cleanup should be "a type-driven transform on the response record
// types, not ad-hoc recursion" — this walks values with reflection once,
// rather than each caller hand-rolling its own dict walk.
package safety

import (
	"encoding/json"
	"math"
	"reflect"
)

var jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// Sanitize recursively replaces non-finite float64/float32 values
// anywhere inside v (structs, maps, slices, arrays, pointers, interfaces).
// A pointer to a non-finite float becomes a nil pointer, which encodes
// as JSON null; this is how *float64 fields carry "null". A plain float
// field or element cannot hold null, so a non-finite value there becomes
// 0. For FloatSlice (indicator channels), NaN marks a hole and is left
// as NaN — the custom MarshalJSON on FloatSlice is what turns it into a
// literal `null` in the wire format.
func Sanitize(v interface{}) interface{} {
	return sanitizeValue(reflect.ValueOf(v)).Interface()
}

func sanitizeValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	// Types with their own json.Marshaler (engine.FloatSlice) own their
	// NaN/Inf handling — NaN there marks a meaningful indicator hole, not
	// a value to zero out, so it must survive to MarshalJSON untouched.
	if v.CanInterface() && v.Type().Implements(jsonMarshalerType) {
		return v
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		if k := v.Elem().Kind(); (k == reflect.Float64 || k == reflect.Float32) && !Finite(v.Elem().Float()) {
			return reflect.Zero(v.Type())
		}
		elem := sanitizeValue(v.Elem())
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(elem)
		return out

	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		inner := sanitizeValue(v.Elem())
		out := reflect.New(v.Type()).Elem()
		out.Set(inner)
		return out

	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			if !field.CanInterface() {
				out.Field(i).Set(field)
				continue
			}
			out.Field(i).Set(sanitizeValue(field))
		}
		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), sanitizeValue(iter.Value()))
		}
		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(sanitizeValue(v.Index(i)))
		}
		return out

	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(sanitizeValue(v.Index(i)))
		}
		return out

	case reflect.Float64, reflect.Float32:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return reflect.Zero(v.Type())
		}
		return v

	default:
		return v
	}
}

// Finite reports whether f is a finite number.
func Finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// OrNull returns a pointer to f, or nil if f is not finite. Used to
// produce the "null ratio" fields Metrics requires for zero-trade runs
// and for any derived ratio that divides by zero.
func OrNull(f float64, ok bool) *float64 {
	if !ok || !Finite(f) {
		return nil
	}
	return &f
}
