package engine

import (
	"fmt"
	"reflect"
)

// maxReprLen caps the printed representation of values returned to
// clients. Large values are truncated with an explicit marker rather than
// flooding the response.
const maxReprLen = 2000

// SafeRepr formats v with %#v, substituting a sentinel if formatting
// panics and truncating over-long output.
func SafeRepr(v any) (s string) {
	defer func() {
		if r := recover(); r != nil {
			s = fmt.Sprintf("<unrepresentable: %T>", r)
		}
	}()
	return truncateRepr(fmt.Sprintf("%#v", v))
}

func truncateRepr(s string) string {
	runes := []rune(s)
	if len(runes) <= maxReprLen {
		return s
	}
	cut := len(runes) - maxReprLen + 20
	return string(runes[:maxReprLen-20]) + fmt.Sprintf("... [truncated %d chars]", cut)
}

// TypeName names the runtime kind of a namespace value ("int", "string",
// "func(...) ...").
func TypeName(v reflect.Value) string {
	if !v.IsValid() {
		return "untyped"
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "nil"
		}
		v = v.Elem()
	}
	return v.Type().String()
}

// DescribeValue returns the type name and safe repr of a namespace value,
// as shown by the variable inspection endpoints.
func DescribeValue(v reflect.Value) (typeName, repr string) {
	return TypeName(v), SafeRepr(unwrap(v))
}

// unwrap extracts the Go value behind a namespace entry for printing.
func unwrap(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if !v.CanInterface() {
		return "<opaque>"
	}
	return v.Interface()
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	}
	return false
}
