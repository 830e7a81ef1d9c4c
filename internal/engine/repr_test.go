package engine

import (
	"reflect"
	"strings"
	"testing"
)

func TestSafeRepr(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{3, "3"},
		{"hi", `"hi"`},
		{3.5, "3.5"},
		{true, "true"},
		{[]int{1, 2}, "[]int{1, 2}"},
		{nil, "<nil>"},
	}
	for _, tt := range tests {
		if got := SafeRepr(tt.in); got != tt.want {
			t.Errorf("SafeRepr(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSafeReprTruncates(t *testing.T) {
	long := strings.Repeat("a", 3000)
	got := SafeRepr(long)
	if len([]rune(got)) > maxReprLen+10 {
		t.Fatalf("truncated repr still %d runes", len([]rune(got)))
	}
	if !strings.Contains(got, "... [truncated ") {
		t.Fatalf("missing truncation marker: %q", got[len(got)-40:])
	}
}

func TestSafeReprShortStringsUntouched(t *testing.T) {
	s := strings.Repeat("b", 100)
	if got := SafeRepr(s); got != `"`+s+`"` {
		t.Fatalf("short string altered: %q", got)
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		v    reflect.Value
		want string
	}{
		{reflect.ValueOf(1), "int"},
		{reflect.ValueOf("x"), "string"},
		{reflect.ValueOf([]string{}), "[]string"},
		{reflect.ValueOf(map[string]int{}), "map[string]int"},
		{reflect.Value{}, "untyped"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.v); got != tt.want {
			t.Errorf("TypeName = %q, want %q", got, tt.want)
		}
	}

	// A nil value behind an interface reports "nil".
	var err error
	if got := TypeName(reflect.ValueOf(&err).Elem()); got != "nil" {
		t.Errorf("TypeName(nil interface) = %q, want nil", got)
	}
}

func TestDescribeValue(t *testing.T) {
	typeName, repr := DescribeValue(reflect.ValueOf(42))
	if typeName != "int" || repr != "42" {
		t.Fatalf("DescribeValue = (%q, %q)", typeName, repr)
	}
}
