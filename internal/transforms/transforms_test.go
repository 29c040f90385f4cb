package transforms_test

import (
	"slices"
	"testing"

	"github.com/goliatone/go-blog/internal/transforms"
)

func TestToBool(t *testing.T) {
	cases := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{"TRUE", true},
		{"t", true},
		{"Yes", true},
		{"y", true},
		{"1", true},
		{"0", false},
		{"no", false},
		{"", false},
		{1, true},
		{2, false},
		{0, false},
		{1.0, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := transforms.ToBool(tc.in); got != tc.want {
			t.Fatalf("ToBool(%#v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestToList(t *testing.T) {
	cases := []struct {
		name      string
		in        any
		lowercase bool
		want      []string
	}{
		{"empty string", "", false, []string{}},
		{"nil", nil, false, []string{}},
		{"brackets", "[]", false, []string{}},
		{"simple", "a,b,c", false, []string{"a", "b", "c"}},
		{"quoted", `["Go", 'Python', rust]`, false, []string{"Go", "Python", "rust"}},
		{"parens lower", "(Go, Python)", true, []string{"go", "python"}},
		{"slice passthrough", []string{"A", "b"}, false, []string{"A", "b"}},
		{"slice lower", []string{"A", "b"}, true, []string{"a", "b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := transforms.ToList(tc.in, tc.lowercase)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tc.want) {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestToListRejectsScalars(t *testing.T) {
	if _, err := transforms.ToList(42, false); err == nil {
		t.Fatalf("expected error for non list-like input")
	}
}
