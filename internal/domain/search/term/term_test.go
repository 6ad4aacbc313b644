package term

import (
	"reflect"
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  alpha   beta ", "alpha beta"},
		{"tags", "<p>alpha<br/>beta</p>", "alpha beta"},
		{"script dropped", "alpha<script>alert(1)</script> beta", "alpha beta"},
		{"entities", "fish &amp; chips", "fish & chips"},
		{"template tags", "[[*pagetitle]] {{chunk}} `x`", "*pagetitle chunk x"},
		{"bindings", "@@EVAL return 1;@@ alpha @INHERIT", "alpha"},
		{"nfc", "cafe\u0301", "caf\u00e9"},
		{"empty", "   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.in); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWords(t *testing.T) {
	got := Words(`"alpha", beta! -- (gamma)`)
	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Words() = %v, want %v", got, want)
	}
}

func TestExtract_WholeString(t *testing.T) {
	e := New(nil)
	got := e.Extract("<b>alpha</b> beta", false, 7)
	want := []string{"alpha beta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestExtract_AllWordsTruncated(t *testing.T) {
	e := New(nil)
	got := e.Extract("one two three four five", true, 3)
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestExtract_Empty(t *testing.T) {
	e := New(nil)
	if got := e.Extract("<p> </p>", true, 7); got != nil {
		t.Errorf("Extract() = %v, want nil", got)
	}
}

func TestExtract_CustomTokenizer(t *testing.T) {
	e := New(func(s string) []string { return strings.Split(s, "-") })
	got := e.Extract("a-b-c", true, 0)
	if len(got) != 3 {
		t.Errorf("Extract() = %v, want 3 terms", got)
	}
}

func TestExtract_NeverExceedsMax(t *testing.T) {
	e := New(nil)
	words := strings.Repeat("w ", 50)
	for maxWords := 1; maxWords <= 10; maxWords++ {
		if got := e.Extract(words, true, maxWords); len(got) > maxWords {
			t.Errorf("maxWords=%d: got %d terms", maxWords, len(got))
		}
	}
}
