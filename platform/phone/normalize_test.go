package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"national format", "55 1234 5678", "+525512345678"},
		{"international format", "+52 55 1234 5678", "+525512345678"},
		{"already normalized", "+525512345678", "+525512345678"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"unparseable returns trimmed input", " not a number ", "not a number"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeE164(tc.input); got != tc.want {
				t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
