package money

import "testing"

func TestFormat(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 ₫"},
		{999, "999 ₫"},
		{30000, "30.000 ₫"},
		{200000, "200.000 ₫"},
		{1234567, "1.234.567 ₫"},
		{-20000, "-20.000 ₫"},
	}
	for _, tc := range cases {
		if got := Format(tc.in); got != tc.want {
			t.Fatalf("Format(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
