package version

import "testing"

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.20.5", "1.20", 1},
		{"1.20", "1.20.5", -1},
		{"1.2", "1.10", -1},
		{"1.2", "1.2.0", 0},
		{"1.20.1", "1.20.1", 0},
		{"2.0", "1.99.99", 1},
	}

	for _, c := range cases {
		t.Run(c.a+"_vs_"+c.b, func(t *testing.T) {
			a, err := Parse(c.a)
			if err != nil {
				t.Fatalf("parse %q: %v", c.a, err)
			}
			b, err := Parse(c.b)
			if err != nil {
				t.Fatalf("parse %q: %v", c.b, err)
			}
			got := a.Compare(b)
			if (got < 0 && c.want >= 0) || (got > 0 && c.want <= 0) || (got == 0 && c.want != 0) {
				t.Errorf("Compare(%q, %q) = %d, want sign %d", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "1.x", "1..2", "a"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) expected error, got none", s)
		}
	}
}

func TestGateVisible(t *testing.T) {
	g := Gate{
		Since:    MustParse("1.16"),
		HasSince: true,
		Until:    MustParse("1.21"),
		HasUntil: true,
	}

	cases := []struct {
		v    string
		want bool
	}{
		{"1.15", false},
		{"1.16", true},
		{"1.20.5", true},
		{"1.21", false},
		{"1.21.1", false},
	}

	for _, c := range cases {
		active := MustParse(c.v)
		if got := g.Visible(active); got != c.want {
			t.Errorf("Visible(%s) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestGateUnbounded(t *testing.T) {
	g := Gate{}
	if !g.Visible(MustParse("1.0")) {
		t.Error("unbounded gate should be visible for any version")
	}
}
