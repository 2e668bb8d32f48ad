package lifecycle

import "testing"

func TestCurrent_Default(t *testing.T) {
	Set(Starting)
	if got := Current(); got != Starting {
		t.Errorf("Current() = %v, want starting", got)
	}
}

func TestSet(t *testing.T) {
	defer Set(Starting)
	for _, p := range []Phase{Running, Closing, Starting} {
		Set(p)
		if got := Current(); got != p {
			t.Errorf("Current() = %v, want %v", got, p)
		}
	}
}

func TestPhase_String(t *testing.T) {
	cases := map[Phase]string{Starting: "starting", Running: "running", Closing: "closing", Phase(9): "unknown"}
	for p, want := range cases {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
