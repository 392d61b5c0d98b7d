package param

import "testing"

func TestParseRoundTripsNames(t *testing.T) {
	for _, p := range All() {
		got, ok := Parse(p.String())
		if !ok || got != p {
			t.Fatalf("Parse(%q) = %v, %v", p.String(), got, ok)
		}
	}
	if _, ok := Parse("volume"); ok {
		t.Fatalf("unexpected match for unknown name")
	}
}

func TestFormulas(t *testing.T) {
	cases := []struct {
		name string
		got  float64
		want float64
	}{
		{"db at 0", Decibels(0), -20},
		{"db at 1", Decibels(1), 40},
		{"ms at 1", Milliseconds(1), 1000},
		{"hz at 0.5", Hertz(0.5), 11025},
		{"percent", Percent(0.25), 25},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("%s: got %f want %f", c.name, c.got, c.want)
		}
	}

	if v, u := Plain(FilterResonance, 0.5); v != 10 || u != UnitDecibel {
		t.Fatalf("resonance plain mismatch: %f %q", v, u)
	}
	if v, u := Plain(Attack, 0.2); v != 0.2 || u != UnitSeconds {
		t.Fatalf("attack plain mismatch: %f %q", v, u)
	}
}

func TestStateChanged(t *testing.T) {
	a := DefaultState()
	b := a
	b.Set(Sustain, 0.75)
	b.Set(FilterCutoff, 0.1)

	changed := a.Changed(b)
	if len(changed) != 2 || changed[0] != Sustain || changed[1] != FilterCutoff {
		t.Fatalf("unexpected changed set: %v", changed)
	}
	if b.Get(Sustain) != 0.75 {
		t.Fatalf("sustain not stored: %+v", b)
	}
	if len(a.Changed(a)) != 0 {
		t.Fatalf("identical states reported as changed")
	}
}
