package palette

import "testing"

func TestPaletteLayout(t *testing.T) {
	p := Default()
	if len(p) != 11 {
		t.Fatalf("palette should have 11 colors. Got: %d", len(p))
	}
	if p.Alert().Name != "RED" {
		t.Logf("the final color should be RED. Got: %s", p.Alert().Name)
		t.Fail()
	}
	for i := 0; i < 5; i++ {
		if "BRIGHT_"+p[i].Name != p[i+5].Name {
			t.Logf("index %d (%s) is not the bright twin of index %d (%s)", i+5, p[i+5].Name, i, p[i].Name)
			t.Fail()
		}
	}
}

func TestPaletteWraps(t *testing.T) {
	p := Default()
	if p.Color(11) != p.Color(0) {
		t.Logf("index 11 should wrap to index 0")
		t.Fail()
	}
	if p.Color(25) != p.Color(3) {
		t.Logf("index 25 should wrap to index 3")
		t.Fail()
	}
	if p.Color(-1) != p.Color(10) {
		t.Logf("index -1 should be the alert color")
		t.Fail()
	}
	if (Palette{}).Color(4) != (Color{}) {
		t.Logf("an empty palette should give the zero color")
		t.Fail()
	}
}

func TestAssignerIgnoresExplicit(t *testing.T) {
	a := NewAssigner()
	p := Default()
	explicit := 10

	mainIdx := a.Resolve(nil)
	testIdx := a.Resolve(nil)
	aux := a.Resolve(&explicit)
	fourth := a.Resolve(nil)

	if mainIdx != 0 || testIdx != 1 {
		t.Logf("auto indexes should start at 0. Got: %d, %d", mainIdx, testIdx)
		t.Fail()
	}
	if p.Color(aux).Name != "RED" {
		t.Logf("explicit index 10 should be RED. Got: %s", p.Color(aux).Name)
		t.Fail()
	}
	if fourth != 2 || p.Color(fourth) != p[2] {
		t.Logf("explicit index moved the counter. Want: 2, Got: %d", fourth)
		t.Fail()
	}
}

func TestAssignerSequence(t *testing.T) {
	a := NewAssigner()
	explicit := 3
	last := -1
	for i := 0; i < 30; i++ {
		if i%4 == 0 {
			a.Resolve(&explicit)
			continue
		}
		got := a.Resolve(nil)
		if got != last+1 {
			t.Fatalf("auto indexes are not a strictly increasing sequence. Previous: %d, Got: %d", last, got)
		}
		last = got
	}
	if a.Peek() != last+1 {
		t.Logf("Peek should show %d. Got: %d", last+1, a.Peek())
		t.Fail()
	}
}
