package random

import "testing"

func TestChance_Extremes(t *testing.T) {
	src := New(1)
	for range 100 {
		if Chance(src, 0) {
			t.Fatal("p=0 should never fire")
		}
		if !Chance(src, 1) {
			t.Fatal("p=1 should always fire")
		}
	}
}

func TestChance_Negative(t *testing.T) {
	src := New(1)
	if Chance(src, -0.5) {
		t.Error("negative probability should never fire")
	}
}

func TestPick_CoversAllItems(t *testing.T) {
	src := New(42)
	items := []string{"a", "b", "c"}
	seen := make(map[string]bool)
	for range 1000 {
		seen[Pick(src, items)] = true
	}
	for _, item := range items {
		if !seen[item] {
			t.Errorf("item %q never picked in 1000 draws", item)
		}
	}
}

func TestIntBetween_StaysInRange(t *testing.T) {
	src := New(7)
	for range 1000 {
		v := IntBetween(src, 1, 50)
		if v < 1 || v > 50 {
			t.Fatalf("IntBetween(1, 50) = %d, out of range", v)
		}
	}
}

func TestIntBetween_SingleValue(t *testing.T) {
	src := New(7)
	if v := IntBetween(src, 5, 5); v != 5 {
		t.Errorf("IntBetween(5, 5) = %d, want 5", v)
	}
}

func TestNew_SameSeedSameSequence(t *testing.T) {
	a := New(99)
	b := New(99)
	for i := range 50 {
		if a.Intn(1000) != b.Intn(1000) {
			t.Fatalf("sequences diverged at draw %d", i)
		}
	}
}
