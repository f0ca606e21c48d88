package tui

import "testing"

func TestRingEvictsOldestAtCapacity(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 5; i++ {
		r.Push([]float64{float64(i)})
	}
	if got := r.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	// Newest first: pushes 4, 3, 2 survive, 0 and 1 are gone.
	for i, want := range []float64{4, 3, 2} {
		if got := r.Row(i)[0]; got != want {
			t.Errorf("Row(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestRingRowOutOfRange(t *testing.T) {
	r := NewRing(4)
	r.Push([]float64{1})
	if got := r.Row(1); got != nil {
		t.Errorf("Row(1) = %v, want nil", got)
	}
	if got := r.Row(-1); got != nil {
		t.Errorf("Row(-1) = %v, want nil", got)
	}
}

func TestRingResizeKeepsNewest(t *testing.T) {
	r := NewRing(5)
	for i := 0; i < 5; i++ {
		r.Push([]float64{float64(i)})
	}
	r.Resize(2)
	if got := r.Cap(); got != 2 {
		t.Fatalf("Cap() = %d, want 2", got)
	}
	for i, want := range []float64{4, 3} {
		if got := r.Row(i)[0]; got != want {
			t.Errorf("after shrink, Row(%d) = %v, want %v", i, got, want)
		}
	}

	r.Resize(4)
	r.Push([]float64{9})
	for i, want := range []float64{9, 4, 3} {
		if got := r.Row(i)[0]; got != want {
			t.Errorf("after grow, Row(%d) = %v, want %v", i, got, want)
		}
	}
}
