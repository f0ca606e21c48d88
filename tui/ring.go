package tui

// Ring is a fixed-capacity FIFO of waterfall rows. Pushing at capacity
// evicts the oldest row, which bounds memory regardless of run length.
type Ring struct {
	rows  [][]float64
	start int // index of the oldest row
	n     int
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{rows: make([][]float64, capacity)}
}

func (r *Ring) Cap() int { return len(r.rows) }

func (r *Ring) Len() int { return r.n }

// Push appends a row, evicting the oldest when full.
func (r *Ring) Push(row []float64) {
	if r.n < len(r.rows) {
		r.rows[(r.start+r.n)%len(r.rows)] = row
		r.n++
		return
	}
	r.rows[r.start] = row
	r.start = (r.start + 1) % len(r.rows)
}

// Row returns the i-th row counting back from the newest: Row(0) is the
// most recent push, Row(Len()-1) the oldest retained.
func (r *Ring) Row(i int) []float64 {
	if i < 0 || i >= r.n {
		return nil
	}
	idx := (r.start + r.n - 1 - i) % len(r.rows)
	return r.rows[idx]
}

// Resize changes the capacity, keeping the newest rows. Used when the
// terminal is resized.
func (r *Ring) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == len(r.rows) {
		return
	}
	keep := r.n
	if keep > capacity {
		keep = capacity
	}
	rows := make([][]float64, capacity)
	for i := 0; i < keep; i++ {
		// Oldest of the kept rows first.
		rows[i] = r.Row(keep - 1 - i)
	}
	r.rows = rows
	r.start = 0
	r.n = keep
}
