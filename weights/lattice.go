package weights

import "fmt"

// forward offsets as {dRow, dCol}, in the order links are appended.
var (
	rookOffsets  = [][2]int{{1, 0}, {0, 1}}
	queenOffsets = [][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
)

// Lattice builds the contiguity weights of a rows×cols lattice.
// Every neighbor gets weight 1.
// Returns ErrInvalidDimensions if rows or cols is not positive.
// Complexity: O(rows×cols×d).
func Lattice(rows, cols int, rule Rule) (*W, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: got %d×%d", ErrInvalidDimensions, rows, cols)
	}

	offsets := rookOffsets
	if rule == Queen {
		offsets = queenOffsets
	}

	n := rows * cols
	neighbors := make([][]int, n)
	for i := 0; i < n; i++ {
		r, c := i/cols, i%cols
		for _, d := range offsets {
			nr, nc := r+d[0], c+d[1]
			if nr < 0 || nr >= rows || nc < 0 || nc >= cols {
				continue
			}
			j := nr*cols + nc
			neighbors[i] = append(neighbors[i], j)
			neighbors[j] = append(neighbors[j], i)
		}
	}

	weights := make([][]float64, n)
	for i, ids := range neighbors {
		weights[i] = make([]float64, len(ids))
		for k := range weights[i] {
			weights[i][k] = 1
		}
	}

	return &W{
		N:         n,
		Rows:      rows,
		Cols:      cols,
		Rule:      rule,
		Neighbors: neighbors,
		Weights:   weights,
		Scheme:    Original,
		original:  weights,
	}, nil
}

// Index maps (row, col) to a unit id.
func (w *W) Index(row, col int) int {
	return row*w.Cols + col
}

// Coordinate converts a unit id back to (row, col).
func (w *W) Coordinate(id int) (row, col int) {
	return id / w.Cols, id % w.Cols
}

// NeighborsOf returns the neighbor ids and weights of unit id.
func (w *W) NeighborsOf(id int) ([]int, []float64, error) {
	if id < 0 || id >= w.N {
		return nil, nil, fmt.Errorf("%w: %d not in [0, %d)", ErrUnitIndex, id, w.N)
	}
	return w.Neighbors[id], w.Weights[id], nil
}

// Cardinalities returns the neighbor count of every unit.
func (w *W) Cardinalities() []int {
	card := make([]int, w.N)
	for i, ids := range w.Neighbors {
		card[i] = len(ids)
	}
	return card
}

// MinNeighbors returns the smallest cardinality.
func (w *W) MinNeighbors() int {
	card := w.Cardinalities()
	lo := card[0]
	for _, c := range card[1:] {
		if c < lo {
			lo = c
		}
	}
	return lo
}

// MaxNeighbors returns the largest cardinality.
func (w *W) MaxNeighbors() int {
	card := w.Cardinalities()
	hi := card[0]
	for _, c := range card[1:] {
		if c > hi {
			hi = c
		}
	}
	return hi
}

// MeanNeighbors returns the average cardinality.
func (w *W) MeanNeighbors() float64 {
	return float64(w.Nonzero()) / float64(w.N)
}

// Histogram counts units per cardinality, from MinNeighbors to MaxNeighbors
// inclusive. Cardinalities nobody has are kept with a zero count.
func (w *W) Histogram() []Bin {
	lo, hi := w.MinNeighbors(), w.MaxNeighbors()
	bins := make([]Bin, hi-lo+1)
	for i := range bins {
		bins[i].Cardinality = lo + i
	}
	for _, c := range w.Cardinalities() {
		bins[c-lo].Count++
	}
	return bins
}

// Nonzero returns the number of non-zero entries of the n×n weights matrix.
func (w *W) Nonzero() int {
	nz := 0
	for _, ids := range w.Neighbors {
		nz += len(ids)
	}
	return nz
}

// PctNonzero returns the fraction of non-zero entries in the n×n weights
// matrix.
func (w *W) PctNonzero() float64 {
	return float64(w.Nonzero()) / float64(w.N*w.N)
}

// S0 returns the sum of all weights.
func (w *W) S0() float64 {
	return sumWeights(w.Weights)
}

// Islands returns the ids of units without neighbors.
func (w *W) Islands() []int {
	var islands []int
	for i, ids := range w.Neighbors {
		if len(ids) == 0 {
			islands = append(islands, i)
		}
	}
	return islands
}

// Asymmetries returns the pairs (i, j) where w[i][j] != w[j][i].
// Complexity: O(n×d²).
func (w *W) Asymmetries() []Pair {
	var pairs []Pair
	for i, ids := range w.Neighbors {
		for k, j := range ids {
			if back, ok := w.weight(j, i); !ok || back != w.Weights[i][k] {
				pairs = append(pairs, Pair{I: i, J: j})
			}
		}
	}
	return pairs
}

// Full returns the dense n×n weights matrix.
// Complexity: O(n²) memory.
func (w *W) Full() [][]float64 {
	full := make([][]float64, w.N)
	for i := range full {
		full[i] = make([]float64, w.N)
		for k, j := range w.Neighbors[i] {
			full[i][j] = w.Weights[i][k]
		}
	}
	return full
}

// weight looks up w[i][j].
func (w *W) weight(i, j int) (float64, bool) {
	for k, id := range w.Neighbors[i] {
		if id == j {
			return w.Weights[i][k], true
		}
	}
	return 0, false
}

func sumWeights(weights [][]float64) float64 {
	var s float64
	for _, row := range weights {
		for _, v := range row {
			s += v
		}
	}
	return s
}
