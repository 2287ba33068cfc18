package weights

import "errors"

// Sentinel errors for weights operations.
var (
	// ErrInvalidDimensions indicates a lattice with a non-positive side.
	ErrInvalidDimensions = errors.New("weights: lattice rows and cols must be positive")
	// ErrUnknownTransform indicates an unsupported weight transformation.
	ErrUnknownTransform = errors.New("weights: unknown transformation")
	// ErrUnitIndex indicates a unit id outside [0, n).
	ErrUnitIndex = errors.New("weights: unit id out of range")
)

// Rule selects the contiguity criterion.
type Rule int

const (
	// Rook treats cells sharing an edge as neighbors.
	Rook Rule = iota
	// Queen treats cells sharing an edge or a corner as neighbors.
	Queen
)

// String returns the criterion name.
func (r Rule) String() string {
	if r == Queen {
		return "QUEEN"
	}
	return "ROOK"
}

// Scheme names a weight transformation.
type Scheme string

const (
	// Original keeps the weights the W was built with.
	Original Scheme = "O"
	// Binary sets every weight to 1.
	Binary Scheme = "B"
	// RowStandardized scales each unit's weights to sum to 1.
	RowStandardized Scheme = "R"
	// DoubleStandardized scales all weights so their total is n.
	DoubleStandardized Scheme = "D"
)

// Bin is one histogram entry: Count units have Cardinality neighbors.
type Bin struct {
	Cardinality int
	Count       int
}

// Pair is an ordered (i, j) unit pair.
type Pair struct {
	I, J int
}

// W holds neighbor ids and their weights for n spatial units.
// It is immutable once built; Transform returns a new W.
type W struct {
	// N is the number of spatial units.
	N int
	// Rows and Cols are the lattice dimensions the W was built from.
	Rows, Cols int
	// Rule is the contiguity criterion used.
	Rule Rule
	// Neighbors[i] lists the unit ids adjacent to unit i.
	Neighbors [][]int
	// Weights[i][k] is the weight of Neighbors[i][k].
	Weights [][]float64
	// Scheme is the transformation applied to the weights.
	Scheme Scheme

	original [][]float64
}
