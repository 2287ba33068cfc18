package weights

import "fmt"

// Transform returns a copy of w re-weighted by scheme. Every scheme is
// computed from the weights the W was originally built with.
// Returns ErrUnknownTransform for an unsupported scheme.
func (w *W) Transform(scheme Scheme) (*W, error) {
	weights := make([][]float64, w.N)

	switch scheme {
	case Original:
		for i, row := range w.original {
			weights[i] = append([]float64(nil), row...)
		}
	case Binary:
		for i, row := range w.original {
			weights[i] = make([]float64, len(row))
			for k := range row {
				weights[i][k] = 1
			}
		}
	case RowStandardized:
		for i, row := range w.original {
			var s float64
			for _, v := range row {
				s += v
			}
			weights[i] = make([]float64, len(row))
			if s == 0 {
				continue
			}
			for k, v := range row {
				weights[i][k] = v / s
			}
		}
	case DoubleStandardized:
		s0 := sumWeights(w.original)
		for i, row := range w.original {
			weights[i] = make([]float64, len(row))
			if s0 == 0 {
				continue
			}
			for k, v := range row {
				weights[i][k] = v * float64(w.N) / s0
			}
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransform, string(scheme))
	}

	neighbors := make([][]int, w.N)
	for i, ids := range w.Neighbors {
		neighbors[i] = append([]int(nil), ids...)
	}

	return &W{
		N:         w.N,
		Rows:      w.Rows,
		Cols:      w.Cols,
		Rule:      w.Rule,
		Neighbors: neighbors,
		Weights:   weights,
		Scheme:    scheme,
		original:  w.original,
	}, nil
}
