// Package weights builds spatial contiguity weights for a regular lattice of
// spatial units.
//
// What:
//
//   - Lattice builds a W for a rows×cols lattice under Rook (shared edge) or
//     Queen (shared edge or corner) adjacency.
//   - W stores, for every unit id in [0, n), an ordered neighbor list and a
//     parallel list of weights. Ids are row-major: id = row*cols + col.
//   - Derived views: cardinalities, histogram, sparsity, S0, islands.
//   - Transform re-weights a W (binary, row- or double-standardized).
//
// Neighbor order:
//
//   - Units are swept in id order. Each unit links forward to its south and
//     east neighbor, and under Queen to its south-east and south-west
//     neighbor; every link is appended to both endpoints. A 5×5 Rook lattice
//     gives neighbors[0] = [5 1] and neighbors[5] = [0 10 6].
//
// Complexity:
//
//   - Lattice: O(n×d) time and memory (d = 4 or 8).
//   - Full:    O(n²) memory.
//
// Errors:
//
//   - ErrInvalidDimensions: rows or cols is not positive.
//   - ErrUnknownTransform: Transform called with an unsupported scheme.
//   - ErrUnitIndex: unit id out of range.
package weights
