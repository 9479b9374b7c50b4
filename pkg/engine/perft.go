package engine

// Perft counts the leaves of the legal move tree of the given depth. Draw
// rules are ignored, as is customary.
func Perft[M comparable](pos Position[M], depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := pos.LegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	nodes := uint64(0)
	for _, mv := range moves {
		pos.Push(mv)
		nodes += Perft(pos, depth-1)
		pos.Pop()
	}
	return nodes
}

// PerftDivide returns the perft count below each root move, in generation order
func PerftDivide[M comparable](pos Position[M], depth int) ([]M, []uint64) {
	moves := pos.LegalMoves()
	counts := make([]uint64, len(moves))
	for i, mv := range moves {
		pos.Push(mv)
		counts[i] = Perft(pos, depth-1)
		pos.Pop()
	}
	return moves, counts
}
