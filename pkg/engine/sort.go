package engine

import "sort"

// Move classes, searched from highest to lowest
const (
	classQuiet = iota
	classCheck
	classCapture
	classPromotion
)

func moveClass[M comparable](pos Position[M], m M) int {
	if pos.IsPromotion(m) {
		return classPromotion
	}
	if pos.IsCapture(m) {
		return classCapture
	}
	if pos.GivesCheck(m) {
		return classCheck
	}
	return classQuiet
}

type byPriority[M comparable] struct {
	moves   []M
	classes []int
}

func (a byPriority[M]) Len() int { return len(a.moves) }
func (a byPriority[M]) Swap(i, j int) {
	a.moves[i], a.moves[j] = a.moves[j], a.moves[i]
	a.classes[i], a.classes[j] = a.classes[j], a.classes[i]
}
func (a byPriority[M]) Less(i, j int) bool { return a.classes[i] > a.classes[j] }

// OrderMoves sorts moves in place so that promotions come first, then
// captures, then checks, then quiet moves. Moves of the same class keep
// their generation order.
func OrderMoves[M comparable](pos Position[M], moves []M) []M {
	sorter := byPriority[M]{moves: moves, classes: make([]int, len(moves))}
	for i, m := range moves {
		sorter.classes[i] = moveClass[M](pos, m)
	}
	sort.Stable(sorter)
	return moves
}

// promote moves m to the front, shifting the moves before it back by one.
// It reports whether m was found.
func promote[M comparable](moves []M, m M) bool {
	for i, mv := range moves {
		if mv == m {
			copy(moves[1:i+1], moves[:i])
			moves[0] = m
			return true
		}
	}
	return false
}
