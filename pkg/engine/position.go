package engine

// Status is the game state of a position
type Status uint8

const (
	Ongoing Status = iota
	Checkmate
	Stalemate
	Draw // Draw by rule: repetition, fifty moves, insufficient material
)

// Terminal reports whether the game is over
func (s Status) Terminal() bool {
	return s != Ongoing
}

func (s Status) String() string {
	switch s {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	}
	return "unknown"
}

// Position is the board state the search walks. It is mutated by Push and
// restored by Pop; the search leaves it exactly as it found it.
type Position[M comparable] interface {
	// LegalMoves returns the moves of the side to move in a fixed generation order
	LegalMoves() []M
	// Push plays a move obtained from LegalMoves
	Push(m M)
	// Pop takes back the last pushed move
	Pop()
	// Status reports whether the game is over in this position
	Status() Status
	// Key identifies the position; equal positions have equal keys
	Key() uint64
	WhiteToMove() bool
	IsCapture(m M) bool
	IsPromotion(m M) bool
	GivesCheck(m M) bool
}

// Evaluator scores a position statically, positive when White is better.
// It must be deterministic for a given position.
type Evaluator[P any] interface {
	Evaluate(pos P) (Score, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface
type EvaluatorFunc[P any] func(pos P) (Score, error)

// Evaluate calls f(pos)
func (f EvaluatorFunc[P]) Evaluate(pos P) (Score, error) {
	return f(pos)
}
