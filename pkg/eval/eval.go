// Package eval holds static evaluators for chess positions. Scores are in
// centipawns and positive when White is better.
package eval

import (
	"sync/atomic"

	"mimir/pkg/engine"
)

// Piece is a piece kind independent of the board representation
type Piece uint8

const (
	NoPiece Piece = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// Board is implemented by positions that can list their pieces. Squares are
// numbered 0 (a1) to 63 (h8), rank by rank.
type Board interface {
	ForEachPiece(fn func(sq int, p Piece, white bool))
}

// materialValues is the stand-in piece value table, indexed by Piece
var materialValues = [7]engine.Score{0, 100, 300, 300, 500, 900, 0}

// Material scores a position by counting material only
type Material[P Board] struct{}

// Evaluate returns White's material minus Black's
func (Material[P]) Evaluate(pos P) (engine.Score, error) {
	score := engine.Score(0)
	pos.ForEachPiece(func(sq int, p Piece, white bool) {
		if white {
			score += materialValues[p]
		} else {
			score -= materialValues[p]
		}
	})
	return score, nil
}

// Counter wraps an evaluator and counts its calls. Safe for concurrent use
// if the wrapped evaluator is.
type Counter[P any] struct {
	Inner engine.Evaluator[P]
	calls atomic.Uint64
}

// Evaluate forwards to the wrapped evaluator
func (c *Counter[P]) Evaluate(pos P) (engine.Score, error) {
	c.calls.Add(1)
	return c.Inner.Evaluate(pos)
}

// Calls returns the number of evaluations so far
func (c *Counter[P]) Calls() uint64 {
	return c.calls.Load()
}
