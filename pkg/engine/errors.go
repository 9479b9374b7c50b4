package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrGameOver is returned when asked for a move in a finished game
	ErrGameOver = errors.New("game is over")
	// ErrAborted is returned when a search is cancelled before completing a depth
	ErrAborted = errors.New("search aborted")
	// ErrInvalidBudget is returned for a budget without a depth or time limit
	ErrInvalidBudget = errors.New("invalid search budget")
)

// GameOverError carries the terminal status of the root position
type GameOverError struct {
	Status Status
}

func (e *GameOverError) Error() string {
	return fmt.Sprintf("game is over: %v", e.Status)
}

func (e *GameOverError) Unwrap() error {
	return ErrGameOver
}
