package engine

import (
	"context"
	"fmt"
	"testing"
)

// Moves of the lattice game
const (
	stepA = iota
	stepB
	stepBoth
)

type latticeState struct {
	a, b, n int
}

// lattice is a game on two counters. Each move raises a, b or both, so
// a-then-b and b-then-a reach the same position through different windows.
// The key includes the number of moves played: only lines of equal length
// transpose, so a table hit is always at the depth a fixed-depth search
// would use.
type lattice struct {
	size  int
	seed  uint64
	stack []latticeState
}

func newLattice(seed int64, size int) *lattice {
	return &lattice{size: size, seed: uint64(seed), stack: []latticeState{{}}}
}

func (l *lattice) cur() latticeState {
	return l.stack[len(l.stack)-1]
}

// mix is splitmix64 over the state and the seed
func (l *lattice) mix(salt uint64) uint64 {
	z := l.Key() ^ l.seed*0x9e3779b97f4a7c15 ^ salt
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (l *lattice) LegalMoves() []int {
	if l.Status().Terminal() {
		return nil
	}
	s := l.cur()
	var moves []int
	if s.a < l.size {
		moves = append(moves, stepA)
	}
	if s.b < l.size {
		moves = append(moves, stepB)
	}
	if s.a < l.size && s.b < l.size {
		moves = append(moves, stepBoth)
	}
	return moves
}

func (l *lattice) Push(m int) {
	s := l.cur()
	switch {
	case m == stepA && s.a < l.size:
		s.a++
	case m == stepB && s.b < l.size:
		s.b++
	case m == stepBoth && s.a < l.size && s.b < l.size:
		s.a++
		s.b++
	default:
		panic(fmt.Sprintf("lattice: illegal move %d at %+v", m, s))
	}
	s.n++
	l.stack = append(l.stack, s)
}

func (l *lattice) Pop() {
	if len(l.stack) <= 1 {
		panic("lattice: pop at root")
	}
	l.stack = l.stack[:len(l.stack)-1]
}

func (l *lattice) Status() Status {
	s := l.cur()
	if s.a == l.size && s.b == l.size {
		return Stalemate
	}
	if s.n >= 2 && l.mix(1)%9 == 0 {
		return Checkmate
	}
	return Ongoing
}

func (l *lattice) Key() uint64 {
	s := l.cur()
	return uint64(s.a) | uint64(s.b)<<8 | uint64(s.n)<<16
}

func (l *lattice) WhiteToMove() bool { return l.cur().n%2 == 0 }
func (l *lattice) IsCapture(m int) bool { return m == stepBoth }
func (l *lattice) IsPromotion(m int) bool { return m == stepA && l.cur().a+1 == l.size }
func (l *lattice) GivesCheck(m int) bool { return m == stepB }

type latticeValue struct{}

func (latticeValue) Evaluate(l *lattice) (Score, error) {
	return Score(l.mix(2)%801) - 400, nil
}

// fullMinimax searches every line to depth and every capture and promotion
// beyond it, with no pruning and no table
func fullMinimax(l *lattice, depth int, ply int) Score {
	if status := l.Status(); status.Terminal() {
		return terminalScore(status, l.WhiteToMove(), ply)
	}
	if depth == 0 {
		v := fullQuiesce(l, ply)
		if !l.WhiteToMove() {
			v = -v
		}
		return v
	}
	white := l.WhiteToMove()
	best := MaxScore
	if white {
		best = MinScore
	}
	for _, m := range l.LegalMoves() {
		l.Push(m)
		v := fullMinimax(l, depth-1, ply+1)
		l.Pop()
		if (white && v > best) || (!white && v < best) {
			best = v
		}
	}
	return best
}

func fullQuiesce(l *lattice, ply int) Score {
	if status := l.Status(); status.Terminal() {
		if status == Checkmate {
			return -(Mate - Score(ply))
		}
		return DrawScore
	}
	best, _ := latticeValue{}.Evaluate(l)
	if !l.WhiteToMove() {
		best = -best
	}
	for _, m := range l.LegalMoves() {
		if !l.IsCapture(m) && !l.IsPromotion(m) {
			continue
		}
		l.Push(m)
		v := -fullQuiesce(l, ply+1)
		l.Pop()
		if v > best {
			best = v
		}
	}
	return best
}

// latticeReference returns the first root move in search order with the
// minimax value
func latticeReference(l *lattice, depth int) (int, Score) {
	white := l.WhiteToMove()
	bestMove, best := -1, MaxScore
	if white {
		best = MinScore
	}
	for _, m := range OrderMoves[int](l, l.LegalMoves()) {
		l.Push(m)
		v := fullMinimax(l, depth-1, 1)
		l.Pop()
		if (white && v > best) || (!white && v < best) {
			bestMove, best = m, v
		}
	}
	return bestMove, best
}

func TestTranspositionsMatchMinimax(t *testing.T) {
	var hits, hashMoves uint64
	for seed := int64(1); seed <= 40; seed++ {
		l := newLattice(seed, 4)
		for depth := 1; depth <= 6; depth++ {
			wantMove, wantScore := latticeReference(l, depth)

			e := New[*lattice, int](latticeValue{}, nil, quietOptions())
			res, err := e.Search(context.Background(), l, depth)
			if err != nil {
				t.Fatal(err)
			}
			if res.Score != wantScore || res.Move != wantMove {
				t.Errorf("seed %d depth %d: search (%d, %d), minimax (%d, %d)",
					seed, depth, res.Move, res.Score, wantMove, wantScore)
			}
			hits += e.Table().Stats().Hits

			// Earlier iterations leave bounds and hash moves behind
			e = New[*lattice, int](latticeValue{}, nil, quietOptions())
			sel, err := e.SelectMove(context.Background(), l, Budget{MaxDepth: depth})
			if err != nil {
				t.Fatal(err)
			}
			refMove, refScore := wantMove, wantScore
			if sel.Depth != depth {
				refMove, refScore = latticeReference(l, sel.Depth)
			}
			if sel.Score != refScore || sel.Move != refMove {
				t.Errorf("seed %d depth %d: driver (%d, %d) at depth %d, minimax (%d, %d)",
					seed, depth, sel.Move, sel.Score, sel.Depth, refMove, refScore)
			}
			hits += e.Table().Stats().Hits
			hashMoves += e.Stats().HashMoves

			if len(l.stack) != 1 {
				t.Fatalf("seed %d depth %d: position not restored", seed, depth)
			}
		}
	}
	if hits == 0 {
		t.Fatal("no transposed position was found in the table")
	}
	if hashMoves == 0 {
		t.Fatal("no hash move was tried first")
	}
}
