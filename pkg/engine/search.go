package engine

import (
	"context"
	"fmt"
	"math/rand"

	"mimir/pkg/transposition"
)

// SearchResult is the outcome of a fixed-depth search. Only the root's move
// is meaningful to callers.
type SearchResult[M comparable] struct {
	Score   Score
	Move    M
	HasMove bool
	Nodes   uint64
}

// search is the mutable state of one search call. Nothing in it outlives
// the call except what is written to the table and the evaluation cache.
type search[P Position[M], M comparable] struct {
	ctx           context.Context
	pos           P
	eval          Evaluator[P]
	table         *transposition.Table[M]
	evals         *evalCache
	rng           *rand.Rand
	checkInterval uint64
	stats         Stats
}

// node is what alphaBeta returns for one position
type node[M comparable] struct {
	score Score
	move  M
	ok    bool
}

// enter counts a node and polls for cancellation every checkInterval nodes
func (s *search[P, M]) enter() error {
	s.stats.Nodes++
	if s.stats.Nodes%s.checkInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrAborted, err)
		}
	}
	return nil
}

// evaluate returns the clamped static evaluation of the current position
func (s *search[P, M]) evaluate(key uint64) (Score, error) {
	if v, ok := s.evals.get(key); ok {
		s.stats.EvalCacheHits++
		return v, nil
	}
	v, err := s.eval.Evaluate(s.pos)
	if err != nil {
		return 0, fmt.Errorf("evaluate: %w", err)
	}
	s.stats.Evaluations++
	v = clamp(v, -MaxEval, MaxEval)
	s.evals.put(key, v)
	return v, nil
}

// alphaBeta searches the current position to depth with the White-positive
// window (alpha, beta). White maximizes, Black minimizes. On error the
// position has been restored and nothing was stored for this node.
func (s *search[P, M]) alphaBeta(depth int, ply int, maximizing bool, alpha Score, beta Score) (node[M], error) {
	if err := s.enter(); err != nil {
		return node[M]{}, err
	}
	if status := s.pos.Status(); status.Terminal() {
		return node[M]{score: terminalScore(status, maximizing, ply)}, nil
	}
	if depth <= 0 || ply >= MaxPly {
		score, err := s.horizon(alpha, beta, ply, maximizing)
		return node[M]{score: score}, err
	}

	key := s.pos.Key()
	if entry, ok := s.table.Lookup(key, depth); ok && (ply > 0 || entry.HasMove) {
		entry.Score = int32(fromTable(entry.Score, ply))
		if v, ok := entry.Cutoff(int32(alpha), int32(beta)); ok {
			s.stats.TTCutoffs++
			return node[M]{score: Score(v), move: entry.Move, ok: entry.HasMove}, nil
		}
	}

	moves := s.pos.LegalMoves()
	if len(moves) == 0 {
		panic("engine: ongoing position without legal moves")
	}
	OrderMoves[M](s.pos, moves)
	// The root keeps its plain order so that ties resolve the same way with
	// or without a warm table.
	if ply > 0 {
		if entry, ok := s.table.Probe(key); ok && entry.HasMove && promote(moves, entry.Move) {
			s.stats.HashMoves++
		}
	}

	alphaOrig, betaOrig := alpha, beta
	var best node[M]
	if maximizing {
		best.score = MinScore
		for _, mv := range moves {
			s.pos.Push(mv)
			child, err := s.alphaBeta(depth-1, ply+1, false, alpha, beta)
			s.pos.Pop()
			if err != nil {
				return node[M]{}, err
			}
			if child.score > best.score {
				best = node[M]{score: child.score, move: mv, ok: true}
			}
			alpha = maxOf(alpha, best.score)
			if beta <= alpha {
				s.stats.BetaCutoffs++
				break
			}
		}
		if !best.ok {
			best.move, best.ok = moves[0], true
		}
	} else {
		best.score = MaxScore
		for _, mv := range moves {
			s.pos.Push(mv)
			child, err := s.alphaBeta(depth-1, ply+1, true, alpha, beta)
			s.pos.Pop()
			if err != nil {
				return node[M]{}, err
			}
			if child.score < best.score {
				best = node[M]{score: child.score, move: mv, ok: true}
			}
			beta = minOf(beta, best.score)
			if beta <= alpha {
				s.stats.BetaCutoffs++
				break
			}
		}
		if !best.ok {
			best.move, best.ok = moves[s.rng.Intn(len(moves))], true
		}
	}

	bound := transposition.Exact
	switch {
	case best.score <= alphaOrig:
		bound = transposition.UpperBound
	case best.score >= betaOrig:
		bound = transposition.LowerBound
	}
	s.table.Store(transposition.Entry[M]{
		Key:     key,
		Depth:   depth,
		Score:   toTable(best.score, ply),
		Bound:   bound,
		Move:    best.move,
		HasMove: true,
	})
	return best, nil
}

// horizon runs the quiescence search and converts its result to White's perspective
func (s *search[P, M]) horizon(alpha Score, beta Score, ply int, maximizing bool) (Score, error) {
	if maximizing {
		return s.quiesce(alpha, beta, ply)
	}
	v, err := s.quiesce(-beta, -alpha, ply)
	return -v, err
}
