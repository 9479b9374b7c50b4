package engine

import (
	"github.com/samber/lo"
)

// quiesce refines the score of a horizon position by searching captures and
// promotions until the position is quiet. Scores and the window are from the
// perspective of the side to move. The search fails hard.
func (s *search[P, M]) quiesce(alpha Score, beta Score, ply int) (Score, error) {
	if err := s.enter(); err != nil {
		return 0, err
	}
	s.stats.QNodes++
	s.stats.MaxQPly = maxOf(s.stats.MaxQPly, ply)

	if status := s.pos.Status(); status.Terminal() {
		if status == Checkmate {
			return -(Mate - Score(ply)), nil
		}
		return DrawScore, nil
	}

	static, err := s.evaluate(s.pos.Key())
	if err != nil {
		return 0, err
	}
	standingPat := static
	if !s.pos.WhiteToMove() {
		standingPat = -static
	}
	if standingPat >= beta {
		return beta, nil
	}
	if alpha < standingPat {
		alpha = standingPat
	}
	if ply >= MaxPly {
		return alpha, nil
	}

	tactical := lo.Filter(s.pos.LegalMoves(), func(mv M, _ int) bool {
		return s.pos.IsCapture(mv) || s.pos.IsPromotion(mv)
	})
	for _, mv := range OrderMoves[M](s.pos, tactical) {
		s.pos.Push(mv)
		ev, err := s.quiesce(-beta, -alpha, ply+1)
		s.pos.Pop()
		if err != nil {
			return 0, err
		}
		ev = -ev
		if ev >= beta {
			return beta, nil
		}
		if ev > alpha {
			alpha = ev
		}
	}
	return alpha, nil
}
