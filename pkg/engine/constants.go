package engine

// Score is a position value in centipawns, positive when White is better
type Score int32

const (
	// MaxScore is bigger than any score reachable in a search
	MaxScore = Score(32000)
	// MinScore is smaller than any score reachable in a search
	MinScore = -MaxScore
	// Mate is the score of a checkmate on the board at the root
	Mate = Score(30000)
	// DrawScore is the score of stalemate and of draws by rule
	DrawScore = Score(0)
	// MaxPly bounds the distance from the root, quiescence included
	MaxPly = 256
	// MateThreshold is the smallest magnitude of a forced mate score
	MateThreshold = Mate - MaxPly
	// MaxEval is the largest magnitude a static evaluation may take
	MaxEval = MateThreshold - 1
	// maxSearchDepth caps iterative deepening when only a time limit is given
	maxSearchDepth = 64
)

// MateScore returns the White-positive score of a checkmate found ply half
// moves from the root. Closer mates score more extreme.
func MateScore(ply int, whiteMated bool) Score {
	s := Mate - Score(ply)
	if whiteMated {
		return -s
	}
	return s
}

// IsMate reports whether the score is a forced mate
func IsMate(s Score) bool {
	return abs(s) >= MateThreshold
}

// MateIn returns the number of half moves to the mate encoded in s
func MateIn(s Score) int {
	return int(Mate - abs(s))
}

// terminalScore scores a finished game from White's perspective
func terminalScore(status Status, whiteToMove bool, ply int) Score {
	if status == Checkmate {
		return MateScore(ply, whiteToMove)
	}
	return DrawScore
}

// toTable makes a mate score relative to the node it is stored for
func toTable(s Score, ply int) int32 {
	switch {
	case s >= MateThreshold:
		s += Score(ply)
	case s <= -MateThreshold:
		s -= Score(ply)
	}
	return int32(s)
}

// fromTable anchors a stored mate score back to the root
func fromTable(v int32, ply int) Score {
	s := Score(v)
	switch {
	case s >= MateThreshold:
		s -= Score(ply)
	case s <= -MateThreshold:
		s += Score(ply)
	}
	return s
}
