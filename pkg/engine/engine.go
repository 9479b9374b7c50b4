package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"mimir/pkg/transposition"
)

// DefaultCheckInterval is the number of nodes between two cancellation checks
const DefaultCheckInterval = 1024

// DefaultEvalCacheSize is the number of static evaluations kept between searches
const DefaultEvalCacheSize = 1 << 18

// DepthInfo reports a completed iteration of the driver
type DepthInfo struct {
	Depth   int
	Score   Score
	Nodes   uint64
	Elapsed time.Duration
}

// Options configures an Engine. Zero fields take their defaults.
type Options struct {
	CheckInterval int             // Nodes between cancellation checks
	EvalCacheSize int             // Static evaluations memoized across searches, negative disables
	Logger        *zerolog.Logger // Defaults to the global zerolog logger
	Rand          *rand.Rand      // Source for the minimizing fallback move
	OnDepth       func(DepthInfo) // Called after every completed depth
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		CheckInterval: DefaultCheckInterval,
		EvalCacheSize: DefaultEvalCacheSize,
	}
}

// Budget bounds one call to SelectMove
type Budget struct {
	MaxDepth  int           // Deepest iteration, 0 means bounded by time only
	TimeLimit time.Duration // Wall clock budget, 0 means bounded by depth only
	Start     time.Time     // Defaults to the time SelectMove is called
}

// NewBudget returns a budget starting now
func NewBudget(depth int, limit time.Duration) Budget {
	return Budget{MaxDepth: depth, TimeLimit: limit, Start: time.Now()}
}

// Result is the answer of the iterative deepening driver
type Result[M comparable] struct {
	Move    M
	Score   Score
	Depth   int // Last fully completed depth
	Nodes   uint64
	PV      []M
	Elapsed time.Duration
}

// Engine selects moves for positions of type P. It owns no board state; the
// position is borrowed for the duration of each call. An Engine must not be
// used by more than one goroutine at a time.
type Engine[P Position[M], M comparable] struct {
	eval  Evaluator[P]
	table *transposition.Table[M]
	evals *evalCache
	opts  Options
	log   zerolog.Logger
	rng   *rand.Rand
	pvt   *PVT[M]
	stats Stats
}

// New returns an engine scoring with eval and caching into table. The table
// may be shared with later engines; clearing it is the caller's decision.
func New[P Position[M], M comparable](eval Evaluator[P], table *transposition.Table[M], opts Options) *Engine[P, M] {
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = DefaultCheckInterval
	}
	if opts.EvalCacheSize == 0 {
		opts.EvalCacheSize = DefaultEvalCacheSize
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if table == nil {
		table = transposition.New[M](transposition.Config{Policy: transposition.DepthPreferred})
	}
	return &Engine[P, M]{
		eval:  eval,
		table: table,
		evals: newEvalCache(opts.EvalCacheSize),
		opts:  opts,
		log:   logger.With().Str("component", "engine").Logger(),
		rng:   rng,
		pvt:   NewPVT[M](),
	}
}

// Table returns the transposition table the engine writes to
func (e *Engine[P, M]) Table() *transposition.Table[M] {
	return e.table
}

// NodesExplored returns the number of nodes visited by the last search
func (e *Engine[P, M]) NodesExplored() uint64 {
	return e.stats.Nodes
}

// Stats returns the counters of the last search
func (e *Engine[P, M]) Stats() Stats {
	return e.stats
}

// PV returns the principal variation of the deepest completed iteration of
// the last SelectMove call. Safe to call while a search is running.
func (e *Engine[P, M]) PV() ([]M, int) {
	return e.pvt.GetPV()
}

// ClearCaches drops the transposition table and the evaluation cache
func (e *Engine[P, M]) ClearCaches() {
	e.table.Clear()
	e.evals = newEvalCache(e.opts.EvalCacheSize)
}

func (e *Engine[P, M]) newSearch(ctx context.Context, pos P) *search[P, M] {
	return &search[P, M]{
		ctx:           ctx,
		pos:           pos,
		eval:          e.eval,
		table:         e.table,
		evals:         e.evals,
		rng:           e.rng,
		checkInterval: uint64(e.opts.CheckInterval),
	}
}

// Search runs a single alpha-beta search of pos to depth with an infinite
// window. It returns a GameOverError if pos is terminal.
func (e *Engine[P, M]) Search(ctx context.Context, pos P, depth int) (SearchResult[M], error) {
	if status := pos.Status(); status.Terminal() {
		return SearchResult[M]{}, &GameOverError{Status: status}
	}
	depth = maxOf(depth, 1)
	s := e.newSearch(ctx, pos)
	n, err := s.alphaBeta(depth, 0, pos.WhiteToMove(), MinScore, MaxScore)
	e.stats = s.stats
	if err != nil {
		return SearchResult[M]{Nodes: s.stats.Nodes}, err
	}
	return SearchResult[M]{Score: n.score, Move: n.move, HasMove: n.ok, Nodes: s.stats.Nodes}, nil
}

// SelectMove searches pos with iterative deepening until the budget runs
// out and returns the best move of the last completed depth. Depth 1 always
// completes; deeper iterations are abandoned when the deadline passes.
func (e *Engine[P, M]) SelectMove(ctx context.Context, pos P, budget Budget) (Result[M], error) {
	if budget.MaxDepth <= 0 && budget.TimeLimit <= 0 {
		return Result[M]{}, fmt.Errorf("%w: no depth or time limit", ErrInvalidBudget)
	}
	if status := pos.Status(); status.Terminal() {
		return Result[M]{}, &GameOverError{Status: status}
	}
	if budget.Start.IsZero() {
		budget.Start = time.Now()
	}
	maxDepth := budget.MaxDepth
	if maxDepth <= 0 || maxDepth > maxSearchDepth {
		maxDepth = maxSearchDepth
	}
	deadline := ctx
	if budget.TimeLimit > 0 {
		var cancel context.CancelFunc
		deadline, cancel = context.WithDeadline(ctx, budget.Start.Add(budget.TimeLimit))
		defer cancel()
	}

	e.pvt.Reset()
	s := e.newSearch(ctx, pos)
	defer func() { e.stats = s.stats }()
	maximizing := pos.WhiteToMove()

	var res Result[M]
	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 {
			if budget.TimeLimit > 0 && time.Since(budget.Start) >= budget.TimeLimit {
				break
			}
			if deadline.Err() != nil {
				break
			}
			s.ctx = deadline
		}
		n, err := s.alphaBeta(depth, 0, maximizing, MinScore, MaxScore)
		if err != nil {
			if errors.Is(err, ErrAborted) && res.Depth > 0 {
				e.log.Warn().Int("depth", depth).Uint64("nodes", s.stats.Nodes).Msg("depth abandoned")
				break
			}
			return res, err
		}
		if !n.ok {
			panic("engine: root search returned no move")
		}
		res.Move, res.Score, res.Depth = n.move, n.score, depth
		res.PV = e.principalVariation(pos, n.move, depth)
		e.pvt.Update(res.PV, depth)

		elapsed := time.Since(budget.Start)
		e.log.Debug().
			Int("depth", depth).
			Int32("score", int32(n.score)).
			Uint64("nodes", s.stats.Nodes).
			Dur("elapsed", elapsed).
			Interface("pv", res.PV).
			Msg("depth complete")
		if e.opts.OnDepth != nil {
			e.opts.OnDepth(DepthInfo{Depth: depth, Score: n.score, Nodes: s.stats.Nodes, Elapsed: elapsed})
		}
		if IsMate(n.score) && MateIn(n.score) <= depth {
			break
		}
	}

	res.Nodes = s.stats.Nodes
	res.Elapsed = time.Since(budget.Start)
	ev := e.log.Info().
		Interface("move", res.Move).
		Int32("score", int32(res.Score)).
		Bool("mate", IsMate(res.Score))
	if IsMate(res.Score) {
		ev = ev.Int("mateIn", MateIn(res.Score))
	}
	ev.Int("depth", res.Depth).
		Uint64("nodes", res.Nodes).
		Uint64("qnodes", s.stats.QNodes).
		Uint64("evals", s.stats.Evaluations).
		Uint64("ttCutoffs", s.stats.TTCutoffs).
		Uint64("hashMoves", s.stats.HashMoves).
		Int("evalCache", e.evals.len()).
		Dur("elapsed", res.Elapsed).
		Msg("move selected")
	return res, nil
}

// principalVariation follows the table's best moves from the root, starting
// with the root move the search returned
func (e *Engine[P, M]) principalVariation(pos P, first M, depth int) []M {
	pv := []M{first}
	seen := map[uint64]bool{pos.Key(): true}
	pos.Push(first)
	pushed := 1
	for len(pv) < depth && !pos.Status().Terminal() && !seen[pos.Key()] {
		seen[pos.Key()] = true
		entry, ok := e.table.Probe(pos.Key())
		if !ok || !entry.HasMove || !lo.Contains(pos.LegalMoves(), entry.Move) {
			break
		}
		pv = append(pv, entry.Move)
		pos.Push(entry.Move)
		pushed++
	}
	for ; pushed > 0; pushed-- {
		pos.Pop()
	}
	return pv
}
