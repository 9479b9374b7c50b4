package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/buger/goterm"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"mimir/pkg/chessboard"
	"mimir/pkg/dragonboard"
	"mimir/pkg/engine"
	"mimir/pkg/eval"
	"mimir/pkg/transposition"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write a cpu profile into this directory")
	depth      = flag.Int("depth", 5, "search depth per position")
	limit      = flag.Duration("time", 0, "time limit per position, 0 for depth only")
	perft      = flag.Int("perft", 0, "run perft to this depth instead of searching")
	verbose    = flag.Bool("v", false, "log every completed depth")
)

// suite mixes quiet, tactical and endgame positions
var suite = []string{
	chessboard.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4",
	"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
	"5B2/PP1k2P1/p3pr1p/7p/1p2p3/8/3K2Rn/4r3 w - - 0 1",
}

type row struct {
	backend string
	fen     string
	move    string
	score   engine.Score
	depth   int
	nodes   uint64
	evals   uint64
	elapsed time.Duration
}

// runner searches or counts the whole suite on one backend
type runner func(ctx context.Context) ([]row, error)

func searchSuite[P engine.Position[M], M comparable](
	backend string,
	open func(fen string) (P, error),
	ev engine.Evaluator[P],
	name func(M) string,
) runner {
	return func(ctx context.Context) ([]row, error) {
		logger := log.With().Str("backend", backend).Logger()
		opts := engine.DefaultOptions()
		opts.Logger = &logger
		table := transposition.New[M](transposition.Config{Policy: transposition.DepthPreferred})
		counter := &eval.Counter[P]{Inner: ev}
		eng := engine.New[P, M](counter, table, opts)
		rows := make([]row, 0, len(suite))
		for _, fen := range suite {
			pos, err := open(fen)
			if err != nil {
				return nil, err
			}
			eng.ClearCaches()
			table.ResetStats()
			calls := counter.Calls()
			res, err := eng.SelectMove(ctx, pos, engine.NewBudget(*depth, *limit))
			if err != nil {
				return nil, fmt.Errorf("%s %q: %w", backend, fen, err)
			}
			rows = append(rows, row{
				backend: backend,
				fen:     fen,
				move:    name(res.Move),
				score:   res.Score,
				depth:   res.Depth,
				nodes:   res.Nodes,
				evals:   counter.Calls() - calls,
				elapsed: res.Elapsed,
			})
			stats := table.Stats()
			logger.Debug().
				Uint64("hits", stats.Hits).
				Uint64("misses", stats.Misses).
				Uint64("stores", stats.Stores).
				Uint64("rejected", stats.Rejected).
				Uint64("hashMoves", eng.Stats().HashMoves).
				Int("entries", table.Len()).
				Msg("table")
		}
		return rows, nil
	}
}

func perftSuite[P engine.Position[M], M comparable](backend string, open func(fen string) (P, error)) runner {
	return func(ctx context.Context) ([]row, error) {
		rows := make([]row, 0, len(suite))
		for _, fen := range suite {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			pos, err := open(fen)
			if err != nil {
				return nil, err
			}
			start := time.Now()
			nodes := engine.Perft[M](pos, *perft)
			rows = append(rows, row{backend: backend, fen: fen, depth: *perft, nodes: nodes, elapsed: time.Since(start)})
		}
		return rows, nil
	}
}

func main() {
	flag.Parse()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("benchmark failed")
	}
}

func run() error {
	if *cpuprofile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(*cpuprofile), profile.Quiet).Stop()
	}

	dragonName := func(m dragonboard.Move) string { return m.String() }
	runners := map[string]runner{}
	if *perft > 0 {
		runners["notnil"] = perftSuite[*chessboard.Board, chessboard.Move]("notnil", chessboard.FromFEN)
		runners["dragon"] = perftSuite[*dragonboard.Board, dragonboard.Move]("dragon", dragonboard.FromFEN)
	} else {
		runners["notnil"] = searchSuite[*chessboard.Board, chessboard.Move](
			"notnil", chessboard.FromFEN, eval.PieceSquare[*chessboard.Board]{}, chessboard.Move.String)
		runners["dragon"] = searchSuite[*dragonboard.Board, dragonboard.Move](
			"dragon", dragonboard.FromFEN, eval.PieceSquare[*dragonboard.Board]{}, dragonName)
	}

	log.Info().Int("positions", len(suite)).Int("depth", *depth).Int("perft", *perft).Msg("begin benchmark")
	backends := []string{"notnil", "dragon"}
	results := make([][]row, len(backends))
	g, ctx := errgroup.WithContext(context.Background())
	for i, backend := range backends {
		i, work := i, runners[backend]
		g.Go(func() error {
			rows, err := work(ctx)
			results[i] = rows
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	report(lo.Flatten(results))
	return nil
}

func report(rows []row) {
	table := goterm.NewTable(0, 10, 2, ' ', 0)
	fmt.Fprintf(table, "backend\tposition\tmove\tscore\tdepth\tnodes\tevals\tms\tknps\n")
	for _, r := range rows {
		ms := r.elapsed.Milliseconds()
		fmt.Fprintf(table, "%s\t%.24s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.backend, r.fen, r.move, r.score, r.depth, r.nodes, r.evals, ms, knps(r.nodes, r.elapsed))
	}
	goterm.Println(table)

	for backend, group := range lo.GroupBy(rows, func(r row) string { return r.backend }) {
		nodes := lo.SumBy(group, func(r row) uint64 { return r.nodes })
		elapsed := lo.SumBy(group, func(r row) time.Duration { return r.elapsed })
		goterm.Printf("%s: %d nodes in %v, %d knps\n", backend, nodes, elapsed.Round(time.Millisecond), knps(nodes, elapsed))
	}

	// Move order differs between the backends, so only scores and counts
	// are compared
	byFEN := lo.GroupBy(rows, func(r row) string { return r.fen })
	split := lo.Filter(lo.Keys(byFEN), func(fen string, _ int) bool {
		group := byFEN[fen]
		if len(group) != 2 || group[0].depth != group[1].depth {
			return false
		}
		if *perft > 0 {
			return group[0].nodes != group[1].nodes
		}
		return group[0].score != group[1].score
	})
	for _, fen := range split {
		goterm.Println("backends disagree on", fen)
	}
	goterm.Flush()
}

func knps(nodes uint64, elapsed time.Duration) uint64 {
	if elapsed <= 0 {
		return 0
	}
	return uint64(float64(nodes) / elapsed.Seconds() / 1000)
}
