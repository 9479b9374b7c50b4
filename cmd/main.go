package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"
	"unicode"

	"github.com/buger/goterm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mimir/pkg/chessboard"
	"mimir/pkg/dragonboard"
	"mimir/pkg/engine"
	"mimir/pkg/eval"
)

var (
	fenFlag     = flag.String("fen", chessboard.StartFEN, "starting position")
	colorFlag   = flag.String("color", "black", "side the engine plays: white, black or both")
	depthFlag   = flag.Int("depth", 6, "maximum search depth, 0 for time only")
	timeFlag    = flag.Duration("time", 5*time.Second, "time per engine move, 0 for depth only")
	backendFlag = flag.String("backend", "notnil", "move generator: notnil or dragon")
	verbose     = flag.Bool("v", false, "log every completed depth")
)

// board is what the game loop needs from a move generator
type board[M comparable] interface {
	engine.Position[M]
	eval.Board
	Play(uci string) error
	FEN() string
}

// session is a game between the engine and a human on one backend
type session[P board[M], M comparable] struct {
	pos  P
	eng  *engine.Engine[P, M]
	name func(M) string
	last string
}

type game interface {
	turn(ctx context.Context, in *bufio.Reader, engineMoves func(white bool) bool) (bool, error)
}

func newSession[P board[M], M comparable](pos P, name func(M) string, logger zerolog.Logger) *session[P, M] {
	opts := engine.DefaultOptions()
	opts.Logger = &logger
	return &session[P, M]{
		pos:  pos,
		eng:  engine.New[P, M](eval.PieceSquare[P]{}, nil, opts),
		name: name,
	}
}

func (s *session[P, M]) render() {
	goterm.Clear()
	goterm.MoveCursor(1, 1)
	if cb, err := chessboard.FromFEN(s.pos.FEN()); err == nil {
		goterm.Println(cb.Draw())
	}
	goterm.Println(s.pos.FEN())
	if s.last != "" {
		goterm.Println("Last move:", s.last)
	}
	if score, err := (eval.PieceSquare[P]{}).Evaluate(s.pos); err == nil {
		goterm.Println("Static evaluation (White):", score)
	}
	goterm.Flush()
}

// turn plays one move and reports whether the game goes on
func (s *session[P, M]) turn(ctx context.Context, in *bufio.Reader, engineMoves func(white bool) bool) (bool, error) {
	s.render()
	if status := s.pos.Status(); status.Terminal() {
		announce(status, s.pos.WhiteToMove())
		return false, nil
	}
	if engineMoves(s.pos.WhiteToMove()) {
		budget := engine.NewBudget(*depthFlag, *timeFlag)
		res, err := s.eng.SelectMove(ctx, s.pos, budget)
		if err != nil {
			return false, err
		}
		s.last = s.name(res.Move)
		s.pos.Push(res.Move)
		log.Info().
			Str("move", s.last).
			Int32("score", int32(res.Score)).
			Int("depth", res.Depth).
			Uint64("nodes", res.Nodes).
			Dur("elapsed", res.Elapsed).
			Msg("engine played")
		if engine.IsMate(res.Score) {
			s.last = fmt.Sprintf("%s (%s)", s.last, mateNotice(res.Score))
		}
		return true, nil
	}
	for {
		fmt.Print("Your move: ")
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return false, err
		}
		uci := stripSpaces(line)
		if uci == "" {
			continue
		}
		if err := s.pos.Play(uci); err != nil {
			fmt.Printf("Your input was invalid, error: %v\n", err)
			continue
		}
		s.last = uci
		return true, nil
	}
}

func announce(status engine.Status, whiteToMove bool) {
	switch {
	case status == engine.Checkmate && whiteToMove:
		fmt.Println("Black wins by checkmate")
	case status == engine.Checkmate:
		fmt.Println("White wins by checkmate")
	default:
		fmt.Printf("The game is drawn (%v)\n", status)
	}
}

// mateNotice names the side with a forced mate and its distance in moves
func mateNotice(score engine.Score) string {
	side := "White"
	if score < 0 {
		side = "Black"
	}
	return fmt.Sprintf("%s mates in %d", side, (engine.MateIn(score)+1)/2)
}

func stripSpaces(str string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, str)
}

func newGame(backend string, fen string, logger zerolog.Logger) (game, error) {
	switch backend {
	case "notnil":
		b, err := chessboard.FromFEN(fen)
		if err != nil {
			return nil, err
		}
		return newSession[*chessboard.Board, chessboard.Move](b, b.Encode, logger), nil
	case "dragon":
		b, err := dragonboard.FromFEN(fen)
		if err != nil {
			return nil, err
		}
		name := func(m dragonboard.Move) string { return m.String() }
		return newSession[*dragonboard.Board, dragonboard.Move](b, name, logger), nil
	}
	return nil, fmt.Errorf("unknown backend %q", backend)
}

func main() {
	flag.Parse()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	var engineMoves func(white bool) bool
	switch *colorFlag {
	case "white":
		engineMoves = func(white bool) bool { return white }
	case "black":
		engineMoves = func(white bool) bool { return !white }
	case "both":
		engineMoves = func(bool) bool { return true }
	default:
		log.Fatal().Str("color", *colorFlag).Msg("color must be white, black or both")
	}

	g, err := newGame(*backendFlag, *fenFlag, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot set up the game")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	in := bufio.NewReader(os.Stdin)
	for {
		more, err := g.turn(ctx, in, engineMoves)
		if err != nil {
			log.Error().Err(err).Msg("game stopped")
			return
		}
		if !more {
			return
		}
	}
}
