// Package dragonboard adapts the dragontoothmg bitboard move generator to
// the search engine. Moves are applied in place and undone with the
// closures the generator returns.
package dragonboard

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/dylhunn/dragontoothmg"

	"mimir/pkg/engine"
	"mimir/pkg/eval"
)

// Move is the generator's packed move
type Move = dragontoothmg.Move

const (
	lightSquares uint64 = 0x55AA55AA55AA55AA
	darkSquares         = ^lightSquares
)

type frame struct {
	unapply func()
	key     uint64
	clock   int
	moves   []Move
}

// Board is a game in progress. Create boards with FromFEN.
type Board struct {
	b      dragontoothmg.Board
	frames []frame
}

// FromFEN returns a board at the position described by fen
func FromFEN(fen string) (b *Board, err error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("parse fen %q: want at least 4 fields", fen)
	}
	clock := 0
	if len(fields) >= 5 {
		if clock, err = strconv.Atoi(fields[4]); err != nil {
			return nil, fmt.Errorf("parse fen half move clock %q: %w", fields[4], err)
		}
	}
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("parse fen %q: %v", fen, r)
		}
	}()
	b = &Board{b: dragontoothmg.ParseFen(fen)}
	b.frames = append(b.frames, frame{key: b.b.Hash(), clock: clock})
	return b, nil
}

func (b *Board) top() *frame {
	return &b.frames[len(b.frames)-1]
}

func (b *Board) legal() []Move {
	f := b.top()
	if f.moves == nil {
		f.moves = b.b.GenerateLegalMoves()
		if f.moves == nil {
			f.moves = []Move{}
		}
	}
	return f.moves
}

// LegalMoves returns a fresh slice of the legal moves in generation order
func (b *Board) LegalMoves() []Move {
	return append([]Move(nil), b.legal()...)
}

func (b *Board) ours() *dragontoothmg.Bitboards {
	if b.b.Wtomove {
		return &b.b.White
	}
	return &b.b.Black
}

func (b *Board) theirs() *dragontoothmg.Bitboards {
	if b.b.Wtomove {
		return &b.b.Black
	}
	return &b.b.White
}

func (b *Board) isLegal(m Move) bool {
	for _, mv := range b.legal() {
		if mv == m {
			return true
		}
	}
	return false
}

// Push plays m, which must be legal
func (b *Board) Push(m Move) {
	if !b.isLegal(m) {
		panic(fmt.Sprintf("dragonboard: illegal move %v in %v", m.String(), b.FEN()))
	}
	clock := b.top().clock + 1
	if b.IsCapture(m) || b.ours().Pawns&(uint64(1)<<m.From()) != 0 {
		clock = 0
	}
	unapply := b.b.Apply(m)
	b.frames = append(b.frames, frame{unapply: unapply, key: b.b.Hash(), clock: clock})
}

// Pop takes back the last move
func (b *Board) Pop() {
	if len(b.frames) <= 1 {
		panic("dragonboard: pop without a pushed move")
	}
	b.top().unapply()
	b.frames = b.frames[:len(b.frames)-1]
}

// Status reports checkmate, stalemate, and draws by repetition, the fifty
// move rule or insufficient material
func (b *Board) Status() engine.Status {
	if len(b.legal()) == 0 {
		if b.b.OurKingInCheck() {
			return engine.Checkmate
		}
		return engine.Stalemate
	}
	if b.top().clock >= 100 || b.repetitions() >= 3 || b.insufficientMaterial() {
		return engine.Draw
	}
	return engine.Ongoing
}

func (b *Board) repetitions() int {
	f := b.top()
	count := 1
	for i := len(b.frames) - 3; i >= 0 && i >= len(b.frames)-1-f.clock; i -= 2 {
		if b.frames[i].key == f.key {
			count++
		}
	}
	return count
}

func (b *Board) insufficientMaterial() bool {
	w, k := &b.b.White, &b.b.Black
	if w.Pawns|k.Pawns|w.Rooks|k.Rooks|w.Queens|k.Queens != 0 {
		return false
	}
	knights := w.Knights | k.Knights
	bishops := w.Bishops | k.Bishops
	minors := bits.OnesCount64(knights | bishops)
	if minors <= 1 {
		return true
	}
	return knights == 0 && (bishops&lightSquares == 0 || bishops&darkSquares == 0)
}

// Key is the generator's Zobrist hash
func (b *Board) Key() uint64 {
	return b.top().key
}

// WhiteToMove reports whether White is the side to move
func (b *Board) WhiteToMove() bool {
	return b.b.Wtomove
}

// IsCapture reports whether m captures, en passant included
func (b *Board) IsCapture(m Move) bool {
	from, to := m.From(), m.To()
	if b.theirs().All&(uint64(1)<<to) != 0 {
		return true
	}
	// A pawn changing file onto an empty square takes en passant
	return b.ours().Pawns&(uint64(1)<<from) != 0 && from%8 != to%8
}

// IsPromotion reports whether m promotes a pawn
func (b *Board) IsPromotion(m Move) bool {
	return m.Promote() != dragontoothmg.Nothing
}

// GivesCheck reports whether m checks the opponent
func (b *Board) GivesCheck(m Move) bool {
	unapply := b.b.Apply(m)
	check := b.b.OurKingInCheck()
	unapply()
	return check
}

// ForEachPiece calls fn for every piece on the board
func (b *Board) ForEachPiece(fn func(sq int, p eval.Piece, white bool)) {
	each := func(bb uint64, p eval.Piece, white bool) {
		for bb != 0 {
			sq := bits.TrailingZeros64(bb)
			fn(sq, p, white)
			bb &= bb - 1
		}
	}
	for _, side := range []struct {
		bbs   *dragontoothmg.Bitboards
		white bool
	}{{&b.b.White, true}, {&b.b.Black, false}} {
		each(side.bbs.Pawns, eval.Pawn, side.white)
		each(side.bbs.Knights, eval.Knight, side.white)
		each(side.bbs.Bishops, eval.Bishop, side.white)
		each(side.bbs.Rooks, eval.Rook, side.white)
		each(side.bbs.Queens, eval.Queen, side.white)
		each(side.bbs.Kings, eval.King, side.white)
	}
}

// FEN returns the current position in Forsyth-Edwards notation
func (b *Board) FEN() string {
	return b.b.ToFen()
}

// Decode finds the legal move written in UCI notation
func (b *Board) Decode(uci string) (Move, error) {
	for _, mv := range b.legal() {
		if mv.String() == uci {
			return mv, nil
		}
	}
	return 0, fmt.Errorf("illegal move %q", uci)
}

// Play validates and plays a UCI move
func (b *Board) Play(uci string) error {
	m, err := b.Decode(uci)
	if err != nil {
		return err
	}
	b.Push(m)
	return nil
}

// Ply returns the number of moves played on this board
func (b *Board) Ply() int {
	return len(b.frames) - 1
}
