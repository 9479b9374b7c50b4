package engine

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
)

// treeNode is a position of a synthetic game. The flags describe the move
// that leads into the node.
type treeNode struct {
	children []int
	value    Score
	status   Status
	white    bool
	capture  bool
	promo    bool
	check    bool
}

// tree is a Position over an explicit game tree. Moves are child indices
// and every node has its own key, so there are no transpositions.
type tree struct {
	nodes  []treeNode
	path   []int
	onPush func()
}

func (t *tree) cur() *treeNode {
	return &t.nodes[t.path[len(t.path)-1]]
}

func (t *tree) LegalMoves() []int {
	if t.cur().status.Terminal() {
		return nil
	}
	return append([]int(nil), t.cur().children...)
}

func (t *tree) Push(m int) {
	for _, c := range t.cur().children {
		if c == m {
			t.path = append(t.path, m)
			if t.onPush != nil {
				t.onPush()
			}
			return
		}
	}
	panic(fmt.Sprintf("tree: illegal move %d", m))
}

func (t *tree) Pop() {
	if len(t.path) <= 1 {
		panic("tree: pop at root")
	}
	t.path = t.path[:len(t.path)-1]
}

func (t *tree) Status() Status { return t.cur().status }
func (t *tree) Key() uint64 { return uint64(t.path[len(t.path)-1]) }
func (t *tree) WhiteToMove() bool { return t.cur().white }
func (t *tree) IsCapture(m int) bool { return t.nodes[m].capture }
func (t *tree) IsPromotion(m int) bool { return t.nodes[m].promo }
func (t *tree) GivesCheck(m int) bool { return t.nodes[m].check }

func (t *tree) add(parent int, n treeNode) int {
	id := len(t.nodes)
	if parent >= 0 {
		n.white = !t.nodes[parent].white
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	}
	t.nodes = append(t.nodes, n)
	return id
}

// randomTree builds a tree of the given height. Nodes above the bottom
// level have between 2 and maxBranch children; bottom nodes end the game.
func randomTree(seed int64, height int, maxBranch int) *tree {
	rng := rand.New(rand.NewSource(seed))
	t := &tree{}
	root := t.add(-1, treeNode{white: true, value: Score(rng.Intn(201) - 100)})
	t.path = []int{root}
	var grow func(id int, level int)
	grow = func(id int, level int) {
		if level == height {
			if rng.Intn(4) == 0 {
				t.nodes[id].status = Checkmate
			} else {
				t.nodes[id].status = Stalemate
			}
			return
		}
		// An occasional early mate keeps terminal scoring in play
		if level > 1 && rng.Intn(12) == 0 {
			t.nodes[id].status = Checkmate
			return
		}
		n := 2 + rng.Intn(maxBranch-1)
		for i := 0; i < n; i++ {
			child := t.add(id, treeNode{
				value:   Score(rng.Intn(801) - 400),
				capture: rng.Intn(3) == 0,
				promo:   rng.Intn(15) == 0,
				check:   rng.Intn(6) == 0,
			})
			grow(child, level+1)
		}
	}
	grow(root, 0)
	return t
}

// nodeValue is the static evaluator of the synthetic tree
type nodeValue struct{}

func (nodeValue) Evaluate(t *tree) (Score, error) {
	return t.cur().value, nil
}

// minimax is the unpruned reference: full width to depth, then every
// capture and promotion until quiet.
func minimax(t *tree, depth int, ply int) Score {
	n := t.cur()
	if n.status.Terminal() {
		return terminalScore(n.status, n.white, ply)
	}
	if depth == 0 {
		v := quiesceAll(t, ply)
		if !n.white {
			v = -v
		}
		return v
	}
	best := MaxScore
	if n.white {
		best = MinScore
	}
	for _, c := range n.children {
		t.Push(c)
		v := minimax(t, depth-1, ply+1)
		t.Pop()
		if (n.white && v > best) || (!n.white && v < best) {
			best = v
		}
	}
	return best
}

// quiesceAll is quiescence without pruning, relative to the side to move
func quiesceAll(t *tree, ply int) Score {
	n := t.cur()
	if n.status.Terminal() {
		if n.status == Checkmate {
			return -(Mate - Score(ply))
		}
		return DrawScore
	}
	best := n.value
	if !n.white {
		best = -best
	}
	for _, c := range n.children {
		if !t.nodes[c].capture && !t.nodes[c].promo {
			continue
		}
		t.Push(c)
		v := -quiesceAll(t, ply+1)
		t.Pop()
		if v > best {
			best = v
		}
	}
	return best
}

// referenceMove is the first move, in search order, with the minimax value
func referenceMove(t *tree, depth int) (int, Score) {
	white := t.cur().white
	moves := OrderMoves[int](t, t.LegalMoves())
	bestMove, best := -1, MaxScore
	if white {
		best = MinScore
	}
	for _, m := range moves {
		t.Push(m)
		v := minimax(t, depth-1, 1)
		t.Pop()
		if (white && v > best) || (!white && v < best) {
			bestMove, best = m, v
		}
	}
	return bestMove, best
}

func quietOptions() Options {
	nop := zerolog.Nop()
	return Options{Logger: &nop, Rand: rand.New(rand.NewSource(1))}
}

func newTreeEngine(opts Options) *Engine[*tree, int] {
	return New[*tree, int](nodeValue{}, nil, opts)
}
