package engine

import (
	"sync"
)

// PVT holds the principal variation of the deepest completed search. It may
// be read from another goroutine while a search is running.
type PVT[M any] struct {
	pv     []M
	depth  int
	pvlock sync.Mutex
}

// NewPVT returns a new Principal variation table
func NewPVT[M any]() *PVT[M] {
	return &PVT[M]{
		pv:    make([]M, 0),
		depth: 0,
	}
}

// Update will attempt to update the PVT, if the depth is sufficient
func (p *PVT[M]) Update(pv []M, depth int) {
	p.pvlock.Lock()
	defer p.pvlock.Unlock()
	if depth > p.depth {
		p.pv = pv
		p.depth = depth
	}
}

// GetPV returns a copy of the current principal variation and its depth
func (p *PVT[M]) GetPV() ([]M, int) {
	p.pvlock.Lock()
	defer p.pvlock.Unlock()
	return append([]M(nil), p.pv...), p.depth
}

// Reset forgets the stored variation
func (p *PVT[M]) Reset() {
	p.pvlock.Lock()
	defer p.pvlock.Unlock()
	p.pv = p.pv[:0]
	p.depth = 0
}
