package engine

// evalCache memoizes static evaluations by position key. It is cleared
// wholesale when it reaches its capacity.
type evalCache struct {
	scores   map[uint64]Score
	capacity int
}

func newEvalCache(capacity int) *evalCache {
	return &evalCache{scores: make(map[uint64]Score), capacity: capacity}
}

func (c *evalCache) get(key uint64) (Score, bool) {
	if c.capacity <= 0 {
		return 0, false
	}
	v, ok := c.scores[key]
	return v, ok
}

func (c *evalCache) put(key uint64, v Score) {
	if c.capacity <= 0 {
		return
	}
	if len(c.scores) >= c.capacity {
		c.scores = make(map[uint64]Score)
	}
	c.scores[key] = v
}

func (c *evalCache) len() int {
	return len(c.scores)
}
