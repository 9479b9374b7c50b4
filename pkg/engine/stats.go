package engine

// Stats counts the work done by one search call
type Stats struct {
	Nodes         uint64 // Every node entered, quiescence included
	QNodes        uint64 // Nodes entered by the quiescence search
	Evaluations   uint64 // Calls to the evaluator
	EvalCacheHits uint64 // Static evaluations served from the cache
	TTCutoffs     uint64 // Nodes settled by a transposition entry
	HashMoves     uint64 // Nodes that searched a hash move first
	BetaCutoffs   uint64 // Nodes whose move loop was pruned
	MaxQPly       int    // Deepest ply reached by quiescence
}
