package detect

import (
	"go.uber.org/zap"

	"patlens/internal/pattern"
	"patlens/internal/tree"
)

// HeuristicResult records whether one heuristic fired against a node.
type HeuristicResult struct {
	Heuristic pattern.Heuristic
	Fired     bool
}

// EvaluateHeuristics runs each heuristic against the node. A heuristic that
// panics is treated as not fired and the failure is logged; one bad heuristic
// must never abort detection for an entire tree.
func EvaluateHeuristics(node *tree.Node, hs []pattern.Heuristic, log *zap.Logger) []HeuristicResult {
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]HeuristicResult, 0, len(hs))
	for _, h := range hs {
		results = append(results, HeuristicResult{
			Heuristic: h,
			Fired:     safeCheck(node, h, log),
		})
	}
	return results
}

func safeCheck(node *tree.Node, h pattern.Heuristic, log *zap.Logger) (fired bool) {
	defer func() {
		if r := recover(); r != nil {
			fired = false
			log.Warn("heuristic panicked, treating as not fired",
				zap.String("heuristic", h.Name),
				zap.Any("panic", r))
		}
	}()
	return h.Check(node)
}
