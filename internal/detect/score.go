package detect

import (
	"patlens/internal/pattern"
	"patlens/internal/tree"
)

// structuralMass is the maximum score mass contributed by signature matching
// when a definition declares any signatures at all.
const structuralMass = 0.5

// Score combines structural and heuristic evidence for node against def into
// a normalized confidence in [0,1].
//
// The structural contribution is structuralMass scaled by the ratio of
// matched signatures; each heuristic contributes its weight to the maximum
// possible mass whether or not it fires, and adds that weight only when it
// fires. The result is the achieved mass divided by the maximum possible
// mass, or 0 when the definition is undecidable (no signatures and no
// heuristics). This lets a definition rely purely on shape, purely on
// heuristics, or any blend, without special-casing either.
func (d *Detector) Score(node *tree.Node, def *pattern.Definition) (float64, int, []string) {
	var achieved, maxMass float64

	matched := 0
	if len(def.Signatures) > 0 {
		matched = d.matcher.MatchedCount(node, def.Signatures)
		ratio := float64(matched) / float64(len(def.Signatures))
		achieved += structuralMass * ratio
		maxMass += structuralMass
	}

	var fired []string
	for _, res := range EvaluateHeuristics(node, def.Heuristics, d.log) {
		maxMass += res.Heuristic.Weight
		if res.Fired {
			achieved += res.Heuristic.Weight
			fired = append(fired, res.Heuristic.Name)
		}
	}

	if maxMass == 0 {
		return 0, 0, nil
	}
	return clamp(achieved/maxMass, 0, 1), matched, fired
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
