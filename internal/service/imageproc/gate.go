package imageproc

// DefaultContrastThreshold is the minimum score an image needs to be kept.
const DefaultContrastThreshold = 25.0

// Gate decides whether an image is worth keeping based on its contrast score.
type Gate struct {
	Threshold float64
}

func NewGate(threshold float64) Gate {
	return Gate{Threshold: threshold}
}

// Accept reports whether score meets the threshold. A score strictly below
// the threshold is rejected.
func (g Gate) Accept(score float64) bool {
	return score >= g.Threshold
}
