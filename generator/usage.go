package generator

// Usage is the running token total for one run. It is not safe for concurrent use;
// the pipeline is strictly sequential.
type Usage struct {
	tokens int64
}

func (u *Usage) Add(tokens int64) {
	if tokens > 0 {
		u.tokens += tokens
	}
}

func (u *Usage) Total() int64 {
	return u.tokens
}

// EstimatedCost converts the total into money using a per-thousand-token rate.
func (u *Usage) EstimatedCost(ratePer1K float64) float64 {
	return float64(u.tokens) / 1000 * ratePer1K
}
