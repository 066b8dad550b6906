package buffer

// DiscountedReturns computes the discounted return of each step of an
// episode, G[t] = r[t] + γ G[t+1] with G[T] = 0. Given rewards
// [r0 r1 ... rN] this computes:
//
//	[
//		r0 + γ r1 + γ^2 r2 + ... + γ^N rN
//		r1 + γ r2 + ... + γ^(N-1) rN
//		...
//		rN
//	]
func DiscountedReturns(rewards []float64, gamma float64) []float64 {
	returns := make([]float64, len(rewards))
	running := 0.0
	for t := len(rewards) - 1; t >= 0; t-- {
		running = rewards[t] + gamma*running
		returns[t] = running
	}
	return returns
}
