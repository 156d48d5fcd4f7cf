package ports

import "context"

// ChallengeSolver resolves anti-abuse challenges. Solve never fails; an
// unsolvable challenge yields an empty token.
type ChallengeSolver interface {
	Solve(ctx context.Context, flowName string, challenge map[string]string) string
}
