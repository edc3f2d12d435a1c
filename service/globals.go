package service

import (
	"golang.org/x/time/rate"

	"github.com/loom-engine/loom/location"
)

// Globals is spec.md §3 table 5: the singletons shared across passes
// rather than owned by any one table — the rate limiters gating
// update_progress and garbage_collect, and the advisory location index.
type Globals struct {
	Index *location.Index

	progress       *rate.Limiter
	garbageCollect *rate.Limiter
}

// NewGlobals constructs Globals with independent token-bucket limiters for
// update_progress and garbage_collect, each starting with a single token
// so the first scheduled invocation of either pass always runs. A burst of
// 1 matches spec's "try-consume one token per scheduled invocation" policy
// exactly: there is never a reason to let either pass spend more than one
// token in a single call.
//
// Grounded on acdtunes-spacetraders/gobot/internal/adapters/api/client.go's
// rate.NewLimiter use for an outbound-request gate, generalized here to two
// independent gates instead of one.
func NewGlobals(progressRate, garbageCollectRate rate.Limit) *Globals {
	return &Globals{
		Index:          location.NewIndex(),
		progress:       rate.NewLimiter(progressRate, 1),
		garbageCollect: rate.NewLimiter(garbageCollectRate, 1),
	}
}
