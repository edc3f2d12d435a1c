package service

import (
	"github.com/loom-engine/loom/location"
	"github.com/loom-engine/loom/task"
)

// RequestRow is a Requests-table row: spec.md §3 table 1, `{ StableID,
// LoadRequest, UsageTrackerWeakRef }` with the identifier and weak ref
// carried by table.Table itself.
type RequestRow struct {
	Request location.LoadRequest
}

// LoadingRow is a Loading-table row: spec.md §3 table 2, `{ StableID,
// AssetLoadTask, UsageTrackerWeakRef }`.
type LoadingRow struct {
	Task *task.AssetLoadTask
}

// FailedRow is a Failed-table row: spec.md §3 table 3, `{ StableID,
// UsageTrackerWeakRef }` — no payload beyond what table.Table already
// carries, so the row type itself is empty.
type FailedRow struct{}
