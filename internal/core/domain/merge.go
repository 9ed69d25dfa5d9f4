package domain

// MergeAction is what the merger did with one raw record.
type MergeAction string

const (
	MergeInsert MergeAction = "insert"
	MergeUpdate MergeAction = "update"
	MergeSkip   MergeAction = "skip"
)

// MergeResult is the outcome of merging one raw record into the store.
type MergeResult struct {
	Action         MergeAction    `json:"action"`
	Transaction    Transaction    `json:"transaction"`
	OldCategory    string         `json:"oldCategory,omitempty"`
	CategorySource CategorySource `json:"categorySource"`
}
