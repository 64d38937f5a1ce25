package domain

// Record is one entity row keyed by field name. Loaded relations appear under
// the relation name: a Record for belongs-to relations, a []Record for
// has-many relations.
type Record map[string]any

// Input holds field values for create and update requests.
type Input map[string]any

// DeleteResult reports whether a delete removed a row.
type DeleteResult struct {
	Status string `json:"status"`
}

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)
