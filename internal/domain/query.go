package domain

import (
	"encoding/json"

	"github.com/johnwards/repoquery/internal/jsonv"
)

// DataType selects what a getMany request returns.
type DataType string

const (
	DataAll   DataType = "all"
	DataRows  DataType = "data"
	DataCount DataType = "count"
)

// Pagination windows the result set. Page starts at 0.
type Pagination struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

// Query is a getMany request against one entity.
type Query struct {
	Where      jsonv.Value `json:"where"`
	Order      jsonv.Value `json:"order"`
	Relations  []string    `json:"relations,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	DataType   DataType    `json:"dataType,omitempty"`
}

// OneQuery is a getOne request: the first row matching Where.
type OneQuery struct {
	Where     jsonv.Value `json:"where"`
	Relations []string    `json:"relations,omitempty"`
}

// Result is the response to a getMany request. Data is present unless only a
// count was asked for, and Count unless only rows were.
type Result struct {
	DataType DataType
	Data     []Record
	Count    int
}

// MarshalJSON encodes the fields selected by DataType.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 2)
	if r.DataType != DataCount {
		data := r.Data
		if data == nil {
			data = []Record{}
		}
		out["data"] = data
	}
	if r.DataType != DataRows {
		out["count"] = r.Count
	}
	return json.Marshal(out)
}
