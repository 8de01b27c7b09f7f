package transform

import (
	"datascope/internal/dataset"
)

// Request is the wire form of one transform action.
type Request struct {
	// Op is one of "scale", "encode", "datetime", "bin", "drop".
	Op string `json:"op"`

	// Column is the source column for scale/encode/datetime/bin.
	Column string `json:"column"`

	// Kind refines the op: scale log|sqrt|zscore|minmax, encode
	// label|onehot|frequency, bin width|frequency.
	Kind string `json:"kind"`

	// Features selects datetime components for op=datetime.
	Features []string `json:"features"`

	// Bins is the bin count for op=bin.
	Bins int `json:"bins"`

	// Columns lists columns to delete for op=drop.
	Columns []string `json:"columns"`
}

// Apply dispatches a transform request against the dataset and returns the
// names of any columns it added.
func Apply(ds *dataset.Dataset, req Request) ([]string, error) {
	switch req.Op {
	case "scale":
		name, err := Scale(ds, req.Column, ScaleKind(req.Kind))
		if err != nil {
			return nil, err
		}
		return []string{name}, nil

	case "encode":
		return Encode(ds, req.Column, EncodeKind(req.Kind))

	case "datetime":
		features := make([]DatetimeFeature, len(req.Features))
		for i, f := range req.Features {
			features[i] = DatetimeFeature(f)
		}
		return DecomposeDatetime(ds, req.Column, features)

	case "bin":
		name, err := Bin(ds, req.Column, BinKind(req.Kind), req.Bins)
		if err != nil {
			return nil, err
		}
		return []string{name}, nil

	case "drop":
		return nil, Drop(ds, req.Columns)

	default:
		return nil, incompatible(req.Op, req.Column, "unknown operation")
	}
}
