// Package store persists optimization results: JSON export for
// reports and a sqlite-backed store for the service layer.
package store

import (
	"encoding/json"
	"io"

	"github.com/fisopt/fisopt/internal/optimization"
)

// JSONDumps renders a full optimization result as an indented JSON
// string: criterion, design snapshot and penalty breakdown.
func JSONDumps(r *optimization.Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// JSONDump writes the JSON rendering of a result to w.
func JSONDump(r *optimization.Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(r)
}
