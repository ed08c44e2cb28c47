package report

import (
	"encoding/json"
	"io"
)

// WriteJSON renders the machine-readable report.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
