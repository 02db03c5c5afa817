package core

import "fmt"

// RunSummary reports the outcome of one detection pass. A failure on one entity never
// aborts the pass; it only bumps Failed.
type RunSummary struct {
	Processed int `json:"processed"`
	Notified  int `json:"notified"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func (rs RunSummary) String() string {
	return fmt.Sprintf("processed=%d notified=%d skipped=%d failed=%d",
		rs.Processed, rs.Notified, rs.Skipped, rs.Failed)
}
