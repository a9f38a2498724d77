package domain

// ValidationReport accumulates per-batch observability counters from schema
// validation. It is purely informational: validation never fails a batch,
// it drops, clamps, and trims instead.
type ValidationReport struct {
	TotalItems         int      `json:"total_items"`
	DroppedItems       int      `json:"dropped_items"`
	ClampedConfidences int      `json:"clamped_confidences"`
	TrimmedFields      int      `json:"trimmed_fields"`
	Warnings           []string `json:"warnings,omitempty"`
}

// Warn appends a human-readable note to the report.
func (r *ValidationReport) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
