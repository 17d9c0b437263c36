package queryeditor

// Visibility owns whether the suggestion list is open. The most recent
// transition wins. A controller built for a widget without autocomplete never
// opens.
type Visibility struct {
	enabled bool
	open    bool
}

// NewVisibility returns a closed controller.
func NewVisibility(enabled bool) Visibility {
	return Visibility{enabled: enabled}
}

// ReportCandidates is called by the suggestion engine after each recompute.
func (v *Visibility) ReportCandidates(count int) {
	v.open = v.enabled && count > 0
}

// PreferenceChanged tracks the external quick-autocomplete toggle, regardless
// of the last candidate count.
func (v *Visibility) PreferenceChanged(flag bool) {
	v.open = v.enabled && flag
}

// SetEnabled updates the feature flag. Disabling closes the list.
func (v *Visibility) SetEnabled(enabled bool) {
	v.enabled = enabled
	if !enabled {
		v.open = false
	}
}

func (v Visibility) Enabled() bool {
	return v.enabled
}

func (v Visibility) Open() bool {
	return v.open
}
