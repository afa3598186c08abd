package emitter

// Event is a single service metric observation. Events are produced
// externally, consumed once by Emit and not retained.
type Event struct {
	// Metric is the metric name, e.g. "query/time".
	Metric string `json:"metric"`

	// Service is the originating service. It fills the "service"
	// dimension verbatim and selects service-qualified map entries.
	Service string `json:"service"`

	// Host is the host the event was observed on. The most recently seen
	// host becomes the push grouping key.
	Host string `json:"host"`

	// Value is the numeric observation.
	Value float64 `json:"value"`

	// UserDims are free-form user-supplied dimensions. Values are
	// stringified and sanitized before becoming label values.
	UserDims map[string]any `json:"userDims"`
}
