package astisense

// Tag represents a detected tag
type Tag struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability,omitempty"`
}

// DetectionEvent represents the tags detected in a time window.
// Times are in seconds.
type DetectionEvent struct {
	EndTime   float64 `json:"end_time"`
	StartTime float64 `json:"start_time"`
	Tags      []Tag   `json:"tags"`
}

// Batch represents an ordered group of events, usually one result page
type Batch struct {
	EndOfStream bool             `json:"end_of_stream"`
	Events      []DetectionEvent `json:"events"`
	StreamID    string           `json:"stream_id,omitempty"`
}

// Lines represents the summary lines produced for a stream
type Lines struct {
	EndOfStream bool   `json:"end_of_stream"`
	StreamID    string `json:"stream_id,omitempty"`
	Text        string `json:"text"`
}
