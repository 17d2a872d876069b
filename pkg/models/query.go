package models

// QueryAnswer is the structured response to a free-text query against an
// annotated record. The shape matches the structured record's query view so
// both sides consume one schema.
type QueryAnswer struct {
	Answer             string   `json:"answer"`
	RelevantTimestamps []string `json:"relevant_timestamps"`
	Confidence         float64  `json:"confidence"`
}

// Clamp forces the confidence into [0, 1]. Backends occasionally report
// values slightly outside the range.
func (q *QueryAnswer) Clamp() {
	if q.Confidence < 0 {
		q.Confidence = 0
	}
	if q.Confidence > 1 {
		q.Confidence = 1
	}
}
