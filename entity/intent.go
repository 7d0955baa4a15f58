package entity

const IntentUnknown = "unknown"

// Intent is the structured reading of a free-text message.
type Intent struct {
	Intent        string  `json:"intent"`
	Confidence    float64 `json:"confidence"`
	Subject       string  `json:"subject,omitempty"`
	LectureNumber string  `json:"lecture_number,omitempty"`
	Fallback      bool    `json:"-"`
}

// FallbackIntent is returned when the model reply cannot be parsed.
func FallbackIntent() Intent {
	return Intent{Intent: IntentUnknown, Confidence: 0, Fallback: true}
}
