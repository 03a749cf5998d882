package models

type ClassificationRequest struct {
	Texts []string `json:"texts"`
}

// Classification is one prediction from the inference service, keyed by the
// exact input text that was submitted.
type Classification struct {
	Text      string `json:"text"`
	Category  string `json:"category"`
	Sentiment string `json:"sentiment"`
}
