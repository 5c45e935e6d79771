package entities

// EnrichmentResult is the structured output of the LLM analysis stage.
// Sentiment polarities are in [-1,1].
type EnrichmentResult struct {
	OverallSentiment float64            `json:"overall_sentiment"`
	SpeakerSentiment map[string]float64 `json:"speaker_sentiment,omitempty"`
	Summary          string             `json:"summary"`
	ActionItems      []ActionItem       `json:"action_items,omitempty"`
	Topics           []string           `json:"topics,omitempty"`
	ModelUsed        string             `json:"model_used,omitempty"`
}

// ActionItem is a follow-up extracted from the call
type ActionItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Priority    string `json:"priority,omitempty"` // low, medium, high, urgent
}
