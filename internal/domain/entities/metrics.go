package entities

// CallMetrics is the derived numeric block for a call. It is always
// recomputable from the stored transcription and enrichment; it is never
// hand-edited outside the recompute operation.
type CallMetrics struct {
	WordCount          int                `json:"word_count"`
	SpeakingRateWpm    float64            `json:"speaking_rate_wpm"`
	TalkTimePerSpeaker map[string]float64 `json:"talk_time_per_speaker"` // seconds
	SilenceDurationSec float64            `json:"silence_duration_sec"`
	ClarityScore       float64            `json:"clarity_score"` // 0-100

	// Composite score and its components, all 0-100
	SentimentScore      float64 `json:"sentiment_score"`
	BalanceScore        float64 `json:"balance_score"`
	SafetyScore         float64 `json:"safety_score"`
	OverallQualityScore float64 `json:"overall_quality_score"`

	ProcessingDurationSec float64 `json:"processing_duration_sec,omitempty"`
}
