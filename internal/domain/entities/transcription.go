package entities

// Utterance is a contiguous speech segment attributed to one speaker.
// Start/End keep the provider's millisecond offsets.
type Utterance struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	StartMs    int64   `json:"start_ms"`
	EndMs      int64   `json:"end_ms"`
	Confidence float64 `json:"confidence"`
}

// DurationSec returns the utterance length in seconds
func (u Utterance) DurationSec() float64 {
	return float64(u.EndMs-u.StartMs) / 1000.0
}

// DetectedEntity is a provider-detected entity (name, location, ...)
type DetectedEntity struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
}

// Chapter is an auto-generated chapter summary for a span of the call
type Chapter struct {
	Gist     string `json:"gist"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	StartMs  int64  `json:"start_ms"`
	EndMs    int64  `json:"end_ms"`
}

// SafetyScore is a content-safety finding reported by the provider.
// Severity is in [0,1].
type SafetyScore struct {
	Label      string  `json:"label"`
	Severity   float64 `json:"severity"`
	Confidence float64 `json:"confidence"`
}

// TranscriptionResult is the normalized transcript stored on a CallRecord.
// Speaker labels are ordinal (Speaker 1, Speaker 2, ...) in order of first
// appearance; mapping them to Agent/Customer is a manual correction.
type TranscriptionResult struct {
	Provider         string           `json:"provider"`
	Text             string           `json:"text"`
	LanguageCode     string           `json:"language_code,omitempty"`
	AudioDurationSec float64          `json:"audio_duration_sec"`
	Utterances       []Utterance      `json:"utterances"`
	Entities         []DetectedEntity `json:"entities,omitempty"`
	Chapters         []Chapter        `json:"chapters,omitempty"`
	SafetyScores     []SafetyScore    `json:"safety_scores,omitempty"`
}

// Speakers returns the distinct speaker labels in order of first appearance
func (t *TranscriptionResult) Speakers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range t.Utterances {
		if !seen[u.Speaker] {
			seen[u.Speaker] = true
			out = append(out, u.Speaker)
		}
	}
	return out
}

// MaxSafetySeverity returns the highest reported content-safety severity,
// or 0 when the provider reported none
func (t *TranscriptionResult) MaxSafetySeverity() float64 {
	var max float64
	for _, s := range t.SafetyScores {
		if s.Severity > max {
			max = s.Severity
		}
	}
	return max
}

// SpeakerEdit renames the speaker label of the utterance at Index
type SpeakerEdit struct {
	Index   int    `json:"index"`
	Speaker string `json:"speaker"`
}
