package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callpulse-hq/callpulse/internal/domain/entities"
)

func sampleTranscript() *entities.TranscriptionResult {
	return &entities.TranscriptionResult{
		Provider:         "assemblyai",
		Text:             repeatWords("hello there thanks for calling support today", 300),
		AudioDurationSec: 120,
		Utterances: []entities.Utterance{
			{Speaker: "Speaker 1", Text: "hello", StartMs: 0, EndMs: 50000, Confidence: 0.9},
			{Speaker: "Speaker 2", Text: "hi", StartMs: 50000, EndMs: 110000, Confidence: 0.9},
		},
	}
}

// repeatWords builds a text with exactly n whitespace-separated words
func repeatWords(seed string, n int) string {
	words := []string{}
	base := []string{"hello", "there", "thanks", "for", "calling", "support", "today"}
	for len(words) < n {
		words = append(words, base[len(words)%len(base)])
	}
	out := words[0]
	for _, w := range words[1:] {
		out += " " + w
	}
	return out
}

func TestComputeBasicScenario(t *testing.T) {
	tr := sampleTranscript()
	enr := &entities.EnrichmentResult{OverallSentiment: 0.6}

	m := Compute(tr, enr, 3*time.Second, DefaultWeights())

	assert.Equal(t, 300, m.WordCount)
	assert.InDelta(t, 150.0, m.SpeakingRateWpm, 1e-9)

	require.Len(t, m.TalkTimePerSpeaker, 2)
	assert.InDelta(t, 50.0, m.TalkTimePerSpeaker["Speaker 1"], 1e-9)
	assert.InDelta(t, 60.0, m.TalkTimePerSpeaker["Speaker 2"], 1e-9)
	assert.InDelta(t, 10.0, m.SilenceDurationSec, 1e-9)

	assert.InDelta(t, 90.0, m.ClarityScore, 1e-9)
	assert.InDelta(t, 80.0, m.SentimentScore, 1e-9)
	assert.InDelta(t, 100.0, m.BalanceScore, 1e-9)
	assert.InDelta(t, 100.0, m.SafetyScore, 1e-9)

	// 0.4*90 + 0.3*80 + 0.2*100 + 0.1*100 = 90
	assert.InDelta(t, 90.0, m.OverallQualityScore, 1e-9)
	assert.Greater(t, m.OverallQualityScore, 50.0)

	assert.InDelta(t, 3.0, m.ProcessingDurationSec, 1e-9)
}

func TestComputeDeterministic(t *testing.T) {
	tr := sampleTranscript()
	enr := &entities.EnrichmentResult{OverallSentiment: -0.25}

	a := Compute(tr, enr, time.Second, DefaultWeights())
	b := Compute(tr, enr, time.Second, DefaultWeights())

	assert.Equal(t, a, b)
}

func TestComputeNilEnrichmentIsNeutral(t *testing.T) {
	m := Compute(sampleTranscript(), nil, 0, DefaultWeights())
	assert.InDelta(t, NeutralSentiment, m.SentimentScore, 1e-9)
}

func TestSentimentScoreMapping(t *testing.T) {
	tests := []struct {
		polarity float64
		want     float64
	}{
		{-1, 0},
		{-0.5, 25},
		{0, 50},
		{0.5, 75},
		{1, 100},
		{2, 100},  // clamped
		{-3, 0},   // clamped
	}
	for _, tt := range tests {
		got := sentimentScore(&entities.EnrichmentResult{OverallSentiment: tt.polarity})
		assert.InDelta(t, tt.want, got, 1e-9, "polarity %v", tt.polarity)
	}
}

func TestSentimentMonotonic(t *testing.T) {
	prev := -1.0
	for p := -1.0; p <= 1.0; p += 0.1 {
		got := sentimentScore(&entities.EnrichmentResult{OverallSentiment: p})
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestBalanceScore(t *testing.T) {
	thr := 0.60

	// perfectly split
	assert.InDelta(t, 100.0, balanceScore(map[string]float64{"a": 50, "b": 50}, 100, thr), 1e-9)

	// exactly at threshold still full marks
	assert.InDelta(t, 100.0, balanceScore(map[string]float64{"a": 60, "b": 40}, 100, thr), 1e-9)

	// 90% dominance: (1-0.9)/(1-0.6) = 0.25
	assert.InDelta(t, 25.0, balanceScore(map[string]float64{"a": 90, "b": 10}, 100, thr), 1e-9)

	// single speaker holds everything
	assert.InDelta(t, 0.0, balanceScore(map[string]float64{"a": 100}, 100, thr), 1e-9)

	// no measured talk time
	assert.InDelta(t, 100.0, balanceScore(map[string]float64{}, 0, thr), 1e-9)
}

func TestBalanceMonotonicInDominance(t *testing.T) {
	thr := 0.60
	prev := 101.0
	for share := 0.5; share <= 1.0; share += 0.05 {
		got := balanceScore(map[string]float64{"a": share, "b": 1 - share}, 1, thr)
		assert.LessOrEqual(t, got, prev, "share %v", share)
		prev = got
	}
}

func TestSafetyScore(t *testing.T) {
	thr := 0.50

	assert.InDelta(t, 100.0, safetyScore(0, thr), 1e-9)
	assert.InDelta(t, 100.0, safetyScore(0.5, thr), 1e-9)
	// (1-0.75)/(1-0.5) = 0.5
	assert.InDelta(t, 50.0, safetyScore(0.75, thr), 1e-9)
	assert.InDelta(t, 0.0, safetyScore(1.0, thr), 1e-9)
	// severity clamped into [0,1]
	assert.InDelta(t, 0.0, safetyScore(1.5, thr), 1e-9)
}

func TestSafetyMonotonic(t *testing.T) {
	thr := 0.50
	prev := 101.0
	for s := 0.0; s <= 1.0; s += 0.05 {
		got := safetyScore(s, thr)
		assert.LessOrEqual(t, got, prev, "severity %v", s)
		prev = got
	}
}

func TestClarityScore(t *testing.T) {
	assert.InDelta(t, 0.0, clarityScore(nil), 1e-9)

	uts := []entities.Utterance{
		{Confidence: 0.8},
		{Confidence: 1.0},
	}
	assert.InDelta(t, 90.0, clarityScore(uts), 1e-9)
}

func TestCompositeWeightNormalization(t *testing.T) {
	// unnormalized weights summing to 2 behave like the normalized ones
	w := Weights{Clarity: 0.8, Sentiment: 0.6, Balance: 0.4, Safety: 0.2}
	got := composite(90, 80, 100, 100, w)
	assert.InDelta(t, 90.0, got, 1e-9)

	// all-zero weights collapse to zero rather than dividing by zero
	assert.InDelta(t, 0.0, composite(90, 80, 100, 100, Weights{}), 1e-9)
}

func TestCompositeClamped(t *testing.T) {
	w := DefaultWeights()
	got := composite(100, 100, 100, 100, w)
	assert.LessOrEqual(t, got, 100.0)
	assert.GreaterOrEqual(t, composite(0, 0, 0, 0, w), 0.0)
}

func TestComputeZeroDuration(t *testing.T) {
	tr := &entities.TranscriptionResult{Text: "a b c", AudioDurationSec: 0}
	m := Compute(tr, nil, 0, DefaultWeights())

	assert.Equal(t, 3, m.WordCount)
	assert.Zero(t, m.SpeakingRateWpm)
	assert.Zero(t, m.SilenceDurationSec)
}

func TestComputeSafetyPenalty(t *testing.T) {
	tr := sampleTranscript()
	tr.SafetyScores = []entities.SafetyScore{
		{Label: "profanity", Severity: 0.3, Confidence: 0.9},
		{Label: "threat", Severity: 0.75, Confidence: 0.8},
	}

	m := Compute(tr, nil, 0, DefaultWeights())
	assert.InDelta(t, 50.0, m.SafetyScore, 1e-9)

	clean := sampleTranscript()
	mc := Compute(clean, nil, 0, DefaultWeights())
	assert.Less(t, m.OverallQualityScore, mc.OverallQualityScore)
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	d := DefaultWeights()
	assert.InDelta(t, 1.0, d.Clarity+d.Sentiment+d.Balance+d.Safety, 1e-9)
}
