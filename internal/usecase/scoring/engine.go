// Package scoring derives the numeric metrics block and the composite
// quality score for a call. Everything here is a pure function of its
// inputs: same transcript, same enrichment, same weights, bit-identical
// output. No I/O, no clock, no globals.
package scoring

import (
	"strings"
	"time"

	"github.com/callpulse-hq/callpulse/internal/domain/entities"
	"github.com/callpulse-hq/callpulse/pkg/config"
)

// Weights configures the composite quality score. The four weight fields
// are relative; the composite divides by their sum, so any non-negative
// combination keeps the score in [0,100]. Weights travel with each Compute
// call — recompute can override them per record without global side
// effects.
//
// The defaults reflect what the score is for: clarity carries the most
// weight because an unintelligible call is a bad call regardless of tone;
// sentiment is next as the direct customer-experience signal; talk-time
// balance penalizes calls where one party can't get a word in; the safety
// term only bites when the provider flags genuinely unsafe content.
type Weights struct {
	Clarity   float64
	Sentiment float64
	Balance   float64
	Safety    float64

	// DominanceThreshold is the largest talk-time share that still counts
	// as balanced. Above it the balance component falls linearly, reaching
	// 0 when one speaker holds all talk time.
	DominanceThreshold float64

	// UnsafeThreshold is the content-safety severity above which the safety
	// component falls linearly, reaching 0 at severity 1.
	UnsafeThreshold float64
}

// DefaultWeights returns the documented default weighting
func DefaultWeights() Weights {
	return Weights{
		Clarity:            0.40,
		Sentiment:          0.30,
		Balance:            0.20,
		Safety:             0.10,
		DominanceThreshold: 0.60,
		UnsafeThreshold:    0.50,
	}
}

// WeightsFromConfig builds Weights from the envconfig-loaded scoring block
func WeightsFromConfig(cfg config.ScoringConfig) Weights {
	return Weights{
		Clarity:            cfg.WeightClarity,
		Sentiment:          cfg.WeightSentiment,
		Balance:            cfg.WeightBalance,
		Safety:             cfg.WeightSafety,
		DominanceThreshold: cfg.DominanceThreshold,
		UnsafeThreshold:    cfg.UnsafeThreshold,
	}
}

// NeutralSentiment is the midpoint component used when enrichment is absent
// or failed. Enrichment is best-effort; its absence must not punish the
// score beyond losing the real signal.
const NeutralSentiment = 50.0

// Compute derives the full metrics block. enrichment may be nil, in which
// case the sentiment component defaults to NeutralSentiment.
func Compute(t *entities.TranscriptionResult, enrichment *entities.EnrichmentResult, processingDuration time.Duration, w Weights) entities.CallMetrics {
	duration := t.AudioDurationSec

	wordCount := len(strings.Fields(t.Text))

	var speakingRate float64
	if duration > 0 {
		speakingRate = float64(wordCount) / (duration / 60.0)
	}

	talkTime := make(map[string]float64)
	var totalTalk float64
	for _, u := range t.Utterances {
		d := u.DurationSec()
		talkTime[u.Speaker] += d
		totalTalk += d
	}

	silence := duration - totalTalk
	if silence < 0 {
		silence = 0
	}

	clarity := clarityScore(t.Utterances)
	sentiment := sentimentScore(enrichment)
	balance := balanceScore(talkTime, totalTalk, w.DominanceThreshold)
	safety := safetyScore(t.MaxSafetySeverity(), w.UnsafeThreshold)

	return entities.CallMetrics{
		WordCount:             wordCount,
		SpeakingRateWpm:       speakingRate,
		TalkTimePerSpeaker:    talkTime,
		SilenceDurationSec:    silence,
		ClarityScore:          clarity,
		SentimentScore:        sentiment,
		BalanceScore:          balance,
		SafetyScore:           safety,
		OverallQualityScore:   composite(clarity, sentiment, balance, safety, w),
		ProcessingDurationSec: processingDuration.Seconds(),
	}
}

// clarityScore is the mean utterance confidence scaled to 0-100, or 0 with
// no utterances
func clarityScore(utterances []entities.Utterance) float64 {
	if len(utterances) == 0 {
		return 0
	}
	var sum float64
	for _, u := range utterances {
		sum += u.Confidence
	}
	return clamp(sum/float64(len(utterances))*100, 0, 100)
}

// sentimentScore maps overall sentiment polarity [-1,1] onto 0-100
func sentimentScore(enrichment *entities.EnrichmentResult) float64 {
	if enrichment == nil {
		return NeutralSentiment
	}
	p := clamp(enrichment.OverallSentiment, -1, 1)
	return (p + 1) / 2 * 100
}

// balanceScore penalizes one-sided calls. Full marks while the dominant
// speaker's share stays at or below the threshold, then linear to 0 at
// total one-sidedness. A call with no measured talk time has no evidence
// of imbalance and scores full marks.
func balanceScore(talkTime map[string]float64, totalTalk, threshold float64) float64 {
	if totalTalk <= 0 {
		return 100
	}
	var dominant float64
	for _, d := range talkTime {
		if share := d / totalTalk; share > dominant {
			dominant = share
		}
	}
	if dominant <= threshold {
		return 100
	}
	if threshold >= 1 {
		return 100
	}
	return clamp((1-dominant)/(1-threshold)*100, 0, 100)
}

// safetyScore is full marks at or below the unsafe threshold, then linear
// to 0 at maximum severity
func safetyScore(severity, threshold float64) float64 {
	severity = clamp(severity, 0, 1)
	if severity <= threshold {
		return 100
	}
	if threshold >= 1 {
		return 100
	}
	return clamp((1-severity)/(1-threshold)*100, 0, 100)
}

// composite is the weighted mean of the four components, clamped to
// [0,100]. Monotonic in every component for non-negative weights.
func composite(clarity, sentiment, balance, safety float64, w Weights) float64 {
	total := w.Clarity + w.Sentiment + w.Balance + w.Safety
	if total <= 0 {
		return 0
	}
	score := (clarity*w.Clarity + sentiment*w.Sentiment + balance*w.Balance + safety*w.Safety) / total
	return clamp(score, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
