package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/callpulse-hq/callpulse/internal/adapter/dto/call"
	"github.com/callpulse-hq/callpulse/internal/usecase/scoring"
)

func TestOverrideWeightsKeepsConfiguredThresholds(t *testing.T) {
	base := scoring.DefaultWeights()
	base.DominanceThreshold = 0.75
	base.UnsafeThreshold = 0.25

	got := overrideWeights(base, &dto.WeightsPayload{Clarity: 0.1, Sentiment: 0.2, Balance: 0.3, Safety: 0.4})
	require.NotNil(t, got)

	assert.InDelta(t, 0.1, got.Clarity, 1e-9)
	assert.InDelta(t, 0.2, got.Sentiment, 1e-9)
	assert.InDelta(t, 0.3, got.Balance, 1e-9)
	assert.InDelta(t, 0.4, got.Safety, 1e-9)

	// only the weight components are overridable per request
	assert.InDelta(t, 0.75, got.DominanceThreshold, 1e-9)
	assert.InDelta(t, 0.25, got.UnsafeThreshold, 1e-9)
}

func TestOverrideWeightsNilPayloadMeansNoOverride(t *testing.T) {
	assert.Nil(t, overrideWeights(scoring.DefaultWeights(), nil))
}

func TestSplitTags(t *testing.T) {
	assert.Equal(t, []string{"billing", "priority"}, splitTags(" billing , priority ,"))
	assert.Nil(t, splitTags("  ,  "))
}

func TestIsAudioContentType(t *testing.T) {
	assert.True(t, isAudioContentType("audio/mpeg"))
	assert.True(t, isAudioContentType("Audio/WAV"))
	assert.True(t, isAudioContentType("application/octet-stream"))
	assert.False(t, isAudioContentType("text/plain"))
}
