package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/callpulse-hq/callpulse/errors"
)

func TestParseAnalysisResponsePlainJSON(t *testing.T) {
	result, err := parseAnalysisResponse(goodAnalysisJSON())
	require.NoError(t, err)

	assert.InDelta(t, 0.6, result.OverallSentiment, 1e-9)
	assert.InDelta(t, 0.5, result.SpeakerSentiment["Speaker 1"], 1e-9)
	assert.NotEmpty(t, result.Summary)
	require.Len(t, result.ActionItems, 1)
	assert.Equal(t, "Send invoice copy", result.ActionItems[0].Title)
	assert.Equal(t, []string{"billing"}, result.Topics)
}

func TestParseAnalysisResponseMarkdownFence(t *testing.T) {
	wrapped := "```json\n" + goodAnalysisJSON() + "\n```"
	result, err := parseAnalysisResponse(wrapped)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, result.OverallSentiment, 1e-9)

	bare := "```\n" + goodAnalysisJSON() + "\n```"
	result, err = parseAnalysisResponse(bare)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Summary)
}

func TestParseAnalysisResponseNotJSON(t *testing.T) {
	_, err := parseAnalysisResponse("Sure! Here is my analysis of the call: it went well.")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_MALFORMED_RESPONSE))
}

func TestParseAnalysisResponseMissingSummary(t *testing.T) {
	_, err := parseAnalysisResponse(`{"overall_sentiment": 0.2, "topics": []}`)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_MALFORMED_RESPONSE))
}

func TestParseAnalysisResponseSentimentOutOfRange(t *testing.T) {
	_, err := parseAnalysisResponse(`{"overall_sentiment": 7, "summary": "ok"}`)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_MALFORMED_RESPONSE))

	_, err = parseAnalysisResponse(`{"overall_sentiment": 0, "summary": "ok", "speaker_sentiment": {"Speaker 1": -4}}`)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrorCode_MALFORMED_RESPONSE))
}

func TestParseAnalysisResponseInitializesCollections(t *testing.T) {
	result, err := parseAnalysisResponse(`{"overall_sentiment": 0.1, "summary": "short call"}`)
	require.NoError(t, err)

	assert.NotNil(t, result.SpeakerSentiment)
	assert.NotNil(t, result.ActionItems)
	assert.NotNil(t, result.Topics)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSON(" {\"a\":1} "))
	assert.Equal(t, `{"a":1}`, extractJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, extractJSON("```\n{\"a\":1}\n```"))
}
