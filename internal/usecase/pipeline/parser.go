package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/callpulse-hq/callpulse/errors"
	"github.com/callpulse-hq/callpulse/internal/domain/entities"
)

// parseAnalysisResponse parses the model output into an EnrichmentResult.
// The model is instructed to return bare JSON but sometimes wraps it in a
// markdown code block anyway. Anything that cannot be parsed into the
// required shape maps to ErrMalformedResponse; the caller decides that the
// record still completes without enrichment.
func parseAnalysisResponse(content string) (*entities.EnrichmentResult, error) {
	jsonString := extractJSON(content)

	var result entities.EnrichmentResult
	if err := json.Unmarshal([]byte(jsonString), &result); err != nil {
		return nil, apperrors.ErrMalformedResponse(fmt.Errorf("failed to parse analysis response: %w", err))
	}

	if result.Summary == "" {
		return nil, apperrors.ErrMalformedResponse(fmt.Errorf("missing summary in analysis response"))
	}
	if result.OverallSentiment < -1 || result.OverallSentiment > 1 {
		return nil, apperrors.ErrMalformedResponse(fmt.Errorf("overall_sentiment %v out of range", result.OverallSentiment))
	}
	for speaker, p := range result.SpeakerSentiment {
		if p < -1 || p > 1 {
			return nil, apperrors.ErrMalformedResponse(fmt.Errorf("speaker_sentiment[%s] %v out of range", speaker, p))
		}
	}

	if result.SpeakerSentiment == nil {
		result.SpeakerSentiment = make(map[string]float64)
	}
	if result.ActionItems == nil {
		result.ActionItems = make([]entities.ActionItem, 0)
	}
	if result.Topics == nil {
		result.Topics = make([]string, 0)
	}

	return &result, nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
