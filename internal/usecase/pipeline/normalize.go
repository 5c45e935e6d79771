package pipeline

import (
	"fmt"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	apperrors "github.com/callpulse-hq/callpulse/errors"
	"github.com/callpulse-hq/callpulse/internal/domain/entities"
)

// normalizeTranscript converts a fetched provider transcript into the
// stored representation. Provider speaker tags (A, B, ...) become ordinal
// labels (Speaker 1, Speaker 2, ...) in order of first appearance; start
// and end offsets stay in milliseconds as the provider reports them.
func normalizeTranscript(t *aai.Transcript) (*entities.TranscriptionResult, error) {
	switch t.Status {
	case aai.TranscriptStatusCompleted:
	case aai.TranscriptStatusError:
		reason := "transcription failed"
		if t.Error != nil && *t.Error != "" {
			reason = *t.Error
		}
		return nil, apperrors.ErrTranscriptionFailed(reason)
	default:
		return nil, apperrors.ErrTranscriptionFailed(fmt.Sprintf("transcript not completed: status %s", t.Status))
	}

	result := &entities.TranscriptionResult{
		Provider:     "assemblyai",
		LanguageCode: string(t.LanguageCode),
	}
	if t.Text != nil {
		result.Text = *t.Text
	}
	if t.AudioDuration != nil {
		result.AudioDurationSec = *t.AudioDuration
	}

	utterances := extractUtterances(t)
	relabelSpeakers(utterances)
	result.Utterances = utterances

	for _, e := range t.Entities {
		entity := entities.DetectedEntity{Type: string(e.EntityType)}
		if e.Text != nil {
			entity.Text = *e.Text
		}
		if e.Start != nil {
			entity.StartMs = *e.Start
		}
		if e.End != nil {
			entity.EndMs = *e.End
		}
		result.Entities = append(result.Entities, entity)
	}

	for _, c := range t.Chapters {
		chapter := entities.Chapter{}
		if c.Gist != nil {
			chapter.Gist = *c.Gist
		}
		if c.Headline != nil {
			chapter.Headline = *c.Headline
		}
		if c.Summary != nil {
			chapter.Summary = *c.Summary
		}
		if c.Start != nil {
			chapter.StartMs = *c.Start
		}
		if c.End != nil {
			chapter.EndMs = *c.End
		}
		result.Chapters = append(result.Chapters, chapter)
	}

	for _, r := range t.ContentSafetyLabels.Results {
		for _, l := range r.Labels {
			score := entities.SafetyScore{}
			if l.Label != nil {
				score.Label = *l.Label
			}
			if l.Severity != nil {
				score.Severity = *l.Severity
			}
			if l.Confidence != nil {
				score.Confidence = *l.Confidence
			}
			result.SafetyScores = append(result.SafetyScores, score)
		}
	}

	return result, nil
}

// extractUtterances takes the provider utterances when diarization produced
// them, otherwise merges word timestamps into contiguous same-speaker runs
func extractUtterances(t *aai.Transcript) []entities.Utterance {
	if len(t.Utterances) > 0 {
		out := make([]entities.Utterance, 0, len(t.Utterances))
		for _, u := range t.Utterances {
			utt := entities.Utterance{}
			if u.Text != nil {
				utt.Text = *u.Text
			}
			if u.Speaker != nil {
				utt.Speaker = *u.Speaker
			}
			if u.Start != nil {
				utt.StartMs = *u.Start
			}
			if u.End != nil {
				utt.EndMs = *u.End
			}
			if u.Confidence != nil {
				utt.Confidence = *u.Confidence
			}
			out = append(out, utt)
		}
		return out
	}
	return mergeWords(t.Words)
}

// mergeWords folds word-level timestamps into utterances, breaking runs
// whenever the speaker tag changes. Confidence is the mean over the run's
// words.
func mergeWords(words []aai.TranscriptWord) []entities.Utterance {
	var out []entities.Utterance
	var cur *entities.Utterance
	var confSum float64
	var confN int

	flush := func() {
		if cur == nil {
			return
		}
		if confN > 0 {
			cur.Confidence = confSum / float64(confN)
		}
		out = append(out, *cur)
		cur, confSum, confN = nil, 0, 0
	}

	for _, w := range words {
		speaker := ""
		if w.Speaker != nil {
			speaker = *w.Speaker
		}
		text := ""
		if w.Text != nil {
			text = *w.Text
		}

		if cur == nil || cur.Speaker != speaker {
			flush()
			cur = &entities.Utterance{Speaker: speaker, Text: text}
			if w.Start != nil {
				cur.StartMs = *w.Start
			}
		} else if text != "" {
			if cur.Text != "" {
				cur.Text += " "
			}
			cur.Text += text
		}
		if w.End != nil {
			cur.EndMs = *w.End
		}
		if w.Confidence != nil {
			confSum += *w.Confidence
			confN++
		}
	}
	flush()
	return out
}

// relabelSpeakers rewrites provider speaker tags into ordinal labels by
// order of first appearance
func relabelSpeakers(utterances []entities.Utterance) {
	labels := make(map[string]string)
	next := 1
	for i := range utterances {
		tag := utterances[i].Speaker
		label, ok := labels[tag]
		if !ok {
			label = fmt.Sprintf("Speaker %d", next)
			labels[tag] = label
			next++
		}
		utterances[i].Speaker = label
	}
}

// formatTranscriptForAnalysis renders utterances as "[MM:SS Speaker N]: text"
// lines, the shape the analysis prompt expects
func formatTranscriptForAnalysis(t *entities.TranscriptionResult) string {
	var out string
	for _, u := range t.Utterances {
		totalSec := u.StartMs / 1000
		out += fmt.Sprintf("[%02d:%02d %s]: %s\n", totalSec/60, totalSec%60, u.Speaker, u.Text)
	}
	if out == "" {
		out = t.Text
	}
	return out
}
