package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewCallRecordStartsQueued(t *testing.T) {
	record := NewCallRecord("agent-1", FileInfo{Name: "a.mp3", StorageKey: "calls/a.mp3"})

	assert.Equal(t, CallStatusQueued, record.Status)
	assert.NotEqual(t, record.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.False(t, record.IsTerminal())
	assert.False(t, record.CanRecompute())
}

func TestIsTerminal(t *testing.T) {
	record := &CallRecord{}
	for status, terminal := range map[CallStatus]bool{
		CallStatusQueued:     false,
		CallStatusProcessing: false,
		CallStatusCompleted:  true,
		CallStatusError:      true,
	} {
		record.Status = status
		assert.Equal(t, terminal, record.IsTerminal(), "status %s", status)
	}
}

func TestCanRecomputeNeedsTranscription(t *testing.T) {
	record := &CallRecord{Status: CallStatusCompleted}
	assert.False(t, record.CanRecompute())

	record.Transcription = &TranscriptionResult{Text: "hi"}
	assert.True(t, record.CanRecompute())

	record.Status = CallStatusError
	assert.True(t, record.CanRecompute())

	record.Status = CallStatusProcessing
	assert.False(t, record.CanRecompute())
}

func TestIsStale(t *testing.T) {
	now := time.Now()
	record := &CallRecord{Status: CallStatusProcessing, UpdatedAt: now.Add(-time.Hour)}

	assert.True(t, record.IsStale(30*time.Minute, now))
	assert.False(t, record.IsStale(2*time.Hour, now))

	record.Status = CallStatusCompleted
	assert.False(t, record.IsStale(30*time.Minute, now))
}

func TestSpeakersOrderedByFirstAppearance(t *testing.T) {
	tr := &TranscriptionResult{Utterances: []Utterance{
		{Speaker: "Speaker 2"},
		{Speaker: "Speaker 1"},
		{Speaker: "Speaker 2"},
	}}
	assert.Equal(t, []string{"Speaker 2", "Speaker 1"}, tr.Speakers())
}

func TestUtteranceDurationSec(t *testing.T) {
	u := Utterance{StartMs: 1500, EndMs: 4000}
	assert.InDelta(t, 2.5, u.DurationSec(), 1e-9)
}
