package call

// ContactPayload carries the descriptive metadata for one call party
type ContactPayload struct {
	Name  string `json:"name" validate:"omitempty,max=255"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

// UpdateCallRequest is the PATCH body for a call record. Only descriptive
// fields are reachable; lifecycle fields are not.
type UpdateCallRequest struct {
	Agent    *ContactPayload `json:"agent" validate:"omitempty"`
	Customer *ContactPayload `json:"customer" validate:"omitempty"`
	Tags     []string        `json:"tags" validate:"omitempty,dive,min=1,max=64"`
}

// WeightsPayload overrides the scoring weights for one recompute. All
// fields are relative weights; thresholds stay at their configured values.
type WeightsPayload struct {
	Clarity   float64 `json:"clarity" validate:"gte=0"`
	Sentiment float64 `json:"sentiment" validate:"gte=0"`
	Balance   float64 `json:"balance" validate:"gte=0"`
	Safety    float64 `json:"safety" validate:"gte=0"`
}

// RecomputeRequest is the body for the recompute operation
type RecomputeRequest struct {
	Weights *WeightsPayload `json:"weights" validate:"omitempty"`
}

// SpeakerEditPayload relabels the speaker of one utterance
type SpeakerEditPayload struct {
	Index   int    `json:"index" validate:"gte=0"`
	Speaker string `json:"speaker" validate:"required,max=64"`
}

// CorrectSpeakersRequest is the body for manual speaker correction
type CorrectSpeakersRequest struct {
	Edits []SpeakerEditPayload `json:"edits" validate:"required,min=1,dive"`
}

// ListCallsRequest captures the list query parameters
type ListCallsRequest struct {
	Status string `query:"status" validate:"omitempty,oneof=queued processing completed error"`
	Tag    string `query:"tag" validate:"omitempty,max=64"`
	Limit  int    `query:"limit" validate:"omitempty,gte=1,lte=200"`
	Offset int    `query:"offset" validate:"omitempty,gte=0"`
}

// TranscriptionWebhookRequest is the provider callback body. It carries
// only the job handle and status; everything else is fetched back.
type TranscriptionWebhookRequest struct {
	TranscriptID string `json:"transcript_id" validate:"required"`
	Status       string `json:"status" validate:"required"`
}
