package domain

// FeedbackContext is the snapshot handed to the coach for one request.
// Field names follow the JSON the prompt embeds.
type FeedbackContext struct {
	Phase             Phase  `json:"phase"`
	FocusMinutes      int    `json:"focusMins"`
	ShortBreakMinutes int    `json:"shortBreakMins"`
	LongBreakMinutes  int    `json:"longBreakMins,omitempty"`
	CompletedFocus    int    `json:"completedFocus"`
	Note              string `json:"productivityNote,omitempty"`
}

// FeedbackRequest is one call into the coach.
type FeedbackRequest struct {
	Context  FeedbackContext
	Question string // optional user question
	Default  string // returned whenever the coach cannot do better
	Coach    CoachPreferences
}
