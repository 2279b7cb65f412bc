package domain

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentStart
	IntentPause
	IntentToggle // start when paused, pause when running
	IntentReset
	IntentSkip
	IntentSelectPhase // payload: phase name
	IntentEditTime    // payload: "mm:ss" or seconds
	IntentSetDuration // payload: "<field> <n>"
	IntentSetModel    // payload: model id
	IntentSetVoice    // payload: relay voice id
	IntentSetLocalVoice
	IntentVoiceToggle // payload: "on" / "off"
	IntentLocalToggle // payload: "on" / "off"
	IntentListVoices
	IntentFocusTip
	IntentSummary
	IntentAsk // free-form question for the coach
	IntentPlayPending
	IntentStatus
	IntentHelp
	IntentQuit
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	switch i {
	case IntentStart:
		return "start"
	case IntentPause:
		return "pause"
	case IntentToggle:
		return "toggle"
	case IntentReset:
		return "reset"
	case IntentSkip:
		return "skip"
	case IntentSelectPhase:
		return "select_phase"
	case IntentEditTime:
		return "edit_time"
	case IntentSetDuration:
		return "set_duration"
	case IntentSetModel:
		return "set_model"
	case IntentSetVoice:
		return "set_voice"
	case IntentSetLocalVoice:
		return "set_local_voice"
	case IntentVoiceToggle:
		return "voice_toggle"
	case IntentLocalToggle:
		return "local_toggle"
	case IntentListVoices:
		return "list_voices"
	case IntentFocusTip:
		return "focus_tip"
	case IntentSummary:
		return "summary"
	case IntentAsk:
		return "ask"
	case IntentPlayPending:
		return "play_pending"
	case IntentStatus:
		return "status"
	case IntentHelp:
		return "help"
	case IntentQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Intent represents a parsed user action.
type Intent struct {
	Type    IntentType
	Payload string
}
