package storage

// KeyPrefix namespaces every settings key.
const KeyPrefix = "devtimer:"

// Settings keys. Each one is independently optional; callers supply the
// default when reading.
const (
	KeyFocusMinutes      = KeyPrefix + "focusMins"
	KeyShortBreakMinutes = KeyPrefix + "shortBreakMins"
	KeyLongBreakMinutes  = KeyPrefix + "longBreakMins"
	KeyCyclesUntilLong   = KeyPrefix + "cyclesUntilLong"
	KeyPhase             = KeyPrefix + "phase"
	KeySecondsLeft       = KeyPrefix + "secondsLeft"
	KeyCompletedFocus    = KeyPrefix + "completedFocus"
	KeyModel             = KeyPrefix + "openaiModel"
	KeyLocalGeneration   = KeyPrefix + "useLocalAI"
	KeyVoiceEnabled      = KeyPrefix + "enableVoice"
	KeyRemoteVoice       = KeyPrefix + "openaiVoice"
	KeyLocalVoice        = KeyPrefix + "browserVoice"
	KeyAudioPrimed       = KeyPrefix + "audioPrimed"
)
