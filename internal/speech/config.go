package speech

import "regexp"

// DefaultSampleRate is the rate the relay's MP3 audio is produced at. The
// audio context is created once per process at this rate.
const DefaultSampleRate = 24000

// ChannelCount is fixed: the MP3 decoder always yields interleaved stereo.
const ChannelCount = 2

// DefaultCacheDir holds synthesized audio between runs.
const DefaultCacheDir = ".devtimer-cache"

// preferredVoice picks a pleasant default among on-device voices when the
// user has not chosen one.
var preferredVoice = regexp.MustCompile(`(?i)aria|female|samantha|victoria|serena|zira`)

// Program names tried, in order, for on-device speech.
var localPrograms = []string{"espeak-ng", "espeak", "say"}
