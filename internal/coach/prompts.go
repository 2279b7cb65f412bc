package coach

// Prompt text lives here so the coach's voice is a single-file edit.

// promptPersona opens every prompt.
const promptPersona = "You are a concise, encouraging productivity coach."

// promptInstruction closes the base prompt.
const promptInstruction = "Instruction: If the user just finished a focus block, suggest a short, body-friendly break and one small setup action for the next sprint. Keep it under 280 characters."

// demoLine answers the one-minute trial run.
const demoLine = "Great 1-min test! Take a quick stretch. Roll your shoulders, look away from the screen. When you're back, you're ready for a real focus session."

// momentumLine is the local answer when nothing more specific applies.
const momentumLine = "Keep your momentum: short stretch, then ease back into your next focus sprint."

// localTips answer questions when generation is local.
var localTips = []string{
	"Set one 25-min goal and close all tabs not needed.",
	"Silence notifications and enable do-not-disturb.",
	"Write a 3-bullet plan, then start with bullet #1.",
	"Use headphones with a single playlist for focus.",
	"Stand up, breathe 3 times, then commit to 10 solid minutes.",
}

// Canned requests.
const (
	questionFocusTip = "Give me one concrete tip to stay focused for the next block."
	defaultFocusTip  = "Try the 3-2-1 launch: 3 deep breaths, 2 distractions removed, 1 clear goal."

	questionSummary = "Summarize my productivity today in two sentences."
	defaultSummary  = "You've completed %d focus cycle(s). Keep the cadence; a short stretch and hydration before the next block will keep your energy steady."
)
