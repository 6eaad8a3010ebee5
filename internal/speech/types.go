// Package speech turns script text into narrated audio.
package speech

import "context"

const (
	DefaultVoiceID = "9BWtsMINqrJLrRacOk9x"
	DefaultModel   = "eleven_multilingual_v2"

	// mp3 output is 128 kbps.
	bitrate = 128000.0
)

type Voice struct {
	ID   string
	Name string
}

type Model struct {
	ID   string
	Name string
}

var Voices = []Voice{
	{"9BWtsMINqrJLrRacOk9x", "Aria"},
	{"CwhRBWXzGAHq8TQ4Fs17", "Roger"},
	{"EXAVITQu4vr4xnSDxMaL", "Sarah"},
	{"FGY2WhTYpPnrIDTdsKH5", "Laura"},
	{"IKne3meq5aSn9XLyUdCD", "Charlie"},
	{"JBFqnCBsd6RMkjVDRZzb", "George"},
	{"N2lVS1w4EtoT3dr4eOWO", "Callum"},
	{"SAz9YHcvj6GT2YYXdXww", "River"},
	{"TX3LPaxmHKxFdv7VOQHJ", "Liam"},
	{"XB0fDUnXU5powFXDhCwa", "Charlotte"},
	{"Xb7hH8MSUJpSbSDYk0k2", "Alice"},
	{"XrExE9yKIg1WjnnlVkGX", "Matilda"},
	{"bIHbv24MWmeRgasZH58o", "Will"},
	{"cgSgspJ2msm6clMCkdW9", "Jessica"},
	{"cjVigY5qzO86Huf0OWal", "Eric"},
	{"iP95p4xoKVk53GoZ742B", "Chris"},
	{"nPczCjzI2devNBz1zQrb", "Brian"},
	{"onwK4e9ZLuTAKqWW03F9", "Daniel"},
	{"pFZP5JQG7iQjIQuC4Bku", "Lily"},
	{"pqHfZKP75CvOlQylNhV4", "Bill"},
}

var Models = []Model{
	{"eleven_multilingual_v2", "Multilingual v2"},
	{"eleven_turbo_v2_5", "Turbo v2.5"},
	{"eleven_turbo_v2", "Turbo v2"},
}

// Synthesizer produces audio for text with the given voice and model.
type Synthesizer interface {
	Synthesize(ctx context.Context, credential string, req Request) ([]byte, error)
}

type Request struct {
	Text    string
	VoiceID string
	Model   string
}

// ResolveVoice accepts a voice ID or a case-insensitive voice name.
func ResolveVoice(v string) (Voice, bool) {
	for _, voice := range Voices {
		if voice.ID == v || equalFold(voice.Name, v) {
			return voice, true
		}
	}
	return Voice{}, false
}

func IsModel(id string) bool {
	for _, m := range Models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// EstimateAudioDuration returns the playing time of mp3 audio in seconds.
func EstimateAudioDuration(audio []byte) float64 {
	return float64(len(audio)*8) / bitrate
}
