package provider

const (
	Gemini     = "gemini"
	OpenAI     = "openai"
	Claude     = "claude"
	Grok       = "grok"
	Mistral    = "mistral"
	DeepSeek   = "deepseek"
	Perplexity = "perplexity"

	Leonardo   = "leonardo"
	Kling      = "kling"
	Midjourney = "midjourney"

	ElevenLabs = "elevenlabs"
	YouTube    = "youtube"
)

var catalogue = []Descriptor{
	{
		ID:             Gemini,
		DisplayName:    "Google Gemini",
		Kind:           KindText,
		Endpoint:       "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent",
		CredentialSlot: "gemini_api_key",
		KeyURL:         "https://makersuite.google.com/app/apikey",
		Model:          "gemini-pro",
	},
	{
		ID:             OpenAI,
		DisplayName:    "OpenAI ChatGPT",
		Kind:           KindText,
		Endpoint:       "https://api.openai.com/v1/chat/completions",
		CredentialSlot: "openai_api_key",
		KeyURL:         "https://platform.openai.com/api-keys",
		Model:          "gpt-4",
	},
	{
		ID:             Claude,
		DisplayName:    "Anthropic Claude",
		Kind:           KindText,
		Endpoint:       "https://api.anthropic.com/v1/messages",
		CredentialSlot: "claude_api_key",
		KeyURL:         "https://console.anthropic.com/",
		Model:          "claude-3-sonnet-20240229",
	},
	{
		ID:             Grok,
		DisplayName:    "Grok (X.AI)",
		Kind:           KindText,
		Endpoint:       "https://api.x.ai/v1/chat/completions",
		CredentialSlot: "grok_api_key",
		KeyURL:         "https://console.x.ai/",
		Model:          "grok-beta",
	},
	{
		ID:             Mistral,
		DisplayName:    "Mistral AI",
		Kind:           KindText,
		Endpoint:       "https://api.mistral.ai/v1/chat/completions",
		CredentialSlot: "mistral_api_key",
		KeyURL:         "https://console.mistral.ai/",
		Model:          "mistral-large-latest",
	},
	{
		ID:             DeepSeek,
		DisplayName:    "DeepSeek",
		Kind:           KindText,
		Endpoint:       "https://api.deepseek.com/v1/chat/completions",
		CredentialSlot: "deepseek_api_key",
		KeyURL:         "https://platform.deepseek.com/api_keys",
		Model:          "deepseek-chat",
	},
	{
		ID:             Perplexity,
		DisplayName:    "Perplexity",
		Kind:           KindText,
		Endpoint:       "https://api.perplexity.ai/chat/completions",
		CredentialSlot: "perplexity_api_key",
		KeyURL:         "https://www.perplexity.ai/settings/api",
		Model:          "llama-3.1-sonar-small-128k-online",
	},
	{
		ID:             Leonardo,
		DisplayName:    "Leonardo AI",
		Kind:           KindImage,
		Endpoint:       "https://cloud.leonardo.ai/api/rest/v1",
		CredentialSlot: "leonardo_api_key",
		KeyURL:         "https://cloud.leonardo.ai/api-access",
		Model:          "e316348f-7773-490e-9ce1-2fa6f8ad5f2b",
	},
	{
		ID:             Kling,
		DisplayName:    "Kling AI",
		Kind:           KindImage,
		CredentialSlot: "kling_api_key",
		KeyURL:         "https://klingai.com/",
	},
	{
		ID:             Midjourney,
		DisplayName:    "Midjourney",
		Kind:           KindImage,
		CredentialSlot: "midjourney_api_key",
		KeyURL:         "https://www.midjourney.com/",
	},
	{
		ID:             ElevenLabs,
		DisplayName:    "ElevenLabs",
		Kind:           KindSpeech,
		Endpoint:       "https://api.elevenlabs.io/v1",
		CredentialSlot: "elevenlabs_api_key",
		KeyURL:         "https://elevenlabs.io/app/settings/api-keys",
		Model:          "eleven_multilingual_v2",
	},
	{
		ID:             YouTube,
		DisplayName:    "YouTube Data API",
		Kind:           KindMetadata,
		Endpoint:       "https://www.googleapis.com/youtube/v3",
		CredentialSlot: "youtube_api_key",
		KeyURL:         "https://console.cloud.google.com/apis/credentials",
	},
}

// Default returns the built-in catalogue. Catalogue ids are unique so the
// construction cannot fail.
func Default() *Registry {
	r, err := NewRegistry(catalogue...)
	if err != nil {
		panic(err)
	}
	return r
}
