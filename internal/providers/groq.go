package providers

import "time"

const groqBaseURL = "https://api.groq.com/openai/v1"

// NewGroqProvider returns a client for Groq's OpenAI-compatible API. Groq
// models do not read PDF attachments.
func NewGroqProvider(keyName, model string, timeout time.Duration) *OpenAIProvider {
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	return newOpenAICompatible("groq", keyName, resolveKey("GROQ", keyName, "GROQ_API_KEY"), model, groqBaseURL, timeout, false)
}
