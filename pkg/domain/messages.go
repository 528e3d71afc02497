package domain

// User-visible texts shared by the client pipeline and the edge API.
const (
	AbortedMessage = "Aborted"
	RetryMessage   = "Please try again. Something went wrong"

	StreamErrorMessage                 = "I am sorry, I am not able to complete the request right now. Please try again later."
	AgentStreamErrorMessage            = "Sorry, can you send the message again? I cannot see it"
	AgentConsecutiveStreamErrorMessage = "Oh, never mind."

	// TypingSmile is the typing indicator shown for the default agent.
	TypingSmile = "smile"

	GenericSuccessMessage = "success"
	GenericErrorMessage   = "error"
)
