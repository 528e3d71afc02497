package services

import (
	"fmt"

	"github.com/dskvich/memi-chat/pkg/domain"
)

const (
	newChatTitlePrompt = "Generate a title for the chat based on the prompt. The title should be 24 characters or less. Reply with only the title."

	generatePersonaPrompt = "Generate a persona for the user based on the prompt. Describe the life they are living, how they behave, what they are passionate about and go into detail about their personality. Reply with only the persona."

	alternativeReplyPrompt = "Reflect back on chat history and give alternative response make sure it's different from the previous response. "

	// thoughtMarker shows up when the model leaks its reasoning into the reply.
	thoughtMarker = "<ctrl3347>"

	titleMaxOutputTokens = 24
)

func agentSystemPrompt(memory string, agent domain.Agent) string {
	prompt := fmt.Sprintf(
		"This is what you know about the user %s. Do not include thoughts in your response. You are %s. Act as %s. Only reply as %s. %s",
		memory, agent.Name, agent.Name, agent.Name, agent.Prompt,
	)
	if agent.ConsecutiveReply {
		return alternativeReplyPrompt + prompt
	}
	return prompt
}

func memorySystemPrompt(current string) string {
	return fmt.Sprintf(
		"Reflect back on chat history and construct user memory. This should include who is the user, what user likes, dislikes and thinks. Consider current user memory and give updated memory. Current user memory: %s. Do not include chat history in memory. Reply only with memory in markdown format or plain text.",
		current,
	)
}

func agentErrorMessage(agent domain.Agent) string {
	if agent.ConsecutiveReply {
		return domain.AgentConsecutiveStreamErrorMessage
	}
	return domain.AgentStreamErrorMessage
}
