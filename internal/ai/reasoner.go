package ai

import (
	"context"

	"docanalyst/internal/pipeline"
)

// ChatReasoner answers pipeline prompts through a chat completion endpoint.
type ChatReasoner struct {
	client *OpenAICompatibleClient
	cfg    ChatConfig
}

func NewChatReasoner(client *OpenAICompatibleClient, cfg ChatConfig) *ChatReasoner {
	return &ChatReasoner{client: client, cfg: cfg}
}

func (r *ChatReasoner) Reason(ctx context.Context, prompt pipeline.Prompt) (string, error) {
	return r.client.Complete(ctx, r.cfg, []ChatMessage{
		{Role: "system", Content: prompt.System},
		{Role: "user", Content: prompt.User},
	})
}
