package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	DefaultTitle      = "New Chat"
	DefaultModel      = "gpt-4"
	DefaultImageModel = "flux"
)

type Conversation struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID        int64     `json:"id"`
	ConvID    int64     `json:"conversation_id"`
	Role      string    `json:"role"` // user or assistant
	Content   string    `json:"content"`
	IsImage   bool      `json:"is_image"`
	ModelUsed string    `json:"model_used"`
	CreatedAt time.Time `json:"created_at"`
}

// Settings is the per-conversation generation configuration.
type Settings struct {
	ID           int64  `json:"id"`
	ConvID       int64  `json:"conversation_id"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
	ImageModel   string `json:"image_model"`
}

// DefaultSettings returns the settings a conversation starts with.
func DefaultSettings(convID int64) Settings {
	return Settings{
		ConvID:     convID,
		Model:      DefaultModel,
		ImageModel: DefaultImageModel,
	}
}

// PromptMessage is one role/content pair handed to the generation client.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
