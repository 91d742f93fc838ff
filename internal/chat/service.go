package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/RichardoC/pad-chat/internal/db"
	"github.com/RichardoC/pad-chat/internal/models"
	"go.uber.org/zap"
)

const (
	ResponseText  = "text"
	ResponseImage = "image"

	titleLimit = 50
)

// ErrNotFound is returned when the referenced conversation does not exist.
var ErrNotFound = fmt.Errorf("conversation %w", db.ErrNotFound)

// Generator is the external text and image generation capability.
type Generator interface {
	Chat(ctx context.Context, model string, prompt []models.PromptMessage) (string, error)
	GenerateImage(ctx context.Context, model, prompt string) (string, error)
}

// GenerationError wraps a failed call to the Generator.
type GenerationError struct {
	Kind string // "Chat" or "Image"
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

type Service struct {
	db     *db.Database
	gen    Generator
	logger *zap.Logger
}

func New(database *db.Database, gen Generator, logger *zap.Logger) *Service {
	return &Service{db: database, gen: gen, logger: logger}
}

type SendRequest struct {
	ConversationID int64
	Message        string
	ResponseType   string
}

type SendResult struct {
	Message           *models.Message
	ConversationTitle string
}

// SettingsPatch carries a partial settings update. Nil fields are left alone.
type SettingsPatch struct {
	Model        *string `json:"model"`
	SystemPrompt *string `json:"system_prompt"`
	ImageModel   *string `json:"image_model"`
}

// SendMessage stores the user message, asks the generator for a reply and
// stores that too. The user message is kept even if generation fails.
func (s *Service) SendMessage(ctx context.Context, req SendRequest) (*SendResult, error) {
	conv, err := s.getConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	settings, err := s.db.GetOrCreateSettings(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	userMsg := &models.Message{
		ConvID:  conv.ID,
		Role:    models.RoleUser,
		Content: req.Message,
	}
	if err := s.db.SaveMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	reply := &models.Message{
		ConvID: conv.ID,
		Role:   models.RoleAssistant,
	}
	if req.ResponseType == ResponseImage {
		url, err := s.gen.GenerateImage(ctx, settings.ImageModel, req.Message)
		if err != nil {
			s.logger.Warn("image generation failed",
				zap.Int64("conversation_id", conv.ID),
				zap.String("model", settings.ImageModel),
				zap.Error(err))
			return nil, &GenerationError{Kind: "Image", Err: err}
		}
		reply.Content = url
		reply.IsImage = true
		reply.ModelUsed = settings.ImageModel
	} else {
		prompt, err := s.buildPrompt(ctx, settings, userMsg)
		if err != nil {
			return nil, err
		}
		text, err := s.gen.Chat(ctx, settings.Model, prompt)
		if err != nil {
			s.logger.Warn("chat generation failed",
				zap.Int64("conversation_id", conv.ID),
				zap.String("model", settings.Model),
				zap.Error(err))
			return nil, &GenerationError{Kind: "Chat", Err: err}
		}
		reply.Content = text
		reply.ModelUsed = settings.Model
	}

	if err := s.db.SaveMessage(ctx, reply); err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}

	count, err := s.db.CountMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	if count == 2 {
		conv.Title = DeriveTitle(req.Message)
		if err := s.db.UpdateConversationTitle(ctx, conv.ID, conv.Title); err != nil {
			return nil, fmt.Errorf("failed to update title: %w", err)
		}
	}

	return &SendResult{Message: reply, ConversationTitle: conv.Title}, nil
}

// buildPrompt assembles the system prompt, the earlier text history and the
// current message, in that order. Image replies never enter the prompt.
func (s *Service) buildPrompt(ctx context.Context, settings *models.Settings, current *models.Message) ([]models.PromptMessage, error) {
	history, err := s.db.ListMessages(ctx, current.ConvID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}

	prompt := make([]models.PromptMessage, 0, len(history)+1)
	if settings.SystemPrompt != "" {
		prompt = append(prompt, models.PromptMessage{Role: models.RoleSystem, Content: settings.SystemPrompt})
	}
	for _, m := range history {
		if m.IsImage || m.ID == current.ID {
			continue
		}
		prompt = append(prompt, models.PromptMessage{Role: m.Role, Content: m.Content})
	}
	return append(prompt, models.PromptMessage{Role: models.RoleUser, Content: current.Content}), nil
}

// DeriveTitle keeps the first 50 characters of msg, marking truncation with "...".
func DeriveTitle(msg string) string {
	r := []rune(msg)
	if len(r) <= titleLimit {
		return msg
	}
	return string(r[:titleLimit]) + "..."
}

func (s *Service) getConversation(ctx context.Context, id int64) (*models.Conversation, error) {
	conv, err := s.db.GetConversation(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	return conv, err
}

func (s *Service) CreateConversation(ctx context.Context) (*models.Conversation, error) {
	return s.db.CreateConversation(ctx, models.DefaultTitle)
}

func (s *Service) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	return s.db.ListConversations(ctx)
}

func (s *Service) DeleteConversation(ctx context.Context, id int64) error {
	err := s.db.DeleteConversation(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// RenameConversation sets the title when one is given and returns the
// resulting title.
func (s *Service) RenameConversation(ctx context.Context, id int64, title *string) (string, error) {
	conv, err := s.getConversation(ctx, id)
	if err != nil {
		return "", err
	}
	if title != nil {
		conv.Title = *title
	}
	if err := s.db.UpdateConversationTitle(ctx, id, conv.Title); err != nil {
		return "", err
	}
	return conv.Title, nil
}

func (s *Service) ListMessages(ctx context.Context, id int64) ([]models.Message, error) {
	if _, err := s.getConversation(ctx, id); err != nil {
		return nil, err
	}
	return s.db.ListMessages(ctx, id)
}

func (s *Service) GetSettings(ctx context.Context, id int64) (*models.Settings, error) {
	if _, err := s.getConversation(ctx, id); err != nil {
		return nil, err
	}
	return s.db.GetOrCreateSettings(ctx, id)
}

func (s *Service) UpdateSettings(ctx context.Context, id int64, patch SettingsPatch) (*models.Settings, error) {
	settings, err := s.GetSettings(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Model != nil {
		settings.Model = *patch.Model
	}
	if patch.SystemPrompt != nil {
		settings.SystemPrompt = *patch.SystemPrompt
	}
	if patch.ImageModel != nil {
		settings.ImageModel = *patch.ImageModel
	}
	if err := s.db.UpdateSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
