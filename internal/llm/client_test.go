package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RichardoC/pad-chat/internal/models"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type fakeModel struct {
	got     []llms.MessageContent
	options llms.CallOptions
	resp    *llms.ContentResponse
	err     error
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.got = messages
	for _, opt := range options {
		opt(&f.options)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestNew(t *testing.T) {
	c, err := New("http://localhost:11434/v1/", "fake", "llama3.1:8b", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, c.llm)
	assert.NotNil(t, c.images)
	assert.Equal(t, time.Minute, c.timeout)
}

func TestChat_MapsRolesAndModel(t *testing.T) {
	fake := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "Fine."}},
	}}
	c := &Client{llm: fake}

	reply, err := c.Chat(context.Background(), "gpt-4o", []models.PromptMessage{
		{Role: models.RoleSystem, Content: "Be brief."},
		{Role: models.RoleUser, Content: "Hi"},
		{Role: models.RoleAssistant, Content: "Hello"},
		{Role: models.RoleUser, Content: "How are you?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Fine.", reply)
	assert.Equal(t, "gpt-4o", fake.options.Model)

	require.Len(t, fake.got, 4)
	wantRoles := []schema.ChatMessageType{
		schema.ChatMessageTypeSystem,
		schema.ChatMessageTypeHuman,
		schema.ChatMessageTypeAI,
		schema.ChatMessageTypeHuman,
	}
	for i, role := range wantRoles {
		assert.Equal(t, role, fake.got[i].Role)
	}
	assert.Equal(t, llms.TextContent{Text: "How are you?"}, fake.got[3].Parts[0])
}

func TestChat_Errors(t *testing.T) {
	c := &Client{llm: &fakeModel{err: errors.New("connection refused")}}
	_, err := c.Chat(context.Background(), "gpt-4", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	c = &Client{llm: &fakeModel{resp: &llms.ContentResponse{}}}
	_, err = c.Chat(context.Background(), "gpt-4", nil)
	assert.EqualError(t, err, "provider returned no choices")
}

func TestGenerateImage(t *testing.T) {
	var got goopenai.ImageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"created":1,"data":[{"url":"https://images.example/cat.png"}]}`))
	}))
	defer srv.Close()

	c := &Client{images: newImageClient(srv.URL+"/v1/", "secret"), timeout: time.Minute}
	url, err := c.GenerateImage(context.Background(), "flux", "a cat")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/cat.png", url)
	assert.Equal(t, "flux", got.Model)
	assert.Equal(t, "a cat", got.Prompt)
	assert.Equal(t, 1, got.N)
	assert.Equal(t, goopenai.CreateImageResponseFormatURL, got.ResponseFormat)
}

func TestGenerateImage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := &Client{images: newImageClient(srv.URL, "")}
	_, err := c.GenerateImage(context.Background(), "flux", "a cat")
	require.Error(t, err)

	var apiErr *goopenai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "model not found", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatusCode)
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerateImage_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream down`))
	}))
	defer srv.Close()

	c := &Client{images: newImageClient(srv.URL, "")}
	_, err := c.GenerateImage(context.Background(), "flux", "a cat")
	require.Error(t, err)

	var reqErr *goopenai.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadGateway, reqErr.HTTPStatusCode)
}

func TestGenerateImage_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"created":1,"data":[]}`))
	}))
	defer srv.Close()

	c := &Client{images: newImageClient(srv.URL, "")}
	_, err := c.GenerateImage(context.Background(), "flux", "a cat")
	assert.EqualError(t, err, "provider returned no image")
}
