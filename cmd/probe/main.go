// Command probe sends one prompt through the configured provider and prints
// the reply. It is a quick way to check LLM_BASE_URL and OPENAI_API_KEY.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/RichardoC/pad-chat/internal/config"
	"github.com/RichardoC/pad-chat/internal/llm"
	"github.com/RichardoC/pad-chat/internal/models"
	"github.com/RichardoC/pad-chat/internal/setup"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	prompt := flag.String("prompt", "What would be a good company name for a company that makes colorful socks?", "prompt to send")
	model := flag.String("model", cfg.LLMDefaultModel, "model to ask")
	image := flag.Bool("image", false, "request an image instead of text")
	flag.Parse()

	logger, err := setup.NewLogger(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	client, err := llm.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMDefaultModel, cfg.GenerationTimeout)
	if err != nil {
		logger.Fatal("failed to initialize LLM client", zap.Error(err))
	}

	ctx := context.Background()
	var out string
	if *image {
		out, err = client.GenerateImage(ctx, *model, *prompt)
	} else {
		out, err = client.Chat(ctx, *model, []models.PromptMessage{{Role: models.RoleUser, Content: *prompt}})
	}
	if err != nil {
		logger.Fatal("failed to generate completion", zap.Error(err), zap.String("model", *model))
	}
	fmt.Println(out)
}
