package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mingainspire/better-bolt/config"
	"github.com/mingainspire/better-bolt/internal/api/handlers"
	"github.com/mingainspire/better-bolt/internal/api/middleware"
	"github.com/mingainspire/better-bolt/internal/api/routes"
	"github.com/mingainspire/better-bolt/internal/cache"
	"github.com/mingainspire/better-bolt/internal/logger"
	"github.com/mingainspire/better-bolt/internal/providers/llm"
	"github.com/mingainspire/better-bolt/internal/registry"
	"github.com/mingainspire/better-bolt/internal/relay"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	providers := config.LoadProviders()

	// Redis backs the Ollama model-list cache; the server runs fine without it.
	var modelCache cache.Cache
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Warn("redis unavailable, model-list cache disabled")
	} else {
		modelCache = cache.NewRedisCache(config.RedisClient)
		log.Info("redis connected")
	}

	reg := registry.New().WithOllama(providers.OllamaBaseURL, modelCache, log)

	rel := relay.New(log)
	rel.Register("Anthropic", llm.NewAnthropic("", providers.AnthropicAPIKey))
	rel.Register("OpenAI", llm.NewOpenAILike("OpenAI", "https://api.openai.com/v1", providers.OpenAIAPIKey, nil))
	rel.Register("Groq", llm.NewOpenAILike("Groq", "https://api.groq.com/openai/v1", providers.GroqAPIKey, nil))
	rel.Register("OpenRouter", llm.NewOpenAILike("OpenRouter", "https://openrouter.ai/api/v1", providers.OpenRouterAPIKey, map[string]string{
		"X-Title": "better-bolt",
	}))
	rel.Register("Deepseek", llm.NewOpenAILike("Deepseek", "https://api.deepseek.com", providers.DeepseekAPIKey, nil))
	rel.Register("Mistral", llm.NewOpenAILike("Mistral", "https://api.mistral.ai/v1", providers.MistralAPIKey, nil))
	rel.Register("Ollama", llm.NewOllama(providers.OllamaBaseURL))

	if providers.GoogleProject != "" {
		vg, err := llm.NewVertexGemini(ctx, providers.GoogleProject, providers.GoogleLocation)
		if err != nil {
			log.WithError(err).Warn("vertex client init failed, Google provider disabled")
		} else {
			defer vg.Close()
			rel.Register("Google", vg)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Chat:      handlers.NewChatHandler(rel, reg, log),
		Models:    handlers.NewModelHandler(reg),
		Keys:      handlers.NewKeyHandler(reg, log),
		Artifacts: handlers.NewArtifactHandler(log),
		WS:        handlers.NewWSHandler(reg, rel, log),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("server starting")
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
