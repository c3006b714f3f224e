package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"groovyfox-agent/handler"
	"groovyfox-agent/internal/catalog"
	"groovyfox-agent/internal/integrations/luis"
	"groovyfox-agent/internal/integrations/paramstore"
	"groovyfox-agent/internal/repository"
	"groovyfox-agent/internal/router"
	"groovyfox-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	transcriptTable := mustEnv("TRANSCRIPT_TABLE")
	paramPrefix := mustEnv("PARAM_PREFIX")
	luisAppID := mustEnv("LUIS_APP_ID")
	luisEndpoint := os.Getenv("LUIS_ENDPOINT")
	maxMessageLen := envInt("MAX_MESSAGE_LENGTH", 500)

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}
	transcriptClient, err := repository.New(awsdynamodb.NewFromConfig(cfg), transcriptTable)
	if err != nil {
		slog.Error("failed to create transcript client", "err", err)
		os.Exit(1)
	}

	luisOpts := []luis.Option{}
	if luisEndpoint != "" {
		luisOpts = append(luisOpts, luis.WithBaseURL(luisEndpoint))
	}
	recognizer, err := luis.NewClient(ssmClient, paramPrefix, luisAppID, luisOpts...)
	if err != nil {
		slog.Error("failed to create LUIS client", "err", err)
		os.Exit(1)
	}

	turnRouter, err := router.New(catalog.Shoes(), catalog.Festivals(), catalog.ShoeTypes(), transcriptClient)
	if err != nil {
		slog.Error("failed to create router", "err", err)
		os.Exit(1)
	}

	// ---- Handler ----
	turnService, err := usecase.NewTurnService(recognizer, turnRouter, transcriptClient, slog.Default(), maxMessageLen)
	if err != nil {
		slog.Error("failed to create turn service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(turnService)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	lambda.Start(h.Handle)
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
