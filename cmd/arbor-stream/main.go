// Command arbor-stream is the Lambda function consuming the DynamoDB stream of
// a collection table. It logs one line per changed collection.
//
// Environment:
//
//	ARBOR_FORMAT     collection codec, json (default) or yaml
//	ARBOR_DELIMITER  path delimiter for changed paths, default "."
//	ARBOR_LOG_LEVEL  debug, info (default), warn or error
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/jacentio/arbor/store"
	"github.com/jacentio/arbor/stream"
)

func main() {
	var level slog.Level
	if err := level.UnmarshalText([]byte(envOr("ARBOR_LOG_LEVEL", "info"))); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	codec, ok := store.CodecFor(os.Getenv("ARBOR_FORMAT"))
	if !ok {
		logger.Error("unknown collection format", "format", os.Getenv("ARBOR_FORMAT"))
		os.Exit(1)
	}

	h := stream.NewHandler(codec, logger)
	h.SetDelimiter(os.Getenv("ARBOR_DELIMITER"))
	h.SetSink(func(ctx context.Context, cs stream.ChangeSet) error {
		for _, rc := range cs.Modified {
			logger.InfoContext(ctx, "record modified",
				"key", cs.Key,
				"recordId", rc.ID,
				"paths", strings.Join(rc.Paths, ","),
			)
		}
		return nil
	})

	lambda.Start(h.HandleCollectionChange)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
