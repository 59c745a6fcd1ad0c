// Command feedbackctl is the operator CLI of the feedback backend: it checks
// form definitions offline and summarizes or exports a project's responses
// straight from the database.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/unified-feedback/unified/backend/internal/config"
	"github.com/unified-feedback/unified/backend/internal/database"
	"github.com/unified-feedback/unified/backend/internal/feedback"
	"github.com/unified-feedback/unified/backend/internal/projects"
	"github.com/unified-feedback/unified/backend/internal/summary"
	"github.com/unified-feedback/unified/backend/pkg/logger"
)

// data is the slice of storage the commands read.
type data struct {
	projects  projects.Repository
	feedback  feedback.Repository
	summaries summary.Store
}

// openData connects to the configured database. Tests swap it for memory
// repositories.
var openData = func(ctx context.Context, cfg *config.Config) (*data, func(), error) {
	if cfg.MongoDB.URI == "" {
		return nil, nil, errors.New("MONGODB_URI is not set")
	}
	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 2, time.Second)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = client.Disconnect(context.Background()) }
	db := client.Database(cfg.MongoDB.Database)
	d := &data{summaries: summary.NewMongoStore(db.Collection("summaries"))}
	if d.projects, err = projects.NewMongoRepository(ctx, db.Collection("projects")); err != nil {
		closeFn()
		return nil, nil, err
	}
	if d.feedback, err = feedback.NewMongoRepository(ctx, db.Collection("feedbacks")); err != nil {
		closeFn()
		return nil, nil, err
	}
	return d, closeFn, nil
}

// newGenerator builds the model client for summarize.
var newGenerator = func(ctx context.Context, cfg *config.Config) (summary.Generator, string, error) {
	if cfg.Summarizer.APIKey == "" {
		return nil, "", errors.New("GEMINI_API_KEY is not set")
	}
	g, err := summary.NewGenAIGenerator(ctx, cfg.Summarizer.APIKey, cfg.Summarizer.Model)
	if err != nil {
		return nil, "", err
	}
	return g, g.Model(), nil
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "feedbackctl",
		Short:         "Operate the feedback backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.Init(logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "debug|info|warn|error")
	root.AddCommand(newValidateCmd(), newSummarizeCmd(), newExportCmd())
	return root
}

// withData loads config and storage for a command and releases them after fn.
func withData(ctx context.Context, fn func(*config.Config, *data) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	d, closeFn, err := openData(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(cfg, d)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
