// Package app builds the digest components from configuration.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"

	"github.com/gflarity/arxiv_digest/internal/config"
	"github.com/gflarity/arxiv_digest/internal/digest"
	workflows "github.com/gflarity/arxiv_digest/internal/workflows/digest"
	"github.com/gflarity/arxiv_digest/pkg/arxiv"
	"github.com/gflarity/arxiv_digest/pkg/llm"
	"github.com/gflarity/arxiv_digest/pkg/mailer"
	"github.com/gflarity/arxiv_digest/pkg/pwc"
	"github.com/gflarity/arxiv_digest/pkg/twitter"
)

// Options adjust how the App delivers digests.
type Options struct {
	// DryRun writes the digest page to Out instead of notifying anyone.
	DryRun bool
	Out    io.Writer
}

// App holds the components of one process. They are created once and
// shared by every run.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	LLM       *llm.Client
	Arxiv     *arxiv.Client
	Processor *digest.Processor
	Notifiers []digest.Notifier
	Pipeline  *digest.Pipeline
}

// New wires an App from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	llmClient := llm.NewClient(llm.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		MaxAttempts: cfg.LLMMaxAttempts,
		RetryDelay:  cfg.LLMRetryDelay,
	}, logger)
	arxivClient := arxiv.NewClient()

	var code digest.CodeFinder
	if cfg.CodeSearch {
		code = pwc.NewClient(cfg.CodeSearchURL, nil)
	}

	processor := digest.NewProcessor(arxivClient, llmClient, code, digest.ProcessorConfig{
		Language:        cfg.Language,
		MaxContentChars: cfg.MaxContentChars,
	}, logger)

	notifiers, err := buildNotifiers(cfg, logger, opts)
	if err != nil {
		return nil, err
	}

	pipeline := digest.NewPipeline(
		digest.NewLister(arxivClient, cfg.ListMode, cfg.Categories, logger),
		digest.NewScorer(llmClient, cfg.ResearchInterests, logger),
		processor,
		notifiers,
		digest.PipelineConfig{MaxPapers: cfg.MaxPapers, PaperDelay: cfg.PaperDelay},
		logger,
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		LLM:       llmClient,
		Arxiv:     arxivClient,
		Processor: processor,
		Notifiers: notifiers,
		Pipeline:  pipeline,
	}, nil
}

func buildNotifiers(cfg *config.Config, logger *slog.Logger, opts Options) ([]digest.Notifier, error) {
	if opts.DryRun {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		return []digest.Notifier{digest.WriterNotifier{W: out}}, nil
	}

	var notifiers []digest.Notifier
	if cfg.MailEnabled() {
		m := mailer.New(mailer.Config{
			Server:   cfg.SMTPServer,
			Port:     cfg.SMTPPort,
			Sender:   cfg.Sender,
			Password: cfg.SenderPassword,
			Receiver: cfg.Receiver,
		}, logger)
		notifiers = append(notifiers, digest.NewMailNotifier(m, cfg.SendEmpty, logger))
	} else {
		logger.Warn("SMTP settings incomplete, the digest will not be emailed")
	}

	if cfg.TwitterEnabled() {
		var poster digest.ThreadPoster
		if cfg.TweetForReal {
			c, err := twitter.NewClient(twitter.Credentials{
				APIKey:            cfg.XAPIKey,
				APISecret:         cfg.XAPISecret,
				AccessToken:       cfg.XAccessToken,
				AccessTokenSecret: cfg.XAccessTokenSecret,
			}, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to create twitter client: %w", err)
			}
			poster = c
		}
		notifiers = append(notifiers, digest.NewTweetNotifier(poster, logger))
	}
	return notifiers, nil
}

// Activities returns the Temporal activities backed by the App.
func (a *App) Activities() *workflows.Activities {
	return &workflows.Activities{Pipeline: a.Pipeline, Processor: a.Processor}
}

// DialTemporal connects to the configured Temporal server, logging through
// logger.
func DialTemporal(cfg *config.Config, logger *slog.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		Logger:    temporallog.NewStructuredLogger(logger),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	return c, nil
}
