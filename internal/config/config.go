package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// List modes for the daily paper listing.
const (
	ListModeAPI    = "api"
	ListModeRecent = "recent"
)

// Config holds all configuration for the application.
type Config struct {
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	Language       string
	LLMMaxAttempts int
	LLMRetryDelay  time.Duration

	Categories        []string
	ListMode          string
	MaxPapers         int
	PaperDelay        time.Duration
	MaxContentChars   int
	ResearchInterests string

	CodeSearch    bool
	CodeSearchURL string

	SMTPServer     string
	SMTPPort       int
	Sender         string
	SenderPassword string
	Receiver       string
	SendEmpty      bool

	XAPIKey            string
	XAPISecret         string
	XAccessToken       string
	XAccessTokenSecret string
	TweetForReal       bool

	TemporalHostPort  string
	TemporalNamespace string
	TaskQueue         string
	ScheduleCron      string
	ScheduleTimezone  string

	LogLevel string
}

var defaults = map[string]any{
	"openai_api_key":        "",
	"openai_base_url":       "https://api.openai.com/v1",
	"openai_model":          "gpt-4o-mini",
	"language":              "English",
	"llm_max_attempts":      3,
	"llm_retry_delay":       "3s",
	"arxiv_categories":      "cs.AI",
	"arxiv_list_mode":       ListModeAPI,
	"max_papers":            20,
	"paper_delay":           "10s",
	"max_content_chars":     60000,
	"research_interests":    "",
	"code_search":           false,
	"code_search_url":       "https://paperswithcode.com/api/v1",
	"smtp_server":           "",
	"smtp_port":             587,
	"sender":                "",
	"sender_password":       "",
	"receiver":              "",
	"send_empty":            true,
	"x_api_key":             "",
	"x_api_secret":          "",
	"x_access_token":        "",
	"x_access_token_secret": "",
	"tweet_for_real":        false,
	"temporal_host_port":    "localhost:7233",
	"temporal_namespace":    "default",
	"temporal_task_queue":   "arxiv-digest",
	"schedule_cron":         "0 8 * * 1-5",
	"schedule_timezone":     "UTC",
	"log_level":             "info",
}

// Load reads configuration from a .env file (if present), an optional YAML
// file and the environment, in increasing order of precedence. An empty file
// searches for arxiv-digest.yaml in the working directory.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}
	return load(viper.New(), file)
}

func load(v *viper.Viper, file string) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("arxiv-digest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		OpenAIAPIKey:   v.GetString("openai_api_key"),
		OpenAIBaseURL:  v.GetString("openai_base_url"),
		OpenAIModel:    v.GetString("openai_model"),
		Language:       v.GetString("language"),
		LLMMaxAttempts: v.GetInt("llm_max_attempts"),
		LLMRetryDelay:  v.GetDuration("llm_retry_delay"),

		Categories:        splitList(v.GetStringSlice("arxiv_categories")),
		ListMode:          strings.ToLower(strings.TrimSpace(v.GetString("arxiv_list_mode"))),
		MaxPapers:         v.GetInt("max_papers"),
		PaperDelay:        v.GetDuration("paper_delay"),
		MaxContentChars:   v.GetInt("max_content_chars"),
		ResearchInterests: strings.TrimSpace(v.GetString("research_interests")),

		CodeSearch:    v.GetBool("code_search"),
		CodeSearchURL: v.GetString("code_search_url"),

		SMTPServer:     v.GetString("smtp_server"),
		SMTPPort:       v.GetInt("smtp_port"),
		Sender:         v.GetString("sender"),
		SenderPassword: v.GetString("sender_password"),
		Receiver:       v.GetString("receiver"),
		SendEmpty:      v.GetBool("send_empty"),

		XAPIKey:            v.GetString("x_api_key"),
		XAPISecret:         v.GetString("x_api_secret"),
		XAccessToken:       v.GetString("x_access_token"),
		XAccessTokenSecret: v.GetString("x_access_token_secret"),
		TweetForReal:       v.GetBool("tweet_for_real"),

		TemporalHostPort:  v.GetString("temporal_host_port"),
		TemporalNamespace: v.GetString("temporal_namespace"),
		TaskQueue:         v.GetString("temporal_task_queue"),
		ScheduleCron:      v.GetString("schedule_cron"),
		ScheduleTimezone:  v.GetString("schedule_timezone"),

		LogLevel: v.GetString("log_level"),
	}
	return cfg, nil
}

// splitList flattens values that may each hold several comma or space
// separated items.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, item := range strings.FieldsFunc(value, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		}) {
			out = append(out, item)
		}
	}
	return out
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPServer != "" && c.Sender != "" && c.Receiver != ""
}

// TwitterEnabled reports whether the X credentials are all set.
func (c *Config) TwitterEnabled() bool {
	return c.XAPIKey != "" && c.XAPISecret != "" && c.XAccessToken != "" && c.XAccessTokenSecret != ""
}

// Validate reports settings that make a digest run impossible. When deliver
// is set, mail settings are required as well.
func (c *Config) Validate(deliver bool) error {
	var errs []error
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if len(c.Categories) == 0 {
		errs = append(errs, errors.New("ARXIV_CATEGORIES must name at least one category"))
	}
	if c.ListMode != ListModeAPI && c.ListMode != ListModeRecent {
		errs = append(errs, fmt.Errorf("ARXIV_LIST_MODE must be %q or %q, got %q", ListModeAPI, ListModeRecent, c.ListMode))
	}
	if c.MaxPapers <= 0 {
		errs = append(errs, errors.New("MAX_PAPERS must be positive"))
	}
	if c.LLMMaxAttempts <= 0 {
		errs = append(errs, errors.New("LLM_MAX_ATTEMPTS must be positive"))
	}
	if c.PaperDelay < 0 || c.LLMRetryDelay < 0 {
		errs = append(errs, errors.New("PAPER_DELAY and LLM_RETRY_DELAY must not be negative"))
	}
	if _, err := time.LoadLocation(c.ScheduleTimezone); err != nil {
		errs = append(errs, fmt.Errorf("SCHEDULE_TIMEZONE: %w", err))
	}
	if deliver && !c.MailEnabled() {
		errs = append(errs, errors.New("SMTP_SERVER, SENDER and RECEIVER are required to send the digest"))
	}
	return errors.Join(errs...)
}
