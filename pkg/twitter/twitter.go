// Package twitter posts digest highlights as a thread on X.
package twitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/g8rswimmer/go-twitter/v2"
)

const defaultHost = "https://api.twitter.com"

// MaxTweetLength is the character limit of a single tweet.
const MaxTweetLength = 280

// Credentials are the OAuth1 user-context keys of the posting account.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// Complete reports whether every credential is set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

// Client wraps the authenticated Twitter API v2 client.
type Client struct {
	api    *twitter.Client
	pause  time.Duration
	logger *slog.Logger
}

// authorizer is a no-op: the oauth1 http.Client already signs every request.
type authorizer struct{}

func (a *authorizer) Add(req *http.Request) {}

// NewClient returns a client that signs requests with creds.
func NewClient(creds Credentials, logger *slog.Logger) (*Client, error) {
	if !creds.Complete() {
		return nil, errors.New("missing credentials: X_API_KEY, X_API_SECRET, X_ACCESS_TOKEN, X_ACCESS_TOKEN_SECRET are all required")
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	return newClient(config.Client(context.Background(), token), defaultHost, 5*time.Second, logger), nil
}

func newClient(httpClient *http.Client, host string, pause time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		api: &twitter.Client{
			Authorizer: &authorizer{},
			Client:     httpClient,
			Host:       host,
		},
		pause:  pause,
		logger: logger,
	}
}

// PostTweet posts a single tweet, optionally as a reply, and returns its ID.
func (c *Client) PostTweet(ctx context.Context, text, replyToID string) (string, error) {
	req := twitter.CreateTweetRequest{Text: text}
	if replyToID != "" {
		req.Reply = &twitter.CreateTweetReply{InReplyToTweetID: replyToID}
	}

	res, err := c.api.CreateTweet(ctx, req)
	if err != nil {
		return "", fmt.Errorf("error posting tweet: %w", err)
	}
	if res.Tweet == nil {
		return "", errors.New("twitter API returned an empty tweet object")
	}

	c.logger.Info("posted tweet", "id", res.Tweet.ID, "replyTo", replyToID)
	return res.Tweet.ID, nil
}

// PostThread posts texts as a thread, each tweet replying to the previous one.
func (c *Client) PostThread(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		return errors.New("no tweets provided in the thread")
	}

	var previousID string
	for i, text := range texts {
		if i > 0 && c.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.pause):
			}
		}

		id, err := c.PostTweet(ctx, text, previousID)
		if err != nil {
			return fmt.Errorf("failed to post tweet #%d in thread: %w", i+1, err)
		}
		previousID = id
	}
	return nil
}

// Clip shortens text to MaxTweetLength characters.
func Clip(text string) string {
	return ClipTo(text, MaxTweetLength)
}

// ClipTo shortens text to n characters, ending with an ellipsis when it had
// to cut.
func ClipTo(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	if n <= 0 {
		return ""
	}
	return string(runes[:n-1]) + "…"
}
