package digest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gflarity/arxiv_digest/pkg/twitter"
)

// Mailer sends an HTML message.
type Mailer interface {
	Send(ctx context.Context, html string, now time.Time) error
}

// MailNotifier emails the digest.
type MailNotifier struct {
	mailer    Mailer
	sendEmpty bool
	logger    *slog.Logger
}

// NewMailNotifier returns a MailNotifier. When sendEmpty is false a digest
// without papers is not mailed.
func NewMailNotifier(mailer Mailer, sendEmpty bool, logger *slog.Logger) *MailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailNotifier{mailer: mailer, sendEmpty: sendEmpty, logger: logger}
}

func (n *MailNotifier) Notify(ctx context.Context, d Digest) error {
	if len(d.Summaries) == 0 && !n.sendEmpty {
		n.logger.Info("no papers today, not sending an email")
		return nil
	}
	return n.mailer.Send(ctx, d.HTML, d.Created)
}

// ThreadPoster posts tweets as a thread.
type ThreadPoster interface {
	PostThread(ctx context.Context, texts []string) error
}

// TweetNotifier posts the digest highlights as a thread. Without a poster it
// only logs what it would have posted.
type TweetNotifier struct {
	poster ThreadPoster
	logger *slog.Logger
}

// NewTweetNotifier returns a TweetNotifier; a nil poster means dry run.
func NewTweetNotifier(poster ThreadPoster, logger *slog.Logger) *TweetNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &TweetNotifier{poster: poster, logger: logger}
}

func (n *TweetNotifier) Notify(ctx context.Context, d Digest) error {
	texts := ThreadTexts(d)
	if len(texts) == 0 {
		return nil
	}

	if n.poster == nil {
		for i, text := range texts {
			n.logger.Info("dry run, not tweeting", "index", i, "tweet", text)
		}
		return nil
	}
	if err := n.poster.PostThread(ctx, texts); err != nil {
		return fmt.Errorf("failed to post digest thread: %w", err)
	}
	return nil
}

// ThreadTexts returns the tweets announcing d: a headline followed by one
// tweet per paper. A digest without papers has no thread.
func ThreadTexts(d Digest) []string {
	if len(d.Summaries) == 0 {
		return nil
	}
	texts := []string{fmt.Sprintf("Daily arXiv digest %s: %d papers", d.Day.Format("2006-01-02"), len(d.Summaries))}
	for _, s := range d.Summaries {
		link := AbsURL(s.Paper.ID)
		title := twitter.ClipTo(s.Paper.Title, twitter.MaxTweetLength-len(link)-1)
		texts = append(texts, title+" "+link)
	}
	return texts
}

// WriterNotifier writes the HTML page to w.
type WriterNotifier struct {
	W io.Writer
}

func (n WriterNotifier) Notify(_ context.Context, d Digest) error {
	_, err := io.WriteString(n.W, d.HTML)
	return err
}
