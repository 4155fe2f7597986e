package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/digitalindian/service-site-api/internal/blog/entity"
	blogrepo "github.com/digitalindian/service-site-api/internal/blog/repo"
	"github.com/digitalindian/service-site-api/internal/mailer"
)

// SubscriberSource lists the recipients of a notification run.
type SubscriberSource interface {
	ListEmails(ctx context.Context) ([]string, error)
}

// PostSource provides read access to the blog collection.
type PostSource interface {
	Latest(ctx context.Context) (*entity.Post, error)
	LastModified(ctx context.Context) (time.Time, error)
}

// defaultSendTimeout bounds one recipient's delivery attempt.
const defaultSendTimeout = 10 * time.Second

// Dispatcher sends the latest-post notification to every subscriber. One
// run is ephemeral: no retry state, no per-recipient ledger. A recipient
// failure is logged and the run moves on to the next address.
type Dispatcher struct {
	subs    SubscriberSource
	posts   PostSource
	mail    mailer.Mailer
	from    string
	baseURL string
	logger  *zap.SugaredLogger

	// sendTimeout is applied per recipient, so a slow send never eats
	// into the budget of the addresses behind it.
	sendTimeout time.Duration
}

func NewDispatcher(subs SubscriberSource, posts PostSource, mail mailer.Mailer, from, baseURL string, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		subs: subs, posts: posts, mail: mail,
		from: from, baseURL: baseURL, logger: logger,
		sendTimeout: defaultSendTimeout,
	}
}

// Dispatch runs one notification batch: latest post times current
// subscriber set. Empty collections are a logged no-op. The returned error
// covers load failures only; send failures are per-recipient and never
// abort the batch.
func (d *Dispatcher) Dispatch(ctx context.Context) error {
	post, err := d.posts.Latest(ctx)
	if err != nil {
		if errors.Is(err, blogrepo.ErrPostNotFound) {
			d.logger.Info("no blog post found to send")
			return nil
		}
		return fmt.Errorf("load latest post: %w", err)
	}

	emails, err := d.subs.ListEmails(ctx)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}
	if len(emails) == 0 {
		d.logger.Info("no subscribers to send emails to")
		return nil
	}

	d.logger.Infow("dispatching blog notification", "title", post.Title, "recipients", len(emails))

	for _, email := range emails {
		msg := mailer.Message{
			From:    d.from,
			To:      email,
			Subject: "New Blog: " + post.Title,
			Text: fmt.Sprintf("Check out our latest blog: %s\n\nRead here: %s/blog/%s",
				post.Title, d.baseURL, post.Slug),
		}
		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		err := d.mail.Send(sendCtx, msg)
		cancel()
		if err != nil {
			d.logger.Errorw("notification send failed", "email", email, "err", err)
			continue
		}
		d.logger.Infow("notification sent", "email", email)
	}
	return nil
}
