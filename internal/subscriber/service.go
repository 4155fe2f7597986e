package subscriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/digitalindian/service-site-api/internal/mailer"
	"github.com/digitalindian/service-site-api/internal/subscriber/entity"
	subrepo "github.com/digitalindian/service-site-api/internal/subscriber/repo"
	"github.com/digitalindian/service-site-api/pkg/utilities"
)

var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrAlreadySubscribed = errors.New("email already subscribed")
	// ErrWelcomeNotSent means the subscriber row was committed but the
	// welcome email failed. The row is intentionally not rolled back.
	ErrWelcomeNotSent = errors.New("welcome email not sent")
)

// Store is the persistence surface the service needs.
type Store interface {
	Exists(ctx context.Context, email string) (bool, error)
	Insert(ctx context.Context, s *entity.Subscriber) error
}

// Service handles new subscriptions: validate, persist, send welcome mail.
type Service struct {
	store  Store
	mail   mailer.Mailer
	from   string
	logger *zap.SugaredLogger
}

func NewService(store Store, mail mailer.Mailer, from string, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, mail: mail, from: from, logger: logger}
}

// Subscribe registers a new email address. The syntactic check is minimal
// on purpose: a non-empty string containing "@". The existence check runs
// before the insert; the store's unique index covers the race between two
// identical concurrent requests.
//
// The insert commits before the welcome send. A send failure surfaces as
// ErrWelcomeNotSent while the subscription stays in place.
func (s *Service) Subscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}

	exists, err := s.store.Exists(ctx, email)
	if err != nil {
		return fmt.Errorf("check subscriber: %w", err)
	}
	if exists {
		return ErrAlreadySubscribed
	}

	sub := &entity.Subscriber{
		ID:           utilities.NewKSUID(),
		Email:        email,
		SubscribedAt: time.Now().UTC(),
	}
	if err := s.store.Insert(ctx, sub); err != nil {
		// the unique index catches the race two identical requests can win
		if errors.Is(err, subrepo.ErrDuplicateEmail) {
			return ErrAlreadySubscribed
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}

	welcome := mailer.Message{
		From:    s.from,
		To:      email,
		Subject: "Welcome to Digital Indian!",
		HTML: `<h2>Thanks for subscribing! 🎉</h2>
<p>You'll now receive updates from us directly in your inbox.</p>
<p>— The Team</p>`,
	}
	if err := s.mail.Send(ctx, welcome); err != nil {
		s.logger.Errorw("welcome email failed", "email", email, "err", err)
		return fmt.Errorf("%w: %v", ErrWelcomeNotSent, err)
	}
	s.logger.Infow("new subscriber", "email", email)
	return nil
}
