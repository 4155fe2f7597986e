package subscriber

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/digitalindian/service-site-api/internal/mailer"
	"github.com/digitalindian/service-site-api/internal/subscriber/entity"
	subrepo "github.com/digitalindian/service-site-api/internal/subscriber/repo"
)

type fakeStore struct {
	existing  map[string]bool
	inserted  []*entity.Subscriber
	insertErr error
	existsErr error
}

func (f *fakeStore) Exists(ctx context.Context, email string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existing[email], nil
}

func (f *fakeStore) Insert(ctx context.Context, s *entity.Subscriber) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, s)
	return nil
}

type fakeMailer struct {
	sent    []mailer.Message
	sendErr error
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestService(store *fakeStore, mail *fakeMailer) *Service {
	return NewService(store, mail, "team@digitalindian.co.in", zap.NewNop().Sugar())
}

func TestSubscribeStoresAndWelcomes(t *testing.T) {
	store := &fakeStore{existing: map[string]bool{}}
	mail := &fakeMailer{}
	svc := newTestService(store, mail)

	if err := svc.Subscribe(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("Subscribe returned %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(store.inserted))
	}
	sub := store.inserted[0]
	if sub.Email != "alice@example.com" {
		t.Errorf("stored email = %q", sub.Email)
	}
	if sub.ID == "" {
		t.Error("subscriber ID not set")
	}
	if sub.SubscribedAt.IsZero() {
		t.Error("subscribedAt not set")
	}

	if len(mail.sent) != 1 {
		t.Fatalf("expected 1 welcome mail, got %d", len(mail.sent))
	}
	if mail.sent[0].To != "alice@example.com" {
		t.Errorf("welcome mail to = %q", mail.sent[0].To)
	}
	if mail.sent[0].Subject != "Welcome to Digital Indian!" {
		t.Errorf("welcome subject = %q", mail.sent[0].Subject)
	}
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	for _, email := range []string{"", "   ", "not-an-email"} {
		store := &fakeStore{existing: map[string]bool{}, existsErr: errors.New("store must not be reached")}
		mail := &fakeMailer{}
		svc := newTestService(store, mail)

		err := svc.Subscribe(context.Background(), email)
		if !errors.Is(err, ErrInvalidEmail) {
			t.Errorf("Subscribe(%q) = %v, want ErrInvalidEmail", email, err)
		}
		if len(store.inserted) != 0 || len(mail.sent) != 0 {
			t.Errorf("Subscribe(%q) had side effects", email)
		}
	}
}

func TestSubscribeRejectsDuplicate(t *testing.T) {
	store := &fakeStore{existing: map[string]bool{"bob@example.com": true}}
	mail := &fakeMailer{}
	svc := newTestService(store, mail)

	err := svc.Subscribe(context.Background(), "bob@example.com")
	if !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("Subscribe = %v, want ErrAlreadySubscribed", err)
	}
	if len(store.inserted) != 0 {
		t.Error("duplicate created a second record")
	}
	if len(mail.sent) != 0 {
		t.Error("duplicate triggered a welcome mail")
	}
}

func TestSubscribeMapsUniqueIndexRace(t *testing.T) {
	// both requests pass the existence check; the insert loses the race
	store := &fakeStore{existing: map[string]bool{}, insertErr: subrepo.ErrDuplicateEmail}
	svc := newTestService(store, &fakeMailer{})

	err := svc.Subscribe(context.Background(), "carol@example.com")
	if !errors.Is(err, ErrAlreadySubscribed) {
		t.Fatalf("Subscribe = %v, want ErrAlreadySubscribed", err)
	}
}

func TestSubscribeKeepsRowWhenWelcomeFails(t *testing.T) {
	store := &fakeStore{existing: map[string]bool{}}
	mail := &fakeMailer{sendErr: errors.New("relay down")}
	svc := newTestService(store, mail)

	err := svc.Subscribe(context.Background(), "dave@example.com")
	if !errors.Is(err, ErrWelcomeNotSent) {
		t.Fatalf("Subscribe = %v, want ErrWelcomeNotSent", err)
	}
	if len(store.inserted) != 1 {
		t.Error("subscription should stay committed when the welcome send fails")
	}
}
