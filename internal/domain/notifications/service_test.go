package notifications

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	created      int
	emailEnabled bool
	emailFrom    string
	email        string
}

func (f *fakeStore) CreateNotification(context.Context, string, string, string, string, string) error {
	f.created++
	return nil
}

func (f *fakeStore) UserEmail(context.Context, string, string) (string, error) { return f.email, nil }

func (f *fakeStore) ListNotifications(context.Context, string, string, bool, int, int) ([]Notification, error) {
	return nil, nil
}

func (f *fakeStore) CountNotifications(context.Context, string, string, bool) (int, error) {
	return 0, nil
}

func (f *fakeStore) MarkRead(context.Context, string, string, string) error { return nil }

func (f *fakeStore) EmailSettings(context.Context, string) (bool, string, error) {
	return f.emailEnabled, f.emailFrom, nil
}

type sentMail struct{ from, to, subject string }

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, from, to, subject, _ string) error {
	m.sent = append(m.sent, sentMail{from, to, subject})
	return m.err
}

func TestCreateSendsEmailWhenTenantEnabled(t *testing.T) {
	cases := []struct {
		name      string
		store     *fakeStore
		mailerErr error
		wantSent  int
		wantFrom  string
	}{
		{name: "disabled", store: &fakeStore{email: "a@example.com"}, wantSent: 0},
		{name: "enabled default from", store: &fakeStore{emailEnabled: true, email: "a@example.com"}, wantSent: 1, wantFrom: "no-reply@example.com"},
		{name: "enabled tenant from", store: &fakeStore{emailEnabled: true, emailFrom: "hr@example.com", email: "a@example.com"}, wantSent: 1, wantFrom: "hr@example.com"},
		{name: "no address", store: &fakeStore{emailEnabled: true}, wantSent: 0},
		{name: "mail failure swallowed", store: &fakeStore{emailEnabled: true, email: "a@example.com"}, mailerErr: errors.New("smtp down"), wantSent: 1, wantFrom: "no-reply@example.com"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			mailer := &fakeMailer{err: tc.mailerErr}
			svc := New(tc.store, mailer)

			if err := svc.Create(context.Background(), "t1", "u1", TypeEvaluationReviewed, "Evaluation approved", "body"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.store.created != 1 {
				t.Fatalf("expected notification stored")
			}
			if len(mailer.sent) != tc.wantSent {
				t.Fatalf("expected %d emails, got %d", tc.wantSent, len(mailer.sent))
			}
			if tc.wantSent > 0 && mailer.sent[0].from != tc.wantFrom {
				t.Fatalf("expected from %q, got %q", tc.wantFrom, mailer.sent[0].from)
			}
		})
	}
}
