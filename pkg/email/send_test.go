package email

import (
	"fmt"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

// fakeSender stands in for an open SMTP connection.
type fakeSender struct {
	reject map[string]bool
	to     []string
}

func (f *fakeSender) Send(from string, to []string, msg io.WriterTo) error {
	if len(to) != 1 {
		return fmt.Errorf("got %d envelope recipients, want 1", len(to))
	}
	if f.reject[to[0]] {
		return fmt.Errorf("550 mailbox unavailable")
	}
	f.to = append(f.to, to...)
	return nil
}

func (f *fakeSender) Close() error { return nil }

func TestSendAll(t *testing.T) {
	msg, err := Compose(sampleStations(), "tides@example.com")
	if err != nil {
		t.Fatal(err)
	}

	recipients := []string{"a@example.com", "b@example.com", "c@example.com"}
	sender := &fakeSender{}
	if err := sendAll(msg, recipients, sender, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	if diff := cmp.Diff(recipients, sender.to); diff != "" {
		t.Errorf("wrong recipients (-want,+got): %s", diff)
	}
}

func TestSendAllSkipsFailedRecipient(t *testing.T) {
	msg, err := Compose(sampleStations(), "tides@example.com")
	if err != nil {
		t.Fatal(err)
	}

	sender := &fakeSender{reject: map[string]bool{"b@example.com": true}}
	recipients := []string{"a@example.com", "b@example.com", "c@example.com"}
	if err := sendAll(msg, recipients, sender, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	want := []string{"a@example.com", "c@example.com"}
	if diff := cmp.Diff(want, sender.to); diff != "" {
		t.Errorf("wrong recipients (-want,+got): %s", diff)
	}
}

func TestSendAllNoneAccepted(t *testing.T) {
	msg, err := Compose(sampleStations(), "tides@example.com")
	if err != nil {
		t.Fatal(err)
	}

	sender := &fakeSender{reject: map[string]bool{"a@example.com": true}}
	if err := sendAll(msg, []string{"a@example.com"}, sender, zap.NewNop().Sugar()); err == nil {
		t.Error("no error when every recipient failed")
	}
}
