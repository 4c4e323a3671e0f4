package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sipward/sipsession/log"
	"github.com/sipward/sipsession/session"
)

const testMessageTo = "sip:bob@example.com"

func newMessage(t *testing.T, body []byte) (*session.Message, *stubEngine, *eventRecorder) {
	t.Helper()

	bus := session.NewBus()
	eng := newStubEngine(bus)
	msg, err := session.NewMessage(t.Context(), testAOR, testMessageTo, session.Route{}, "text/plain", body,
		eng, &session.MessageOptions{Bus: bus, Log: log.Noop()})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	return msg, eng, recordEvents(t, bus, msg)
}

func TestNewMessage_Validation(t *testing.T) {
	t.Parallel()

	bus := session.NewBus()
	eng := newStubEngine(bus)

	if _, err := session.NewMessage(t.Context(), "", testMessageTo, session.Route{}, "text/plain", nil, eng, nil); !errors.Is(err, session.ErrInvalidArgument) {
		t.Fatalf("empty from: got %v, want ErrInvalidArgument", err)
	}
	if _, err := session.NewMessage(t.Context(), testAOR, "", session.Route{}, "text/plain", nil, eng, nil); !errors.Is(err, session.ErrInvalidArgument) {
		t.Fatalf("empty to: got %v, want ErrInvalidArgument", err)
	}
	if _, err := session.NewMessage(t.Context(), testAOR, testMessageTo, session.Route{}, "text/plain", nil, nil, nil); !errors.Is(err, session.ErrInvalidArgument) {
		t.Fatalf("nil factory: got %v, want ErrInvalidArgument", err)
	}
}

func TestNewMessage_ThreadsContext(t *testing.T) {
	t.Parallel()

	bus := session.NewBus()
	eng := newStubEngine(bus)

	type ctxKey struct{}
	ctx := context.WithValue(t.Context(), ctxKey{}, "marker")
	if _, err := session.NewMessage(ctx, testAOR, testMessageTo, session.Route{}, "text/plain", nil, eng, nil); err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if got := eng.lastNewCtx().Value(ctxKey{}); got != "marker" {
		t.Fatalf("factory context value: got %v, want %q", got, "marker")
	}
}

func TestMessage_Send(t *testing.T) {
	t.Parallel()

	msg, eng, rec := newMessage(t, []byte("hi"))

	// the transaction exists before Send
	if got := eng.count(); got != 1 {
		t.Fatalf("engine built %d transactions, want 1", got)
	}
	if msg.IsSent() {
		t.Fatal("IsSent before Send: got true, want false")
	}

	if err := msg.Send(t.Context(), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !msg.IsSent() {
		t.Error("IsSent: got false, want true")
	}
	if !msg.InProgress() {
		t.Error("InProgress: got false, want true")
	}

	tx := eng.tx(t, 0)
	if got, want := tx.req.ContentType, "text/plain"; got != want {
		t.Errorf("content type: got %q, want %q", got, want)
	}
	if got, want := tx.CSeq(), uint32(1); got != want {
		t.Errorf("cseq: got %d, want %d", got, want)
	}

	tx.succeed(202, nil, 0)

	if diff := cmp.Diff([]session.Event{session.MessageSucceeded{}}, rec.take()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if got := tx.ends(); got != 0 {
		t.Errorf("End calls: got %d, want 0", got)
	}
}

func TestMessage_SendTwice(t *testing.T) {
	t.Parallel()

	msg, eng, _ := newMessage(t, []byte("hi"))

	if err := msg.Send(t.Context(), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := msg.Send(t.Context(), nil); !errors.Is(err, session.ErrAlreadySent) {
		t.Fatalf("second Send: got %v, want ErrAlreadySent", err)
	}
	if got := eng.tx(t, 0).sends(); got != 1 {
		t.Fatalf("Send calls on transaction: got %d, want 1", got)
	}
}

func TestMessage_SendDispatchFailureIsRetryable(t *testing.T) {
	t.Parallel()

	msg, eng, rec := newMessage(t, []byte("hi"))

	sendErr := errors.New("transport down")
	eng.failNextSend(sendErr)
	if err := msg.Send(t.Context(), nil); !errors.Is(err, sendErr) {
		t.Fatalf("Send: got %v, want %v", err, sendErr)
	}
	if msg.IsSent() {
		t.Fatal("IsSent after dispatch failure: got true, want false")
	}

	if err := msg.Send(t.Context(), nil); err != nil {
		t.Fatalf("retry Send: %v", err)
	}
	eng.tx(t, 0).succeed(202, nil, 0)

	// the retried subscription must not duplicate delivery
	if diff := cmp.Diff([]session.Event{session.MessageSucceeded{}}, rec.take()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestMessage_Failed(t *testing.T) {
	t.Parallel()

	msg, eng, rec := newMessage(t, []byte("hi"))

	if err := msg.Send(t.Context(), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	eng.tx(t, 0).fail(480, "")

	want := []session.Event{
		session.MessageFailed{Code: 480, Reason: "Temporarily Unavailable"},
	}
	if diff := cmp.Diff(want, rec.take()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestMessage_SuccessWithLeaseEndsTransaction(t *testing.T) {
	t.Parallel()

	msg, eng, rec := newMessage(t, []byte("hi"))

	if err := msg.Send(t.Context(), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	tx := eng.tx(t, 0)
	tx.succeed(200, nil, 60*time.Second)

	if diff := cmp.Diff([]session.Event{session.MessageSucceeded{}}, rec.take()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if got := tx.ends(); got != 1 {
		t.Fatalf("End calls: got %d, want 1", got)
	}
}

func TestMessage_End(t *testing.T) {
	t.Parallel()

	msg, eng, _ := newMessage(t, []byte("hi"))

	if err := msg.Send(t.Context(), nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	msg.End()
	if got := eng.tx(t, 0).ends(); got != 1 {
		t.Fatalf("End calls: got %d, want 1", got)
	}
}
