package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"braces.dev/errtrace"
	"github.com/qmuntal/stateless"

	"github.com/sipward/sipsession/internal/log"
)

// DefaultExpiry is the registration/publication lifetime requested when
// the options don't specify one.
const DefaultExpiry = 300 * time.Second

// SessionState is the lifecycle state of a registration or publication
// session. For a registration the states read unregistered/registering/
// registered/unregistering; for a publication, the publish equivalents.
type SessionState string

const (
	SessionStateIdle     SessionState = "idle"
	SessionStateStarting SessionState = "starting"
	SessionStateActive   SessionState = "active"
	SessionStateEnding   SessionState = "ending"
)

const (
	sessEvtStart      = "start"
	sessEvtEndStart   = "end_start"
	sessEvtConfirm    = "confirm"
	sessEvtReject     = "reject"
	sessEvtTornDown   = "torn_down"
	sessEvtEndRefused = "end_refused"
	sessEvtTerminate  = "terminate"
)

// errNothingToEnd aborts a teardown that has nothing to tear down.
const errNothingToEnd Error = "nothing to end"

// baseSession is the two-transaction skeleton shared by [Registration] and
// [Publication]: one optional in-flight transaction, one optional confirmed
// transaction, dialog identity inheritance between them and a lifecycle FSM.
//
// All mutable state is guarded by mu. The lock is never held across calls
// into the transaction engine or the bus, see the package documentation.
type baseSession struct {
	owner   any
	handler EventHandler
	target  string
	creds   *Credentials
	expiry  time.Duration
	txf     TransactionFactory
	bus     EventBus
	log     *slog.Logger

	mu      sync.Mutex
	fsm     *stateless.StateMachine
	current Transaction
	last    Transaction
	ending  bool
	subs    map[Transaction]func()
}

func (s *baseSession) init(
	owner any,
	handler EventHandler,
	target string,
	txf TransactionFactory,
	creds *Credentials,
	expiry time.Duration,
	bus EventBus,
	logger *slog.Logger,
) {
	s.owner = owner
	s.handler = handler
	s.target = target
	s.txf = txf
	s.creds = creds
	s.expiry = expiry
	s.bus = bus
	s.log = logger
	s.subs = make(map[Transaction]func())
	s.initFSM()
}

func (s *baseSession) initFSM() {
	// Destination of a rejected attempt: back to active when a confirmed
	// transaction is still held, idle otherwise. Selectors run inside Fire,
	// which this session only calls with mu held.
	fallback := func(_ context.Context, _ ...any) (stateless.State, error) {
		if s.last != nil {
			return SessionStateActive, nil
		}
		return SessionStateIdle, nil
	}

	m := stateless.NewStateMachine(SessionStateIdle)
	m.Configure(SessionStateIdle).
		Permit(sessEvtStart, SessionStateStarting)
	m.Configure(SessionStateStarting).
		PermitReentry(sessEvtStart).
		Permit(sessEvtEndStart, SessionStateEnding).
		Permit(sessEvtConfirm, SessionStateActive).
		PermitDynamic(sessEvtReject, fallback).
		Permit(sessEvtTerminate, SessionStateIdle)
	m.Configure(SessionStateActive).
		Permit(sessEvtStart, SessionStateStarting).
		Permit(sessEvtEndStart, SessionStateEnding).
		Permit(sessEvtTerminate, SessionStateIdle)
	m.Configure(SessionStateEnding).
		Permit(sessEvtStart, SessionStateStarting).
		PermitReentry(sessEvtEndStart).
		Permit(sessEvtTornDown, SessionStateIdle).
		PermitDynamic(sessEvtEndRefused, fallback).
		Permit(sessEvtTerminate, SessionStateIdle)
	s.fsm = m
}

func (s *baseSession) mustFire(trigger string) {
	if err := s.fsm.Fire(trigger); err != nil {
		panic(fmt.Errorf("fire %q in state %q: %w", trigger, s.state(), err))
	}
}

func (s *baseSession) state() SessionState {
	return s.fsm.MustState().(SessionState) //nolint:forcetypeassert
}

// State returns the current lifecycle state.
func (s *baseSession) State() SessionState {
	return s.state()
}

// Target returns the address-of-record this session was created for.
func (s *baseSession) Target() string { return s.target }

func (s *baseSession) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last != nil
}

func (s *baseSession) expiresIn() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return 0
	}
	return s.last.ExpiresIn()
}

func (s *baseSession) publish(ctx context.Context, evt Event) {
	s.bus.Publish(ctx, s.owner, evt)
}

// unsubscribeLocked drops the bus subscription held for tx.
// Touches only bus internals, safe to call with mu held.
func (s *baseSession) unsubscribeLocked(tx Transaction) {
	if cancel, ok := s.subs[tx]; ok {
		delete(s.subs, tx)
		cancel()
	}
}

// buildFn assembles the outgoing request. It runs with mu held; prev is
// the transaction whose dialog identity the request inherits, may be nil.
// Returning errNothingToEnd aborts without error and without a transaction.
type buildFn func(prev Transaction, callID string, cseq uint32) (*TransactionRequest, error)

// startTransaction builds and dispatches the next transaction of the
// session, superseding whatever was in flight. It reports whether a
// transaction was actually started.
func (s *baseSession) startTransaction(ctx context.Context, teardown bool, build buildFn, opts *SendOptions) (bool, error) {
	s.mu.Lock()
	prev := s.current
	if prev == nil {
		prev = s.last
	}
	var callID string
	cseq := uint32(1)
	if prev != nil {
		callID = prev.CallID()
		cseq = prev.CSeq() + 1
	}
	req, err := build(prev, callID, cseq)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, errNothingToEnd) {
			return false, nil
		}
		return false, errtrace.Wrap(err)
	}
	tx, err := s.txf.NewTransaction(ctx, req)
	if err != nil {
		s.mu.Unlock()
		return false, errtrace.Wrap(fmt.Errorf("new %q transaction: %w", req.Method, err))
	}
	s.subs[tx] = s.bus.Subscribe(tx, s.handler)
	stale := s.current
	s.current = tx
	s.ending = teardown
	if teardown {
		s.mustFire(sessEvtEndStart)
	} else {
		s.mustFire(sessEvtStart)
	}
	s.mu.Unlock()

	if stale != nil {
		// a newer operation replaces whatever was in flight
		stale.End()
	}

	s.log.LogAttrs(ctx, slog.LevelDebug, "send request",
		slog.Any("session", s.owner),
		slog.String("method", string(req.Method)),
		slog.String("call_id", tx.CallID()),
		slog.Uint64("cseq", uint64(req.CSeq)),
		slog.Any("request", log.FmtValue(req, false)),
	)

	if err := tx.Send(ctx, opts.timeout()); err != nil {
		s.mu.Lock()
		if s.current == tx {
			s.current = nil
			if teardown {
				s.mustFire(sessEvtEndRefused)
			} else {
				s.mustFire(sessEvtReject)
			}
		}
		s.unsubscribeLocked(tx)
		s.mu.Unlock()
		return false, errtrace.Wrap(fmt.Errorf("send %q request: %w", req.Method, err))
	}
	return true, nil
}

// requestTarget derives the REGISTER request target from an
// address-of-record by dropping the user part.
func requestTarget(aor string) string {
	i := strings.LastIndexByte(aor, '@')
	if i < 0 {
		return aor
	}
	scheme := "sip:"
	if strings.HasPrefix(aor, "sips:") {
		scheme = "sips:"
	}
	return scheme + aor[i+1:]
}

// expiresValue renders a lifetime as an Expires header value in seconds.
func expiresValue(d time.Duration) string {
	return strconv.Itoa(int(d / time.Second))
}
