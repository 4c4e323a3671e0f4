package session

import (
	"context"
	"log/slog"
	"time"

	"braces.dev/errtrace"

	"github.com/sipward/sipsession/log"
)

// RegistrationOptions contains options for a [Registration].
type RegistrationOptions struct {
	// Credentials is the auth material handed to the engine with every request.
	Credentials *Credentials
	// Expiry is the registration lifetime to request.
	// If zero, [DefaultExpiry] is used.
	Expiry time.Duration
	// Bus is the event bus shared with the transaction engine.
	// If nil, a private [NewBus] is used; that only works when the factory
	// publishes on the same bus.
	Bus EventBus
	// Log is the logger that will be used with the session.
	// If nil, the [log.Default] will be used.
	Log *slog.Logger
}

func (o *RegistrationOptions) credentials() *Credentials {
	if o == nil {
		return nil
	}
	return o.Credentials
}

func (o *RegistrationOptions) expiry() time.Duration {
	if o == nil || o.Expiry <= 0 {
		return DefaultExpiry
	}
	return o.Expiry
}

func (o *RegistrationOptions) bus() EventBus {
	if o == nil || o.Bus == nil {
		return NewBus()
	}
	return o.Bus
}

func (o *RegistrationOptions) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

// Registration manages the register/refresh/unregister lifecycle for one
// address-of-record. It publishes Registration* events on the bus with
// itself as sender.
type Registration struct {
	baseSession
}

// NewRegistration creates an idle registration session for the given
// address-of-record. Options are optional, if nil, default values are used
// (see [RegistrationOptions]).
func NewRegistration(target string, txf TransactionFactory, opts *RegistrationOptions) (*Registration, error) {
	if target == "" {
		return nil, errtrace.Wrap(NewInvalidArgumentError("target URI must not be empty"))
	}
	if txf == nil {
		return nil, errtrace.Wrap(NewInvalidArgumentError("invalid transaction factory"))
	}

	r := &Registration{}
	r.baseSession.init(r, r.handleTransaction, target, txf,
		opts.credentials(), opts.expiry(), opts.bus(), opts.log())
	return r, nil
}

// LogValue implements [slog.LogValuer].
func (r *Registration) LogValue() slog.Value {
	if r == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.String("target", r.target),
		slog.String("state", string(r.state())),
	)
}

// IsRegistered reports whether a registration is currently confirmed.
func (r *Registration) IsRegistered() bool { return r.isActive() }

// ContactURI returns the contact of the confirmed registration, or empty.
func (r *Registration) ContactURI() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return ""
	}
	return r.last.ContactURI()
}

// ExpiresIn returns the remaining lifetime of the confirmed registration,
// zero when inactive.
func (r *Registration) ExpiresIn() time.Duration { return r.expiresIn() }

// OnEvent subscribes fn to this session's events on the bus.
func (r *Registration) OnEvent(fn EventHandler) (cancel func()) {
	return r.bus.Subscribe(r, fn)
}

// Register sends a REGISTER for the session's address-of-record with the
// given contact. It may be called at any time: while another attempt is in
// flight it supersedes it, while registered it refreshes, inheriting the
// dialog's Call-ID and incrementing its CSeq either way.
//
// The outcome arrives as a [RegistrationSucceeded] or [RegistrationFailed]
// event; Register only returns an error when the request cannot be built
// or dispatched.
func (r *Registration) Register(ctx context.Context, contactURI string, route Route, opts *SendOptions) error {
	if contactURI == "" {
		return errtrace.Wrap(NewInvalidArgumentError("contact URI must not be empty"))
	}

	_, err := r.startTransaction(ctx, false, func(_ Transaction, callID string, cseq uint32) (*TransactionRequest, error) {
		return &TransactionRequest{
			Method:      RequestMethodRegister,
			From:        r.target,
			To:          r.target,
			Target:      requestTarget(r.target),
			ContactURI:  contactURI,
			Route:       route,
			Credentials: r.creds,
			CallID:      callID,
			CSeq:        cseq,
			Headers:     map[string]string{"Expires": expiresValue(r.expiry)},
		}, nil
	}, opts)
	return errtrace.Wrap(err)
}

// End unregisters by sending a zero-Expires REGISTER reusing the confirmed
// registration's contact and route, and publishes [RegistrationWillEnd]
// before the outcome is known. Ending a session that never registered is a
// no-op.
func (r *Registration) End(ctx context.Context, opts *SendOptions) error {
	started, err := r.startTransaction(ctx, true, func(_ Transaction, callID string, cseq uint32) (*TransactionRequest, error) {
		if r.last == nil {
			return nil, errNothingToEnd
		}
		return &TransactionRequest{
			Method:      RequestMethodRegister,
			From:        r.target,
			To:          r.target,
			Target:      requestTarget(r.target),
			ContactURI:  r.last.ContactURI(),
			Route:       r.last.Route(),
			Credentials: r.creds,
			CallID:      callID,
			CSeq:        cseq,
			Headers:     map[string]string{"Expires": "0"},
		}, nil
	}, opts)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if started {
		r.publish(ctx, RegistrationWillEnd{})
	}
	return nil
}

func (r *Registration) handleTransaction(ctx context.Context, sender any, evt Event) {
	tx, ok := sender.(Transaction)
	if !ok {
		return
	}
	switch e := evt.(type) {
	case RequestSucceeded:
		r.requestSucceeded(ctx, tx, e)
	case RequestFailed:
		r.requestFailed(ctx, tx, e)
	case RequestWillExpire:
		r.requestWillExpire(ctx, tx, e)
	case RequestEnded:
		r.requestEnded(ctx, tx)
	}
}

func (r *Registration) requestSucceeded(ctx context.Context, tx Transaction, e RequestSucceeded) {
	r.mu.Lock()
	if tx != r.current {
		// superseded attempt, the outcome belongs to a dead transaction
		r.mu.Unlock()
		return
	}
	r.current = nil

	if r.ending {
		retired := r.last
		r.last = nil
		r.mustFire(sessEvtTornDown)
		r.mu.Unlock()

		if retired != nil {
			retired.End()
		}
		r.log.LogAttrs(ctx, slog.LevelDebug, "registration ended", slog.Any("registration", r))
		r.publish(ctx, RegistrationEnded{Expired: false})
		return
	}

	r.last = tx
	r.mustFire(sessEvtConfirm)
	r.mu.Unlock()

	r.log.LogAttrs(ctx, slog.LevelDebug, "registration succeeded",
		slog.Any("registration", r), slog.Any("expires_in", e.Expires))
	r.publish(ctx, RegistrationSucceeded{
		Code:           e.Code,
		Reason:         reasonOr(e.Reason, e.Code),
		ContactURI:     tx.ContactURI(),
		ContactURIList: e.Headers.Values("Contact"),
		ExpiresIn:      e.Expires,
		Route:          tx.Route(),
	})
}

func (r *Registration) requestFailed(ctx context.Context, tx Transaction, e RequestFailed) {
	r.mu.Lock()
	if tx != r.current {
		r.mu.Unlock()
		return
	}
	r.current = nil
	ending := r.ending
	if ending {
		r.mustFire(sessEvtEndRefused)
	} else {
		// the confirmed registration, if any, is not assumed lost
		r.mustFire(sessEvtReject)
	}
	r.mu.Unlock()

	r.log.LogAttrs(ctx, slog.LevelDebug, "registration request failed",
		slog.Any("registration", r), slog.Int("code", e.Code))
	if ending {
		r.publish(ctx, RegistrationDidNotEnd{Code: e.Code, Reason: reasonOr(e.Reason, e.Code)})
		return
	}
	r.publish(ctx, RegistrationFailed{Code: e.Code, Reason: reasonOr(e.Reason, e.Code), Route: tx.Route()})
}

func (r *Registration) requestWillExpire(ctx context.Context, tx Transaction, e RequestWillExpire) {
	r.mu.Lock()
	if tx != r.last {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.publish(ctx, RegistrationWillExpire{Expires: e.Expires})
}

func (r *Registration) requestEnded(ctx context.Context, tx Transaction) {
	r.mu.Lock()
	r.unsubscribeLocked(tx)
	if tx != r.last {
		r.mu.Unlock()
		return
	}
	r.last = nil
	stray := r.current
	r.current = nil
	r.mustFire(sessEvtTerminate)
	r.mu.Unlock()

	if stray != nil {
		stray.End()
	}
	r.log.LogAttrs(ctx, slog.LevelDebug, "registration terminated", slog.Any("registration", r))
	r.publish(ctx, RegistrationEnded{Expired: true})
}
