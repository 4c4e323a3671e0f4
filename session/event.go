package session

import (
	"strings"
	"time"
)

// Event is the closed set of bus events defined by this package:
// transaction outcomes published by the engine and session lifecycle
// events published by the sessions.
type Event interface{ event() }

// Headers are response headers as reported by the engine.
// Lookup is case-insensitive; SIP header capitalization is preserved as-is.
type Headers map[string][]string

// Get returns the first value of the named header, or empty.
func (h Headers) Get(name string) string {
	vals := h.Values(name)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// Values returns all values of the named header.
func (h Headers) Values(name string) []string {
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return nil
}

// Add appends a value to the named header, merging case-insensitive
// spellings of the name.
func (h Headers) Add(name, value string) {
	for k := range h {
		if strings.EqualFold(k, name) {
			h[k] = append(h[k], value)
			return
		}
	}
	h[name] = append(h[name], value)
}

// Transaction outcome events, published by the engine with the
// originating [Transaction] as sender.
type (
	// RequestSucceeded reports a final successful response.
	RequestSucceeded struct {
		Code    int
		Reason  string
		Headers Headers
		Body    []byte
		// Expires is the granted lifetime, zero when the response carried none.
		Expires time.Duration
	}

	// RequestFailed reports a final rejection, timeout or transport failure.
	RequestFailed struct {
		Code    int
		Reason  string
		Headers Headers
		Body    []byte
	}

	// RequestWillExpire warns that the state confirmed by the transaction
	// is about to expire.
	RequestWillExpire struct {
		Expires time.Duration
	}

	// RequestEnded reports terminal disposal of the transaction.
	RequestEnded struct{}
)

func (RequestSucceeded) event()  {}
func (RequestFailed) event()     {}
func (RequestWillExpire) event() {}
func (RequestEnded) event()      {}

// Registration events, published with the [Registration] as sender.
type (
	RegistrationSucceeded struct {
		Code           int
		Reason         string
		ContactURI     string
		ContactURIList []string
		ExpiresIn      time.Duration
		Route          Route
	}

	RegistrationFailed struct {
		Code   int
		Reason string
		Route  Route
	}

	// RegistrationWillEnd is published as soon as an unregister is
	// dispatched, before its outcome is known.
	RegistrationWillEnd struct{}

	RegistrationWillExpire struct {
		Expires time.Duration
	}

	// RegistrationEnded reports loss of the registration: voluntary
	// (Expired=false, unregister confirmed) or involuntary (Expired=true,
	// the confirmed transaction was terminated).
	RegistrationEnded struct {
		Expired bool
	}

	// RegistrationDidNotEnd reports a rejected unregister.
	RegistrationDidNotEnd struct {
		Code   int
		Reason string
	}
)

func (RegistrationSucceeded) event()  {}
func (RegistrationFailed) event()     {}
func (RegistrationWillEnd) event()    {}
func (RegistrationWillExpire) event() {}
func (RegistrationEnded) event()      {}
func (RegistrationDidNotEnd) event()  {}

// Publication events, published with the [Publication] as sender.
type (
	PublicationSucceeded struct {
		Code      int
		Reason    string
		ExpiresIn time.Duration
		Route     Route
	}

	PublicationFailed struct {
		Code   int
		Reason string
		Route  Route
	}

	PublicationWillEnd struct{}

	PublicationWillExpire struct {
		Expires time.Duration
	}

	PublicationEnded struct {
		Expired bool
	}

	PublicationDidNotEnd struct {
		Code   int
		Reason string
	}
)

func (PublicationSucceeded) event()  {}
func (PublicationFailed) event()     {}
func (PublicationWillEnd) event()    {}
func (PublicationWillExpire) event() {}
func (PublicationEnded) event()      {}
func (PublicationDidNotEnd) event()  {}

// Message events, published with the [Message] as sender.
type (
	MessageSucceeded struct{}

	MessageFailed struct {
		Code   int
		Reason string
	}
)

func (MessageSucceeded) event() {}
func (MessageFailed) event()    {}
