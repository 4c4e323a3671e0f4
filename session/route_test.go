package session_test

import (
	"errors"
	"testing"

	"github.com/sipward/sipsession/session"
)

func TestNewRoute_Validation(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		addr string
		port int
		tp   session.TransportProto
	}{
		{name: "empty address", addr: ""},
		{name: "hostname", addr: "proxy.example.com"},
		{name: "negative port", addr: "10.0.0.1", port: -1},
		{name: "port too large", addr: "10.0.0.1", port: 65536},
		{name: "unknown transport", addr: "10.0.0.1", tp: "sctp"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := session.NewRoute(tt.addr, tt.port, tt.tp)
			if !errors.Is(err, session.ErrInvalidArgument) {
				t.Fatalf("got %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestRoute_Defaults(t *testing.T) {
	t.Parallel()

	r := session.MustRoute("10.0.0.1", 0, "")
	if got, want := r.Transport(), session.TransportUDP; got != want {
		t.Errorf("Transport: got %q, want %q", got, want)
	}
	if got, want := r.Port(), 5060; got != want {
		t.Errorf("Port: got %d, want %d", got, want)
	}

	tls := session.MustRoute("10.0.0.1", 0, session.TransportTLS)
	if got, want := tls.Port(), 5061; got != want {
		t.Errorf("TLS Port: got %d, want %d", got, want)
	}
}

func TestRoute_URI(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		route session.Route
		want  string
	}{
		{session.MustRoute("10.0.0.1", 0, ""), "sip:10.0.0.1"},
		{session.MustRoute("10.0.0.1", 5060, session.TransportUDP), "sip:10.0.0.1"},
		{session.MustRoute("10.0.0.1", 5070, session.TransportUDP), "sip:10.0.0.1:5070"},
		{session.MustRoute("10.0.0.1", 0, session.TransportTCP), "sip:10.0.0.1;transport=tcp"},
		{session.MustRoute("10.0.0.1", 0, session.TransportTLS), "sip:10.0.0.1;transport=tls"},
		{session.MustRoute("10.0.0.1", 5061, session.TransportTLS), "sip:10.0.0.1;transport=tls"},
		{session.MustRoute("10.0.0.1", 5062, session.TransportTLS), "sip:10.0.0.1:5062;transport=tls"},
	} {
		if got := tt.route.URI(); got != tt.want {
			t.Errorf("URI of %v: got %q, want %q", tt.route, got, tt.want)
		}
	}
}

func TestRoute_String(t *testing.T) {
	t.Parallel()

	r := session.MustRoute("10.0.0.1", 0, "")
	if got, want := r.String(), "sip:10.0.0.1:5060;transport=udp"; got != want {
		t.Fatalf("String: got %q, want %q", got, want)
	}
}

func TestRoute_Equal(t *testing.T) {
	t.Parallel()

	a := session.MustRoute("10.0.0.1", 0, "")
	b := session.MustRoute("10.0.0.1", 5060, session.TransportUDP)
	if !a.Equal(b) {
		t.Errorf("%v and %v differ, want equal", a, b)
	}
	c := session.MustRoute("10.0.0.1", 5060, session.TransportTCP)
	if a.Equal(c) {
		t.Errorf("%v and %v equal, want different", a, c)
	}
	var zero session.Route
	if a.Equal(zero) {
		t.Error("route equals zero route")
	}
	if !zero.Equal(session.Route{}) {
		t.Error("zero routes differ")
	}
	if !zero.IsZero() {
		t.Error("IsZero on zero route: got false")
	}
}
