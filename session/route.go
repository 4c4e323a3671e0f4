package session

import (
	"fmt"
	"log/slog"
	"net/netip"

	"braces.dev/errtrace"
)

// TransportProto is the transport a [Route] points at.
type TransportProto string

const (
	TransportUDP TransportProto = "udp"
	TransportTCP TransportProto = "tcp"
	TransportTLS TransportProto = "tls"
)

// Route is an already-resolved next-hop for outgoing requests.
// The zero value means "no route"; the engine picks its own target.
type Route struct {
	addr netip.Addr
	port uint16
	tp   TransportProto
}

// NewRoute builds a route from a literal IP address, an optional port
// (0 selects the default port for the transport) and an optional transport
// (empty selects UDP).
func NewRoute(addr string, port int, tp TransportProto) (Route, error) {
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return Route{}, errtrace.Wrap(NewInvalidArgumentError(err))
	}
	if port < 0 || port > 65535 {
		return Route{}, errtrace.Wrap(NewInvalidArgumentError("illegal port value: %d", port))
	}
	switch tp {
	case "":
		tp = TransportUDP
	case TransportUDP, TransportTCP, TransportTLS:
	default:
		return Route{}, errtrace.Wrap(NewInvalidArgumentError("illegal transport value: %q", tp))
	}
	return Route{addr: a, port: uint16(port), tp: tp}, nil
}

// MustRoute is like [NewRoute] but panics on invalid input.
func MustRoute(addr string, port int, tp TransportProto) Route {
	r, err := NewRoute(addr, port, tp)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Route) IsZero() bool { return r == Route{} }

func (r Route) Address() string { return r.addr.String() }

// Port returns the explicit port, or the default port for the transport.
func (r Route) Port() int {
	if r.port != 0 {
		return int(r.port)
	}
	if r.tp == TransportTLS {
		return 5061
	}
	return 5060
}

func (r Route) Transport() TransportProto {
	if r.tp == "" {
		return TransportUDP
	}
	return r.tp
}

// URI renders the route as a SIP URI, omitting the port when it is the
// default for the transport and the transport parameter for UDP.
func (r Route) URI() string {
	tp := r.Transport()
	uri := "sip:" + r.addr.String()
	switch {
	case tp == TransportTLS && r.Port() != 5061,
		tp != TransportTLS && r.Port() != 5060:
		uri = fmt.Sprintf("%s:%d", uri, r.Port())
	}
	if tp != TransportUDP {
		uri += ";transport=" + string(tp)
	}
	return uri
}

func (r Route) String() string {
	return fmt.Sprintf("sip:%s:%d;transport=%s", r.addr, r.Port(), r.Transport())
}

// Equal checks whether the route is equal to another route,
// normalizing defaulted ports and transports.
func (r Route) Equal(other Route) bool {
	if r.IsZero() || other.IsZero() {
		return r.IsZero() && other.IsZero()
	}
	return r.addr == other.addr && r.Port() == other.Port() && r.Transport() == other.Transport()
}

// LogValue implements [slog.LogValuer].
func (r Route) LogValue() slog.Value {
	if r.IsZero() {
		return slog.Value{}
	}
	return slog.StringValue(r.String())
}
