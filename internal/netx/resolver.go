package netx

//
// Host lookups through a pinned resolver
//

import (
	"context"
	"errors"
	"net"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/miekg/dns"
)

// Errors emitted when decoding DNS replies.
var (
	// ErrDNSReplyWithWrongQueryID means the reply ID does not match
	// the query ID.
	ErrDNSReplyWithWrongQueryID = errors.New("netx: reply with wrong query ID")

	// ErrDNSNoSuchHost means the resolver returned NXDOMAIN.
	ErrDNSNoSuchHost = errors.New("netx: no such host")

	// ErrDNSRefused means the resolver refused the query.
	ErrDNSRefused = errors.New("netx: the resolver refused the query")

	// ErrDNSServfail means the resolver returned SERVFAIL.
	ErrDNSServfail = errors.New("netx: resolver returned servfail")

	// ErrDNSMisbehaving is the catch all error for other rcodes.
	ErrDNSMisbehaving = errors.New("netx: resolver misbehaving")

	// ErrDNSNoAnswer means the reply contained no usable answer.
	ErrDNSNoAnswer = errors.New("netx: no answer from the resolver")
)

// UDPResolver resolves hostnames through a single DNS-over-UDP
// resolver endpoint, which is what we benchmark.
type UDPResolver struct {
	// Txp is the MANDATORY underlying transport.
	Txp *DNSOverUDPTransport
}

// NewUDPResolver creates a [*UDPResolver] using the given dialer and
// resolver endpoint address (e.g., 8.8.8.8:53).
func NewUDPResolver(dialer model.Dialer, address string) *UDPResolver {
	return &UDPResolver{Txp: NewDNSOverUDPTransport(dialer, address)}
}

// Address returns the resolver endpoint address.
func (r *UDPResolver) Address() string {
	return r.Txp.Address()
}

// LookupHost performs an A lookup in parallel with an AAAA lookup.
func (r *UDPResolver) LookupHost(ctx context.Context, hostname string) ([]string, error) {
	ach := make(chan *lookupHostResult)
	go r.lookupHost(ctx, hostname, dns.TypeA, ach)
	aaaach := make(chan *lookupHostResult)
	go r.lookupHost(ctx, hostname, dns.TypeAAAA, aaaach)
	ares := <-ach
	aaaares := <-aaaach
	if ares.err != nil && aaaares.err != nil {
		// Note: we choose to return the A error because we assume that
		// it's the more meaningful one: the AAAA error may just be telling
		// us that there is no AAAA record for the host.
		return nil, ares.err
	}
	var addrs []string
	addrs = append(addrs, ares.addrs...)
	addrs = append(addrs, aaaares.addrs...)
	if len(addrs) < 1 {
		return nil, ErrDNSNoAnswer
	}
	return addrs, nil
}

// lookupHostResult is the result of a lookup using either the A or
// the AAAA query type.
type lookupHostResult struct {
	addrs []string
	err   error
}

// lookupHost issues a lookup host query for the specified qtype (e.g., dns.TypeA).
func (r *UDPResolver) lookupHost(ctx context.Context, hostname string,
	qtype uint16, out chan<- *lookupHostResult) {
	query := NewQuery(hostname, qtype)
	reply, err := r.Txp.RoundTrip(ctx, query)
	if err != nil {
		out <- &lookupHostResult{
			addrs: []string{},
			err:   err,
		}
		return
	}
	addrs, err := decodeLookupHost(qtype, reply)
	out <- &lookupHostResult{
		addrs: addrs,
		err:   err,
	}
}

// rcodeToError maps the reply rcode to an error, with nil standing
// for a successful rcode.
func rcodeToError(reply *dns.Msg) error {
	switch reply.Rcode {
	case dns.RcodeSuccess:
		return nil
	case dns.RcodeNameError:
		return ErrDNSNoSuchHost
	case dns.RcodeRefused:
		return ErrDNSRefused
	case dns.RcodeServerFailure:
		return ErrDNSServfail
	default:
		return ErrDNSMisbehaving
	}
}

// decodeLookupHost extracts the addresses matching qtype out of the
// given reply.
func decodeLookupHost(qtype uint16, reply *dns.Msg) ([]string, error) {
	if err := rcodeToError(reply); err != nil {
		return nil, err
	}
	var addrs []string
	for _, answer := range reply.Answer {
		switch qtype {
		case dns.TypeA:
			if rra, ok := answer.(*dns.A); ok {
				ip := rra.A
				addrs = append(addrs, ip.String())
			}
		case dns.TypeAAAA:
			if rra, ok := answer.(*dns.AAAA); ok {
				ip := rra.AAAA
				addrs = append(addrs, ip.String())
			}
		}
	}
	if len(addrs) <= 0 {
		return nil, ErrDNSNoAnswer
	}
	return addrs, nil
}

// FirstHostPort returns the endpoint obtained by joining the first
// address in addrs with the given port.
func FirstHostPort(addrs []string, port string) (string, error) {
	if len(addrs) < 1 {
		return "", ErrDNSNoAnswer
	}
	return net.JoinHostPort(addrs[0], port), nil
}
