// Package netx contains the networking extensions we use to measure
// resolvers and mirrors: a DNS-over-UDP transport bound to a single
// resolver endpoint, a parallel A/AAAA resolver on top of it, an HTTP
// client that pins a hostname to a known address, and context-aware
// I/O helpers.
package netx

import (
	"context"
	"time"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/miekg/dns"
)

// DNSOverUDPTransport sends DNS queries to a single resolver
// endpoint over UDP, one query and one reply per round trip.
type DNSOverUDPTransport struct {
	dialer  model.Dialer
	address string
}

// NewDNSOverUDPTransport creates a DNSOverUDPTransport instance.
//
// Arguments:
//
// - dialer is any type that implements the Dialer interface;
//
// - address is the endpoint address (e.g., 8.8.8.8:53).
func NewDNSOverUDPTransport(dialer model.Dialer, address string) *DNSOverUDPTransport {
	return &DNSOverUDPTransport{dialer: dialer, address: address}
}

// RoundTrip sends a query and receives a reply. It verifies that the
// reply ID matches the query ID before returning the reply.
func (t *DNSOverUDPTransport) RoundTrip(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
	rawQuery, err := query.Pack()
	if err != nil {
		return nil, err
	}
	conn, err := t.dialer.DialContext(ctx, "udp", t.address)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	// Use five seconds timeout like Bionic does, unless the context
	// deadline is nearer than that. See
	// https://labs.ripe.net/Members/baptiste_jonglez_1/persistent-dns-connections-for-reliability-and-performance
	deadline := time.Now().Add(5 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err = conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	if _, err = conn.Write(rawQuery); err != nil {
		return nil, err
	}
	rawReply := make([]byte, 1<<17)
	count, err := conn.Read(rawReply)
	if err != nil {
		return nil, err
	}
	reply := &dns.Msg{}
	if err := reply.Unpack(rawReply[:count]); err != nil {
		return nil, err
	}
	if reply.Id != query.Id {
		return nil, ErrDNSReplyWithWrongQueryID
	}
	return reply, nil
}

// Address returns the resolver endpoint address.
func (t *DNSOverUDPTransport) Address() string {
	return t.address
}
