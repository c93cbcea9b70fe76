package testingx

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/miekg/dns"
)

// DNSRoundTripper performs DNS round trips for testing.
type DNSRoundTripper interface {
	RoundTrip(ctx context.Context, rawQuery []byte) (rawReply []byte, err error)
}

// DNSRoundTripperFunc transforms a func into a [DNSRoundTripper].
type DNSRoundTripperFunc func(ctx context.Context, rawQuery []byte) ([]byte, error)

var _ DNSRoundTripper = DNSRoundTripperFunc(nil)

// RoundTrip implements DNSRoundTripper.
func (fx DNSRoundTripperFunc) RoundTrip(ctx context.Context, rawQuery []byte) ([]byte, error) {
	return fx(ctx, rawQuery)
}

// ErrDNSExpectedSingleQuestion means the query did not contain a single question.
var ErrDNSExpectedSingleQuestion = errors.New("testingx: expected a single question")

// NewDNSRoundTripperStatic creates a [DNSRoundTripper] replying to A
// and AAAA questions using the given domain-to-addresses map. Domains
// not in the map receive an NXDOMAIN reply. Mapped domains receive
// the subset of addresses matching the question type, which possibly
// is an empty answer section.
func NewDNSRoundTripperStatic(addresses map[string][]string) DNSRoundTripper {
	return DNSRoundTripperFunc(func(ctx context.Context, rawQuery []byte) ([]byte, error) {
		query := &dns.Msg{}
		if err := query.Unpack(rawQuery); err != nil {
			return nil, err
		}
		if len(query.Question) != 1 {
			return nil, ErrDNSExpectedSingleQuestion
		}
		question := query.Question[0]
		reply := &dns.Msg{}
		reply.SetReply(query)
		addrs, found := addresses[strings.TrimSuffix(question.Name, ".")]
		if !found {
			reply.Rcode = dns.RcodeNameError
			return reply.Pack()
		}
		for _, addr := range addrs {
			ip := net.ParseIP(addr)
			if ip == nil {
				continue
			}
			switch question.Qtype {
			case dns.TypeA:
				if ipv4 := ip.To4(); ipv4 != nil {
					reply.Answer = append(reply.Answer, &dns.A{
						Hdr: dns.RR_Header{
							Name:   question.Name,
							Rrtype: dns.TypeA,
							Class:  dns.ClassINET,
							Ttl:    60,
						},
						A: ipv4,
					})
				}
			case dns.TypeAAAA:
				if ip.To4() == nil {
					reply.Answer = append(reply.Answer, &dns.AAAA{
						Hdr: dns.RR_Header{
							Name:   question.Name,
							Rrtype: dns.TypeAAAA,
							Class:  dns.ClassINET,
							Ttl:    60,
						},
						AAAA: ip.To16(),
					})
				}
			}
		}
		return reply.Pack()
	})
}

// NewDNSRoundTripperSilent creates a [DNSRoundTripper] that never
// replies, which a client observes as a read timeout.
func NewDNSRoundTripperSilent() DNSRoundTripper {
	return DNSRoundTripperFunc(func(ctx context.Context, rawQuery []byte) ([]byte, error) {
		return nil, errors.New("testingx: dropping the query")
	})
}
