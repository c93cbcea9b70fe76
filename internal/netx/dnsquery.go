package netx

//
// DNS query construction
//

import "github.com/miekg/dns"

// NewQuery creates a query for the given domain and query type. The
// query has a random ID and the recursion desired flag set.
func NewQuery(domain string, qtype uint16) *dns.Msg {
	question := dns.Question{
		Name:   dns.Fqdn(domain),
		Qtype:  qtype,
		Qclass: dns.ClassINET,
	}
	query := new(dns.Msg)
	query.Id = dns.Id()
	query.RecursionDesired = true
	query.Question = make([]dns.Question, 1)
	query.Question[0] = question
	return query
}
