package probe

//
// The DNS resolver measurement.
//

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/netx"
)

// probeDNS measures a DNS resolver target. We first resolve the test
// domain to measure the query latency, then we resolve the payload
// host with the same resolver and fetch the payload from one of the
// addresses it returned, to measure the throughput a client using
// this resolver would actually obtain.
func (p *Prober) probeDNS(ctx context.Context, target model.Target) *model.ProbeResult {
	result := &model.ProbeResult{Target: target}
	reso := netx.NewUDPResolver(p.Dialer, p.resolverEndpoint(target))

	// measure the query latency using the test domain
	addrs, latency, err := p.timedLookup(ctx, reso, p.TestDomain)
	if err != nil {
		p.Logger.Debugf("probe: %s: lookup %s: %s", reso.Address(), p.TestDomain, err.Error())
		result.Status = model.ProbeStatusFailed
		result.FailureReason = err.Error()
		return result
	}
	result.Latency = latency
	p.Logger.Debugf("probe: %s: lookup %s: %v in %s", reso.Address(), p.TestDomain, addrs, latency)

	// resolve the payload host with the resolver under test
	URL, err := url.Parse(p.PayloadURL)
	if err != nil {
		result.Status = model.ProbeStatusFailed
		result.FailureReason = err.Error()
		return result
	}
	payloadAddrs, _, err := p.timedLookup(ctx, reso, URL.Hostname())
	if err != nil {
		p.Logger.Debugf("probe: %s: lookup %s: %s", reso.Address(), URL.Hostname(), err.Error())
		result.Status = model.ProbeStatusFailed
		result.FailureReason = err.Error()
		return result
	}

	// fetch the payload from the resolved address, keeping the
	// original URL so the Host header and SNI are not disturbed
	pinned, err := netx.FirstHostPort(payloadAddrs, netx.URLPort(URL))
	if err != nil {
		result.Status = model.ProbeStatusFailed
		result.FailureReason = err.Error()
		return result
	}
	clnt := netx.NewHTTPClientWithPinnedAddr(p.Dialer, netx.URLEndpoint(URL), pinned)
	defer clnt.CloseIdleConnections()
	count, elapsed, err := p.fetchPayload(ctx, clnt)
	if err != nil {
		p.Logger.Debugf("probe: %s: fetch %s: %s", reso.Address(), p.PayloadURL, err.Error())
		result.Status = model.ProbeStatusFailed
		result.FailureReason = err.Error()
		return result
	}

	result.Throughput = throughputBits(count, elapsed)
	result.Status = model.ProbeStatusSuccess
	return result
}

// timedLookup resolves hostname with the given resolver under the
// query timeout and returns the addresses and the time it took.
func (p *Prober) timedLookup(
	ctx context.Context, reso *netx.UDPResolver, hostname string) ([]string, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, p.QueryTimeout)
	defer cancel()
	begin := time.Now()
	addrs, err := reso.LookupHost(ctx, hostname)
	elapsed := time.Since(begin)
	if err != nil {
		return nil, elapsed, err
	}
	return addrs, elapsed, nil
}

// fetchPayload downloads at most PayloadMaxBytes of the payload
// using the given client and returns the number of bytes moved
// along with the time the body transfer took.
func (p *Prober) fetchPayload(ctx context.Context, clnt *http.Client) (int64, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.PayloadURL, nil)
	if err != nil {
		return 0, 0, err
	}
	resp, err := clnt.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return 0, 0, errHTTPRequestFailed
	}
	begin := time.Now()
	count, err := netx.CopyContext(ctx, io.Discard, io.LimitReader(resp.Body, p.PayloadMaxBytes))
	if err != nil {
		return 0, 0, err
	}
	return count, time.Since(begin), nil
}
