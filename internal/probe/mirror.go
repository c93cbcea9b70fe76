package probe

//
// The package mirror measurement.
//

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/netx"
)

// probeMirror measures a package mirror target. The latency is the
// time between issuing the request and receiving the response
// headers and the throughput is measured by streaming at most
// PayloadMaxBytes of the mirror's response body.
func (p *Prober) probeMirror(ctx context.Context, target model.Target) *model.ProbeResult {
	result := &model.ProbeResult{Target: target}
	clnt := p.newMirrorClient()
	defer clnt.CloseIdleConnections()

	// issue the request and measure the time to first byte
	req, err := http.NewRequestWithContext(ctx, "GET", target.Address, nil)
	if err != nil {
		result.Status = model.ProbeStatusFailed
		result.FailureReason = err.Error()
		return result
	}
	begin := time.Now()
	resp, err := clnt.Do(req)
	if err != nil {
		p.Logger.Debugf("probe: fetch %s: %s", target.Address, err.Error())
		result.Status = model.ProbeStatusFailed
		result.FailureReason = err.Error()
		return result
	}
	defer resp.Body.Close()
	result.Latency = time.Since(begin)
	if resp.StatusCode >= 400 {
		result.Status = model.ProbeStatusFailed
		result.FailureReason = errHTTPRequestFailed.Error()
		return result
	}

	// stream a bounded portion of the body to measure throughput
	begin = time.Now()
	count, err := netx.CopyContext(ctx, io.Discard, io.LimitReader(resp.Body, p.PayloadMaxBytes))
	if err != nil {
		p.Logger.Debugf("probe: stream %s: %s", target.Address, err.Error())
		result.Status = model.ProbeStatusFailed
		result.FailureReason = err.Error()
		return result
	}

	result.Throughput = throughputBits(count, time.Since(begin))
	result.Status = model.ProbeStatusSuccess
	return result
}

// newMirrorClient creates the client for fetching from mirrors. Unlike
// the pinned client used for DNS targets, this client follows
// redirects, since mirrors routinely redirect to a nearby replica and
// the redirect cost is part of what we are measuring.
func (p *Prober) newMirrorClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext:         p.Dialer.DialContext,
			ForceAttemptHTTP2:   true,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
