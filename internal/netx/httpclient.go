package netx

//
// HTTP with a pinned dial address
//

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/SoroushMB/DNS-Master/internal/model"
)

// NewHTTPClientWithPinnedAddr creates an [*http.Client] that dials
// pinnedAddr whenever asked to dial origAddr. We use this client to
// fetch the payload URL through the resolver under test: the URL
// hostname still appears in the Host header and in the TLS SNI, while
// the connection goes to the address that resolver gave us.
//
// The client does not follow redirects, because following one could
// connect somewhere the pinned resolver did not point us to.
func NewHTTPClientWithPinnedAddr(dialer model.Dialer, origAddr, pinnedAddr string) *http.Client {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	txp := &http.Transport{
		DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
			if address == origAddr {
				address = pinnedAddr
			}
			return dialer.DialContext(ctx, network, address)
		},
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Transport: txp,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// URLPort returns the port implied by the given URL, using the
// scheme default when the URL has no explicit port.
func URLPort(u *url.URL) string {
	if port := u.Port(); port != "" {
		return port
	}
	switch u.Scheme {
	case "https":
		return "443"
	default:
		return "80"
	}
}

// URLEndpoint returns the TCP endpoint implied by the given URL.
func URLEndpoint(u *url.URL) string {
	return net.JoinHostPort(u.Hostname(), URLPort(u))
}
