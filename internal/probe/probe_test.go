package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/netx"
	"github.com/SoroushMB/DNS-Master/internal/runtimex"
	"github.com/SoroushMB/DNS-Master/internal/testingx"
)

// newProberForTest creates a prober whose DNS queries are redirected
// to the given listener regardless of the target address.
func newProberForTest(listener *testingx.DNSOverUDPListener) *Prober {
	p := New(model.DiscardLogger)
	p.resolverEndpoint = func(target model.Target) string {
		return listener.LocalAddr().String()
	}
	return p
}

// mustNewDNSTarget is a convenience for tests.
func mustNewDNSTarget(t *testing.T, address string) model.Target {
	t.Helper()
	target, err := model.NewDNSTarget(address, "")
	if err != nil {
		t.Fatal(err)
	}
	return target
}

func TestProberProbeDNS(t *testing.T) {
	t.Run("successful measurement", func(t *testing.T) {
		// create a server from which to download the payload
		payload := strings.Repeat("A", 4096)
		srvr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(payload))
		}))
		defer srvr.Close()
		srvrURL := runtimex.Try1(url.Parse(srvr.URL))

		// create a resolver knowing the test domain and the payload host
		listener := testingx.MustNewDNSOverUDPListener(
			&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0},
			&testingx.DNSOverUDPStdlibListener{},
			testingx.NewDNSRoundTripperStatic(map[string][]string{
				"dns.google":      {"8.8.8.8"},
				"payload.example": {"127.0.0.1"},
			}),
		)
		defer listener.Close()

		p := newProberForTest(listener)
		p.TestDomain = "dns.google"
		p.PayloadURL = "http://payload.example:" + srvrURL.Port() + "/file"

		result := p.Probe(context.Background(), mustNewDNSTarget(t, "127.0.0.1"))
		if result.Status != model.ProbeStatusSuccess {
			t.Fatal("unexpected status", result.Status, result.FailureReason)
		}
		if result.Latency <= 0 {
			t.Fatal("expected positive latency", result.Latency)
		}
		if result.Throughput <= 0 {
			t.Fatal("expected positive throughput", result.Throughput)
		}
		if result.Elapsed <= 0 {
			t.Fatal("expected positive elapsed time", result.Elapsed)
		}
	})

	t.Run("failure resolving the test domain", func(t *testing.T) {
		listener := testingx.MustNewDNSOverUDPListener(
			&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0},
			&testingx.DNSOverUDPStdlibListener{},
			testingx.NewDNSRoundTripperStatic(map[string][]string{
				"payload.example": {"127.0.0.1"},
			}),
		)
		defer listener.Close()

		p := newProberForTest(listener)
		p.TestDomain = "nonexistent.example"

		result := p.Probe(context.Background(), mustNewDNSTarget(t, "127.0.0.1"))
		if result.Status != model.ProbeStatusFailed {
			t.Fatal("unexpected status", result.Status)
		}
		if result.FailureReason != netx.ErrDNSNoSuchHost.Error() {
			t.Fatal("unexpected failure reason", result.FailureReason)
		}
		if result.Latency != 0 {
			t.Fatal("expected zero latency", result.Latency)
		}
	})

	t.Run("failure resolving the payload host", func(t *testing.T) {
		listener := testingx.MustNewDNSOverUDPListener(
			&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0},
			&testingx.DNSOverUDPStdlibListener{},
			testingx.NewDNSRoundTripperStatic(map[string][]string{
				"dns.google": {"8.8.8.8"},
			}),
		)
		defer listener.Close()

		p := newProberForTest(listener)
		p.TestDomain = "dns.google"
		p.PayloadURL = "http://payload.example/file"

		result := p.Probe(context.Background(), mustNewDNSTarget(t, "127.0.0.1"))
		if result.Status != model.ProbeStatusFailed {
			t.Fatal("unexpected status", result.Status)
		}
		if result.FailureReason != netx.ErrDNSNoSuchHost.Error() {
			t.Fatal("unexpected failure reason", result.FailureReason)
		}
		if result.Latency <= 0 {
			t.Fatal("expected the measured latency to be retained", result.Latency)
		}
	})

	t.Run("failure fetching the payload retains the latency", func(t *testing.T) {
		srvr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srvr.Close()
		srvrURL := runtimex.Try1(url.Parse(srvr.URL))

		listener := testingx.MustNewDNSOverUDPListener(
			&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0},
			&testingx.DNSOverUDPStdlibListener{},
			testingx.NewDNSRoundTripperStatic(map[string][]string{
				"dns.google":      {"8.8.8.8"},
				"payload.example": {"127.0.0.1"},
			}),
		)
		defer listener.Close()

		p := newProberForTest(listener)
		p.TestDomain = "dns.google"
		p.PayloadURL = "http://payload.example:" + srvrURL.Port() + "/file"

		result := p.Probe(context.Background(), mustNewDNSTarget(t, "127.0.0.1"))
		if result.Status != model.ProbeStatusFailed {
			t.Fatal("unexpected status", result.Status)
		}
		if result.FailureReason != errHTTPRequestFailed.Error() {
			t.Fatal("unexpected failure reason", result.FailureReason)
		}
		if result.Latency <= 0 {
			t.Fatal("expected the measured latency to be retained", result.Latency)
		}
		if result.Throughput != 0 {
			t.Fatal("expected zero throughput", result.Throughput)
		}
	})

	t.Run("payload reads stop at the configured maximum", func(t *testing.T) {
		payload := strings.Repeat("A", 4096)
		srvr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(payload))
		}))
		defer srvr.Close()
		srvrURL := runtimex.Try1(url.Parse(srvr.URL))

		listener := testingx.MustNewDNSOverUDPListener(
			&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0},
			&testingx.DNSOverUDPStdlibListener{},
			testingx.NewDNSRoundTripperStatic(map[string][]string{
				"dns.google":      {"8.8.8.8"},
				"payload.example": {"127.0.0.1"},
			}),
		)
		defer listener.Close()

		p := newProberForTest(listener)
		p.TestDomain = "dns.google"
		p.PayloadURL = "http://payload.example:" + srvrURL.Port() + "/file"
		p.PayloadMaxBytes = 16

		result := p.Probe(context.Background(), mustNewDNSTarget(t, "127.0.0.1"))
		if result.Status != model.ProbeStatusSuccess {
			t.Fatal("unexpected status", result.Status, result.FailureReason)
		}
	})
}

func TestProberProbeTimeout(t *testing.T) {
	// create a resolver that never replies so the whole-target
	// deadline is what interrupts the measurement
	listener := testingx.MustNewDNSOverUDPListener(
		&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0},
		&testingx.DNSOverUDPStdlibListener{},
		testingx.NewDNSRoundTripperSilent(),
	)
	defer listener.Close()

	p := newProberForTest(listener)
	p.TargetTimeout = 100 * time.Millisecond
	p.QueryTimeout = 10 * time.Second

	result := p.Probe(context.Background(), mustNewDNSTarget(t, "127.0.0.1"))
	if result.Status != model.ProbeStatusTimeout {
		t.Fatal("unexpected status", result.Status)
	}
	if result.FailureReason != "timeout" {
		t.Fatal("unexpected failure reason", result.FailureReason)
	}
	if result.Elapsed < p.TargetTimeout {
		t.Fatal("expected elapsed to be at least the deadline", result.Elapsed)
	}
	if result.Latency != 0 || result.Throughput != 0 {
		t.Fatal("expected partial measurements to be discarded")
	}
}

func TestProberProbeWithCancelledContext(t *testing.T) {
	listener := testingx.MustNewDNSOverUDPListener(
		&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0},
		&testingx.DNSOverUDPStdlibListener{},
		testingx.NewDNSRoundTripperSilent(),
	)
	defer listener.Close()

	p := newProberForTest(listener)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // the parent dies before the per-target deadline

	result := p.Probe(ctx, mustNewDNSTarget(t, "127.0.0.1"))
	if result.Status != model.ProbeStatusFailed {
		t.Fatal("unexpected status", result.Status)
	}
	if result.FailureReason == "" {
		t.Fatal("expected a failure reason")
	}
	if result.Elapsed >= p.TargetTimeout {
		t.Fatal("expected the probe to return well before the deadline", result.Elapsed)
	}
}

func TestProberProbeMirror(t *testing.T) {
	mustNewMirrorTarget := func(t *testing.T, rawURL string) model.Target {
		t.Helper()
		target, err := model.NewMirrorTarget(rawURL, "")
		if err != nil {
			t.Fatal(err)
		}
		return target
	}

	t.Run("successful measurement", func(t *testing.T) {
		payload := strings.Repeat("A", 4096)
		srvr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(payload))
		}))
		defer srvr.Close()

		p := New(model.DiscardLogger)
		result := p.Probe(context.Background(), mustNewMirrorTarget(t, srvr.URL))
		if result.Status != model.ProbeStatusSuccess {
			t.Fatal("unexpected status", result.Status, result.FailureReason)
		}
		if result.Latency <= 0 {
			t.Fatal("expected positive latency", result.Latency)
		}
		if result.Throughput <= 0 {
			t.Fatal("expected positive throughput", result.Throughput)
		}
	})

	t.Run("redirects are followed", func(t *testing.T) {
		payload := strings.Repeat("A", 4096)
		replica := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(payload))
		}))
		defer replica.Close()
		srvr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, replica.URL, http.StatusFound)
		}))
		defer srvr.Close()

		p := New(model.DiscardLogger)
		result := p.Probe(context.Background(), mustNewMirrorTarget(t, srvr.URL))
		if result.Status != model.ProbeStatusSuccess {
			t.Fatal("unexpected status", result.Status, result.FailureReason)
		}
	})

	t.Run("failure with client error status", func(t *testing.T) {
		srvr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srvr.Close()

		p := New(model.DiscardLogger)
		result := p.Probe(context.Background(), mustNewMirrorTarget(t, srvr.URL))
		if result.Status != model.ProbeStatusFailed {
			t.Fatal("unexpected status", result.Status)
		}
		if result.FailureReason != errHTTPRequestFailed.Error() {
			t.Fatal("unexpected failure reason", result.FailureReason)
		}
		if result.Latency <= 0 {
			t.Fatal("expected the measured latency to be retained", result.Latency)
		}
	})

	t.Run("failure streaming the body retains the latency", func(t *testing.T) {
		srvr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// announce more bytes than we send so the client
			// observes an unexpected EOF while streaming
			w.Header().Set("Content-Length", "4096")
			w.Write([]byte("antani"))
		}))
		defer srvr.Close()

		p := New(model.DiscardLogger)
		result := p.Probe(context.Background(), mustNewMirrorTarget(t, srvr.URL))
		if result.Status != model.ProbeStatusFailed {
			t.Fatal("unexpected status", result.Status)
		}
		if result.FailureReason == "" {
			t.Fatal("expected a failure reason")
		}
		if result.Latency <= 0 {
			t.Fatal("expected the measured latency to be retained", result.Latency)
		}
	})
}

func TestProberProbeUnknownKind(t *testing.T) {
	p := New(model.DiscardLogger)
	result := p.Probe(context.Background(), model.Target{Kind: "antani"})
	if result.Status != model.ProbeStatusFailed {
		t.Fatal("unexpected status", result.Status)
	}
	if result.FailureReason != errUnknownTargetKind.Error() {
		t.Fatal("unexpected failure reason", result.FailureReason)
	}
	if result.Elapsed <= 0 {
		t.Fatal("expected positive elapsed time", result.Elapsed)
	}
}

func TestNew(t *testing.T) {
	p := New(model.DiscardLogger)
	if p.Dialer == nil {
		t.Fatal("expected a default dialer")
	}
	if p.Logger == nil {
		t.Fatal("expected a default logger")
	}
	if p.PayloadMaxBytes != 1<<20 {
		t.Fatal("unexpected payload maximum", p.PayloadMaxBytes)
	}
	if p.TargetTimeout != 7500*time.Millisecond {
		t.Fatal("unexpected target timeout", p.TargetTimeout)
	}
	if p.QueryTimeout != 2*time.Second {
		t.Fatal("unexpected query timeout", p.QueryTimeout)
	}
	target := runtimex.Try1(model.NewDNSTarget("8.8.8.8", ""))
	if endpoint := p.resolverEndpoint(target); endpoint != "8.8.8.8:53" {
		t.Fatal("unexpected resolver endpoint", endpoint)
	}
}

func TestThroughputBits(t *testing.T) {
	var inputs = []struct {
		name    string
		count   int64
		elapsed time.Duration
		expect  float64
	}{{
		name:    "with zero bytes moved",
		count:   0,
		elapsed: time.Second,
		expect:  0,
	}, {
		name:    "with zero elapsed time",
		count:   128,
		elapsed: 0,
		expect:  0,
	}, {
		name:    "with a one second transfer",
		count:   1000,
		elapsed: time.Second,
		expect:  8000,
	}}
	for _, input := range inputs {
		t.Run(input.name, func(t *testing.T) {
			if out := throughputBits(input.count, input.elapsed); out != input.expect {
				t.Fatal("unexpected throughput", out)
			}
		})
	}
}
