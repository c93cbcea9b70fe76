package model

//
// Benchmark targets
//

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// TargetKind tells apart the two families of benchmark targets.
type TargetKind string

const (
	// TargetKindDNS is a DNS resolver reachable over UDP port 53.
	TargetKindDNS = TargetKind("dns")

	// TargetKindMirror is a package mirror HTTP(S) endpoint.
	TargetKindMirror = TargetKind("mirror")
)

// Errors returned when validating raw target input.
var (
	// ErrInvalidResolverIP means the raw string is not an IP address.
	ErrInvalidResolverIP = errors.New("model: not a valid resolver IP address")

	// ErrInvalidMirrorURL means the raw string is not an http(s) URL.
	ErrInvalidMirrorURL = errors.New("model: not a valid mirror URL")
)

// Target is a single benchmark target.
//
// The zero value is invalid; construct targets using [NewDNSTarget],
// [NewMirrorTarget], or [NewTarget].
type Target struct {
	// Kind is the MANDATORY target kind.
	Kind TargetKind

	// Address identifies the target: the resolver IP address for
	// dns targets, the absolute URL for mirror targets.
	Address string

	// Label is the OPTIONAL human readable name.
	Label string
}

// NewDNSTarget validates raw as an IP address and returns the
// corresponding resolver target. The address is normalized through
// [net.ParseIP] so equal addresses always compare equal.
func NewDNSTarget(raw, label string) (Target, error) {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidResolverIP, raw)
	}
	return Target{Kind: TargetKindDNS, Address: ip.String(), Label: label}, nil
}

// NewMirrorTarget validates raw as an absolute http(s) URL and returns
// the corresponding mirror target.
func NewMirrorTarget(raw, label string) (Target, error) {
	raw = strings.TrimSpace(raw)
	URL, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %s", ErrInvalidMirrorURL, err.Error())
	}
	if URL.Scheme != "http" && URL.Scheme != "https" {
		return Target{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidMirrorURL, URL.Scheme)
	}
	if URL.Host == "" {
		return Target{}, fmt.Errorf("%w: missing host in %q", ErrInvalidMirrorURL, raw)
	}
	return Target{Kind: TargetKindMirror, Address: URL.String(), Label: label}, nil
}

// NewTarget validates raw according to the given kind.
func NewTarget(kind TargetKind, raw, label string) (Target, error) {
	switch kind {
	case TargetKindDNS:
		return NewDNSTarget(raw, label)
	case TargetKindMirror:
		return NewMirrorTarget(raw, label)
	default:
		return Target{}, fmt.Errorf("model: unknown target kind: %s", kind)
	}
}

// Endpoint returns the UDP endpoint of a dns target ("<ip>:53"),
// using [net.JoinHostPort] so IPv6 addresses are quoted correctly.
// It returns the empty string for non-dns targets.
func (t Target) Endpoint() string {
	if t.Kind != TargetKindDNS {
		return ""
	}
	return net.JoinHostPort(t.Address, "53")
}

// String returns the label, when present, alongside the address.
func (t Target) String() string {
	if t.Label != "" {
		return fmt.Sprintf("%s (%s)", t.Address, t.Label)
	}
	return t.Address
}
