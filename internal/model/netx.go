package model

//
// Networking
//

import (
	"context"
	"net"
)

// Dialer establishes network connections.
type Dialer interface {
	// DialContext behaves like [net.Dialer.DialContext].
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}
