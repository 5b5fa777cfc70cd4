package engine

import "github.com/recurry/versafix/session"

// Endpoint is the capability-set abstraction for an inbound transport
// listener (§1/§6: transport I/O is an external collaborator, never owned
// by the core). The Engine consumes whatever Endpoint a caller supplies --
// a TCP listener adapter, a test double -- and never reaches for a
// concrete socket type itself.
type Endpoint interface {
	Accept() (Conn, error)
	Close() error
}

// Conn is one accepted, not-yet-identified connection. Recv blocks for the
// next framed wire buffer; the embedded session.Transport covers the
// outbound half once the connection is bound to a session.
type Conn interface {
	Recv() ([]byte, error)
	session.Transport
}
