// Package daemon implements the TCP client for the timing daemon's
// monitoring socket. An exchange sends one JSON request and reads one JSON
// reply over a fresh connection.
package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"oscctl/internal/logger"
	"oscctl/internal/monitoring"
)

const (
	// DefaultTimeout bounds a whole exchange (connect, send, receive).
	DefaultTimeout = 5 * time.Second

	// DefaultMaxReplySize caps how many reply bytes one exchange will
	// accumulate. Daemon replies are a few hundred bytes; the cap only
	// guards against a misbehaving peer.
	DefaultMaxReplySize = 64 * 1024

	readChunkSize = 2048
)

// ErrReplyTooLarge is returned when the reply exceeds the configured size
// cap before forming a complete JSON document.
var ErrReplyTooLarge = errors.New("daemon reply exceeds size cap")

// Client performs one-shot exchanges with the daemon's monitoring socket.
// It owns address resolution and the connect/send/receive cycle; encoding
// and decoding live in the monitoring package.
type Client struct {
	Addr         string        // host:port of the monitoring socket
	Timeout      time.Duration // deadline for the whole exchange
	MaxReplySize int

	log *logger.Logger
}

// NewClient creates a monitoring socket client for addr ("host:port").
func NewClient(addr string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		Addr:         addr,
		Timeout:      timeout,
		MaxReplySize: DefaultMaxReplySize,
		log:          log,
	}
}

// Exchange sends cmd and decodes the daemon's status reply. Exactly one
// request and one reply per call; there are no retries.
func (c *Client) Exchange(cmd monitoring.Command) (*monitoring.Report, error) {
	raw, err := c.Raw(cmd)
	if err != nil {
		return nil, err
	}
	return monitoring.Decode(raw)
}

// Raw sends cmd and returns the reply bytes verbatim, without decoding.
func (c *Client) Raw(cmd monitoring.Command) ([]byte, error) {
	payload, err := monitoring.EncodeRequest(cmd)
	if err != nil {
		return nil, err
	}

	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.timeout())); err != nil {
		return nil, fmt.Errorf("setting exchange deadline: %w", err)
	}
	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	reply, err := c.receive(conn)
	if err != nil {
		return nil, err
	}
	c.log.Debugw("reply received", "addr", c.Addr, "bytes", len(reply))
	return reply, nil
}

// dial resolves the configured host and tries each candidate address in
// turn, taking the first connection that succeeds. Failed candidates are
// logged and skipped.
func (c *Client) dial() (net.Conn, error) {
	host, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid daemon address %q: %w", c.Addr, err)
	}

	ips, err := net.LookupHost(host)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", host, err)
	}

	dialer := net.Dialer{Timeout: c.timeout()}
	for _, ip := range ips {
		candidate := net.JoinHostPort(ip, port)
		conn, err := dialer.Dial("tcp", candidate)
		if err != nil {
			c.log.Warnw("connect attempt failed", "addr", candidate, "err", err)
			continue
		}
		return conn, nil
	}
	return nil, fmt.Errorf("could not connect to %s", c.Addr)
}

// receive accumulates reply bytes until they form a complete JSON document
// or the daemon half-closes the stream. A single fixed-size read cannot be
// trusted to carry a whole document, so reads repeat until a framing signal.
func (c *Client) receive(conn net.Conn) ([]byte, error) {
	limit := c.MaxReplySize
	if limit <= 0 {
		limit = DefaultMaxReplySize
	}

	buf := make([]byte, 0, readChunkSize)
	chunk := make([]byte, readChunkSize)
	for {
		n, err := conn.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if len(buf) > limit {
			return nil, fmt.Errorf("receiving reply from %s: %w", c.Addr, ErrReplyTooLarge)
		}
		if n > 0 && json.Valid(buf) {
			return buf, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				// Half-close with a partial document: hand the bytes to the
				// decoder, which classifies the truncation.
				return buf, nil
			}
			return nil, fmt.Errorf("receiving reply from %s: %w", c.Addr, err)
		}
	}
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
