// internal/wire/wire.go
// Package wire adapts ZeroMQ REQ/REP sockets to the small send/receive
// interfaces used by the benchmark driver and the echo responder.
package wire

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-zeromq/zmq4"
)

// Requester is the client side of a request/reply exchange.
type Requester interface {
	Send(frames [][]byte) error
	Recv() ([][]byte, error)
	Close() error
}

// Replier is the server side of a request/reply exchange.
type Replier interface {
	Recv() ([][]byte, error)
	Send(frames [][]byte) error
	Close() error
}

// DialFunc opens a Requester connected to endpoint.
type DialFunc func(ctx context.Context, endpoint string) (Requester, error)

// ListenFunc binds a Replier on endpoint.
type ListenFunc func(ctx context.Context, endpoint string) (Replier, error)

// Endpoint returns the tcp endpoint a requester dials. An empty host means localhost.
func Endpoint(host string, port int) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("tcp://%s:%d", host, port)
}

// BindEndpoint returns the tcp endpoint a replier binds on all interfaces.
func BindEndpoint(port int) string {
	return fmt.Sprintf("tcp://*:%d", port)
}

// socket wraps a zmq4 socket of either type.
type socket struct {
	sck zmq4.Socket
}

// Dial opens a REQ socket and connects it to endpoint. Connection attempts are
// retried without limit, so a missing responder shows up as a blocked exchange
// rather than a dial error. Cancelling ctx tears the socket down.
func Dial(ctx context.Context, endpoint string) (Requester, error) {
	sck := zmq4.NewReq(ctx, zmq4.WithDialerMaxRetries(-1))
	if err := sck.Dial(endpoint); err != nil {
		_ = sck.Close()
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return &socket{sck: sck}, nil
}

// Listen opens a REP socket bound to endpoint. Cancelling ctx tears the socket
// down and unblocks a pending Recv.
func Listen(ctx context.Context, endpoint string) (Replier, error) {
	sck := zmq4.NewRep(ctx)
	if err := sck.Listen(endpoint); err != nil {
		_ = sck.Close()
		return nil, fmt.Errorf("listen %s: %w", endpoint, err)
	}
	return &socket{sck: sck}, nil
}

// Send writes frames as one multi-part message.
func (s *socket) Send(frames [][]byte) error {
	return s.sck.SendMulti(zmq4.NewMsgFrom(frames...))
}

// Recv blocks until a complete multi-part message arrives.
func (s *socket) Recv() ([][]byte, error) {
	msg, err := s.sck.Recv()
	if err != nil {
		return nil, err
	}
	return msg.Frames, nil
}

func (s *socket) Close() error {
	return s.sck.Close()
}
