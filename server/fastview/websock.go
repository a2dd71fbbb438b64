package fastview

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

// ErrSockCongestion means a socket op waited too long for its turn.
var ErrSockCongestion = errors.New("sock op failed due to congestion")

const (
	opWait           = time.Second
	closeGracePeriod = time.Second
)

// websock allows one reader and one writer on the connection at a time, as
// gorilla/websocket requires. The semaphores are channels so waits can select
// on contexts and timeouts.
type websock struct {
	readSem  chan struct{}
	writeSem chan struct{}
	conn     *websocket.Conn
}

func newWebsock(conn *websocket.Conn) *websock {
	return &websock{
		readSem:  make(chan struct{}, 1),
		writeSem: make(chan struct{}, 1),
		conn:     conn,
	}
}

// Conn returns the connection for setup, e.g. installing handlers, before any
// loop starts.
func (sock *websock) Conn() *websocket.Conn {
	return sock.conn
}

// Close sends a close frame and closes the connection after a grace period.
func (sock *websock) Close() {
	sock.writeSem <- struct{}{}
	_ = sock.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = sock.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	<-sock.writeSem

	time.Sleep(closeGracePeriod)
	sock.conn.Close()
}

func (sock *websock) Read(ctx context.Context, fn func(*websocket.Conn) error) error {
	return sock.do(ctx, sock.readSem, fn)
}

func (sock *websock) Write(ctx context.Context, fn func(*websocket.Conn) error) error {
	return sock.do(ctx, sock.writeSem, fn)
}

func (sock *websock) do(ctx context.Context, sem chan struct{}, fn func(*websocket.Conn) error) error {
	select {
	case <-ctx.Done():
		return nil
	case sem <- struct{}{}:
		defer func() { <-sem }()
		return fn(sock.conn)
	case <-time.After(opWait):
		return ErrSockCongestion
	}
}
