package fastview

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait      = 1 * time.Second
	maxMessageSize = 8192

	// Element updates are coalesced and flushed to the page at this rate.
	pubResolution  = time.Millisecond * 30
	pingResolution = time.Millisecond * 200
	// Four lost pongs and the page is considered gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// A client pushes element updates to one page and hands the page's messages
// (key presses, toggles) to a callback.
type client struct {
	updates   <-chan []EleUpdate
	onMessage func([]byte) error
	sock      *websock
	reqCtx    context.Context
}

// NewClient upgrades the request to a websocket. onMessage receives every message
// read from the page and may be nil.
func NewClient(
	updates <-chan []EleUpdate,
	onMessage func([]byte) error,
	w http.ResponseWriter,
	r *http.Request,
) (*client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxMessageSize)

	if onMessage == nil {
		onMessage = func([]byte) error { return nil }
	}
	return &client{
		updates:   updates,
		onMessage: onMessage,
		sock:      newWebsock(conn),
		reqCtx:    r.Context(),
	}, nil
}

// Sync runs the read, ping and publish loops until the page disconnects or ctx
// is done. A disconnect is not an error.
func (cli *client) Sync(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(cli.reqCtx)

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})
	group.Go(func() error {
		// ReadMessage ignores contexts; only closing the socket unblocks it.
		select {
		case <-ctx.Done():
		case <-groupCtx.Done():
		}
		cli.sock.Close()
		return nil
	})

	err := group.Wait()
	if err == nil || isClosure(err) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

// pingPong checks the page is alive. The pong handler only fires while
// readMessages is running.
func (cli *client) pingPong(ctx context.Context) error {
	pong := make(chan struct{}, 1)
	cli.sock.Conn().SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pong:
			lastPong = time.Now()
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			err := cli.sock.Write(ctx, func(conn *websocket.Conn) error {
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
				if isError(err) {
					return fmt.Errorf("ping: %w", err)
				}
				return err
			})
			if err != nil {
				return err
			}
		}
	}
}

// readMessages passes the page's messages to onMessage. Read errors are
// permanent, so any of them ends the client.
func (cli *client) readMessages(ctx context.Context) error {
	for {
		var msg []byte
		err := cli.sock.Read(ctx, func(conn *websocket.Conn) (err error) {
			_, msg, err = conn.ReadMessage()
			return
		})
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		if err = cli.onMessage(msg); err != nil {
			return fmt.Errorf("client message: %w", err)
		}
	}
}

// publish accumulates updates between flushes, keeping the newest value of each
// element attribute, and writes them out once per pubResolution. Frames arrive
// faster than the page needs them; coalescing keeps the page consistent with the
// latest frame without sending every one.
func (cli *client) publish(ctx context.Context) error {
	flush := channerics.NewTicker(ctx.Done(), pubResolution)
	var pending pendingUpdates

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-cli.updates:
			if !ok {
				return nil
			}
			pending.add(batch)
		case <-flush:
			if pending.empty() {
				continue
			}
			batch := pending.take()
			err := cli.sock.Write(ctx, func(conn *websocket.Conn) error {
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return fmt.Errorf("publish deadline: %w", err)
				}
				err := conn.WriteJSON(batch)
				if isError(err) {
					return fmt.Errorf("publish: %w", err)
				}
				return err
			})
			if err != nil {
				return err
			}
		}
	}
}

// pendingUpdates merges element updates by element id, then by op key, in
// first-seen order.
type pendingUpdates struct {
	order []string
	byId  map[string]EleUpdate
}

func (p *pendingUpdates) add(batch []EleUpdate) {
	if p.byId == nil {
		p.byId = map[string]EleUpdate{}
	}
	for _, up := range batch {
		prev, seen := p.byId[up.EleId]
		if !seen {
			p.order = append(p.order, up.EleId)
			prev = EleUpdate{EleId: up.EleId}
		}
		p.byId[up.EleId] = mergeOps(prev, up.Ops)
	}
}

func (p *pendingUpdates) empty() bool {
	return len(p.order) == 0
}

// take returns the merged updates and resets p.
func (p *pendingUpdates) take() []EleUpdate {
	batch := make([]EleUpdate, 0, len(p.order))
	for _, id := range p.order {
		batch = append(batch, p.byId[id])
	}
	p.order = nil
	p.byId = nil
	return batch
}

// mergeOps overwrites ops of up that share a key with ops, appending the rest.
func mergeOps(up EleUpdate, ops []Op) EleUpdate {
	merged := append([]Op(nil), up.Ops...)
	for _, op := range ops {
		replaced := false
		for i := range merged {
			if merged[i].Key == op.Key {
				merged[i].Value = op.Value
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, op)
		}
	}
	up.Ops = merged
	return up
}

func isError(err error) bool {
	return err != nil && websocket.IsUnexpectedCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}
