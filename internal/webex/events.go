package webex

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"callgate/internal/monitor"
)

const (
	channelExpirySeconds = 3600
	reconnectDelay       = 2 * time.Second
)

// EventChannel maintains a channel set against the XSI events endpoint and
// streams notifications from it. Events arrive as one JSON document per
// line on a long-lived response body; the reader goroutine reconnects the
// channel until the context is cancelled.
type EventChannel struct {
	x          *XSI
	channelSet string
	out        chan monitor.RawEvent
}

func NewEventChannel(x *XSI) *EventChannel {
	return &EventChannel{
		x:          x,
		channelSet: uuid.NewString(),
		out:        make(chan monitor.RawEvent, 64),
	}
}

func (c *EventChannel) Open(ctx context.Context) (<-chan monitor.RawEvent, error) {
	// Probe once so a bad token or unreachable endpoint fails the caller
	// instead of being retried silently in the background.
	resp, err := c.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("webex events: open channel: %w", err)
	}
	go c.run(ctx, resp)
	return c.out, nil
}

// Subscribe registers the channel set for an event package at the
// organization level; per-user subscriptions attach to the same set.
func (c *EventChannel) Subscribe(ctx context.Context, eventPackage string) error {
	path := fmt.Sprintf("%s/v2.0/subscription", c.x.eventsURL)
	body := map[string]any{
		"channelSetId":  c.channelSet,
		"event-package": eventPackage,
		"expires":       channelExpirySeconds,
	}
	return c.x.do(ctx, http.MethodPost, path, body, nil)
}

func (c *EventChannel) connect(ctx context.Context) (*http.Response, error) {
	body, err := json.Marshal(map[string]any{
		"channelSetId": c.channelSet,
		"expires":      channelExpirySeconds,
	})
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("%s/v2.0/channel", c.x.eventsURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.x.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.x.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp, nil
}

func (c *EventChannel) run(ctx context.Context, resp *http.Response) {
	defer close(c.out)
	for {
		c.drain(ctx, resp)
		if ctx.Err() != nil {
			return
		}
		c.x.log.Warn("event channel dropped, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
		var err error
		resp, err = c.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.x.log.Error("event channel reconnect failed", "error", err)
			resp = nil
		}
	}
}

func (c *EventChannel) drain(ctx context.Context, resp *http.Response) {
	if resp == nil {
		return
	}
	defer resp.Body.Close()

	// Cancelling the context unblocks the pending read. The watcher is
	// released when this drain returns, not at shutdown, so reconnects do
	// not accumulate goroutines.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			resp.Body.Close()
		case <-done:
		}
	}()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		ev := make(monitor.RawEvent, len(line))
		copy(ev, line)
		select {
		case c.out <- ev:
		case <-ctx.Done():
			return
		}
	}
}
