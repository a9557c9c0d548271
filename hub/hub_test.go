// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu       sync.Mutex
	messages chan []byte
	writeErr error
	closed   bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{messages: make(chan []byte, 16)}
}

func (c *fakeClient) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	err := c.writeErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.messages <- data
	return nil
}

func (c *fakeClient) ReadMessage() (int, []byte, error) {
	return 0, nil, errors.New("not readable")
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeClient) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErr = err
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// counter is a snapshot source whose state tests move forward by hand
type counter struct {
	total atomic.Int64
	err   atomic.Pointer[error]
}

func (c *counter) snapshot(ctx context.Context) ([]byte, error) {
	if err := c.err.Load(); err != nil {
		return nil, *err
	}
	return []byte(fmt.Sprintf(`{"total":%d}`, c.total.Load())), nil
}

func (c *counter) failWith(err error) {
	c.err.Store(&err)
}

func receive(t *testing.T, c *fakeClient) string {
	t.Helper()
	select {
	case msg := <-c.messages:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func startHub(t *testing.T) (*Hub, *counter, context.CancelFunc) {
	t.Helper()
	source := &counter{}
	h := New(source.snapshot)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return h, source, cancel
}

func TestRegisterSendsSnapshot(t *testing.T) {
	h, source, _ := startHub(t)

	source.total.Store(4)
	c := newFakeClient()
	h.Register(c)

	require.Equal(t, `{"total":4}`, receive(t, c))
}

// A change made while a client is joining is still delivered, because the
// first snapshot is read after the client is in the set
func TestChangeDuringRegisterIsNotLost(t *testing.T) {
	h, source, _ := startHub(t)

	c := newFakeClient()
	source.total.Store(1)
	h.Notify()
	h.Register(c)

	var last string
	require.Eventually(t, func() bool {
		select {
		case msg := <-c.messages:
			last = string(msg)
		default:
		}
		return last == `{"total":1}`
	}, time.Second, 5*time.Millisecond)
}

func TestNotifyReachesAllClients(t *testing.T) {
	h, source, _ := startHub(t)

	a, b := newFakeClient(), newFakeClient()
	h.Register(a)
	h.Register(b)
	require.Equal(t, `{"total":0}`, receive(t, a))
	require.Equal(t, `{"total":0}`, receive(t, b))

	source.total.Store(1)
	h.Notify()

	require.Equal(t, `{"total":1}`, receive(t, a))
	require.Equal(t, `{"total":1}`, receive(t, b))
}

func TestNotifySendsLatestState(t *testing.T) {
	h, source, _ := startHub(t)

	c := newFakeClient()
	h.Register(c)
	require.Equal(t, `{"total":0}`, receive(t, c))

	for i := 1; i <= 10; i++ {
		source.total.Store(int64(i))
		h.Notify()
	}

	// merged notifications may skip values but never go backwards
	seen := 0
	for seen < 10 {
		var total int
		_, err := fmt.Sscanf(receive(t, c), `{"total":%d}`, &total)
		require.NoError(t, err)
		require.GreaterOrEqual(t, total, seen)
		seen = total
	}
}

func TestUnregisterClosesClient(t *testing.T) {
	h, source, _ := startHub(t)

	a, b := newFakeClient(), newFakeClient()
	h.Register(a)
	h.Register(b)
	receive(t, a)
	receive(t, b)
	h.Unregister(a)

	source.total.Store(2)
	h.Notify()
	require.Equal(t, `{"total":2}`, receive(t, b))

	require.True(t, a.isClosed())
	require.Empty(t, a.messages)
}

func TestFailingClientIsDropped(t *testing.T) {
	h, source, _ := startHub(t)

	bad, good := newFakeClient(), newFakeClient()
	h.Register(bad)
	h.Register(good)
	receive(t, bad)
	receive(t, good)

	bad.fail(errors.New("broken pipe"))
	source.total.Store(1)
	h.Notify()

	require.Equal(t, `{"total":1}`, receive(t, good))
	require.Eventually(t, bad.isClosed, time.Second, 10*time.Millisecond)
}

func TestRegisterFailureClosesClient(t *testing.T) {
	h, source, _ := startHub(t)

	broken := newFakeClient()
	broken.fail(errors.New("broken pipe"))
	h.Register(broken)
	require.Eventually(t, broken.isClosed, time.Second, 10*time.Millisecond)

	source.failWith(errors.New("store down"))
	c := newFakeClient()
	h.Register(c)
	require.Eventually(t, c.isClosed, time.Second, 10*time.Millisecond)
	require.Empty(t, c.messages)
}

func TestRunStopsOnCancel(t *testing.T) {
	h, _, cancel := startHub(t)

	c := newFakeClient()
	h.Register(c)
	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	require.True(t, c.isClosed())

	// registering after shutdown closes the client instead of blocking
	late := newFakeClient()
	h.Register(late)
	require.True(t, late.isClosed())

	h.Unregister(late)
	h.Notify()
}
