// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package hub fans live tally updates out to WebSocket clients.

	h := hub.New(snapshot)
	go h.Run(ctx)

	h.Register(hub.NewWebsocketClient(conn))
	h.Notify()

Run owns the client set and is the only writer to any client. A new client
gets a snapshot read after it joined the set, and every Notify makes Run
read one fresh snapshot and send it to everyone. Snapshots are taken one at
a time on the Run goroutine, so a client never sees the tally go backwards,
and the last message it gets reflects every change notified before it.

Notify never blocks the vote path: while a notification is pending, more
notifications are merged into it. A client whose write fails is closed and
removed.

When ctx is cancelled Run closes every client and returns. Later calls to
Register close the client immediately.
*/
package hub
