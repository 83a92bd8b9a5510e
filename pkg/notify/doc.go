// Package notify implements the client side of the ERP real-time notification stream.
//
// # Overview
//
// The ERP server pushes notification events over a WebSocket endpoint of the form
// <ws-base>/notifications?token=<credential>, one JSON-encoded Event per text frame.
// This package owns that connection and hides transient network failures from callers.
//
// # Core Concepts
//
// Channel is the single logical connection. It is created by the composition root (the
// CLI, or any embedding application), started with Initialize once a credential is
// available, and torn down with Close. When the socket drops, the channel retries on a
// flat delay (5s by default) up to MaxAttempts (5 by default) consecutive times, then
// stops in a terminal Closed state until it is initialized again, typically because the
// stored credential changed (see Rotate).
//
// Registry is the single-slot subscriber registry. Exactly one Handler receives events;
// the last registration wins and clearing it simply stops delivery.
//
// Classify is the dispatch table that turns an Event into a presentation Descriptor
// (title, variant, duration). It is pure and total.
//
// # Usage Example
//
//	ch := notify.NewChannel("wss://erp.example.com/ws")
//	ch.Subscribe(func(ev notify.Event) {
//		d := notify.Classify(&ev)
//		fmt.Printf("%s %s: %s\n", d.Icon, d.Title, ev.Message)
//	})
//	ch.Initialize(token)
//	defer ch.Close()
//
// # Error Handling
//
// Socket-level faults never surface to callers. Dial failures and drops are logged and
// fed to the retry policy; malformed frames are logged and dropped without touching the
// retry counter. Exhausting the retries is logged as an error and reported through the
// state listener (see WithStateListener) so a presentation layer can show a notice.
package notify
