// Package action defines the messages a batchstore accepts.
//
// A Message is one of three shapes:
//
//   - Action: a leaf with a non-empty Type and an opaque Payload. Leaves are
//     the only values the underlying container ever sees.
//   - Sequence: an ordered, possibly nested list of messages delivered as one
//     logical batch.
//   - Envelope: the reserved BATCH kind carrying an optional channel name and a
//     payload (one action or a sequence). Envelopes are unwrapped before
//     delivery and never reach the container.
//
// The set is closed: only types in this package implement Message.
//
// Messages also have a JSON wire form used by the HTTP server and the CLI:
//
//	{"type": "ADD_TODO", "text": "Hello"}
//	[{"type": "ADD_TODO", "text": "A"}, {"type": "ADD_TODO", "text": "B"}]
//	{"kind": "BATCH", "channel": "slow", "payload": [...]}
package action
