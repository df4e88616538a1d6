// Package server exposes a batchstore Store over HTTP and websockets.
//
// Every store call runs on a loop.Loop, the same loop timer-driven limiters
// post their flushes to, so the store itself never sees concurrent access.
//
// # Routes
//
//	GET    /healthz                 liveness probe
//	GET    /state                   current state as JSON
//	POST   /dispatch?channel=name   dispatch a wire message (see action.Decode)
//	GET    /channels                declared channel names
//	GET    /queue/{channel}         pending messages of a channel
//	POST   /queue/{channel}/flush   deliver a channel's queue now
//	DELETE /queue                   clear every channel's queue
//	DELETE /queue/{channel}         clear one channel's queue
//	GET    /ws                      websocket push stream of states
//	GET    /metrics                 Prometheus metrics, when a gatherer is set
//
// Websocket clients receive {"type":"state","state":...} once on connect and
// after every completed dispatch. They may send
// {"channel":"slow","message":<wire message>} frames to dispatch.
//
// Errors are returned as {"code":"E010","error":"..."} with a status
// derived from the error kind: 400 for invalid arguments, 404 for unknown
// channels, 409 for reentrant calls and 500 otherwise.
package server
