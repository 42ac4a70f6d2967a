// Package ws pushes change notifications to browsers over WebSocket.
//
// Every successful mutation of the managed directory is published as a
// file_changed event so open views can refresh without polling.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping, answered with pong
//
// Message Types (Server → Client):
//   - connected: Sent once with the client id
//   - file_changed: A path was created, modified, deleted, renamed, moved,
//     uploaded or unzipped into
//   - client_count: Number of connected clients after a join or leave
//   - pong: Reply to ping
//
// Example Usage:
//
//	hub := ws.NewHub(logger, metrics)
//	router.GET("/updates", hub.HandleConnection)
//	hub.Publish(ws.Change{Action: "deleted", Path: "docs/a.txt"})
package ws
