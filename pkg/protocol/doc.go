// ABOUTME: Scene bridge wire protocol package
// ABOUTME: Defines protocol messages and WebSocket client
// Package protocol implements the wire protocol between a 3D scene and the
// audio daemon.
//
// Messages are JSON envelopes of the form {"type": ..., "payload": ...}
// sent over a WebSocket at /audio. The scene sends client/hello, then any
// number of audio/* commands; the daemon answers with server/hello and
// broadcasts server/meters periodically.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "localhost:8927", Name: "lobby"})
//	err := client.Connect(ctx)
//	err = client.Play(protocol.Play{Sound: "click"})
package protocol
