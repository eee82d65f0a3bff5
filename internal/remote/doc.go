// ABOUTME: Package remote documentation
// ABOUTME: Describes the websocket control protocol
// Package remote is the network control surface of a running player.
//
// Clients connect to ws://host:port/control and exchange JSON messages:
//
//	{"type":"get","id":"1"}
//	{"type":"set","id":"2","enabled":true,"frequency":800}
//	{"type":"state","id":"2","enabled":true,"frequency":800,"gain":1}
//
// A set request may carry any subset of enabled, frequency and gain; the
// server merges it with the current parameters before publishing. Replies
// echo the request ID. State changes from any source are broadcast to every
// client without an ID.
package remote
