// Package wswire implements the WebSocket wire protocol.
//
// See https://tools.ietf.org/html/rfc6455
//
// The package operates below the HTTP handshake: it expects an
// already-upgraded bidirectional byte stream and provides the frame
// codec and the connection state machine on top of it. Framer turns
// the stream into a sequence of frames; Conn assembles frames into
// messages, answers pings and enforces the protocol rules.
//
// Handshake negotiation, subprotocols, extensions such as
// permessage-deflate and transport concerns are out of scope.
package wswire
