package wstrace

// Constants used for tracing purpose.
const (
	// Package name used by the library tracer
	pkgName = "wstrace"
	// Package version
	pkgVersion = "0.0.0"

	// Namespace used by spans, events and attributes
	namespace = "wswire"

	// Name of span used to trace Read
	spanRead = namespace + ".read"
	// Name of span used to trace ReadFrame
	spanReadFrame = namespace + ".read_frame"
	// Name of span used to trace Write
	spanWrite = namespace + ".write"
	// Name of span used to trace WriteFrame
	spanWriteFrame = namespace + ".write_frame"
	// Name of span used to trace SendPing
	spanSendPing = namespace + ".send_ping"
	// Name of span used to trace SendClose
	spanSendClose = namespace + ".send_close"
	// Name of span used to trace Close
	spanClose = namespace + ".close"

	// Event used in span to signal a complete message was assembled
	eventMessageReceived = namespace + ".message_received"
	// Event used in span to signal a frame was read
	eventFrameReceived = namespace + ".frame_received"

	// Attribute used to store the connection id
	attrConnID = namespace + ".connection_id"
	// Attribute used to indicate message type
	attrMessageType = namespace + ".message.type"
	// Attribute used to indicate message length
	attrMessageByteSize = namespace + ".message.length"
	// Attribute used to indicate a frame's opcode
	attrOpcode = namespace + ".frame.opcode"
	// Attribute used to indicate a frame's fin bit
	attrFin = namespace + ".frame.fin"
	// Attribute used to indicate a frame's payload length
	attrFrameByteSize = namespace + ".frame.length"
	// Attribute used to indicate close status code
	attrCloseCode = namespace + ".close_code"
	// Attribute used to indicate close reason
	attrCloseReason = namespace + ".close_reason"
)
