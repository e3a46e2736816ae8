package wswire

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"golang.org/x/xerrors"

	"github.com/wirebit/wswire/internal/errd"
)

// MessageType represents the type of a WebSocket message.
// See https://tools.ietf.org/html/rfc6455#section-5.6
type MessageType int

// MessageType constants.
const (
	// MessageText is for UTF-8 encoded text messages like JSON.
	MessageText MessageType = iota + 1
	// MessageBinary is for binary messages like Protobufs.
	MessageBinary
)

// Conn assembles frames read from a Framer into messages and enforces
// the protocol rules of https://tools.ietf.org/html/rfc6455#section-5.
//
// A Conn owns its framer exclusively and is single threaded: callers
// serialize their own access. A ping received while reading triggers a
// synchronous pong write on the same goroutine, so the read path
// inherits the write side's blocking semantics.
//
// Every error reading or applying a frame closes the connection; a
// failed wait on the read limiter does not. Once closed, reads return
// io.EOF and sends fail, except Close and SendClose which succeed
// idempotently.
type Conn struct {
	fr *Framer
	id string

	// Static outgoing mask key, nil when unmasked.
	maskKey []byte
	// Fresh key per frame, takes precedence over maskKey.
	genMask bool

	readLimit int64
	strict    bool
	limiter   *rate.Limiter
	onFrame   func(Frame)
	logger    *slog.Logger

	closed bool

	// Partial message buffer. When non-empty, the first frame is text
	// or binary and the rest are continuations; only the last may be
	// fin.
	frames []Frame
}

// NewConn wraps fr. opts may be nil for a server side connection with
// defaults. The returned connection owns fr and its stream.
func NewConn(fr *Framer, opts *Options) (*Conn, error) {
	if opts == nil {
		opts = &Options{}
	}
	err := opts.validate()
	if err != nil {
		return nil, err
	}

	c := &Conn{
		fr:        fr,
		id:        uuid.NewString(),
		genMask:   opts.GenerateMask,
		readLimit: opts.ReadLimit,
		strict:    opts.StrictText,
		limiter:   opts.ReadLimiter,
		onFrame:   opts.OnFrame,
		logger:    opts.Logger,
	}
	if !c.genMask && len(opts.MaskKey) == 4 {
		c.maskKey = append([]byte(nil), opts.MaskKey...)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c, nil
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() string {
	return c.id
}

// Closed reports whether the connection has transitioned to closed.
// Closed is terminal.
func (c *Conn) Closed() bool {
	return c.closed
}

// applyMask stamps the connection's outgoing mask onto f.
func (c *Conn) applyMask(f *Frame) error {
	switch {
	case c.genMask:
		f.Masked = true
		_, err := io.ReadFull(rand.Reader, f.MaskKey[:])
		if err != nil {
			return xerrors.Errorf("failed to generate masking key: %w", err)
		}
	case c.maskKey != nil:
		f.Masked = true
		copy(f.MaskKey[:], c.maskKey)
	}
	return nil
}

// writeFrame masks and buffers f, flushing when f is fin so a
// completed message or control frame reaches the peer immediately.
func (c *Conn) writeFrame(f Frame) error {
	if c.closed {
		return protocolError(StatusProtocolError, "cannot write frame to closed connection")
	}

	if !f.Masked {
		err := c.applyMask(&f)
		if err != nil {
			return err
		}
	}

	err := c.fr.WriteFrame(f)
	if err != nil {
		return err
	}
	if f.Fin {
		return c.fr.Flush()
	}
	return nil
}

// WriteFrame writes a single frame, masked with the connection's
// outgoing mask unless f already carries one. It is the frame level
// escape hatch below Write; most callers want the message level
// methods instead.
func (c *Conn) WriteFrame(f Frame) (err error) {
	defer errd.Wrap(&err, "failed to write frame")

	return c.writeFrame(f)
}

// Write sends p as a single unfragmented message of the given type.
func (c *Conn) Write(typ MessageType, p []byte) (err error) {
	defer errd.Wrap(&err, "failed to write message")

	switch typ {
	case MessageText:
		return c.writeFrame(NewText(p))
	case MessageBinary:
		return c.writeFrame(NewBinary(p))
	default:
		return protocolError(StatusProtocolError, "unknown message type: %v", int(typ))
	}
}

// SendText sends s as a text message.
func (c *Conn) SendText(s string) error {
	return c.Write(MessageText, []byte(s))
}

// SendBinary sends p as a binary message.
func (c *Conn) SendBinary(p []byte) error {
	return c.Write(MessageBinary, p)
}

// SendPing sends a ping carrying p. The payload may be at most 125
// bytes. The pong answer arrives through the normal read path and is
// discarded there.
func (c *Conn) SendPing(p []byte) (err error) {
	defer errd.Wrap(&err, "failed to ping")

	return c.writeFrame(NewPing(p))
}

// SendClose sends a close frame and transitions the connection to
// closed. It is safe to call from error paths: a close frame goes out
// at most once and later calls succeed without touching the wire.
func (c *Conn) SendClose(code StatusCode, reason string) (err error) {
	defer errd.Wrap(&err, "failed to send close frame")

	if c.closed {
		return nil
	}

	f, err := NewClose(code, reason)
	if err != nil {
		return err
	}
	err = c.writeFrame(f)
	c.closed = true
	return err
}

// Close sends a normal closure frame unless the connection is already
// closed (by a sent or received close frame or a read error), then
// closes the framer and its underlying stream.
func (c *Conn) Close() (err error) {
	defer errd.Wrap(&err, "failed to close connection")

	err = c.SendClose(StatusNormalClosure, "")
	cerr := c.fr.Close()
	if err == nil {
		err = cerr
	}
	return err
}

// ReadFrame reads a single frame, hands it to the OnFrame callback if
// one is set, applies it to the connection state and returns it.
//
// A *ProtocolError raised while reading or handling the frame is
// reported to the peer with a close frame carrying its status code
// before being returned. Any other read failure is reported with
// StatusProtocolError on a best effort basis. io.EOF on a frame
// boundary is a clean end of stream and returned as is.
func (c *Conn) ReadFrame() (Frame, error) {
	if c.closed {
		return Frame{}, io.EOF
	}

	if c.limiter != nil {
		err := c.limiter.Wait(context.Background())
		if err != nil {
			return Frame{}, err
		}
	}

	f, err := c.fr.ReadFrame()
	if err != nil {
		return Frame{}, c.fail(err)
	}

	if c.onFrame != nil {
		c.onFrame(f)
	}

	err = c.handle(f)
	if err != nil {
		return Frame{}, c.fail(err)
	}
	return f, nil
}

// Read assembles and returns the next complete message. It flushes
// buffered outgoing frames first so a peer waiting on our writes can
// make progress, then reads frames until a fin frame completes the
// message and concatenates the fragment payloads in arrival order.
//
// io.EOF is returned on a clean end of stream and after the
// connection has closed.
func (c *Conn) Read() (MessageType, []byte, error) {
	if c.closed {
		return 0, nil, io.EOF
	}

	err := c.fr.Flush()
	if err != nil {
		return 0, nil, err
	}

	for {
		if n := len(c.frames); n > 0 && c.frames[n-1].Fin {
			break
		}
		_, err := c.ReadFrame()
		if err != nil {
			return 0, nil, err
		}
		if c.closed {
			return 0, nil, io.EOF
		}
	}

	typ := MessageType(c.frames[0].Opcode)

	var size int
	for _, f := range c.frames {
		size += len(f.Payload)
	}
	p := make([]byte, 0, size)
	for _, f := range c.frames {
		p = append(p, f.Payload...)
	}
	c.frames = c.frames[:0]

	if typ == MessageText && c.strict && !utf8.Valid(p) {
		return 0, nil, c.fail(protocolError(StatusInvalidFramePayloadData, "received text message with invalid utf-8 payload"))
	}

	return typ, p, nil
}

// fail reports err to the peer with a close frame where appropriate
// and returns it. The close attempt itself is best effort; a peer
// initiated close has already ended the conversation and gets no
// answer frame.
func (c *Conn) fail(err error) error {
	if err == io.EOF {
		return io.EOF
	}

	var ce CloseError
	if errors.As(err, &ce) {
		return err
	}

	var pe *ProtocolError
	if errors.As(err, &pe) {
		c.SendClose(pe.Code, pe.Reason)
		return err
	}

	reason := err.Error()
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	c.SendClose(StatusProtocolError, reason)
	return err
}

// handle applies f to the connection state. It is the single dispatch
// point for everything the peer sends, replacing per opcode virtual
// dispatch with one match.
func (c *Conn) handle(f Frame) error {
	switch f.Opcode {
	case OpText, OpBinary:
		if len(c.frames) > 0 {
			return protocolError(StatusProtocolError, "received text/binary, but expecting continuation!")
		}
		c.frames = append(c.frames, f)
		return c.checkReadLimit()

	case OpContinuation:
		if len(c.frames) == 0 {
			return protocolError(StatusProtocolError, "received unexpected continuation!")
		}
		c.frames = append(c.frames, f)
		return c.checkReadLimit()

	case OpPing:
		if c.closed {
			return protocolError(StatusProtocolError, "cannot reply to ping on closed connection")
		}
		return c.writeFrame(f.Reply())

	case OpPong:
		return nil

	case OpClose:
		c.closed = true
		ce, err := f.ClosePayload()
		if err != nil {
			return err
		}
		if ce.Code != StatusNoStatusRcvd && ce.Code != StatusNormalClosure {
			return xerrors.Errorf("received close frame: %w", ce)
		}
		return nil

	default:
		c.logger.Warn("received frame with unknown opcode",
			"conn_id", c.id,
			"opcode", int(f.Opcode),
			"payload_length", len(f.Payload),
		)
		return nil
	}
}

func (c *Conn) checkReadLimit() error {
	if c.readLimit <= 0 {
		return nil
	}
	var n int64
	for _, f := range c.frames {
		n += int64(len(f.Payload))
	}
	if n > c.readLimit {
		return protocolError(StatusMessageTooBig, "message exceeds read limit of %v bytes", c.readLimit)
	}
	return nil
}
