package wswire

import (
	"bufio"
	"io"

	"golang.org/x/xerrors"

	"github.com/wirebit/wswire/internal/errd"
)

// Framer adapts a byte stream to a sequence of frames. It owns the
// stream exclusively and buffers writes: a written frame is only
// guaranteed to reach the wire after Flush.
//
// The stream must provide blocking read and write semantics. A Framer
// is not safe for concurrent use.
type Framer struct {
	br *bufio.Reader
	bw *bufio.Writer
	c  io.Closer

	scratch []byte
}

// NewFramer wraps an already-upgraded byte stream. If rw also
// implements io.Closer, Close closes it.
func NewFramer(rw io.ReadWriter) *Framer {
	fr := &Framer{
		br: bufio.NewReader(rw),
		bw: bufio.NewWriter(rw),
	}
	if c, ok := rw.(io.Closer); ok {
		fr.c = c
	}
	return fr
}

// ReadFrame reads a single frame from the stream. A clean end of
// stream on a frame boundary is reported as io.EOF; end of stream
// inside a frame is a *ProtocolError.
func (fr *Framer) ReadFrame() (Frame, error) {
	f, err := readFrame(fr.br)
	if err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, xerrors.Errorf("failed to read frame: %w", err)
	}
	return f, nil
}

// WriteFrame buffers f for writing. Call Flush to put it on the wire.
func (fr *Framer) WriteFrame(f Frame) (err error) {
	defer errd.Wrap(&err, "failed to write frame")

	fr.scratch, err = writeFrame(fr.bw, f, fr.scratch)
	return err
}

// Flush writes all buffered frames to the stream.
func (fr *Framer) Flush() (err error) {
	defer errd.Wrap(&err, "failed to flush frames")

	return fr.bw.Flush()
}

// Close flushes buffered frames and closes the underlying stream if
// it is closeable.
func (fr *Framer) Close() (err error) {
	defer errd.Wrap(&err, "failed to close framer")

	err = fr.bw.Flush()
	if fr.c != nil {
		cerr := fr.c.Close()
		if err == nil {
			err = cerr
		}
	}
	return err
}
