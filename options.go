package wswire

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
	"golang.org/x/xerrors"
)

// Options configures a Conn. The zero value is a valid server side
// configuration: no outgoing mask, lenient text handling, no limits.
type Options struct {
	// MaskKey is a literal 4 byte key applied to every outgoing frame.
	// Clients normally leave it nil and set GenerateMask instead; a
	// literal key is mostly useful for reproducing exact wire bytes.
	MaskKey []byte `validate:"omitempty,len=4"`

	// GenerateMask masks every outgoing frame with a fresh key from a
	// cryptographic RNG, as https://tools.ietf.org/html/rfc6455#section-5.3
	// recommends for clients. Takes precedence over MaskKey.
	GenerateMask bool

	// ReadLimit caps the byte size of an assembled message. Zero
	// means no limit. When the limit is hit the connection closes
	// with StatusMessageTooBig.
	ReadLimit int64 `validate:"gte=0"`

	// StrictText enables UTF-8 validation of completed text messages,
	// failing with StatusInvalidFramePayloadData. The default is
	// lenient: payload bytes reach the caller unchecked.
	StrictText bool

	// ReadLimiter, when set, is waited on before each frame read.
	ReadLimiter *rate.Limiter

	// OnFrame, when set, observes every frame ReadFrame reads before
	// the frame is applied to the connection state.
	OnFrame func(Frame)

	// Logger receives protocol warnings such as frames with unknown
	// opcodes. Nil discards them.
	Logger *slog.Logger
}

var validate = validator.New()

func (opts *Options) validate() error {
	err := validate.Struct(opts)
	if err != nil {
		return xerrors.Errorf("invalid connection options: %w", err)
	}
	return nil
}
