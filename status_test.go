package wswire

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"golang.org/x/xerrors"
)

func TestCloseError(t *testing.T) {
	t.Parallel()

	ce := CloseError{
		Code:   StatusGoingAway,
		Reason: "bye",
	}
	require.Equal(t, `status = 1001 and reason = "bye"`, ce.Error())
}

func TestCloseStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, StatusCode(-1), CloseStatus(nil))
	require.Equal(t, StatusCode(-1), CloseStatus(io.EOF))

	err := xerrors.Errorf("received close frame: %w", CloseError{Code: StatusPolicyViolation})
	require.Equal(t, StatusPolicyViolation, CloseStatus(err))
}

func TestProtocolError(t *testing.T) {
	t.Parallel()

	pe := protocolError(StatusMessageTooBig, "message exceeds read limit of %v bytes", 5)
	require.Equal(t, "websocket protocol error (status = 1009): message exceeds read limit of 5 bytes", pe.Error())
	require.Nil(t, pe.Unwrap())

	short := shortRead("frame payload", io.EOF)
	require.ErrorIs(t, short, io.ErrUnexpectedEOF)
}

func TestParseClosePayload(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		payload []byte
		ce      CloseError
		success bool
	}{
		{
			name:    "empty",
			payload: nil,
			ce:      CloseError{Code: StatusNoStatusRcvd},
			success: true,
		},
		{
			name:    "tooSmall",
			payload: []byte{0x03},
			success: false,
		},
		{
			name:    "codeOnly",
			payload: []byte{0x03, 0xe8},
			ce:      CloseError{Code: StatusNormalClosure},
			success: true,
		},
		{
			name:    "codeAndReason",
			payload: []byte{0x03, 0xea, 'o', 'o', 'p', 's'},
			ce:      CloseError{Code: StatusProtocolError, Reason: "oops"},
			success: true,
		},
		{
			name:    "unregisteredCode",
			payload: []byte{0x0f, 0xa0},
			ce:      CloseError{Code: 4000},
			success: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ce, err := parseClosePayload(tc.payload)
			if !tc.success {
				var pe *ProtocolError
				require.ErrorAs(t, err, &pe)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.ce, ce)
		})
	}
}
