package wswire

import (
	"encoding/binary"
	"math/bits"
)

// mask applies the WebSocket masking algorithm to p
// with the given key.
// See https://tools.ietf.org/html/rfc6455#section-5.3
//
// The returned value is the correctly rotated key to
// continue to mask/unmask the message.
//
// It XORs eight bytes at a time and expects the key
// to be in little endian.
//
// See https://github.com/golang/go/issues/31586
func mask(key uint32, p []byte) uint32 {
	if len(p) >= 8 {
		key64 := uint64(key)<<32 | uint64(key)

		for len(p) >= 32 {
			v := binary.LittleEndian.Uint64(p)
			binary.LittleEndian.PutUint64(p, v^key64)
			v = binary.LittleEndian.Uint64(p[8:16])
			binary.LittleEndian.PutUint64(p[8:16], v^key64)
			v = binary.LittleEndian.Uint64(p[16:24])
			binary.LittleEndian.PutUint64(p[16:24], v^key64)
			v = binary.LittleEndian.Uint64(p[24:32])
			binary.LittleEndian.PutUint64(p[24:32], v^key64)
			p = p[32:]
		}

		for len(p) >= 8 {
			v := binary.LittleEndian.Uint64(p)
			binary.LittleEndian.PutUint64(p, v^key64)
			p = p[8:]
		}
	}

	for len(p) >= 4 {
		v := binary.LittleEndian.Uint32(p)
		binary.LittleEndian.PutUint32(p, v^key)
		p = p[4:]
	}

	for i := range p {
		p[i] ^= byte(key)
		key = bits.RotateLeft32(key, -8)
	}

	return key
}
