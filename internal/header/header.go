// Package header encodes the bookkeeping record stored immediately before
// every aligned buffer.
//
// Layout (little-endian, Size bytes):
//
//	0   magic
//	8   offset of the inner buffer from the start of the outer buffer
//	16  length of the outer buffer
//	24  size requested by the caller
package header

import (
	"encoding/binary"
	"errors"
)

// Size is the encoded size of a Header in bytes.
const Size = 32

const magic uint64 = 0x414c49474e484452 // "ALIGNHDR"

// ErrInvalid is returned when the bytes before a buffer do not hold a live header.
var ErrInvalid = errors.New("header: invalid or released header")

// Header describes one live allocation.
type Header struct {
	Offset   int // inner start relative to outer start
	OuterLen int // length of the backing buffer
	Size     int // size requested by the caller
}

// Put encodes h into b[:Size].
func Put(b []byte, h Header) {
	_ = b[Size-1]
	binary.LittleEndian.PutUint64(b[0:], magic)
	binary.LittleEndian.PutUint64(b[8:], uint64(h.Offset))   //nolint:gosec // non-negative by construction
	binary.LittleEndian.PutUint64(b[16:], uint64(h.OuterLen)) //nolint:gosec // non-negative by construction
	binary.LittleEndian.PutUint64(b[24:], uint64(h.Size))     //nolint:gosec // non-negative by construction
}

// Get decodes the header in b[:Size].
func Get(b []byte) (Header, error) {
	_ = b[Size-1]
	if binary.LittleEndian.Uint64(b[0:]) != magic {
		return Header{}, ErrInvalid
	}

	h := Header{
		Offset:   int(binary.LittleEndian.Uint64(b[8:])),  //nolint:gosec // written by Put
		OuterLen: int(binary.LittleEndian.Uint64(b[16:])), //nolint:gosec // written by Put
		Size:     int(binary.LittleEndian.Uint64(b[24:])), //nolint:gosec // written by Put
	}

	if h.Offset < Size || h.Size <= 0 || h.Offset+h.Size > h.OuterLen {
		return Header{}, ErrInvalid
	}

	return h, nil
}

// Invalidate clears the magic so the header is no longer accepted by Get.
func Invalidate(b []byte) {
	binary.LittleEndian.PutUint64(b[0:], 0)
}
