package potlink

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// MaxMessageLen is the longest wire message: "65535\n".
const MaxMessageLen = 6

var (
	// ErrEmpty is returned when a line carries no digits.
	ErrEmpty = errors.New("empty message")
	// ErrRange is returned when a line does not fit into 16 bits.
	ErrRange = errors.New("value out of range")
)

// AppendMessage appends the wire form of v (decimal digits followed by '\n') to dst.
func AppendMessage(dst []byte, v uint16) []byte {
	dst = strconv.AppendUint(dst, uint64(v), 10)
	return append(dst, '\n')
}

// ParseMessage parses one line received from the link.
// Surrounding whitespace, including the line terminator, is ignored.
func ParseMessage(line []byte) (uint16, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return 0, ErrEmpty
	}

	v, err := strconv.ParseUint(string(line), 10, 16)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %q", ErrRange, line)
		}
		return 0, fmt.Errorf("invalid message %q: %w", line, err)
	}

	return uint16(v), nil
}
