package resp

import (
	"errors"
	"fmt"
)

var ErrProtocolError = errors.New("protocol error")

// ErrIncomplete is not a protocol error, it means the buffer ends before the frame does.
// Read more bytes and decode again from the same position.
var ErrIncomplete = errors.New("incomplete frame")

var (
	ErrUnknownStartingByte = fmt.Errorf("%w: unknown starting byte", ErrProtocolError)
	ErrIntParseFailure     = fmt.Errorf("%w: invalid integer", ErrProtocolError)
	ErrBadBulkStringSize   = fmt.Errorf("%w: invalid bulk length", ErrProtocolError)
	ErrBadArraySize        = fmt.Errorf("%w: invalid multibulk length", ErrProtocolError)
	ErrUnexpectedEnd       = fmt.Errorf("%w: expected CRLF terminator", ErrProtocolError)
	ErrTooLarge            = fmt.Errorf("%w: length too large", ErrProtocolError)
)

// BadArraySizeError carries the negative count that was read from an array header
type BadArraySizeError struct {
	Size int64
}

func (e *BadArraySizeError) Error() string {
	return fmt.Sprintf("%s %d", ErrBadArraySize.Error(), e.Size)
}

func (e *BadArraySizeError) Is(target error) bool {
	return target == ErrBadArraySize || target == ErrProtocolError
}
