package resp

import (
	"bytes"
	"fmt"
	"math"
)

const (
	// MaxBulkStringSize is the largest bulk string payload that will be accepted (512 MiB)
	MaxBulkStringSize = 512 * 1024 * 1024
	// MaxArrayLength is the largest element count accepted in an array header
	MaxArrayLength = 1024 * 1024
	// MaxNestingDepth bounds how deeply arrays may nest, so a hostile client cannot drive the
	// recursive decoder arbitrarily deep
	MaxNestingDepth = 128
)

var ErrTooDeep = fmt.Errorf("%w: arrays nested too deeply", ErrProtocolError)

// Decode decodes a single frame that starts at buf[pos]. On success it returns the frame and the
// position immediately after it. If buf does not yet hold the whole frame, ErrIncomplete is
// returned and the caller should append more bytes and call Decode again with the same pos.
// Any other error wraps ErrProtocolError and means the stream can not be resynchronized.
//
// Decode never modifies buf and never copies payload bytes, String and Error frames refer
// back into buf by offset.
func Decode(buf []byte, pos int) (Frame, int, error) {
	frame, next, err := decode(buf, pos, 0)
	if err != nil {
		return Frame{}, pos, err
	}
	return frame, next, nil
}

func decode(buf []byte, pos int, depth int) (Frame, int, error) {
	if pos >= len(buf) {
		return Frame{}, pos, ErrIncomplete
	}
	switch buf[pos] {
	case '+':
		return decodeWord(buf, pos+1, ValueTypeString)
	case '-':
		return decodeWord(buf, pos+1, ValueTypeError)
	case ':':
		n, next, err := integer(buf, pos+1)
		if err != nil {
			return Frame{}, pos, err
		}
		return Frame{Type: ValueTypeInteger, Integer: n}, next, nil
	case '$':
		return decodeBulkString(buf, pos+1)
	case '*':
		return decodeArray(buf, pos+1, depth)
	}
	return Frame{}, pos, ErrUnknownStartingByte
}

// word scans from pos up to the next \r\n. The returned span excludes the terminator, the
// returned position is just past it.
func word(buf []byte, pos int) (Span, int, error) {
	if pos >= len(buf) {
		return Span{}, pos, ErrIncomplete
	}
	idx := bytes.IndexByte(buf[pos:], '\r')
	if idx == -1 {
		return Span{}, pos, ErrIncomplete
	}
	end := pos + idx
	if end+1 >= len(buf) {
		// \r is the last buffered byte, the \n has not arrived yet
		return Span{}, pos, ErrIncomplete
	}
	if buf[end+1] != '\n' {
		return Span{}, pos, ErrUnexpectedEnd
	}
	return Span{Start: pos, End: end}, end + 2, nil
}

func decodeWord(buf []byte, pos int, valueType ValueType) (Frame, int, error) {
	span, next, err := word(buf, pos)
	if err != nil {
		return Frame{}, pos, err
	}
	return Frame{Type: valueType, Span: span}, next, nil
}

func integer(buf []byte, pos int) (int64, int, error) {
	span, next, err := word(buf, pos)
	if err != nil {
		return 0, pos, err
	}
	n, ok := parseInt(span.Bytes(buf))
	if !ok {
		return 0, pos, ErrIntParseFailure
	}
	return n, next, nil
}

// parseInt parses a base 10 signed 64 bit integer with an optional sign, without allocating
func parseInt(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	isNegative := false
	switch b[0] {
	case '-':
		isNegative = true
		b = b[1:]
	case '+':
		b = b[1:]
	}
	// There should be atleast a single digit
	if len(b) == 0 {
		return 0, false
	}

	limit := uint64(math.MaxInt64)
	if isNegative {
		limit++
	}
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if n > (limit-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	if isNegative {
		return -int64(n), true
	}
	return int64(n), true
}

func decodeBulkString(buf []byte, pos int) (Frame, int, error) {
	length, next, err := integer(buf, pos)
	if err != nil {
		return Frame{}, pos, err
	}
	if length == -1 {
		return Frame{Type: ValueTypeNullBulkString}, next, nil
	}
	if length < 0 {
		return Frame{}, pos, ErrBadBulkStringSize
	}
	if length > MaxBulkStringSize {
		return Frame{}, pos, ErrTooLarge
	}

	end := next + int(length)
	if len(buf) < end+2 {
		return Frame{}, pos, ErrIncomplete
	}
	if buf[end] != '\r' || buf[end+1] != '\n' {
		return Frame{}, pos, ErrUnexpectedEnd
	}
	return Frame{Type: ValueTypeString, Span: Span{Start: next, End: end}}, end + 2, nil
}

func decodeArray(buf []byte, pos int, depth int) (Frame, int, error) {
	count, next, err := integer(buf, pos)
	if err != nil {
		return Frame{}, pos, err
	}
	if count == -1 {
		return Frame{Type: ValueTypeNullArray}, next, nil
	}
	if count < 0 {
		return Frame{}, pos, &BadArraySizeError{Size: count}
	}
	if count > MaxArrayLength {
		return Frame{}, pos, ErrTooLarge
	}
	if depth >= MaxNestingDepth {
		return Frame{}, pos, ErrTooDeep
	}

	// Every element takes at least 3 bytes, don't trust the header for the allocation
	frames := make([]Frame, 0, min(int(count), (len(buf)-next)/3))
	for range count {
		frame, after, err := decode(buf, next, depth+1)
		if err != nil {
			// An incomplete element makes the whole array incomplete
			return Frame{}, pos, err
		}
		frames = append(frames, frame)
		next = after
	}
	return Frame{Type: ValueTypeArray, Array: frames}, next, nil
}
