package resp

import (
	"bytes"
	"strconv"
)

var crlf = []byte("\r\n")

// appendLine appends b, replacing CR and LF with spaces so that a simple string or error can
// never break the framing
func appendLine(dst []byte, b []byte) []byte {
	if !bytes.ContainsAny(b, "\r\n") {
		return append(dst, b...)
	}
	for _, c := range b {
		if c == '\r' || c == '\n' {
			c = ' '
		}
		dst = append(dst, c)
	}
	return dst
}

func AppendSimpleString(dst []byte, b []byte) []byte {
	dst = append(dst, '+')
	dst = appendLine(dst, b)
	return append(dst, crlf...)
}

func AppendError(dst []byte, message []byte) []byte {
	dst = append(dst, '-')
	dst = appendLine(dst, message)
	return append(dst, crlf...)
}

func AppendInteger(dst []byte, n int64) []byte {
	dst = append(dst, ':')
	dst = strconv.AppendInt(dst, n, 10)
	return append(dst, crlf...)
}

func AppendBulkString(dst []byte, b []byte) []byte {
	dst = append(dst, '$')
	dst = strconv.AppendInt(dst, int64(len(b)), 10)
	dst = append(dst, crlf...)
	dst = append(dst, b...)
	return append(dst, crlf...)
}

func AppendNullBulkString(dst []byte) []byte {
	return append(dst, "$-1\r\n"...)
}

func AppendArrayHeader(dst []byte, n int) []byte {
	dst = append(dst, '*')
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, crlf...)
}

func AppendNullArray(dst []byte) []byte {
	return append(dst, "*-1\r\n"...)
}

// AppendValue appends the wire encoding of a materialized value. Strings are always written as
// bulk strings since a Value does not remember whether it arrived as a simple string.
func AppendValue(dst []byte, value Value) []byte {
	switch value.Type {
	case ValueTypeString:
		return AppendBulkString(dst, value.Buffer)
	case ValueTypeError:
		return AppendError(dst, value.Buffer)
	case ValueTypeInteger:
		return AppendInteger(dst, value.Integer)
	case ValueTypeArray:
		dst = AppendArrayHeader(dst, len(value.Array))
		for _, v := range value.Array {
			dst = AppendValue(dst, v)
		}
		return dst
	case ValueTypeNullArray:
		return AppendNullArray(dst)
	}
	return AppendNullBulkString(dst)
}

func EncodeSimpleString(b []byte) []byte {
	return AppendSimpleString(nil, b)
}

func EncodeBulkString(b []byte) []byte {
	return AppendBulkString(nil, b)
}

func EncodeNilBulkString() []byte {
	return AppendNullBulkString(nil)
}
