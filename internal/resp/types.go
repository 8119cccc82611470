package resp

type ValueType int

const (
	ValueTypeString ValueType = iota
	ValueTypeError
	ValueTypeInteger
	ValueTypeArray
	ValueTypeNullArray
	ValueTypeNullBulkString
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeString:
		return "string"
	case ValueTypeError:
		return "error"
	case ValueTypeInteger:
		return "integer"
	case ValueTypeArray:
		return "array"
	case ValueTypeNullArray:
		return "null array"
	case ValueTypeNullBulkString:
		return "null bulk string"
	}
	return "unknown"
}

// Span is a half-open [Start, End) range of byte offsets into the buffer a frame was decoded from
type Span struct {
	Start int
	End   int
}

// Bytes returns the bytes of buf covered by the span. The returned slice aliases buf.
func (s Span) Bytes(buf []byte) []byte {
	return buf[s.Start:s.End]
}

// Frame is a decoded value that does not own its bytes. String and Error frames only
// record where their payload lives in the source buffer, so a Frame is meaningless once
// that buffer is shifted or reused. Call Materialize before doing either.
type Frame struct {
	Type    ValueType
	Span    Span
	Integer int64
	Array   []Frame
}

// Value is a materialized frame, it owns all of its bytes
type Value struct {
	Type    ValueType
	Buffer  []byte
	Integer int64
	Array   []Value
}

// Materialize copies every span of the frame out of buf, recursing into arrays. buf must be
// the same slice (or an unshifted extension of it) that was passed to Decode.
func (f Frame) Materialize(buf []byte) Value {
	switch f.Type {
	case ValueTypeString, ValueTypeError:
		return Value{
			Type:   f.Type,
			Buffer: append([]byte{}, f.Span.Bytes(buf)...),
		}
	case ValueTypeInteger:
		return Value{Type: ValueTypeInteger, Integer: f.Integer}
	case ValueTypeArray:
		values := make([]Value, len(f.Array))
		for i, child := range f.Array {
			values[i] = child.Materialize(buf)
		}
		return Value{Type: ValueTypeArray, Array: values}
	}
	return Value{Type: f.Type}
}

// BulkString builds a string value, mostly useful for building requests
func BulkString(b []byte) Value {
	return Value{Type: ValueTypeString, Buffer: b}
}

// Command builds the array of bulk strings that clients send as a request
func Command(args ...[]byte) Value {
	values := make([]Value, len(args))
	for i, arg := range args {
		values[i] = BulkString(arg)
	}
	return Value{Type: ValueTypeArray, Array: values}
}
