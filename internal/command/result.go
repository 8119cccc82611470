package command

import "github.com/ananthvk/respkv/internal/resp"

type Kind int

const (
	// KindOK has no payload and is sent as +OK
	KindOK Kind = iota
	// KindStatus is sent as a simple string
	KindStatus
	// KindString is sent as a bulk string
	KindString
	// KindMultiString is sent as an array of bulk strings
	KindMultiString
	KindArray
	KindInt
	// KindNil is sent as the null bulk string
	KindNil
)

// Result is what a command produces, it is turned into wire format by AppendTo
type Result struct {
	Kind    Kind
	Buffer  []byte
	Strings [][]byte
	Array   []Result
	Integer int64
}

func OK() Result {
	return Result{Kind: KindOK}
}

func Status(b []byte) Result {
	return Result{Kind: KindStatus, Buffer: b}
}

func String(b []byte) Result {
	return Result{Kind: KindString, Buffer: b}
}

func MultiString(strs [][]byte) Result {
	return Result{Kind: KindMultiString, Strings: strs}
}

func Array(results []Result) Result {
	return Result{Kind: KindArray, Array: results}
}

func Int(n int64) Result {
	return Result{Kind: KindInt, Integer: n}
}

func Nil() Result {
	return Result{Kind: KindNil}
}

var okBytes = []byte("OK")

// AppendTo appends the wire encoding of the result to dst
func (r Result) AppendTo(dst []byte) []byte {
	switch r.Kind {
	case KindOK:
		return resp.AppendSimpleString(dst, okBytes)
	case KindStatus:
		return resp.AppendSimpleString(dst, r.Buffer)
	case KindString:
		return resp.AppendBulkString(dst, r.Buffer)
	case KindMultiString:
		dst = resp.AppendArrayHeader(dst, len(r.Strings))
		for _, s := range r.Strings {
			if s == nil {
				dst = resp.AppendNullBulkString(dst)
				continue
			}
			dst = resp.AppendBulkString(dst, s)
		}
		return dst
	case KindArray:
		dst = resp.AppendArrayHeader(dst, len(r.Array))
		for _, child := range r.Array {
			dst = child.AppendTo(dst)
		}
		return dst
	case KindInt:
		return resp.AppendInteger(dst, r.Integer)
	}
	return resp.AppendNullBulkString(dst)
}

func (r Result) Encode() []byte {
	return r.AppendTo(nil)
}
