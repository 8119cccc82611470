package client

import (
	"testing"

	"github.com/ananthvk/respkv/internal/resp"
)

func TestFormat(t *testing.T) {
	str := func(s string) resp.Value { return resp.BulkString([]byte(s)) }
	tests := []struct {
		name  string
		reply Reply
		want  string
	}{
		{"status", Reply{Value: str("OK"), Status: true}, "OK"},
		{"bulk", Reply{Value: str("hello world")}, `"hello world"`},
		{"bulk with newline", Reply{Value: str("a\nb")}, `"a\nb"`},
		{"error", Reply{Value: resp.Value{Type: resp.ValueTypeError, Buffer: []byte("ERR nope")}}, "(error) ERR nope"},
		{"integer", Reply{Value: resp.Value{Type: resp.ValueTypeInteger, Integer: 42}}, "(integer) 42"},
		{"nil", Reply{Value: resp.Value{Type: resp.ValueTypeNullBulkString}}, "(nil)"},
		{"nil array", Reply{Value: resp.Value{Type: resp.ValueTypeNullArray}}, "(nil)"},
		{"empty array", Reply{Value: resp.Value{Type: resp.ValueTypeArray}}, "(empty array)"},
		{
			"array",
			Reply{Value: resp.Command([]byte("a"), []byte("b"))},
			"1) \"a\"\n2) \"b\"",
		},
		{
			"nested array",
			Reply{Value: resp.Value{Type: resp.ValueTypeArray, Array: []resp.Value{
				str("x"),
				{Type: resp.ValueTypeArray, Array: []resp.Value{
					{Type: resp.ValueTypeInteger, Integer: 1},
					{Type: resp.ValueTypeNullBulkString},
				}},
			}}},
			"1) \"x\"\n2) 1) (integer) 1\n   2) (nil)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.reply); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}
