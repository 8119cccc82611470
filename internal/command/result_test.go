package command

import "testing"

func TestResultEncode(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{name: "ok", result: OK(), want: "+OK\r\n"},
		{name: "status", result: Status([]byte("PONG")), want: "+PONG\r\n"},
		{name: "string", result: String([]byte("foo")), want: "$3\r\nfoo\r\n"},
		{name: "empty string", result: String([]byte{}), want: "$0\r\n\r\n"},
		{name: "nil", result: Nil(), want: "$-1\r\n"},
		{name: "int", result: Int(-7), want: ":-7\r\n"},
		{
			name:   "multi string",
			result: MultiString([][]byte{[]byte("a"), nil, []byte("bc")}),
			want:   "*3\r\n$1\r\na\r\n$-1\r\n$2\r\nbc\r\n",
		},
		{
			name:   "empty multi string",
			result: MultiString(nil),
			want:   "*0\r\n",
		},
		{
			name:   "nested array",
			result: Array([]Result{Int(1), Array([]Result{OK(), Nil()}), String([]byte("x"))}),
			want:   "*3\r\n:1\r\n*2\r\n+OK\r\n$-1\r\n$1\r\nx\r\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tt.result.Encode()); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResultAppendTo(t *testing.T) {
	dst := OK().AppendTo(nil)
	dst = Nil().AppendTo(dst)
	if string(dst) != "+OK\r\n$-1\r\n" {
		t.Errorf("AppendTo() = %q", dst)
	}
}
