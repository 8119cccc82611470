package client

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ananthvk/respkv/internal/resp"
)

// Format renders a reply the way redis-cli does
func Format(r Reply) string {
	if r.Status && r.Type == resp.ValueTypeString {
		return string(r.Buffer)
	}
	return formatValue(r.Value, 0)
}

func formatValue(v resp.Value, indent int) string {
	switch v.Type {
	case resp.ValueTypeString:
		return strconv.Quote(string(v.Buffer))
	case resp.ValueTypeError:
		return "(error) " + string(v.Buffer)
	case resp.ValueTypeInteger:
		return fmt.Sprintf("(integer) %d", v.Integer)
	case resp.ValueTypeNullBulkString, resp.ValueTypeNullArray:
		return "(nil)"
	case resp.ValueTypeArray:
		if len(v.Array) == 0 {
			return "(empty array)"
		}
		width := len(strconv.Itoa(len(v.Array)))
		var sb strings.Builder
		for i, elem := range v.Array {
			if i > 0 {
				sb.WriteByte('\n')
				sb.WriteString(strings.Repeat(" ", indent))
			}
			prefix := fmt.Sprintf("%*d) ", width, i+1)
			sb.WriteString(prefix)
			sb.WriteString(formatValue(elem, indent+len(prefix)))
		}
		return sb.String()
	}
	return ""
}
