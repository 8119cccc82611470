package command

import (
	"bytes"
	"strings"

	"github.com/ananthvk/respkv/internal/resp"
)

// State is the shared table the commands run against. Each method is one atomic operation.
type State interface {
	Get(key string) (string, bool)
	Insert(key string, value string) (string, bool)
	Exists(keys ...string) int
	Keys(pattern string) []string
	Len() int
}

type HandlerFunc func(args []resp.Value, state State) (Result, error)

type Command struct {
	// Arity is the minimum number of arguments, not counting the command name. Extra arguments
	// are ignored.
	Arity   int
	Handler HandlerFunc
}

var Commands = map[string]Command{
	"ECHO":   {Arity: 1, Handler: handleEcho},
	"PING":   {Arity: 0, Handler: handlePing},
	"SET":    {Arity: 2, Handler: handleSet},
	"GET":    {Arity: 1, Handler: handleGet},
	"EXISTS": {Arity: 1, Handler: handleExists},
	"KEYS":   {Arity: 1, Handler: handleKeys},
	"DBSIZE": {Arity: 0, Handler: handleDBSize},
}

var pong = []byte("PONG")

// Dispatch interprets a request as a command and runs it against state. A request is either a
// bare string naming an argumentless command, or an array whose first element is the command
// name. Names are matched case-insensitively.
func Dispatch(value resp.Value, state State) (Result, error) {
	switch value.Type {
	case resp.ValueTypeString:
		return dispatchString(value.Buffer)
	case resp.ValueTypeArray:
		return dispatchArray(value.Array, state)
	}
	return Result{}, ErrUnsupportedType
}

func dispatchString(name []byte) (Result, error) {
	switch strings.ToUpper(string(name)) {
	case "ECHO":
		// Nothing to echo, so the command itself comes back
		return Status(name), nil
	case "PING":
		return Status(pong), nil
	}
	return Result{}, &UnknownCommandError{Name: string(name)}
}

func dispatchArray(values []resp.Value, state State) (Result, error) {
	if len(values) == 0 {
		return Result{}, ErrEmptyCommand
	}
	head, err := argString(values[0])
	if err != nil {
		return Result{}, err
	}
	name := strings.ToUpper(string(head))
	command, exists := Commands[name]
	if !exists {
		return Result{}, &UnknownCommandError{Name: string(head)}
	}
	args := values[1:]
	if len(args) < command.Arity {
		return Result{}, &ArityError{Name: strings.ToLower(name)}
	}
	return command.Handler(args, state)
}

func argString(value resp.Value) ([]byte, error) {
	if value.Type != resp.ValueTypeString {
		return nil, ErrTypeCoercion
	}
	return value.Buffer, nil
}

// IsQuit reports whether the request is a QUIT, which the connection handles itself
func IsQuit(value resp.Value) bool {
	switch value.Type {
	case resp.ValueTypeString:
		return bytes.EqualFold(value.Buffer, []byte("QUIT"))
	case resp.ValueTypeArray:
		return len(value.Array) > 0 &&
			value.Array[0].Type == resp.ValueTypeString &&
			bytes.EqualFold(value.Array[0].Buffer, []byte("QUIT"))
	}
	return false
}

// Name returns the upper-cased name of a known command, or "unknown". The result is bounded
// to the command table so it is safe to use as a metric label.
func Name(value resp.Value) string {
	var head []byte
	switch value.Type {
	case resp.ValueTypeString:
		head = value.Buffer
	case resp.ValueTypeArray:
		if len(value.Array) == 0 || value.Array[0].Type != resp.ValueTypeString {
			return "unknown"
		}
		head = value.Array[0].Buffer
	default:
		return "unknown"
	}
	name := strings.ToUpper(string(head))
	if _, exists := Commands[name]; exists || name == "QUIT" {
		return name
	}
	return "unknown"
}
