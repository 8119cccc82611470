package command

import (
	"errors"
	"fmt"
)

// ErrCommand is the root of every dispatch failure. Its text is the RESP error prefix, so the
// message of any error wrapping it can be sent to the client unchanged.
var ErrCommand = errors.New("ERR")

var (
	ErrUnsupportedType = fmt.Errorf("%w unsupported command type, expected a string or an array", ErrCommand)
	ErrTypeCoercion    = fmt.Errorf("%w command arguments must be strings", ErrCommand)
	ErrEmptyCommand    = fmt.Errorf("%w empty command", ErrCommand)
	ErrUnknownCommand  = fmt.Errorf("%w unknown command", ErrCommand)
	ErrArity           = fmt.Errorf("%w wrong number of arguments", ErrCommand)
)

type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("%s '%s'", ErrUnknownCommand.Error(), e.Name)
}

func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand || target == ErrCommand
}

type ArityError struct {
	Name string
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s for '%s' command", ErrArity.Error(), e.Name)
}

func (e *ArityError) Is(target error) bool {
	return target == ErrArity || target == ErrCommand
}
