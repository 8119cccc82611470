package command

import "github.com/ananthvk/respkv/internal/resp"

func handleEcho(args []resp.Value, state State) (Result, error) {
	message, err := argString(args[0])
	if err != nil {
		return Result{}, err
	}
	return String(message), nil
}

func handlePing(args []resp.Value, state State) (Result, error) {
	return Status(pong), nil
}

func handleSet(args []resp.Value, state State) (Result, error) {
	key, err := argString(args[0])
	if err != nil {
		return Result{}, err
	}
	value, err := argString(args[1])
	if err != nil {
		return Result{}, err
	}
	old, existed := state.Insert(string(key), string(value))
	if existed {
		return String([]byte(old)), nil
	}
	return OK(), nil
}

func handleGet(args []resp.Value, state State) (Result, error) {
	key, err := argString(args[0])
	if err != nil {
		return Result{}, err
	}
	value, ok := state.Get(string(key))
	if !ok {
		return Nil(), nil
	}
	return String([]byte(value)), nil
}

func handleExists(args []resp.Value, state State) (Result, error) {
	keys := make([]string, len(args))
	for i, arg := range args {
		key, err := argString(arg)
		if err != nil {
			return Result{}, err
		}
		keys[i] = string(key)
	}
	return Int(int64(state.Exists(keys...))), nil
}

func handleKeys(args []resp.Value, state State) (Result, error) {
	pattern, err := argString(args[0])
	if err != nil {
		return Result{}, err
	}
	keys := state.Keys(string(pattern))
	values := make([][]byte, len(keys))
	for i, key := range keys {
		values[i] = []byte(key)
	}
	return MultiString(values), nil
}

func handleDBSize(args []resp.Value, state State) (Result, error) {
	return Int(int64(state.Len())), nil
}
