package favorites

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
)

// Op names a favorites mutation
type Op string

const (
	// OpSave appends a token to the owner's favorites
	OpSave Op = "save"
	// OpRemove removes every token matching a symbol
	OpRemove Op = "remove"
)

// Command is the payload of a log entry
type Command struct {
	Op     Op                 `json:"op"`
	Owner  identity.Principal `json:"owner"`
	Token  *favorites.Token   `json:"token,omitempty"`
	Symbol string             `json:"symbol,omitempty"`
}

// Save builds a save command
func Save(owner identity.Principal, token favorites.Token) Command {
	return Command{Op: OpSave, Owner: owner, Token: &token}
}

// Remove builds a remove command
func Remove(owner identity.Principal, symbol string) Command {
	return Command{Op: OpRemove, Owner: owner, Symbol: symbol}
}

// Marshal encodes the command as entry data
func (command Command) Marshal() ([]byte, error) {
	return json.Marshal(command)
}

// UnmarshalCommand decodes entry data
func UnmarshalCommand(data []byte) (Command, error) {
	var command Command

	if err := json.Unmarshal(data, &command); err != nil {
		return Command{}, fmt.Errorf("could not decode command: %s", err)
	}

	return command, nil
}

// ResultError is a domain failure carried in a Result
type ResultError struct {
	Kind    errs.Kind `json:"kind"`
	Message string    `json:"message"`
}

// Result is the response to a command. Domain failures are
// part of the result so that replicas can compare them.
type Result struct {
	Message string       `json:"message,omitempty"`
	Error   *ResultError `json:"error,omitempty"`
}

// Err returns the domain failure as a classified error or nil
func (result Result) Err() error {
	if result.Error == nil {
		return nil
	}

	return errs.New(result.Error.Kind, result.Error.Message)
}

// UnmarshalResult decodes a Step response
func UnmarshalResult(data []byte) (Result, error) {
	var result Result

	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("could not decode result: %s", err)
	}

	return result, nil
}
