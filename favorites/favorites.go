// Package favorites implements the per-owner token list. Every
// operation is a single read-modify-write of one owner's record
// against a kv.Map, which callers scope to one transaction.
package favorites

import (
	"fmt"
	"strings"

	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/identity"
	"github.com/jrife/tokenbook/storage/kv"
	"github.com/jrife/tokenbook/storage/kv/marshaled"
)

const (
	// MessageNoFavorites is reported when an owner has no record
	MessageNoFavorites = "No favorites found"
	// MessageTokenNotFound is reported when no token matches a symbol
	MessageTokenNotFound = "Token not found"
)

// Token is a named entry in a favorites list
type Token struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// Validate rejects tokens with a blank name or symbol
func (token Token) Validate() error {
	if strings.TrimSpace(token.Name) == "" {
		return errs.InvalidInput("token name must not be empty")
	}

	if strings.TrimSpace(token.Symbol) == "" {
		return errs.InvalidInput("token symbol must not be empty")
	}

	return nil
}

// Matches reports whether the token's symbol equals
// symbol under Unicode case folding
func (token Token) Matches(symbol string) bool {
	return strings.EqualFold(token.Symbol, symbol)
}

// Record is an owner's ordered favorites list.
// Duplicates are allowed.
type Record struct {
	Owner  identity.Principal `json:"owner"`
	Tokens []Token            `json:"tokens"`
}

// Lookup is the result of reading a record. It
// is either Found or Absent.
type Lookup interface {
	lookup()
}

// Found holds an existing record
type Found struct {
	Record Record
}

// Absent indicates that the owner has no record
type Absent struct{}

func (Found) lookup()  {}
func (Absent) lookup() {}

func records(m kv.Map) marshaled.Map[Record] {
	return marshaled.New[Record](m, marshaled.JSON[Record]{})
}

// Get looks up the record for owner
func Get(m kv.Map, owner identity.Principal) (Lookup, error) {
	if !owner.Valid() {
		return nil, errs.InvalidInput("owner must not be empty")
	}

	record, ok, err := records(m).Get(owner.Key())

	if err != nil {
		return nil, errs.Internal("could not read favorites", errs.WithCause(err))
	}

	if !ok {
		return Absent{}, nil
	}

	return Found{Record: record}, nil
}

// Save appends token to the owner's list, creating the
// record if it does not exist yet
func Save(m kv.Map, owner identity.Principal, token Token) (string, error) {
	if err := token.Validate(); err != nil {
		return "", err
	}

	lookup, err := Get(m, owner)

	if err != nil {
		return "", err
	}

	var record Record

	switch l := lookup.(type) {
	case Found:
		record = l.Record
	case Absent:
		record = Record{Owner: owner}
	}

	record.Tokens = append(record.Tokens, token)

	if err := put(m, record); err != nil {
		return "", err
	}

	return fmt.Sprintf("Token %s added to favorites", token.Name), nil
}

// Remove deletes every token in the owner's list whose symbol
// matches case-insensitively. The confirmation names the first
// matching token.
func Remove(m kv.Map, owner identity.Principal, symbol string) (string, error) {
	lookup, err := Get(m, owner)

	if err != nil {
		return "", err
	}

	var record Record

	switch l := lookup.(type) {
	case Found:
		record = l.Record
	case Absent:
		return "", errs.NotFound(MessageNoFavorites)
	}

	var removed *Token
	kept := make([]Token, 0, len(record.Tokens))

	for i, token := range record.Tokens {
		if !token.Matches(symbol) {
			kept = append(kept, token)

			continue
		}

		if removed == nil {
			removed = &record.Tokens[i]
		}
	}

	if removed == nil {
		return "", errs.NotFound(MessageTokenNotFound)
	}

	name := removed.Name
	record.Tokens = kept

	if err := put(m, record); err != nil {
		return "", err
	}

	return fmt.Sprintf("Token %s removed from favorites", name), nil
}

// List returns the owner's tokens in insertion order.
// An existing record with no tokens yields an empty list.
func List(m kv.Map, owner identity.Principal) ([]Token, error) {
	lookup, err := Get(m, owner)

	if err != nil {
		return nil, err
	}

	switch l := lookup.(type) {
	case Found:
		if l.Record.Tokens == nil {
			return []Token{}, nil
		}

		return l.Record.Tokens, nil
	default:
		return nil, errs.NotFound(MessageNoFavorites)
	}
}

func put(m kv.Map, record Record) error {
	if record.Tokens == nil {
		record.Tokens = []Token{}
	}

	if err := records(m).Put(record.Owner.Key(), record); err != nil {
		return errs.Internal("could not write favorites", errs.WithCause(err))
	}

	return nil
}
