package favorites_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
	"github.com/jrife/tokenbook/storage/kv"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const alice identity.Principal = "alice"

func TestSave(t *testing.T) {
	testCases := map[string]struct {
		existing []favorites.Token
		token    favorites.Token
		message  string
		err      error
		result   []favorites.Token
	}{
		"first-save": {
			token:   favorites.Token{Name: "Bitcoin", Symbol: "BTC"},
			message: "Token Bitcoin added to favorites",
			result:  []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}},
		},
		"append": {
			existing: []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}},
			token:    favorites.Token{Name: "Ether", Symbol: "eth"},
			message:  "Token Ether added to favorites",
			result:   []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}, {Name: "Ether", Symbol: "eth"}},
		},
		"duplicate": {
			existing: []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}},
			token:    favorites.Token{Name: "Bitcoin", Symbol: "BTC"},
			message:  "Token Bitcoin added to favorites",
			result:   []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}, {Name: "Bitcoin", Symbol: "BTC"}},
		},
		"empty-name": {
			token: favorites.Token{Name: " ", Symbol: "BTC"},
			err:   errs.ErrInvalidInput,
		},
		"empty-symbol": {
			existing: []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}},
			token:    favorites.Token{Name: "Bitcoin", Symbol: ""},
			err:      errs.ErrInvalidInput,
			result:   []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}},
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			m := kv.NewFakeMap()

			for _, token := range testCase.existing {
				if _, err := favorites.Save(m, alice, token); err != nil {
					t.Fatalf("expected err to be nil, got %#v", err)
				}
			}

			message, err := favorites.Save(m, alice, testCase.token)

			if !errors.Is(err, testCase.err) {
				t.Fatalf("expected err to be %#v, got %#v", testCase.err, err)
			}

			if message != testCase.message {
				t.Fatalf("expected message %q, got %q", testCase.message, message)
			}

			tokens, err := favorites.List(m, alice)

			if testCase.result == nil {
				if !errors.Is(err, errs.ErrNotFound) {
					t.Fatalf("expected no record to be created, got %#v", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("expected err to be nil, got %#v", err)
			}

			if diff := cmp.Diff(testCase.result, tokens); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	testCases := map[string]struct {
		existing []favorites.Token
		symbol   string
		message  string
		err      error
		errMsg   string
		result   []favorites.Token
	}{
		"no-record": {
			symbol: "BTC",
			err:    errs.ErrNotFound,
			errMsg: "No favorites found",
		},
		"no-match": {
			existing: []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}},
			symbol:   "ETH",
			err:      errs.ErrNotFound,
			errMsg:   "Token not found",
			result:   []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}},
		},
		"case-insensitive": {
			existing: []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}, {Name: "Ether", Symbol: "ETH"}},
			symbol:   "btc",
			message:  "Token Bitcoin removed from favorites",
			result:   []favorites.Token{{Name: "Ether", Symbol: "ETH"}},
		},
		"removes-all-matches": {
			existing: []favorites.Token{
				{Name: "Bitcoin", Symbol: "BTC"},
				{Name: "Ether", Symbol: "ETH"},
				{Name: "Wrapped Bitcoin", Symbol: "btc"},
			},
			symbol:  "Btc",
			message: "Token Bitcoin removed from favorites",
			result:  []favorites.Token{{Name: "Ether", Symbol: "ETH"}},
		},
		"last-token-leaves-empty-record": {
			existing: []favorites.Token{{Name: "Bitcoin", Symbol: "BTC"}},
			symbol:   "BTC",
			message:  "Token Bitcoin removed from favorites",
			result:   []favorites.Token{},
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			m := kv.NewFakeMap()

			for _, token := range testCase.existing {
				if _, err := favorites.Save(m, alice, token); err != nil {
					t.Fatalf("expected err to be nil, got %#v", err)
				}
			}

			message, err := favorites.Remove(m, alice, testCase.symbol)

			if !errors.Is(err, testCase.err) {
				t.Fatalf("expected err to be %#v, got %#v", testCase.err, err)
			}

			if err != nil && errs.Message(err) != testCase.errMsg {
				t.Fatalf("expected error message %q, got %q", testCase.errMsg, errs.Message(err))
			}

			if message != testCase.message {
				t.Fatalf("expected message %q, got %q", testCase.message, message)
			}

			if testCase.result == nil {
				return
			}

			tokens, err := favorites.List(m, alice)

			if err != nil {
				t.Fatalf("expected err to be nil, got %#v", err)
			}

			if diff := cmp.Diff(testCase.result, tokens); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestListIsolatesOwners(t *testing.T) {
	m := kv.NewFakeMap()

	if _, err := favorites.Save(m, alice, favorites.Token{Name: "Bitcoin", Symbol: "BTC"}); err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	if _, err := favorites.List(m, "bob"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another owner, got %#v", err)
	}

	if _, err := favorites.List(m, ""); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an empty owner, got %#v", err)
	}

	lookup, err := favorites.Get(m, alice)

	if err != nil {
		t.Fatalf("expected err to be nil, got %#v", err)
	}

	switch l := lookup.(type) {
	case favorites.Found:
		if l.Record.Owner != alice {
			t.Fatalf("expected owner alice, got %s", l.Record.Owner)
		}
	default:
		t.Fatalf("expected Found, got %#v", lookup)
	}
}

func genToken() gopter.Gen {
	return gopter.CombineGens(
		gen.Identifier(),
		gen.OneConstOf("BTC", "btc", "ETH", "eth", "SOL", "Doge"),
	).Map(func(values []interface{}) favorites.Token {
		return favorites.Token{Name: values[0].(string), Symbol: values[1].(string)}
	})
}

func saveAll(m kv.Map, tokens []favorites.Token) error {
	for _, token := range tokens {
		if _, err := favorites.Save(m, alice, token); err != nil {
			return err
		}
	}

	return nil
}

func TestProperties(t *testing.T) {
	parameters := gopter.DefaultTestParametersWithSeed(1234)
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("save appends to the end of the list", prop.ForAll(
		func(tokens []favorites.Token, token favorites.Token) bool {
			m := kv.NewFakeMap()

			if err := saveAll(m, tokens); err != nil {
				return false
			}

			before, err := favorites.List(m, alice)

			if err != nil && len(tokens) > 0 {
				return false
			}

			if _, err := favorites.Save(m, alice, token); err != nil {
				return false
			}

			after, err := favorites.List(m, alice)

			if err != nil {
				return false
			}

			return cmp.Equal(append(append([]favorites.Token{}, before...), token), after)
		},
		gen.SliceOf(genToken()),
		genToken(),
	))

	properties.Property("remove deletes exactly the matching tokens", prop.ForAll(
		func(tokens []favorites.Token, symbol string) bool {
			m := kv.NewFakeMap()

			if err := saveAll(m, tokens); err != nil {
				return false
			}

			var expected []favorites.Token
			matched := false

			for _, token := range tokens {
				if strings.EqualFold(token.Symbol, symbol) {
					matched = true
				} else {
					expected = append(expected, token)
				}
			}

			_, err := favorites.Remove(m, alice, symbol)

			switch {
			case len(tokens) == 0:
				return errors.Is(err, errs.ErrNotFound)
			case !matched:
				if !errors.Is(err, errs.ErrNotFound) {
					return false
				}

				expected = tokens
			case err != nil:
				return false
			}

			after, err := favorites.List(m, alice)

			if err != nil {
				return false
			}

			if expected == nil {
				expected = []favorites.Token{}
			}

			return cmp.Equal(expected, after)
		},
		gen.SliceOf(genToken()),
		gen.OneConstOf("BTC", "eth", "Sol", "XRP"),
	))

	properties.Property("list is never NotFound after a save", prop.ForAll(
		func(tokens []favorites.Token) bool {
			m := kv.NewFakeMap()

			if _, err := favorites.List(m, alice); !errors.Is(err, errs.ErrNotFound) {
				return false
			}

			if err := saveAll(m, tokens); err != nil {
				return false
			}

			for _, token := range tokens {
				favorites.Remove(m, alice, token.Symbol)
			}

			after, err := favorites.List(m, alice)

			if len(tokens) == 0 {
				return errors.Is(err, errs.ErrNotFound)
			}

			return err == nil && len(after) == 0
		},
		gen.SliceOf(genToken()),
	))

	properties.TestingRun(t)
}
