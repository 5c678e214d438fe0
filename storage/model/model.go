// Package model is a reference implementation of a replica
// store that model-based tests compare the real one against.
package model

import (
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
)

// Response is the observable outcome of one operation
type Response struct {
	Message string
	Tokens  []favorites.Token
	// Err is the caller-facing error message, if any
	Err string
	// Stale is true if the update index was rejected
	Stale bool
}

// ReplicaStoreModel tracks the expected state of a replica store
type ReplicaStoreModel struct {
	index    uint64
	records  *treemap.Map
	response Response
}

// NewReplicaStoreModel creates an empty model
func NewReplicaStoreModel() *ReplicaStoreModel {
	return &ReplicaStoreModel{records: treemap.NewWith(utils.StringComparator)}
}

// Index returns the last applied update index
func (replicaStoreModel *ReplicaStoreModel) Index() uint64 {
	return replicaStoreModel.index
}

// LastResponse returns the response to the last operation
func (replicaStoreModel *ReplicaStoreModel) LastResponse() Response {
	return replicaStoreModel.response
}

// Records returns every record ordered by owner
func (replicaStoreModel *ReplicaStoreModel) Records() []favorites.Record {
	records := []favorites.Record{}
	iter := replicaStoreModel.records.Iterator()

	for iter.Next() {
		records = append(records, favorites.Record{
			Owner:  identity.Principal(iter.Key().(string)),
			Tokens: append([]favorites.Token{}, iter.Value().([]favorites.Token)...),
		})
	}

	return records
}

// List returns the tokens for owner
func (replicaStoreModel *ReplicaStoreModel) List(owner identity.Principal) Response {
	tokens, ok := replicaStoreModel.records.Get(string(owner))

	if !ok {
		replicaStoreModel.response = Response{Err: "No favorites found"}
	} else {
		replicaStoreModel.response = Response{Tokens: append([]favorites.Token{}, tokens.([]favorites.Token)...)}
	}

	return replicaStoreModel.response
}

// ApplySave models Update.SaveFavorite
func (replicaStoreModel *ReplicaStoreModel) ApplySave(index uint64, owner identity.Principal, token favorites.Token) Response {
	if !replicaStoreModel.advance(index) {
		return replicaStoreModel.response
	}

	if strings.TrimSpace(token.Name) == "" {
		replicaStoreModel.response = Response{Err: "token name must not be empty"}

		return replicaStoreModel.response
	}

	if strings.TrimSpace(token.Symbol) == "" {
		replicaStoreModel.response = Response{Err: "token symbol must not be empty"}

		return replicaStoreModel.response
	}

	var tokens []favorites.Token

	if existing, ok := replicaStoreModel.records.Get(string(owner)); ok {
		tokens = existing.([]favorites.Token)
	}

	tokens = append(append([]favorites.Token{}, tokens...), token)
	replicaStoreModel.records.Put(string(owner), tokens)
	replicaStoreModel.response = Response{Message: "Token " + token.Name + " added to favorites"}

	return replicaStoreModel.response
}

// ApplyRemove models Update.RemoveFavorite
func (replicaStoreModel *ReplicaStoreModel) ApplyRemove(index uint64, owner identity.Principal, symbol string) Response {
	if !replicaStoreModel.advance(index) {
		return replicaStoreModel.response
	}

	existing, ok := replicaStoreModel.records.Get(string(owner))

	if !ok {
		replicaStoreModel.response = Response{Err: "No favorites found"}

		return replicaStoreModel.response
	}

	kept := []favorites.Token{}
	name := ""

	for _, token := range existing.([]favorites.Token) {
		if strings.EqualFold(token.Symbol, symbol) {
			if name == "" {
				name = token.Name
			}

			continue
		}

		kept = append(kept, token)
	}

	if name == "" {
		replicaStoreModel.response = Response{Err: "Token not found"}

		return replicaStoreModel.response
	}

	replicaStoreModel.records.Put(string(owner), kept)
	replicaStoreModel.response = Response{Message: "Token " + name + " removed from favorites"}

	return replicaStoreModel.response
}

func (replicaStoreModel *ReplicaStoreModel) advance(index uint64) bool {
	if index <= replicaStoreModel.index {
		replicaStoreModel.response = Response{Stale: true}

		return false
	}

	replicaStoreModel.index = index

	return true
}
