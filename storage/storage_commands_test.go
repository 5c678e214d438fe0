package storage_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/jrife/tokenbook/errs"
	"github.com/jrife/tokenbook/favorites"
	"github.com/jrife/tokenbook/identity"
	"github.com/jrife/tokenbook/storage"
	"github.com/jrife/tokenbook/storage/model"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/commands"
	"github.com/leanovate/gopter/gen"
)

func replicaStoreModelDiff(replicaStore storage.ReplicaStore, model *model.ReplicaStoreModel) (string, error) {
	if index, err := replicaStore.Index(context.Background()); err != nil {
		return "", fmt.Errorf("could not retrieve index from replica store: %s", err)
	} else if index != model.Index() {
		return fmt.Sprintf("model index = %d, actual index = %d\n", model.Index(), index), nil
	}

	records, err := replicaStore.Records(context.Background())

	if err != nil {
		return "", fmt.Errorf("could not retrieve records from replica store: %s", err)
	}

	if diff := cmp.Diff(model.Records(), records); diff != "" {
		return fmt.Sprintf("records don't match: %s", diff), nil
	}

	return "", nil
}

func toResponse(message string, err error) model.Response {
	switch {
	case err == nil:
		return model.Response{Message: message}
	case errors.Is(err, storage.ErrConsistencyViolation):
		return model.Response{Stale: true}
	case errs.KindOf(err) == errs.KindInternal:
		panic(err)
	}

	return model.Response{Err: errs.Message(err)}
}

func postCondition(state commands.State, result commands.Result) *gopter.PropResult {
	resp := state.(*model.ReplicaStoreModel).LastResponse()

	if diff := cmp.Diff(resp, result); diff != "" {
		fmt.Printf("%s\n", diff)

		return &gopter.PropResult{Status: gopter.PropFalse}
	}

	return &gopter.PropResult{Status: gopter.PropTrue}
}

// indexOffset shifts the next update index. Offsets
// below one replay an index that was already applied.
type saveCommand struct {
	owner       identity.Principal
	token       favorites.Token
	indexOffset int
}

func nextIndex(current uint64, offset int) uint64 {
	if offset < 0 && uint64(-offset) > current {
		return 0
	}

	return uint64(int64(current) + int64(offset))
}

func (command saveCommand) Run(sut commands.SystemUnderTest) commands.Result {
	replicaStore := sut.(storage.ReplicaStore)
	index, err := replicaStore.Index(context.Background())

	if err != nil {
		panic(err)
	}

	return toResponse(replicaStore.Apply(nextIndex(index, command.indexOffset)).SaveFavorite(context.Background(), command.owner, command.token))
}

func (command saveCommand) NextState(state commands.State) commands.State {
	m := state.(*model.ReplicaStoreModel)
	m.ApplySave(nextIndex(m.Index(), command.indexOffset), command.owner, command.token)

	return state
}

func (command saveCommand) PreCondition(state commands.State) bool {
	return true
}

func (command saveCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return postCondition(state, result)
}

func (command saveCommand) String() string {
	return fmt.Sprintf("Save(%s, %#v, %+d)", command.owner, command.token, command.indexOffset)
}

type removeCommand struct {
	owner  identity.Principal
	symbol string
}

func (command removeCommand) Run(sut commands.SystemUnderTest) commands.Result {
	replicaStore := sut.(storage.ReplicaStore)
	index, err := replicaStore.Index(context.Background())

	if err != nil {
		panic(err)
	}

	return toResponse(replicaStore.Apply(index+1).RemoveFavorite(context.Background(), command.owner, command.symbol))
}

func (command removeCommand) NextState(state commands.State) commands.State {
	m := state.(*model.ReplicaStoreModel)
	m.ApplyRemove(m.Index()+1, command.owner, command.symbol)

	return state
}

func (command removeCommand) PreCondition(state commands.State) bool {
	return true
}

func (command removeCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return postCondition(state, result)
}

func (command removeCommand) String() string {
	return fmt.Sprintf("Remove(%s, %s)", command.owner, command.symbol)
}

type listCommand struct {
	owner identity.Principal
}

func (command listCommand) Run(sut commands.SystemUnderTest) commands.Result {
	tokens, err := sut.(storage.ReplicaStore).Favorites(context.Background(), command.owner)

	if err != nil {
		return toResponse("", err)
	}

	return model.Response{Tokens: tokens}
}

func (command listCommand) NextState(state commands.State) commands.State {
	state.(*model.ReplicaStoreModel).List(command.owner)

	return state
}

func (command listCommand) PreCondition(state commands.State) bool {
	return true
}

func (command listCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	return postCondition(state, result)
}

func (command listCommand) String() string {
	return fmt.Sprintf("List(%s)", command.owner)
}

// checkCommand compares the entire replica store with the model
type checkCommand struct{}

func (command checkCommand) Run(sut commands.SystemUnderTest) commands.Result {
	return sut
}

func (command checkCommand) NextState(state commands.State) commands.State {
	return state
}

func (command checkCommand) PreCondition(state commands.State) bool {
	return true
}

func (command checkCommand) PostCondition(state commands.State, result commands.Result) *gopter.PropResult {
	diff, err := replicaStoreModelDiff(result.(storage.ReplicaStore), state.(*model.ReplicaStoreModel))

	if err != nil {
		return &gopter.PropResult{Status: gopter.PropFalse, Error: err}
	}

	if diff != "" {
		fmt.Printf("%s\n", diff)

		return &gopter.PropResult{Status: gopter.PropFalse}
	}

	return &gopter.PropResult{Status: gopter.PropTrue}
}

func (command checkCommand) String() string {
	return "Check()"
}

func genOwner() gopter.Gen {
	return gen.OneConstOf(identity.Principal("alice"), identity.Principal("bob"), identity.Principal("carol"))
}

func genSymbol() gopter.Gen {
	return gen.OneConstOf("BTC", "btc", "ETH", "Eth", "SOL", "  ")
}

func genToken() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("Bitcoin", "Ether", "Solana", "Wrapped Bitcoin", ""),
		genSymbol(),
	).Map(func(values []interface{}) favorites.Token {
		return favorites.Token{Name: values[0].(string), Symbol: values[1].(string)}
	})
}

func genSaveCommand() gopter.Gen {
	return gopter.CombineGens(
		genOwner(),
		genToken(),
		gen.Weighted([]gen.WeightedGen{
			{Weight: 8, Gen: gen.Const(1)},
			{Weight: 1, Gen: gen.IntRange(2, 4)},
			{Weight: 1, Gen: gen.IntRange(-2, 0)},
		}),
	).Map(func(values []interface{}) commands.Command {
		return saveCommand{
			owner:       values[0].(identity.Principal),
			token:       values[1].(favorites.Token),
			indexOffset: values[2].(int),
		}
	})
}

func genRemoveCommand() gopter.Gen {
	return gopter.CombineGens(genOwner(), genSymbol()).Map(func(values []interface{}) commands.Command {
		return removeCommand{owner: values[0].(identity.Principal), symbol: values[1].(string)}
	})
}

func genListCommand() gopter.Gen {
	return genOwner().Map(func(owner identity.Principal) commands.Command {
		return listCommand{owner: owner}
	})
}

func genCommands() gopter.Gen {
	return gen.Weighted([]gen.WeightedGen{
		{Weight: 4, Gen: genSaveCommand()},
		{Weight: 2, Gen: genRemoveCommand()},
		{Weight: 2, Gen: genListCommand()},
		{Weight: 1, Gen: gen.Const(commands.Command(checkCommand{}))},
	}).Map(func(command commands.Command) commands.Command {
		return command
	})
}
