package state

import "context"

// StateKey is the singleton slot holding the owner record.
const StateKey = "state"

type OwnerRecord struct {
	Owner Identifier `json:"owner"`
}

// Initialize records caller as the owner. Calling it twice overwrites the
// owner; the host refuses a second instantiation before it gets here.
func Initialize(ctx context.Context, store Store, caller Identifier) error {
	return save(ctx, store, StateKey, OwnerRecord{Owner: caller})
}

// LoadOwner returns the owner, or ErrUninitialized when no owner record exists.
func LoadOwner(ctx context.Context, store Store) (Identifier, error) {
	var record OwnerRecord
	ok, err := load(ctx, store, StateKey, &record)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUninitialized
	}
	return record.Owner, nil
}

// InitializeContract records the owner together with the contract info tag,
// in one batch when the store is a Batcher. Otherwise the owner is written
// first: contract info marks the store as instantiated, so a failure between
// the two writes leaves it open to another instantiation.
func InitializeContract(ctx context.Context, store Store, caller Identifier, info ContractVersion) error {
	if batcher, ok := store.(Batcher); ok {
		return saveBatch(ctx, batcher,
			record{key: StateKey, value: OwnerRecord{Owner: caller}},
			record{key: ContractInfoKey, value: info},
		)
	}
	if err := Initialize(ctx, store, caller); err != nil {
		return err
	}
	return SetContractVersion(ctx, store, info.Contract, info.Version)
}
