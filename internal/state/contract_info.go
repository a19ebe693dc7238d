package state

import (
	"context"
	"fmt"
)

// ContractInfoKey holds the name/version tag written at instantiation. Only the
// host reads it, to check compatibility on startup.
const ContractInfoKey = "contract_info"

type ContractVersion struct {
	Contract string `json:"contract"`
	Version  string `json:"version"`
}

func SetContractVersion(ctx context.Context, store Store, name, version string) error {
	return save(ctx, store, ContractInfoKey, ContractVersion{Contract: name, Version: version})
}

func GetContractVersion(ctx context.Context, store Store) (ContractVersion, bool, error) {
	var info ContractVersion
	ok, err := load(ctx, store, ContractInfoKey, &info)
	if err != nil || !ok {
		return ContractVersion{}, false, err
	}
	return info, true, nil
}

// AssertContract fails when the store was instantiated by a different
// contract. A store with no contract info passes.
func AssertContract(ctx context.Context, store Store, name string) (ContractVersion, bool, error) {
	info, ok, err := GetContractVersion(ctx, store)
	if err != nil || !ok {
		return ContractVersion{}, false, err
	}
	if info.Contract != name {
		return info, true, fmt.Errorf("store belongs to contract %q, expected %q", info.Contract, name)
	}
	return info, true, nil
}
