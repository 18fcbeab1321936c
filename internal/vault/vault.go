package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/abi"
	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/rs/zerolog"

	"payday-service/internal/algorand"
)

// ExtraFee covers the inner transfer the vault submits (0.002 ALGO).
const ExtraFee uint64 = 2000

var (
	ErrUnavailable       = errors.New("vault unavailable")
	ErrClientNotFound    = &unavailableError{msg: "Vault client not found"}
	ErrAppIDNotSet       = &unavailableError{msg: "Vault appId not set"}
	ErrMethodNotFound    = errors.New("Vault method not found on client")
	ErrFundNotFound      = errors.New("Vault fund method not found")
	ErrUnsupportedMethod = errors.New("unsupported vault method signature")
)

var (
	releaseMethods = []string{"release", "payout", "disburse", "release_simple"}
	fundMethods    = []string{"fund"}
)

// unavailableError carries the user-facing reason and matches ErrUnavailable.
type unavailableError struct {
	msg string
}

func (e *unavailableError) Error() string { return e.msg }

func (e *unavailableError) Is(target error) bool { return target == ErrUnavailable }

// Caller executes ABI method calls on chain.
type Caller interface {
	CallMethod(ctx context.Context, signer algorand.Signer, call algorand.MethodCall) ([]string, error)
}

type Options struct {
	Dir        string
	ClientName string
	AppID      string
}

// API is the vault surface the payout flow uses. An unavailable API fails every call.
type API struct {
	contract *abi.Contract
	appID    uint64
	reason   error
	caller   Caller
	signer   algorand.Signer
	logger   zerolog.Logger
}

// Load looks for a generated contract description named after opts.ClientName and
// binds it to opts.AppID. It never fails: problems yield an unavailable API.
func Load(opts Options, caller Caller, signer algorand.Signer, logger zerolog.Logger) *API {
	api := &API{caller: caller, signer: signer, logger: logger}

	name := strings.TrimSpace(opts.ClientName)
	if name == "" {
		name = "Vault"
	}

	contract, path, err := findContract(opts.Dir, name)
	if err != nil {
		logger.Info().Err(err).Str("client", name).Msg("No vault client, payouts use the treasury")
		api.reason = ErrClientNotFound
		return api
	}

	appID, err := strconv.ParseUint(strings.TrimSpace(opts.AppID), 10, 64)
	if err != nil || appID == 0 {
		logger.Info().Str("client", name).Msg("Vault client found but no app id configured")
		api.reason = ErrAppIDNotSet
		return api
	}

	api.contract = contract
	api.appID = appID
	logger.Info().
		Str("contract", contract.Name).
		Str("path", path).
		Uint64("app_id", appID).
		Msg("Vault client loaded")
	return api
}

func findContract(dir, name string) (*abi.Contract, string, error) {
	candidates := []string{name + ".arc56.json", name + ".arc4.json", name + ".json"}

	for _, file := range candidates {
		path := filepath.Join(dir, file)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", path, err)
		}

		var contract abi.Contract
		if err = json.Unmarshal(data, &contract); err != nil {
			return nil, "", fmt.Errorf("decode %s: %w", path, err)
		}
		if len(contract.Methods) == 0 {
			return nil, "", fmt.Errorf("%s declares no methods", path)
		}
		return &contract, path, nil
	}
	return nil, "", fmt.Errorf("no contract description for %q in %s", name, dir)
}

func (a *API) Available() bool {
	return a.reason == nil
}

// Reason explains why the vault is unavailable, or is empty.
func (a *API) Reason() string {
	if a.reason == nil {
		return ""
	}
	return a.reason.Error()
}

func (a *API) AppID() uint64 {
	return a.appID
}

// Release pays amount base units of assetID to receiver out of the vault.
func (a *API) Release(ctx context.Context, assetID, amount uint64, receiver string) (string, error) {
	if a.reason != nil {
		return "", a.reason
	}
	method, ok := a.probe(releaseMethods)
	if !ok {
		return "", ErrMethodNotFound
	}
	to, err := types.DecodeAddress(receiver)
	if err != nil {
		return "", fmt.Errorf("invalid receiver: %w", err)
	}
	return a.call(ctx, method, callArgs{assetID: assetID, amount: amount, receiver: &to})
}

// Fund moves amount base units of assetID into the vault, when the contract supports it.
func (a *API) Fund(ctx context.Context, assetID, amount uint64) (string, error) {
	if a.reason != nil {
		return "", a.reason
	}
	method, ok := a.probe(fundMethods)
	if !ok {
		return "", ErrFundNotFound
	}
	return a.call(ctx, method, callArgs{assetID: assetID, amount: amount})
}

// probe returns the first method in names the contract declares.
func (a *API) probe(names []string) (abi.Method, bool) {
	for _, name := range names {
		if m, err := a.contract.GetMethodByName(name); err == nil {
			return m, true
		}
	}
	return abi.Method{}, false
}

func (a *API) call(ctx context.Context, method abi.Method, in callArgs) (string, error) {
	args, foreign, err := bindArgs(method, in)
	if err != nil {
		return "", err
	}

	txIDs, err := a.caller.CallMethod(ctx, a.signer, algorand.MethodCall{
		AppID:         a.appID,
		Method:        method,
		Args:          args,
		ForeignAssets: foreign,
		ExtraFee:      ExtraFee,
	})
	if err != nil {
		a.logger.Error().Err(err).Str("method", method.Name).Uint64("app_id", a.appID).Msg("Vault call failed")
		return "", err
	}

	if len(txIDs) == 0 {
		return "ok", nil
	}
	return txIDs[0], nil
}
