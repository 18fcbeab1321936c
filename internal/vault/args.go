package vault

import (
	"fmt"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/abi"
	"github.com/algorand/go-algorand-sdk/v2/types"
)

type callArgs struct {
	assetID  uint64
	amount   uint64
	receiver *types.Address
}

type argRole int

const (
	roleUnknown argRole = iota
	roleAsset
	roleAmount
	roleReceiver
)

var roleByName = map[string]argRole{
	"asset":       roleAsset,
	"assetid":     roleAsset,
	"xferasset":   roleAsset,
	"usdtassetid": roleAsset,
	"amount":      roleAmount,
	"amt":         roleAmount,
	"assetamount": roleAmount,
	"to":          roleReceiver,
	"receiver":    roleReceiver,
	"recipient":   roleReceiver,
	"account":     roleReceiver,
	"address":     roleReceiver,
}

func roleOf(name string) argRole {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(name))
	return roleByName[key]
}

// bindArgs maps the call values onto the method's declared arguments by name and type.
// The asset is always added to the foreign assets so inner transfers can reference it.
func bindArgs(method abi.Method, in callArgs) ([]interface{}, []uint64, error) {
	args := make([]interface{}, 0, len(method.Args))
	assetRef := false

	for _, arg := range method.Args {
		switch roleOf(arg.Name) {
		case roleAsset:
			switch arg.Type {
			case abi.AssetReferenceType:
				assetRef = true
				args = append(args, in.assetID)
			case "uint64":
				args = append(args, in.assetID)
			default:
				return nil, nil, unsupported(method, arg)
			}

		case roleAmount:
			if arg.Type != "uint64" {
				return nil, nil, unsupported(method, arg)
			}
			args = append(args, in.amount)

		case roleReceiver:
			if in.receiver == nil {
				return nil, nil, fmt.Errorf("%w: %s needs a receiver", ErrUnsupportedMethod, method.Name)
			}
			switch arg.Type {
			case abi.AccountReferenceType:
				args = append(args, *in.receiver)
			case "address":
				args = append(args, in.receiver[:])
			default:
				return nil, nil, unsupported(method, arg)
			}

		default:
			return nil, nil, unsupported(method, arg)
		}
	}

	var foreign []uint64
	if !assetRef {
		foreign = []uint64{in.assetID}
	}
	return args, foreign, nil
}

func unsupported(method abi.Method, arg abi.Arg) error {
	return fmt.Errorf("%w: %s argument %q of type %s", ErrUnsupportedMethod, method.Name, arg.Name, arg.Type)
}
