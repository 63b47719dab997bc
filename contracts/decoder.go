package contracts

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// DecodeFirstMatch walks logs in chain order and returns the decoded
// arguments of the first log matching eventName. Logs that fail to decode
// belong to other contracts or events sharing the transaction; skipping
// them silently is the designed disambiguation, not an error path. When no
// log matches, (nil, nil) is returned and the caller falls back to a
// synthetic identifier.
func DecodeFirstMatch(logs []ethtypes.Log, contractABI abi.ABI, eventName string) (map[string]interface{}, error) {
	event, ok := contractABI.Events[eventName]
	if !ok {
		return nil, fmt.Errorf("event %s not present in ABI", eventName)
	}

	for _, log := range logs {
		if len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}

		args := make(map[string]interface{})
		indexed := indexedArguments(event)
		if len(log.Topics)-1 != len(indexed) {
			continue
		}
		if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
			continue
		}
		if err := contractABI.UnpackIntoMap(args, eventName, log.Data); err != nil {
			continue
		}
		return args, nil
	}
	return nil, nil
}

// PaymentID extracts the bytes32 payment identifier from decoded event
// arguments, rendered as 0x-prefixed hex.
func PaymentID(args map[string]interface{}) (string, bool) {
	raw, ok := args["id"]
	if !ok {
		return "", false
	}
	id, ok := raw.([32]byte)
	if !ok {
		// Indexed bytes32 topics decode as common.Hash.
		if h, hok := raw.(interface{ Bytes() []byte }); hok {
			return hexutil.Encode(h.Bytes()), true
		}
		return "", false
	}
	return hexutil.Encode(id[:]), true
}

func indexedArguments(event abi.Event) abi.Arguments {
	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
