package ethclient

import (
	"encoding/json"
	"math/big"

	"github.com/emduc/PrivatePay/pkg/eth"
)

// CallMsg describes a call for eth_estimateGas and eth_call. The From
// field is the string the caller supplied, passed through untouched so
// estimation reflects exactly what the page requested.
type CallMsg struct {
	From  string
	To    *eth.Address
	Value *big.Int
	Data  []byte
}

// MarshalJSON encodes the call as a JSON-RPC call object, omitting
// unset fields.
func (m CallMsg) MarshalJSON() ([]byte, error) {
	obj := make(map[string]string)
	if m.From != "" {
		obj["from"] = m.From
	}
	if m.To != nil {
		obj["to"] = m.To.String()
	}
	if m.Value != nil && m.Value.Sign() != 0 {
		obj["value"] = eth.EncodeBig(m.Value)
	}
	if len(m.Data) > 0 {
		obj["data"] = eth.EncodeBytes(m.Data)
	}
	return json.Marshal(obj)
}

// Receipt is the subset of a transaction receipt the engine cares about.
type Receipt struct {
	TxHash      eth.Hash
	BlockNumber uint64
	GasUsed     uint64
	Status      uint64 // 1 = success, 0 = reverted
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r.Status == 1
}

// UnmarshalJSON decodes the hex-quantity receipt fields.
func (r *Receipt) UnmarshalJSON(data []byte) error {
	var raw struct {
		TransactionHash string `json:"transactionHash"`
		BlockNumber     string `json:"blockNumber"`
		GasUsed         string `json:"gasUsed"`
		Status          string `json:"status"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	hash, err := eth.ParseHash(raw.TransactionHash)
	if err != nil {
		return err
	}
	r.TxHash = hash

	if raw.BlockNumber != "" {
		if r.BlockNumber, err = eth.DecodeUint64(raw.BlockNumber); err != nil {
			return err
		}
	}
	if raw.GasUsed != "" {
		if r.GasUsed, err = eth.DecodeUint64(raw.GasUsed); err != nil {
			return err
		}
	}
	if raw.Status != "" {
		if r.Status, err = eth.DecodeUint64(raw.Status); err != nil {
			return err
		}
	}
	return nil
}

// FeeData holds the current fee market values.
type FeeData struct {
	GasPrice             *big.Int // legacy gas price
	MaxFeePerGas         *big.Int // nil pre-EIP-1559
	MaxPriorityFeePerGas *big.Int // nil pre-EIP-1559
}

// PerGas returns the fee per gas unit to budget with: the max fee when
// available, otherwise the legacy gas price, otherwise nil.
func (f *FeeData) PerGas() *big.Int {
	if f == nil {
		return nil
	}
	if f.MaxFeePerGas != nil {
		return f.MaxFeePerGas
	}
	return f.GasPrice
}
