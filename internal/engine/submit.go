package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/emduc/PrivatePay/internal/ethclient"
	"github.com/emduc/PrivatePay/pkg/eth"
)

// totalSteps is the number of pipeline steps reported through progress.
const totalSteps = 5

// txParams is the typed view of a caller's transaction parameter map.
type txParams struct {
	From  string
	To    *eth.Address
	Value *big.Int
	Data  []byte
	Gas   uint64 // 0 when the caller left the limit to estimation
}

// parseTxParams extracts the fields the pipeline needs. Unknown keys are
// ignored; malformed known keys fail the submission.
func parseTxParams(params map[string]interface{}) (*txParams, error) {
	p := &txParams{}

	if v, ok := params["from"].(string); ok {
		p.From = v
	}
	if v, ok := params["to"].(string); ok && v != "" {
		to, err := eth.ParseAddress(v)
		if err != nil {
			return nil, fmt.Errorf("to address: %w", err)
		}
		p.To = &to
	}
	if v, ok := params["value"].(string); ok && v != "" {
		value, err := eth.DecodeBig(v)
		if err != nil {
			return nil, fmt.Errorf("value: %w", err)
		}
		p.Value = value
	}
	dataField, ok := params["data"].(string)
	if !ok {
		dataField, _ = params["input"].(string)
	}
	if dataField != "" {
		data, err := eth.DecodeBytes(dataField)
		if err != nil {
			return nil, fmt.Errorf("data: %w", err)
		}
		p.Data = data
	}
	if v, ok := params["gas"].(string); ok && v != "" {
		gas, err := eth.DecodeUint64(v)
		if err != nil {
			return nil, fmt.Errorf("gas: %w", err)
		}
		p.Gas = gas
	}
	return p, nil
}

// submit runs the approved transaction through the pipeline on a detached
// goroutine: estimate on the original parameters, rewrite under spoofing,
// fund the session key, then sign and broadcast. The caller is resolved
// with the hash as soon as broadcast succeeds; confirmation is awaited
// afterwards and reported through progress only.
func (e *Engine) submit(p *PendingTx) {
	ctx := context.Background()
	logger := e.logger.With().Str("tx_id", p.ID).Logger()

	e.mu.Lock()
	key := e.session
	spoofing := e.spoofing
	e.mu.Unlock()

	fail := func(err error) {
		logger.Error().Err(err).Msg("submission failed")
		e.failProgress(p.ID, err.Error())
		p.result <- TxResult{Err: err}
		e.remove(p.ID)
	}

	if key == nil {
		fail(ErrNoMasterIdentity)
		return
	}

	e.setProgress(p.ID, 1, totalSteps, "preparing transaction")
	parsed, err := parseTxParams(p.Params)
	if err != nil {
		fail(err)
		return
	}

	// Estimation runs against the original parameters and the original
	// sender so gas accounting reflects what the page requested, not the
	// rewritten form.
	e.setProgress(p.ID, 2, totalSteps, "estimating gas")
	gas := parsed.Gas
	if gas == 0 {
		gas, err = e.chain.EstimateGas(ctx, ethclient.CallMsg{
			From:  parsed.From,
			To:    parsed.To,
			Value: parsed.Value,
			Data:  parsed.Data,
		})
		if err != nil {
			fail(&GasEstimationError{Err: err})
			return
		}
	}

	if spoofing {
		rewritten := Rewrite(p.Params, DecoyAddress, key.Address()).(map[string]interface{})
		parsed, err = parseTxParams(rewritten)
		if err != nil {
			fail(fmt.Errorf("rewritten params: %w", err))
			return
		}
	}

	fee, err := e.chain.FeeData(ctx)
	if err != nil {
		// The fallback gas price still lets the transaction through a
		// node with a broken fee API.
		logger.Warn().Err(err).Msg("fee data unavailable, using fallback gas price")
		fee = nil
	}

	e.setProgress(p.ID, 3, totalSteps, "funding session wallet")
	if err := e.ensureFunded(ctx, key, gas, fee, parsed.Value); err != nil {
		fail(err)
		return
	}

	e.setProgress(p.ID, 4, totalSteps, "submitting transaction")
	nonce, err := e.chain.PendingNonceAt(ctx, key.Address())
	if err != nil {
		fail(fmt.Errorf("session nonce: %w", err))
		return
	}
	tx, err := e.buildTx(nonce, parsed.To, parsed.Value, parsed.Data, gas, fee)
	if err != nil {
		fail(err)
		return
	}
	raw, err := key.SignTx(tx)
	if err != nil {
		fail(fmt.Errorf("sign transaction: %w", err))
		return
	}
	hash, err := e.chain.SendRawTransaction(ctx, raw)
	if err != nil {
		fail(&BroadcastError{Err: err})
		return
	}

	logger.Info().Str("hash", hash.String()).Msg("transaction broadcast")
	e.setProgress(p.ID, 5, totalSteps, "awaiting confirmation")
	e.setProgressHash(p.ID, hash.String())
	p.result <- TxResult{Hash: hash}
	e.remove(p.ID)

	// The hash is already with the caller; from here on the outcome is
	// visible through progress only.
	receipt, err := e.chain.WaitMined(ctx, hash, e.cfg.ConfirmInterval, e.cfg.ConfirmAttempts)
	switch {
	case err != nil:
		logger.Error().Err(err).Msg("confirmation wait failed")
		e.failProgress(p.ID, err.Error())
	case !receipt.Succeeded():
		logger.Error().Str("hash", hash.String()).Msg("transaction reverted")
		e.failProgress(p.ID, "transaction reverted")
	default:
		logger.Info().Str("hash", hash.String()).Uint64("block", receipt.BlockNumber).Msg("transaction confirmed")
		e.completeProgress(p.ID, hash.String())
	}
}

// buildTx assembles an EIP-1559 transaction from the engine's chain
// context and the node's fee data.
func (e *Engine) buildTx(nonce uint64, to *eth.Address, value *big.Int, data []byte, gas uint64, fee *ethclient.FeeData) (*eth.DynamicFeeTx, error) {
	e.mu.Lock()
	chainIDHex := e.chainID
	e.mu.Unlock()

	chainID, err := eth.DecodeBig(chainIDHex)
	if err != nil {
		return nil, fmt.Errorf("chain id %q: %w", chainIDHex, err)
	}

	feeCap := e.feePerUnit(fee)
	tip := feeCap
	if fee != nil && fee.MaxPriorityFeePerGas != nil {
		tip = fee.MaxPriorityFeePerGas
	}
	if value == nil {
		value = new(big.Int)
	}
	return &eth.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        to,
		Value:     value,
		Data:      data,
	}, nil
}
