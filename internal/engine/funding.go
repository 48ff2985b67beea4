package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/emduc/PrivatePay/internal/ethclient"
	"github.com/emduc/PrivatePay/internal/wallet"
	"github.com/emduc/PrivatePay/pkg/eth"
)

// fundingTransferGas is the gas limit of a plain value transfer.
const fundingTransferGas = 21000

// feePerUnit picks the fee to budget with: max fee, else legacy gas
// price, else the configured fallback.
func (e *Engine) feePerUnit(fee *ethclient.FeeData) *big.Int {
	if per := fee.PerGas(); per != nil {
		return per
	}
	return e.cfg.FallbackGasPrice
}

// ensureFunded checks whether the session key can afford the transaction
// and, if not, moves the shortfall (plus a safety buffer) into it from the
// funding source. The pool withdrawal is the primary strategy; a direct
// transfer from the master key is the fallback. Both wait for the funding
// receipt, and the session balance is polled afterwards because balance
// visibility can lag the receipt.
func (e *Engine) ensureFunded(ctx context.Context, key *wallet.SessionKey, gasUnits uint64, fee *ethclient.FeeData, value *big.Int) error {
	if value == nil {
		value = new(big.Int)
	}
	gasCost := new(big.Int).Mul(new(big.Int).SetUint64(gasUnits), e.feePerUnit(fee))
	totalNeeded := new(big.Int).Add(gasCost, value)

	balance, err := e.chain.BalanceAt(ctx, key.Address())
	if err != nil {
		return fmt.Errorf("session balance: %w", err)
	}
	if balance.Cmp(totalNeeded) >= 0 {
		return nil
	}

	shortfall := new(big.Int).Sub(totalNeeded, balance)
	shortfall.Add(shortfall, e.cfg.FundingBuffer)

	e.mu.Lock()
	master := e.master
	e.mu.Unlock()
	if master == nil {
		return ErrNoMasterIdentity
	}

	available, err := e.sourceBalance(ctx, master.Address())
	if err != nil {
		return fmt.Errorf("funding source balance: %w", err)
	}
	if available.Cmp(shortfall) < 0 {
		return &InsufficientFundsError{Needed: shortfall, Available: available}
	}

	fundingKey, err := master.FundingKey()
	if err != nil {
		return &DerivationError{Index: 0, Err: err}
	}
	defer fundingKey.Zero()

	if err := e.transferShortfall(ctx, fundingKey, key.Address(), shortfall, fee); err != nil {
		return err
	}
	return e.verifyFunded(ctx, key.Address(), totalNeeded)
}

// sourceBalance reads the funding source's available balance: the pool
// contract's per-depositor balance when a pool is configured, the master
// key's direct balance otherwise.
func (e *Engine) sourceBalance(ctx context.Context, master eth.Address) (*big.Int, error) {
	if e.cfg.PoolAddress == nil {
		return e.chain.BalanceAt(ctx, master)
	}
	out, err := e.chain.CallContract(ctx, ethclient.CallMsg{
		From: master.String(),
		To:   e.cfg.PoolAddress,
		Data: eth.PackCall("balanceOf(address)", master),
	})
	if err != nil {
		return nil, fmt.Errorf("pool balanceOf: %w", err)
	}
	return new(big.Int).SetBytes(out), nil
}

// transferShortfall moves the shortfall to the session address, trying the
// pool withdrawal first and falling back to a direct transfer. Strategy
// failures accumulate so a double failure reports both causes.
func (e *Engine) transferShortfall(ctx context.Context, fundingKey *wallet.SessionKey, to eth.Address, amount *big.Int, fee *ethclient.FeeData) error {
	var primaryErr error
	if e.cfg.PoolAddress != nil {
		primaryErr = e.withdrawFromPool(ctx, fundingKey, to, amount, fee)
		if primaryErr == nil {
			return nil
		}
		e.logger.Warn().Err(primaryErr).Msg("pool withdrawal failed, trying direct transfer")
	}

	if err := e.directTransfer(ctx, fundingKey, to, amount, fee); err != nil {
		if primaryErr != nil {
			return errors.Join(primaryErr, err)
		}
		return err
	}
	return nil
}

func (e *Engine) withdrawFromPool(ctx context.Context, fundingKey *wallet.SessionKey, to eth.Address, amount *big.Int, fee *ethclient.FeeData) error {
	data := eth.PackCall("withdrawTo(address,uint256)", to, amount)
	gas, err := e.chain.EstimateGas(ctx, ethclient.CallMsg{
		From: fundingKey.Address().String(),
		To:   e.cfg.PoolAddress,
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("pool withdrawal estimate: %w", err)
	}
	hash, err := e.sendFunding(ctx, fundingKey, *e.cfg.PoolAddress, nil, data, gas, fee)
	if err != nil {
		return fmt.Errorf("pool withdrawal: %w", err)
	}
	e.logger.Info().
		Str("strategy", "pool_withdrawal").
		Str("hash", hash.String()).
		Str("amount_wei", amount.String()).
		Msg("funding transfer confirmed")
	return nil
}

func (e *Engine) directTransfer(ctx context.Context, fundingKey *wallet.SessionKey, to eth.Address, amount *big.Int, fee *ethclient.FeeData) error {
	hash, err := e.sendFunding(ctx, fundingKey, to, amount, nil, fundingTransferGas, fee)
	if err != nil {
		return fmt.Errorf("direct transfer: %w", err)
	}
	e.logger.Info().
		Str("strategy", "direct_transfer").
		Str("hash", hash.String()).
		Str("amount_wei", amount.String()).
		Msg("funding transfer confirmed")
	return nil
}

// sendFunding signs, broadcasts, and waits out one funding transaction.
func (e *Engine) sendFunding(ctx context.Context, fundingKey *wallet.SessionKey, to eth.Address, value *big.Int, data []byte, gas uint64, fee *ethclient.FeeData) (eth.Hash, error) {
	nonce, err := e.chain.PendingNonceAt(ctx, fundingKey.Address())
	if err != nil {
		return eth.Hash{}, fmt.Errorf("funding nonce: %w", err)
	}
	tx, err := e.buildTx(nonce, &to, value, data, gas, fee)
	if err != nil {
		return eth.Hash{}, err
	}
	raw, err := fundingKey.SignTx(tx)
	if err != nil {
		return eth.Hash{}, fmt.Errorf("sign funding tx: %w", err)
	}
	hash, err := e.chain.SendRawTransaction(ctx, raw)
	if err != nil {
		return eth.Hash{}, fmt.Errorf("broadcast funding tx: %w", err)
	}
	receipt, err := e.chain.WaitMined(ctx, hash, e.cfg.ConfirmInterval, e.cfg.ConfirmAttempts)
	if err != nil {
		return eth.Hash{}, fmt.Errorf("funding tx %s: %w", hash, err)
	}
	if !receipt.Succeeded() {
		return eth.Hash{}, fmt.Errorf("funding tx %s reverted", hash)
	}
	return hash, nil
}

// verifyFunded polls the session balance until it covers totalNeeded or
// the attempt budget runs out.
func (e *Engine) verifyFunded(ctx context.Context, addr eth.Address, totalNeeded *big.Int) error {
	for attempt := 1; attempt <= e.cfg.VerifyAttempts; attempt++ {
		balance, err := e.chain.BalanceAt(ctx, addr)
		if err == nil && balance.Cmp(totalNeeded) >= 0 {
			return nil
		}
		if attempt == e.cfg.VerifyAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.cfg.VerifyInterval):
		}
	}
	return &FundingVerificationError{Attempts: e.cfg.VerifyAttempts}
}
