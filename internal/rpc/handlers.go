package rpc

import (
	"encoding/json"
	"errors"

	"github.com/emduc/PrivatePay/internal/engine"
)

// engineError maps an engine failure to its JSON-RPC error object.
// Validation and lookup failures get distinct codes so the UI can react;
// everything else is internal.
func engineError(err error) *Error {
	switch {
	case errors.Is(err, engine.ErrInvalidPhrase):
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	case errors.Is(err, engine.ErrNoMasterIdentity):
		return &Error{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, engine.ErrTransactionNotFound):
		return &Error{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, engine.ErrAlreadyProcessing):
		return &Error{Code: CodeConflict, Message: err.Error()}
	case errors.Is(err, engine.ErrUserRejected):
		return &Error{Code: CodeRejected, Message: err.Error()}
	default:
		return &Error{Code: CodeInternalError, Message: err.Error()}
	}
}

// ── Session endpoints ───────────────────────────────────────────────────

func (s *Server) handleConnect(req *Request) (interface{}, *Error) {
	addr, err := s.engine.Connect()
	if err != nil {
		return nil, engineError(err)
	}
	// An empty address is the recoverable "not connected" state, not an
	// error.
	return &AccountResult{Address: addr}, nil
}

func (s *Server) handleGetAccounts(req *Request) (interface{}, *Error) {
	return &AccountResult{Address: s.engine.CurrentAccount()}, nil
}

func (s *Server) handlePersonalSign(req *Request) (interface{}, *Error) {
	var params SignParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Message == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "message is required"}
	}

	sig, err := s.engine.PersonalSign(params.Message)
	if err != nil {
		return nil, engineError(err)
	}
	return &SignResult{Signature: sig}, nil
}

func (s *Server) handleImportWallet(req *Request) (interface{}, *Error) {
	var params ImportParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.SeedPhrase == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "seedPhrase is required"}
	}

	addr, err := s.engine.ImportMaster(params.SeedPhrase)
	if err != nil {
		return nil, engineError(err)
	}
	return &ImportResult{Success: true, MasterAddress: addr}, nil
}

func (s *Server) handleGetWalletInfo(req *Request) (interface{}, *Error) {
	info, err := s.engine.Info()
	if err != nil {
		return nil, engineError(err)
	}
	return info, nil
}

func (s *Server) handleGetAllSessions(req *Request) (interface{}, *Error) {
	sessions, err := s.engine.Sessions()
	if err != nil {
		return nil, engineError(err)
	}
	return &SessionsResult{Sessions: sessions}, nil
}

func (s *Server) handleSwitchToSession(req *Request) (interface{}, *Error) {
	var params SessionParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.SessionNumber == 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "sessionNumber is required"}
	}

	addr, err := s.engine.SwitchSession(params.SessionNumber)
	if err != nil {
		return nil, engineError(err)
	}
	return &SwitchSessionResult{Success: true, Address: addr}, nil
}

func (s *Server) handleSetAddressSpoofing(req *Request) (interface{}, *Error) {
	var params SpoofingParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if err := s.engine.SetSpoofing(params.Enabled); err != nil {
		return nil, engineError(err)
	}
	return &SpoofingResult{Success: true, Enabled: params.Enabled}, nil
}

// ── Chain endpoints ─────────────────────────────────────────────────────

func (s *Server) handleGetChainID(req *Request) (interface{}, *Error) {
	return &ChainIDResult{ChainID: s.engine.ChainID()}, nil
}

func (s *Server) handleGetNetworkVersion(req *Request) (interface{}, *Error) {
	return &NetworkVersionResult{NetworkVersion: s.engine.NetworkVersion()}, nil
}

func (s *Server) handleSwitchChain(req *Request) (interface{}, *Error) {
	var params ChainParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.ChainID == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "chainId is required"}
	}

	// Accepted unconditionally; there is no supported-chain list.
	s.engine.SwitchChain(params.ChainID)
	return &SuccessResult{Success: true}, nil
}

// handleGetBalance answers with the fabricated sandbox balances rather
// than a node query, so pages see a funded wallet immediately.
func (s *Server) handleGetBalance(req *Request) (interface{}, *Error) {
	var params BalanceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Address == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "address is required"}
	}
	return &BalanceResult{Balance: s.engine.SyntheticBalance(params.Address)}, nil
}

// ── Transaction endpoints ───────────────────────────────────────────────

// handleSendTransaction queues the transaction and blocks until the
// approval flow resolves it: the broadcast hash on approval, an error on
// rejection or pipeline failure. The long server write timeout is what
// lets this stay open.
func (s *Server) handleSendTransaction(req *Request) (interface{}, *Error) {
	var params SendTxParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if len(params.TxParams) == 0 {
		return nil, &Error{Code: CodeInvalidParams, Message: "txParams is required"}
	}

	id, result := s.engine.Enqueue(params.TxParams)
	s.logger.Debug().Str("tx_id", id).Msg("transaction queued, awaiting approval")

	res := <-result
	if res.Err != nil {
		return nil, engineError(res.Err)
	}
	return &SendTxResult{TxHash: res.Hash.String()}, nil
}

func (s *Server) handleGetPendingTransactions(req *Request) (interface{}, *Error) {
	list := s.engine.PendingTransactions()
	if list == nil {
		list = []engine.PendingInfo{}
	}
	return &PendingResult{Transactions: list}, nil
}

func (s *Server) handleApproveTransaction(req *Request) (interface{}, *Error) {
	var params TxIDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.TxID == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "txId is required"}
	}

	if err := s.engine.Approve(params.TxID); err != nil {
		return nil, engineError(err)
	}
	// The approval is acknowledged immediately; submission continues in
	// the background and reports through getTransactionProgress.
	return &SuccessResult{Success: true}, nil
}

func (s *Server) handleRejectTransaction(req *Request) (interface{}, *Error) {
	var params TxIDParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.TxID == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "txId is required"}
	}

	if err := s.engine.Reject(params.TxID); err != nil {
		return nil, engineError(err)
	}
	return &SuccessResult{Success: true}, nil
}

func (s *Server) handleGetTransactionProgress(req *Request) (interface{}, *Error) {
	p := s.engine.Progress()
	if p == nil {
		// No submission in flight; the response still carries an explicit
		// null result rather than omitting the member.
		return json.RawMessage("null"), nil
	}
	return p, nil
}
