package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrGatewayUnavailable wraps any failure to reach the ledger node or to
// decode its answer.  Callers surface "cannot load" and let the user retry.
var ErrGatewayUnavailable = errors.New("ledger gateway unavailable")

// ErrTransactionRejected matches every *RejectedError via errors.Is.
var ErrTransactionRejected = errors.New("transaction rejected")

// ErrTransactionFailed is a write that failed for a reason other than an
// on-chain revert (signing, nonce, transport).
var ErrTransactionFailed = errors.New("transaction failed")

// RejectedError is an on-chain revert.  Reason is the chain-provided
// string, unmodified, for display.
type RejectedError struct {
	Reason string
	Err    error
}

func (e *RejectedError) Error() string { return "transaction rejected: " + e.Reason }

func (e *RejectedError) Unwrap() error { return e.Err }

func (e *RejectedError) Is(target error) bool { return target == ErrTransactionRejected }

func unavailable(method string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrGatewayUnavailable, method, err)
}

// classifyWriteErr turns a submission error into a RejectedError when the
// node reports a revert, and into ErrTransactionFailed otherwise.
func classifyWriteErr(method string, err error) error {
	if err == nil {
		return nil
	}
	if reason, ok := RevertReason(err); ok {
		return &RejectedError{Reason: reason, Err: err}
	}
	return fmt.Errorf("%w: %s: %v", ErrTransactionFailed, method, err)
}

const revertMarker = "execution reverted"

// RevertReason extracts the revert string from a node error.  ABI-encoded
// Error(string) data attached to the JSON-RPC error wins; otherwise the
// text after "execution reverted:" in the message is used.  A revert with
// no reason yields "execution reverted".
func RevertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		if hexData, ok := de.ErrorData().(string); ok {
			if data, decErr := hexutil.Decode(hexData); decErr == nil {
				if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
					return reason, true
				}
			}
		}
	}
	msg := err.Error()
	i := strings.Index(msg, revertMarker)
	if i < 0 {
		return "", false
	}
	reason := strings.TrimSpace(strings.TrimPrefix(msg[i+len(revertMarker):], ":"))
	if reason == "" {
		reason = revertMarker
	}
	return reason, true
}
