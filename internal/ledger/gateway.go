// Package ledger is the typed gateway to the ticketing contract.  Reads
// are view calls and never mutate state; writes need a signer from the
// connected wallet and carry the exact payment value.  The contract has
// no batch queries, so list views are built by enumerating ids (scan.go).
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinecrypto/internal/model"
)

// Reader is the read side of the contract.  All methods return an error
// wrapping ErrGatewayUnavailable on RPC or decoding failure.
type Reader interface {
	NextMovieID(ctx context.Context) (uint64, error)
	MovieByID(ctx context.Context, id uint64) (model.OnChainMovie, error)
	NextShowtimeID(ctx context.Context) (uint64, error)
	ShowtimeByID(ctx context.Context, id uint64) (model.Showtime, error)
	SeatBitmap(ctx context.Context, showtimeID uint64) ([]*big.Int, error)
	TicketIDsByOwner(ctx context.Context, owner common.Address) ([]uint64, error)
	TicketByID(ctx context.Context, id uint64) (model.Ticket, error)
}

// Writer is the state-changing side.  Submission errors are *RejectedError
// for reverts and ErrTransactionFailed otherwise.  WaitMined blocks until
// the transaction is included and reports a reverted receipt as a
// *RejectedError.
type Writer interface {
	BuySeat(ctx context.Context, opts *bind.TransactOpts, showtimeID, seatID uint64, value *big.Int) (*types.Transaction, error)
	BuySeats(ctx context.Context, opts *bind.TransactOpts, showtimeID uint64, seatIDs []uint64, value *big.Int) (*types.Transaction, error)
	RefundTicket(ctx context.Context, opts *bind.TransactOpts, ticketID uint64) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// Gateway is both sides.
type Gateway interface {
	Reader
	Writer
}

// Backend is what the client needs from a node connection.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Client implements Gateway over a bound contract.
type Client struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	backend  Backend
	timeout  time.Duration
	logger   *logrus.Logger
}

// Dial connects to the JSON-RPC endpoint at url.
func Dial(ctx context.Context, url string) (*ethclient.Client, error) {
	c, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, unavailable("dial", err)
	}
	return c, nil
}

// NewClient binds the contract at address.  timeout bounds each read call;
// zero means no extra deadline beyond the caller's context.
func NewClient(address common.Address, backend Backend, timeout time.Duration, logger *logrus.Logger) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	return &Client{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:  backend,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// Address is the contract address.
func (c *Client) Address() common.Address { return c.address }

func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, unavailable(method, err)
	}
	return out, nil
}

func (c *Client) NextMovieID(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, methodNextMovieID)
	if err != nil {
		return 0, err
	}
	return decodeUint64(methodNextMovieID, out, 0)
}

func (c *Client) NextShowtimeID(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, methodNextShowtimeID)
	if err != nil {
		return 0, err
	}
	return decodeUint64(methodNextShowtimeID, out, 0)
}

func (c *Client) MovieByID(ctx context.Context, id uint64) (model.OnChainMovie, error) {
	out, err := c.call(ctx, methodMovie, u256(id))
	if err != nil {
		return model.OnChainMovie{}, err
	}
	if len(out) != 3 {
		return model.OnChainMovie{}, unavailable(methodMovie, fmt.Errorf("expected 3 outputs, got %d", len(out)))
	}
	movieID, err := decodeUint64(methodMovie, out, 0)
	if err != nil {
		return model.OnChainMovie{}, err
	}
	title, ok1 := out[1].(string)
	active, ok2 := out[2].(bool)
	if !ok1 || !ok2 {
		return model.OnChainMovie{}, unavailable(methodMovie, fmt.Errorf("unexpected output types %T, %T", out[1], out[2]))
	}
	return model.OnChainMovie{ID: movieID, Title: title, IsActive: active}, nil
}

func (c *Client) ShowtimeByID(ctx context.Context, id uint64) (model.Showtime, error) {
	out, err := c.call(ctx, methodShowtime, u256(id))
	if err != nil {
		return model.Showtime{}, err
	}
	if len(out) != 7 {
		return model.Showtime{}, unavailable(methodShowtime, fmt.Errorf("expected 7 outputs, got %d", len(out)))
	}
	var vals [7]uint64
	for i := range vals {
		if i == 4 {
			continue // price stays a big.Int
		}
		if vals[i], err = decodeUint64(methodShowtime, out, i); err != nil {
			return model.Showtime{}, err
		}
	}
	price, ok := out[4].(*big.Int)
	if !ok || price == nil {
		return model.Showtime{}, unavailable(methodShowtime, fmt.Errorf("unexpected price type %T", out[4]))
	}
	return model.Showtime{
		ID:             vals[0],
		MovieID:        vals[1],
		TheaterID:      vals[2],
		StartTime:      int64(vals[3]),
		TicketPriceWei: new(big.Int).Set(price),
		TotalSeats:     vals[5],
		SeatsSold:      vals[6],
	}, nil
}

func (c *Client) SeatBitmap(ctx context.Context, showtimeID uint64) ([]*big.Int, error) {
	out, err := c.call(ctx, methodSeatBitmap, u256(showtimeID))
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, unavailable(methodSeatBitmap, fmt.Errorf("expected 1 output, got %d", len(out)))
	}
	words, ok := out[0].([]*big.Int)
	if !ok {
		return nil, unavailable(methodSeatBitmap, fmt.Errorf("unexpected output type %T", out[0]))
	}
	return words, nil
}

func (c *Client) TicketIDsByOwner(ctx context.Context, owner common.Address) ([]uint64, error) {
	out, err := c.call(ctx, methodTicketsByOwner, owner)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, unavailable(methodTicketsByOwner, fmt.Errorf("expected 1 output, got %d", len(out)))
	}
	raw, ok := out[0].([]*big.Int)
	if !ok {
		return nil, unavailable(methodTicketsByOwner, fmt.Errorf("unexpected output type %T", out[0]))
	}
	ids := make([]uint64, 0, len(raw))
	for _, v := range raw {
		if v == nil || !v.IsUint64() {
			return nil, unavailable(methodTicketsByOwner, fmt.Errorf("ticket id out of range: %v", v))
		}
		ids = append(ids, v.Uint64())
	}
	return ids, nil
}

// TicketByID reads one ticket.  Contracts that predate ticket status
// return four words; those tickets read as Active.
func (c *Client) TicketByID(ctx context.Context, id uint64) (model.Ticket, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	input, err := c.abi.Pack(methodTicket, u256(id))
	if err != nil {
		return model.Ticket{}, unavailable(methodTicket, err)
	}
	raw, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &c.address, Data: input}, nil)
	if err != nil {
		return model.Ticket{}, unavailable(methodTicket, err)
	}
	outputs := c.abi.Methods[methodTicket].Outputs
	switch len(raw) {
	case 32 * len(outputs):
	case 32 * (len(outputs) - 1):
		outputs = outputs[:len(outputs)-1]
	default:
		return model.Ticket{}, unavailable(methodTicket, fmt.Errorf("unexpected %d-byte answer", len(raw)))
	}
	out, err := outputs.Unpack(raw)
	if err != nil {
		return model.Ticket{}, unavailable(methodTicket, err)
	}

	var vals [3]uint64
	for i := range vals {
		if vals[i], err = decodeUint64(methodTicket, out, i); err != nil {
			return model.Ticket{}, err
		}
	}
	owner, ok := out[3].(common.Address)
	if !ok {
		return model.Ticket{}, unavailable(methodTicket, fmt.Errorf("unexpected owner type %T", out[3]))
	}
	status := model.TicketActive
	if len(out) == 5 {
		v, ok := out[4].(uint8)
		if !ok {
			return model.Ticket{}, unavailable(methodTicket, fmt.Errorf("unexpected status type %T", out[4]))
		}
		status = model.TicketStatus(v)
	}
	return model.Ticket{
		ID:         vals[0],
		ShowtimeID: vals[1],
		SeatID:     vals[2],
		Owner:      owner,
		Status:     status,
	}, nil
}

func (c *Client) BuySeat(ctx context.Context, opts *bind.TransactOpts, showtimeID, seatID uint64, value *big.Int) (*types.Transaction, error) {
	return c.transact(ctx, opts, value, methodBuySeat, u256(showtimeID), u256(seatID))
}

func (c *Client) BuySeats(ctx context.Context, opts *bind.TransactOpts, showtimeID uint64, seatIDs []uint64, value *big.Int) (*types.Transaction, error) {
	ids := make([]*big.Int, len(seatIDs))
	for i, s := range seatIDs {
		ids[i] = u256(s)
	}
	return c.transact(ctx, opts, value, methodBuySeats, u256(showtimeID), ids)
}

func (c *Client) RefundTicket(ctx context.Context, opts *bind.TransactOpts, ticketID uint64) (*types.Transaction, error) {
	return c.transact(ctx, opts, nil, methodRefund, u256(ticketID))
}

func (c *Client) transact(ctx context.Context, opts *bind.TransactOpts, value *big.Int, method string, args ...interface{}) (*types.Transaction, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: %s: no signer", ErrTransactionFailed, method)
	}
	o := *opts
	o.Context = ctx
	o.Value = value
	tx, err := c.contract.Transact(&o, method, args...)
	if err != nil {
		return nil, classifyWriteErr(method, err)
	}
	c.logger.WithFields(logrus.Fields{"method": method, "tx_hash": tx.Hash().Hex()}).Debug("ledger: transaction sent")
	return tx, nil
}

// WaitMined blocks until tx is mined.  A reverted receipt is replayed as a
// call at its block to recover the revert reason.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, unavailable("waitMined", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, &RejectedError{Reason: c.replayRevert(ctx, tx, receipt)}
	}
	return receipt, nil
}

func (c *Client) replayRevert(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) string {
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return revertMarker
	}
	msg := ethereum.CallMsg{From: from, To: tx.To(), Gas: tx.Gas(), Value: tx.Value(), Data: tx.Data()}
	_, callErr := c.backend.CallContract(ctx, msg, receipt.BlockNumber)
	if reason, ok := RevertReason(callErr); ok {
		return reason
	}
	return revertMarker
}

func u256(v uint64) *big.Int { return new(big.Int).SetUint64(v) }

func decodeUint64(method string, out []interface{}, i int) (uint64, error) {
	if i >= len(out) {
		return 0, unavailable(method, fmt.Errorf("missing output %d", i))
	}
	b, ok := out[i].(*big.Int)
	if !ok || b == nil {
		return 0, unavailable(method, fmt.Errorf("output %d: unexpected type %T", i, out[i]))
	}
	if !b.IsUint64() {
		return 0, unavailable(method, fmt.Errorf("output %d: %s overflows uint64", i, b))
	}
	return b.Uint64(), nil
}
