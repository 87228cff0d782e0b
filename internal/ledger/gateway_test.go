package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/iliyamo/cinecrypto/internal/applog"
	"github.com/iliyamo/cinecrypto/internal/model"
)

// abiBackend answers view calls by decoding the selector and packing
// whatever answer returns.  Everything else panics via the nil Backend.
type abiBackend struct {
	Backend
	parsed abi.ABI
	answer func(method string, args []interface{}) ([]interface{}, error)
}

func (b *abiBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	m, err := b.parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := m.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	out, err := b.answer(m.Name, args)
	if err != nil {
		return nil, err
	}
	outputs := m.Outputs
	if len(out) < len(outputs) {
		outputs = outputs[:len(out)]
	}
	return outputs.Pack(out...)
}

func (b *abiBackend) CodeAt(ctx context.Context, account common.Address, block *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func newTestClient(t *testing.T, answer func(string, []interface{}) ([]interface{}, error)) *Client {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	c, err := NewClient(common.HexToAddress("0x39709544a252Ef467282e57Ea74d06d724d8Dc09"),
		&abiBackend{parsed: parsed, answer: answer}, 0, applog.Discard())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestShowtimeByIDDecodes(t *testing.T) {
	price := big.NewInt(10_000_000_000_000_000)
	c := newTestClient(t, func(method string, args []interface{}) ([]interface{}, error) {
		if method != methodShowtime {
			return nil, fmt.Errorf("unexpected %s", method)
		}
		id := args[0].(*big.Int)
		return []interface{}{id, big.NewInt(3), big.NewInt(1), big.NewInt(1_790_000_000), price, big.NewInt(50), big.NewInt(2)}, nil
	})

	got, err := c.ShowtimeByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("ShowtimeByID: %v", err)
	}
	if got.ID != 7 || got.MovieID != 3 || got.TheaterID != 1 || got.StartTime != 1_790_000_000 ||
		got.TotalSeats != 50 || got.SeatsSold != 2 {
		t.Fatalf("unexpected showtime: %+v", got)
	}
	if got.TicketPriceWei.Cmp(price) != 0 {
		t.Fatalf("price = %s, want %s", got.TicketPriceWei, price)
	}
}

func TestMovieAndTicketDecode(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	c := newTestClient(t, func(method string, args []interface{}) ([]interface{}, error) {
		switch method {
		case methodMovie:
			return []interface{}{big.NewInt(2), "Dune: Part Two", true}, nil
		case methodTicket:
			return []interface{}{big.NewInt(9), big.NewInt(4), big.NewInt(12), owner, uint8(2)}, nil
		case methodTicketsByOwner:
			if args[0].(common.Address) != owner {
				return []interface{}{[]*big.Int{}}, nil
			}
			return []interface{}{[]*big.Int{big.NewInt(9), big.NewInt(11)}}, nil
		case methodSeatBitmap:
			return []interface{}{[]*big.Int{big.NewInt(0b110)}}, nil
		case methodNextMovieID:
			return []interface{}{big.NewInt(5)}, nil
		}
		return nil, fmt.Errorf("unexpected %s", method)
	})
	ctx := context.Background()

	m, err := c.MovieByID(ctx, 2)
	if err != nil || m != (model.OnChainMovie{ID: 2, Title: "Dune: Part Two", IsActive: true}) {
		t.Fatalf("MovieByID = %+v, %v", m, err)
	}
	tk, err := c.TicketByID(ctx, 9)
	if err != nil {
		t.Fatalf("TicketByID: %v", err)
	}
	if tk.ID != 9 || tk.ShowtimeID != 4 || tk.SeatID != 12 || tk.Owner != owner || tk.Status != model.TicketRefunded {
		t.Fatalf("unexpected ticket: %+v", tk)
	}
	ids, err := c.TicketIDsByOwner(ctx, owner)
	if err != nil || len(ids) != 2 || ids[0] != 9 || ids[1] != 11 {
		t.Fatalf("TicketIDsByOwner = %v, %v", ids, err)
	}
	words, err := c.SeatBitmap(ctx, 4)
	if err != nil || len(words) != 1 || words[0].Int64() != 6 {
		t.Fatalf("SeatBitmap = %v, %v", words, err)
	}
	next, err := c.NextMovieID(ctx)
	if err != nil || next != 5 {
		t.Fatalf("NextMovieID = %d, %v", next, err)
	}
}

func TestTicketWithoutStatusReadsActive(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	c := newTestClient(t, func(method string, args []interface{}) ([]interface{}, error) {
		if method != methodTicket {
			return nil, fmt.Errorf("unexpected %s", method)
		}
		return []interface{}{args[0].(*big.Int), big.NewInt(2), big.NewInt(15), owner}, nil
	})

	tk, err := c.TicketByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("TicketByID: %v", err)
	}
	if tk.ID != 3 || tk.ShowtimeID != 2 || tk.SeatID != 15 || tk.Owner != owner || tk.Status != model.TicketActive {
		t.Fatalf("unexpected ticket: %+v", tk)
	}
}

func TestReadFailureIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(string, []interface{}) ([]interface{}, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	_, err := c.NextShowtimeID(context.Background())
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
}

type dataErr struct {
	msg  string
	data interface{}
}

func (e dataErr) Error() string          { return e.msg }
func (e dataErr) ErrorData() interface{} { return e.data }

func revertData(t *testing.T, reason string) string {
	t.Helper()
	strType, err := abi.NewType("string", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	packed, err := abi.Arguments{{Type: strType}}.Pack(reason)
	if err != nil {
		t.Fatal(err)
	}
	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	return hexutil.Encode(append(selector, packed...))
}

func TestRevertReason(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"plain", errors.New("nonce too low"), "", false},
		{"message", errors.New("execution reverted: Seat already taken"), "Seat already taken", true},
		{"bare", errors.New("execution reverted"), "execution reverted", true},
		{"data", dataErr{msg: "execution reverted", data: revertData(t, "Insufficient payment")}, "Insufficient payment", true},
		{"wrapped", fmt.Errorf("send: %w", dataErr{msg: "execution reverted: x", data: revertData(t, "Showtime has passed")}), "Showtime has passed", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := RevertReason(tc.err)
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("RevertReason = %q, %v; want %q, %v", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestClassifyWriteErr(t *testing.T) {
	err := classifyWriteErr(methodBuySeat, errors.New("execution reverted: Seat already taken"))
	var rej *RejectedError
	if !errors.As(err, &rej) || rej.Reason != "Seat already taken" {
		t.Fatalf("err = %v, want RejectedError", err)
	}
	if !errors.Is(err, ErrTransactionRejected) {
		t.Fatal("RejectedError should match ErrTransactionRejected")
	}
	err = classifyWriteErr(methodBuySeat, errors.New("insufficient funds for gas"))
	if !errors.Is(err, ErrTransactionFailed) || errors.Is(err, ErrTransactionRejected) {
		t.Fatalf("err = %v, want ErrTransactionFailed", err)
	}
}
