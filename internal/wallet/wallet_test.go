package wallet

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/iliyamo/cinecrypto/internal/applog"
)

var sepolia = big.NewInt(11155111)

func TestDisconnectedSessionRefusesSigner(t *testing.T) {
	s := NewSession(sepolia, "", applog.Discard())
	if _, err := s.AcquireSigner(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	if st := s.Status(); st.Connected || st.KeystoreConfigured || st.ChainID != "11155111" {
		t.Fatalf("status = %+v", st)
	}
}

func TestConnectHexKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	want := crypto.PubkeyToAddress(key.PublicKey)
	s := NewSession(sepolia, "", applog.Discard())

	if err := s.ConnectHexKey(hexutil.Encode(crypto.FromECDSA(key))); err != nil {
		t.Fatalf("ConnectHexKey: %v", err)
	}
	opts, err := s.AcquireSigner(context.Background())
	if err != nil {
		t.Fatalf("AcquireSigner: %v", err)
	}
	if opts.From != want {
		t.Fatalf("From = %s, want %s", opts.From.Hex(), want.Hex())
	}

	s.Disconnect()
	if s.Connected() {
		t.Fatal("still connected after Disconnect")
	}
	if err := s.ConnectHexKey("0xnothex"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestUnlockKeystore(t *testing.T) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	k := &keystore.Key{Id: uuid.New(), Address: crypto.PubkeyToAddress(pk.PublicKey), PrivateKey: pk}
	blob, err := keystore.EncryptKey(k, "hunter2", keystore.LightScryptN, keystore.LightScryptP)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "key.json")
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewSession(sepolia, path, applog.Discard())
	if err := s.Unlock("wrong"); !errors.Is(err, ErrBadPassphrase) {
		t.Fatalf("err = %v, want ErrBadPassphrase", err)
	}
	if err := s.Unlock("hunter2"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if addr, ok := s.Address(); !ok || addr != k.Address {
		t.Fatalf("Address = %s, %v", addr.Hex(), ok)
	}

	if err := NewSession(sepolia, "", applog.Discard()).Unlock("x"); !errors.Is(err, ErrNoKeystore) {
		t.Fatalf("err = %v, want ErrNoKeystore", err)
	}
}
