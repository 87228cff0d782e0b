// Package wallet holds the connected signing account.  The session is
// either disconnected or holds exactly one key; transaction code asks it
// for a signer right before each submission.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotConnected means no account is available to sign.
	ErrNotConnected = errors.New("wallet not connected")
	// ErrNoKeystore means Unlock was called without a configured keystore.
	ErrNoKeystore = errors.New("no keystore configured")
	// ErrBadPassphrase means the keystore could not be decrypted.
	ErrBadPassphrase = errors.New("could not decrypt keystore")
)

// Signer hands out transaction signers.
type Signer interface {
	AcquireSigner(ctx context.Context) (*bind.TransactOpts, error)
}

// Status describes the session for display.
type Status struct {
	Connected          bool   `json:"connected"`
	Address            string `json:"address,omitempty"`
	ChainID            string `json:"chainId"`
	KeystoreConfigured bool   `json:"keystoreConfigured"`
}

// Session is the process-wide wallet connection.
type Session struct {
	chainID      *big.Int
	keystorePath string
	logger       *logrus.Logger

	mu  sync.RWMutex
	key *ecdsa.PrivateKey
}

var _ Signer = (*Session)(nil)

// NewSession returns a disconnected session for chainID.  keystorePath may
// be empty.
func NewSession(chainID *big.Int, keystorePath string, logger *logrus.Logger) *Session {
	return &Session{chainID: new(big.Int).Set(chainID), keystorePath: keystorePath, logger: logger}
}

// ConnectHexKey connects with a raw secp256k1 key, "0x" prefix optional.
func (s *Session) ConnectHexKey(hexKey string) error {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return fmt.Errorf("parse private key: %w", err)
	}
	s.connect(key)
	return nil
}

// Unlock decrypts the configured keystore file and connects with it.
func (s *Session) Unlock(passphrase string) error {
	if s.keystorePath == "" {
		return ErrNoKeystore
	}
	blob, err := os.ReadFile(s.keystorePath)
	if err != nil {
		return fmt.Errorf("read keystore: %w", err)
	}
	k, err := keystore.DecryptKey(blob, passphrase)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadPassphrase, err)
	}
	s.connect(k.PrivateKey)
	return nil
}

func (s *Session) connect(key *ecdsa.PrivateKey) {
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	s.logger.WithField("address", crypto.PubkeyToAddress(key.PublicKey).Hex()).Info("wallet: connected")
}

// Disconnect forgets the key.
func (s *Session) Disconnect() {
	s.mu.Lock()
	was := s.key != nil
	s.key = nil
	s.mu.Unlock()
	if was {
		s.logger.Info("wallet: disconnected")
	}
}

// Address returns the connected account.
func (s *Session) Address() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return common.Address{}, false
	}
	return crypto.PubkeyToAddress(s.key.PublicKey), true
}

// Connected reports whether a key is held.
func (s *Session) Connected() bool {
	_, ok := s.Address()
	return ok
}

func (s *Session) Status() Status {
	st := Status{ChainID: s.chainID.String(), KeystoreConfigured: s.keystorePath != ""}
	if addr, ok := s.Address(); ok {
		st.Connected = true
		st.Address = addr.Hex()
	}
	return st
}

// AcquireSigner returns transact options signing with the connected key
// for the session's chain, or ErrNotConnected.
func (s *Session) AcquireSigner(ctx context.Context) (*bind.TransactOpts, error) {
	s.mu.RLock()
	key := s.key
	s.mu.RUnlock()
	if key == nil {
		return nil, ErrNotConnected
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, s.chainID)
	if err != nil {
		return nil, fmt.Errorf("build signer: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}
