package adapter

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	apperrors "github.com/swipe-trader/internal/errors"
	"github.com/swipe-trader/internal/logging"
	"github.com/swipe-trader/internal/types"
)

// TransactionSigner is the externally supplied signing capability. The
// service hands it a fully built transaction and receives a transaction
// identifier; private key material never enters the core.
type TransactionSigner interface {
	// Account returns the signer's public key in base58
	Account() string
	// SignAndSend signs the transaction and submits it to the cluster
	SignAndSend(ctx context.Context, tx *solana.Transaction) (string, error)
}

// SolanaClient wraps the Solana RPC endpoint for transaction submission
// and token metadata lookups.
type SolanaClient struct {
	rpc     *rpc.Client
	timeout time.Duration
}

// NewSolanaClient creates a new Solana RPC client
func NewSolanaClient(rpcURL string, timeout time.Duration) *SolanaClient {
	return &SolanaClient{
		rpc:     rpc.New(rpcURL),
		timeout: timeout,
	}
}

// SignAndSubmit deserializes the aggregator's base64 transaction blob and
// delegates signing and submission to the supplied signer.
func (c *SolanaClient) SignAndSubmit(ctx context.Context, unsignedTxBase64 string, signer TransactionSigner) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(unsignedTxBase64)
	if err != nil {
		return "", apperrors.NewSubmitFailedError(fmt.Errorf("invalid transaction encoding: %w", err))
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return "", apperrors.NewSubmitFailedError(fmt.Errorf("failed to deserialize transaction: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	txID, err := signer.SignAndSend(ctx, tx)
	if err != nil {
		return "", apperrors.NewSubmitFailedError(err)
	}

	return txID, nil
}

// TokenDecimals returns the on-chain decimal scale for a mint. Lookup
// failures fall back to the common SPL default of 6 so a metadata outage
// does not block trading.
func (c *SolanaClient) TokenDecimals(ctx context.Context, mint string) int {
	if mint == types.NativeSOLMint {
		return types.SOLDecimals
	}

	pubKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		logging.WithFields(map[string]interface{}{"mint": mint}).
			WithError(err).Warn("invalid mint address, assuming default decimals")
		return types.DefaultTokenDecimals
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.rpc.GetTokenSupply(ctx, pubKey, rpc.CommitmentConfirmed)
	if err != nil || result == nil || result.Value == nil {
		logging.WithFields(map[string]interface{}{"mint": mint}).
			WithError(err).Warn("token supply lookup failed, assuming default decimals")
		return types.DefaultTokenDecimals
	}

	return int(result.Value.Decimals)
}

// Balance returns the SOL balance of an account in lamports
func (c *SolanaClient) Balance(ctx context.Context, account string) (uint64, error) {
	pubKey, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return 0, apperrors.NewInvalidInputError("account", err.Error())
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.rpc.GetBalance(ctx, pubKey, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, apperrors.NewStoreUnavailableError("get balance", err)
	}

	return result.Value, nil
}

// LocalSigner signs with a locally held keypair and submits through the
// RPC endpoint. It is wired only at the process edge (cmd/server) for
// non-custodial deployments that run with their own wallet.
type LocalSigner struct {
	key solana.PrivateKey
	rpc *rpc.Client
}

// NewLocalSigner creates a signer from a base58-encoded private key
func NewLocalSigner(privateKeyBase58 string, rpcURL string) (*LocalSigner, error) {
	key, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet private key: %w", err)
	}
	return &LocalSigner{key: key, rpc: rpc.New(rpcURL)}, nil
}

// Account returns the signer's public key in base58
func (s *LocalSigner) Account() string {
	return s.key.PublicKey().String()
}

// SignAndSend signs the transaction and submits it, returning the
// signature string.
func (s *LocalSigner) SignAndSend(ctx context.Context, tx *solana.Transaction) (string, error) {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig.String(), nil
}
