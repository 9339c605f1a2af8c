// Package wallet talks to the user's wallet: the account that signs contract
// transactions and the network it is connected to.
package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

// Wallet RPC methods.
const (
	MethodAccounts        = "eth_accounts"
	MethodRequestAccounts = "eth_requestAccounts"
	MethodChainID         = "eth_chainId"
	MethodSwitchChain     = "wallet_switchEthereumChain"
	MethodAddChain        = "wallet_addEthereumChain"
	MethodCall            = "eth_call"
	MethodSendTransaction = "eth_sendTransaction"
)

// EIP-1193 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnrecognizedChain = 4902
)

// Provider is the wallet boundary: every request goes through it.
// The result is decoded from the JSON response into `result`, which must be a pointer (or nil).
type Provider interface {
	Request(ctx context.Context, result interface{}, method string, params ...interface{}) error
}

// RPCProvider is a Provider backed by a JSON-RPC wallet endpoint.
type RPCProvider struct {
	client *rpc.Client
}

var _ Provider = (*RPCProvider)(nil)

// Dial connects to the wallet endpoint at `url` (http(s), ws(s) or IPC path).
func Dial(ctx context.Context, url string) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing wallet provider %s", url)
	}
	return &RPCProvider{client: client}, nil
}

func (p *RPCProvider) Request(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	return p.client.CallContext(ctx, result, method, params...)
}

func (p *RPCProvider) Close() {
	p.client.Close()
}

// RPCError is a wallet error carrying an EIP-1193 code.
type RPCError struct {
	Code    int
	Message string
}

var _ rpc.Error = (*RPCError)(nil)

func (e *RPCError) Error() string  { return e.Message }
func (e *RPCError) ErrorCode() int { return e.Code }

// ErrorCode returns the wallet error code carried by `err`, or 0.
func ErrorCode(err error) int {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode()
	}
	return 0
}
