package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// State of the wallet environment.
type State string

const (
	StateNoProvider   State = "no-provider" // terminal until a wallet is installed
	StateDisconnected State = "disconnected"
	StateWrongNetwork State = "wrong-network"
	StateReady        State = "ready"
)

// Action is the remediation offered for a non-ready State.
type Action string

const (
	ActionNone          Action = ""
	ActionConnect       Action = "connect"
	ActionSwitchNetwork Action = "switch_network"
)

type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// Chain is the fixed metadata of the network the contract is deployed on.
type Chain struct {
	ID           uint64
	Name         string
	RPCURLs      []string
	ExplorerURLs []string
	Currency     Currency
}

// HexID returns the chain id the way wallets expect it, e.g. "0x14a34".
func (c Chain) HexID() string {
	return hexutil.EncodeUint64(c.ID)
}

type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}

type AddChainParams struct {
	ChainID           string   `json:"chainId"`
	ChainName         string   `json:"chainName"`
	RPCURLs           []string `json:"rpcUrls"`
	NativeCurrency    Currency `json:"nativeCurrency"`
	BlockExplorerURLs []string `json:"blockExplorerUrls,omitempty"`
}

// Status is a snapshot of the wallet environment.
// Account is the checksummed address of the connected account, if any.
type Status struct {
	State         State  `json:"state"`
	Account       string `json:"account,omitempty"`
	ChainID       uint64 `json:"chain_id,omitempty"`
	TargetChainID uint64 `json:"target_chain_id"`
	TargetChain   string `json:"target_chain"`
}

// Error is an environment error: the wallet is missing, locked or on another network.
// Message is meant for humans; Err keeps the wallet's own error, if any.
type Error struct {
	State   State
	Action  Action
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

const (
	msgNoProvider  = "No wallet provider found. Please install or configure a wallet."
	msgNoSigner    = "No signer available. Please connect your wallet."
	msgCheckFailed = "Failed to check wallet or network status. Please try again."
	msgConnFailed  = "Failed to connect wallet. Please try again."
)

// Guard gates contract access on the wallet being connected to the target network.
type Guard struct {
	provider Provider
	chain    Chain
}

// NewGuard returns a Guard for `chain`. A nil provider means no wallet is available.
func NewGuard(provider Provider, chain Chain) *Guard {
	return &Guard{provider: provider, chain: chain}
}

func (g *Guard) Chain() Chain { return g.chain }

func (g *Guard) newStatus() Status {
	return Status{State: StateNoProvider, TargetChainID: g.chain.ID, TargetChain: g.chain.Name}
}

func (g *Guard) noProvider() (Status, error) {
	return g.newStatus(), &Error{State: StateNoProvider, Message: msgNoProvider}
}

// Check reports the current State. Any State but StateReady comes with an *Error.
func (g *Guard) Check(ctx context.Context) (Status, error) {
	if g.provider == nil {
		return g.noProvider()
	}
	st := g.newStatus()

	var accounts []common.Address
	if err := g.provider.Request(ctx, &accounts, MethodAccounts); err != nil {
		st.State = StateDisconnected
		return st, &Error{State: StateDisconnected, Action: ActionConnect, Message: msgCheckFailed, Err: err}
	}
	if len(accounts) == 0 {
		st.State = StateDisconnected
		return st, &Error{State: StateDisconnected, Action: ActionConnect, Message: msgNoSigner}
	}
	st.Account = accounts[0].Hex()

	var chainID hexutil.Big
	if err := g.provider.Request(ctx, &chainID, MethodChainID); err != nil {
		st.State = StateWrongNetwork
		return st, &Error{State: StateWrongNetwork, Action: ActionSwitchNetwork, Message: msgCheckFailed, Err: err}
	}
	id := (*big.Int)(&chainID)
	if id.IsUint64() {
		st.ChainID = id.Uint64()
	}
	if !id.IsUint64() || id.Uint64() != g.chain.ID {
		st.State = StateWrongNetwork
		return st, &Error{
			State:   StateWrongNetwork,
			Action:  ActionSwitchNetwork,
			Message: fmt.Sprintf("Please switch to the %s network (Chain ID: %d).", g.chain.Name, g.chain.ID),
		}
	}

	st.State = StateReady
	return st, nil
}

// Signer returns the connected account once the environment is ready.
func (g *Guard) Signer(ctx context.Context) (common.Address, error) {
	st, err := g.Check(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(st.Account), nil
}

// Connect asks the wallet for account access then re-checks the environment.
func (g *Guard) Connect(ctx context.Context) (Status, error) {
	if g.provider == nil {
		return g.noProvider()
	}
	var accounts []common.Address
	if err := g.provider.Request(ctx, &accounts, MethodRequestAccounts); err != nil {
		st := g.newStatus()
		st.State = StateDisconnected
		return st, &Error{State: StateDisconnected, Action: ActionConnect, Message: msgConnFailed, Err: err}
	}
	return g.Check(ctx)
}

// SwitchNetwork asks the wallet to switch to the target chain.
// A wallet that does not know the chain is asked to add it first, then to switch again.
func (g *Guard) SwitchNetwork(ctx context.Context) (Status, error) {
	if g.provider == nil {
		return g.noProvider()
	}

	if err := g.switchChain(ctx); err != nil {
		if ErrorCode(err) != CodeUnrecognizedChain {
			return g.switchFailed(fmt.Sprintf("Failed to switch to %s network. Please try again.", g.chain.Name), err)
		}
		if err = g.addChain(ctx); err != nil {
			return g.switchFailed(fmt.Sprintf("Failed to add %s network. Please add it manually.", g.chain.Name), err)
		}
		if err = g.switchChain(ctx); err != nil {
			return g.switchFailed(fmt.Sprintf("Failed to switch to %s network. Please try again.", g.chain.Name), err)
		}
	}
	return g.Check(ctx)
}

func (g *Guard) switchFailed(msg string, err error) (Status, error) {
	st := g.newStatus()
	st.State = StateWrongNetwork
	return st, &Error{State: StateWrongNetwork, Action: ActionSwitchNetwork, Message: msg, Err: err}
}

func (g *Guard) switchChain(ctx context.Context) error {
	return g.provider.Request(ctx, nil, MethodSwitchChain, SwitchChainParams{ChainID: g.chain.HexID()})
}

func (g *Guard) addChain(ctx context.Context) error {
	return g.provider.Request(ctx, nil, MethodAddChain, AddChainParams{
		ChainID:           g.chain.HexID(),
		ChainName:         g.chain.Name,
		RPCURLs:           g.chain.RPCURLs,
		NativeCurrency:    g.chain.Currency,
		BlockExplorerURLs: g.chain.ExplorerURLs,
	})
}
