package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/0xJayOnchain/academic-chain/core/student"
	"github.com/0xJayOnchain/academic-chain/core/wallet"
)

// Base Sepolia, the network the app targets by default.
const TargetChainID uint64 = 84532

var (
	ContractAddress = common.HexToAddress("0x9ADe272f23BE03f01CA9b79740094368beec372C")
	Operator        = common.HexToAddress("0x00000000000000000000000000000000000000a1")

	// ErrReverted is returned by calls the contract rejects.
	ErrReverted = &wallet.RPCError{Code: 3, Message: "execution reverted"}
)

// TargetChain returns the chain metadata the app uses by default.
func TargetChain() wallet.Chain {
	return wallet.Chain{
		ID:           TargetChainID,
		Name:         "Base Sepolia",
		RPCURLs:      []string{"https://sepolia.base.org"},
		ExplorerURLs: []string{"https://sepolia.basescan.org"},
		Currency:     wallet.Currency{Name: "ETH", Symbol: "ETH", Decimals: 18},
	}
}

type record struct {
	name    string
	age     uint8
	wallet  common.Address
	courses []student.Course
	exists  bool
}

// Tx is a transaction submitted to the simulated contract.
type Tx struct {
	Hash   common.Hash
	From   common.Address
	Method string
}

// Chain is an in-memory wallet connected to a simulated student records contract.
// It decodes ABI calldata the way a node would and applies transactions immediately.
type Chain struct {
	mu  sync.Mutex
	abi abi.ABI

	Accounts    []common.Address
	Connected   bool
	ChainID     uint64
	KnownChains map[uint64]bool
	Added       []wallet.AddChainParams

	// Fail makes the named wallet method, or "eth_call:<contract method>", return the error.
	Fail map[string]error

	// Calls records every request as its wallet method, suffixed with the contract method for calls and transactions.
	Calls []string
	Txs   []Tx

	records []record
}

var _ wallet.Provider = (*Chain)(nil)

// NewChain returns a wallet connected to the target chain with the Operator account.
func NewChain() *Chain {
	parsed, err := abi.JSON(strings.NewReader(student.ContractABI))
	if err != nil {
		panic(err)
	}
	return &Chain{
		abi:         parsed,
		Accounts:    []common.Address{Operator},
		Connected:   true,
		ChainID:     TargetChainID,
		KnownChains: map[uint64]bool{TargetChainID: true, 1: true},
		Fail:        make(map[string]error),
	}
}

// AddStudent stores a student directly, without a transaction, and returns its id.
func (c *Chain) AddStudent(name string, age uint8, addr common.Address, courses ...student.Course) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record{name: name, age: age, wallet: addr, courses: courses, exists: true})
	return uint64(len(c.records) - 1)
}

// RemoveStudent marks a stored student as removed.
func (c *Chain) RemoveStudent(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[id].exists = false
}

// Courses returns the courses stored for a student.
func (c *Chain) Courses(id uint64) []student.Course {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]student.Course(nil), c.records[id].courses...)
}

// ResetCalls clears the recorded requests.
func (c *Chain) ResetCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = nil
}

// Called returns how many recorded requests equal `call`.
func (c *Chain) Called(call string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	for _, cl := range c.Calls {
		if cl == call {
			n++
		}
	}
	return n
}

type txArgs struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

func (c *Chain) Request(ctx context.Context, result interface{}, method string, params ...interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	call := method
	var args txArgs
	if method == wallet.MethodCall || method == wallet.MethodSendTransaction {
		if len(params) == 0 {
			return &wallet.RPCError{Code: -32602, Message: "missing transaction"}
		}
		if err := convert(params[0], &args); err != nil {
			return err
		}
		if len(args.Data) >= 4 {
			if m, err := c.abi.MethodById(args.Data[:4]); err == nil {
				call += ":" + m.RawName
			}
		}
	}
	c.Calls = append(c.Calls, call)
	if err, ok := c.Fail[call]; ok {
		return err
	}
	if err, ok := c.Fail[method]; ok {
		return err
	}

	switch method {
	case wallet.MethodAccounts:
		if !c.Connected {
			return convert([]common.Address{}, result)
		}
		return convert(c.Accounts, result)
	case wallet.MethodRequestAccounts:
		c.Connected = true
		return convert(c.Accounts, result)
	case wallet.MethodChainID:
		return convert(hexutil.EncodeUint64(c.ChainID), result)
	case wallet.MethodSwitchChain:
		var p wallet.SwitchChainParams
		if err := convert(params[0], &p); err != nil {
			return err
		}
		id, err := hexutil.DecodeUint64(p.ChainID)
		if err != nil {
			return err
		}
		if !c.KnownChains[id] {
			return &wallet.RPCError{Code: wallet.CodeUnrecognizedChain, Message: "Unrecognized chain ID " + p.ChainID}
		}
		c.ChainID = id
		return nil
	case wallet.MethodAddChain:
		var p wallet.AddChainParams
		if err := convert(params[0], &p); err != nil {
			return err
		}
		id, err := hexutil.DecodeUint64(p.ChainID)
		if err != nil {
			return err
		}
		c.KnownChains[id] = true
		c.Added = append(c.Added, p)
		return nil
	case wallet.MethodCall:
		out, err := c.execute(args, false)
		if err != nil {
			return err
		}
		return convert(hexutil.Bytes(out), result)
	case wallet.MethodSendTransaction:
		if _, err := c.execute(args, true); err != nil {
			return err
		}
		hash := crypto.Keccak256Hash([]byte(fmt.Sprintf("tx-%d", len(c.Txs))))
		c.Txs = append(c.Txs, Tx{Hash: hash, From: args.From, Method: call[len(method)+1:]})
		return convert(hash, result)
	default:
		return &wallet.RPCError{Code: -32601, Message: "method " + method + " not supported"}
	}
}

// execute runs the contract method encoded in args.Data and returns its ABI encoded outputs.
func (c *Chain) execute(args txArgs, write bool) ([]byte, error) {
	if args.To != ContractAddress {
		return nil, nil // no code
	}
	if len(args.Data) < 4 {
		return nil, ErrReverted
	}
	m, err := c.abi.MethodById(args.Data[:4])
	if err != nil {
		return nil, ErrReverted
	}
	if m.IsConstant() == write {
		return nil, &wallet.RPCError{Code: -32000, Message: "wrong request for " + m.RawName}
	}
	in, err := m.Inputs.Unpack(args.Data[4:])
	if err != nil {
		return nil, err
	}

	var out []interface{}
	switch m.RawName {
	case "studentCount":
		out = []interface{}{big.NewInt(int64(len(c.records)))}
	case "getStudentData":
		r := c.record(in[0].(*big.Int))
		courses := r.courses
		if courses == nil {
			courses = []student.Course{}
		}
		out = []interface{}{r.name, r.age, r.wallet, courses, r.exists}
	case "getGPA":
		gpa, ok := c.record(in[0].(*big.Int)).gpa()
		if !ok {
			return nil, ErrReverted
		}
		out = []interface{}{gpa}
	case "addStudent":
		c.records = append(c.records, record{name: in[0].(string), age: in[1].(uint8), wallet: in[2].(common.Address), exists: true})
	case "updateStudent":
		r, err := c.existing(in[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		r.name, r.age, r.wallet = in[1].(string), in[2].(uint8), in[3].(common.Address)
	case "removeStudent":
		r, err := c.existing(in[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		r.exists = false
	case "addCourse":
		r, err := c.existing(in[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		r.courses = append(r.courses, student.Course{Name: in[1].(string), Credits: in[2].(uint8), Grade: in[3].(uint8)})
	case "removeCourse":
		r, err := c.existing(in[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		idx := in[1].(*big.Int)
		if !idx.IsUint64() || idx.Uint64() >= uint64(len(r.courses)) {
			return nil, ErrReverted
		}
		i := idx.Uint64()
		r.courses = append(r.courses[:i], r.courses[i+1:]...)
	default:
		return nil, ErrReverted
	}
	return m.Outputs.Pack(out...)
}

// record returns a zero record for ids that were never assigned.
func (c *Chain) record(id *big.Int) record {
	if !id.IsUint64() || id.Uint64() >= uint64(len(c.records)) {
		return record{}
	}
	return c.records[id.Uint64()]
}

func (c *Chain) existing(id *big.Int) (*record, error) {
	if !id.IsUint64() || id.Uint64() >= uint64(len(c.records)) || !c.records[id.Uint64()].exists {
		return nil, ErrReverted
	}
	return &c.records[id.Uint64()], nil
}

// gpa is the credit weighted grade average on a 4 point scale, times 100.
// Students without courses have no GPA and the call reverts.
func (r record) gpa() (*big.Int, bool) {
	var points, credits int64
	for _, cr := range r.courses {
		points += int64(cr.Grade) * int64(cr.Credits)
		credits += int64(cr.Credits)
	}
	if credits == 0 {
		return nil, false
	}
	return big.NewInt(points * 4 / credits), true
}

// convert copies v into dst through JSON, like a wallet response would be decoded.
func convert(v, dst interface{}) error {
	if dst == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}
