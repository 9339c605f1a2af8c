package student

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/0xJayOnchain/academic-chain/core/wallet"
)

// ContractABI is the interface of the on-chain student records contract.
const ContractABI = `[
	{"type":"function","name":"addStudent","stateMutability":"nonpayable","inputs":[
		{"name":"_name","type":"string"},{"name":"_age","type":"uint8"},{"name":"_wallet","type":"address"}],"outputs":[]},
	{"type":"function","name":"updateStudent","stateMutability":"nonpayable","inputs":[
		{"name":"_studentId","type":"uint256"},{"name":"_name","type":"string"},{"name":"_age","type":"uint8"},{"name":"_wallet","type":"address"}],"outputs":[]},
	{"type":"function","name":"removeStudent","stateMutability":"nonpayable","inputs":[
		{"name":"_studentId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"studentCount","stateMutability":"view","inputs":[],"outputs":[
		{"name":"","type":"uint256"}]},
	{"type":"function","name":"addCourse","stateMutability":"nonpayable","inputs":[
		{"name":"_studentId","type":"uint256"},{"name":"_name","type":"string"},{"name":"_credits","type":"uint8"},{"name":"_grade","type":"uint8"}],"outputs":[]},
	{"type":"function","name":"removeCourse","stateMutability":"nonpayable","inputs":[
		{"name":"_studentId","type":"uint256"},{"name":"_courseIndex","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"getStudentData","stateMutability":"view","inputs":[
		{"name":"_studentId","type":"uint256"}],"outputs":[
		{"name":"name","type":"string"},
		{"name":"age","type":"uint8"},
		{"name":"wallet","type":"address"},
		{"name":"courses","type":"tuple[]","components":[
			{"name":"name","type":"string"},{"name":"credits","type":"uint8"},{"name":"grade","type":"uint8"}]},
		{"name":"exists","type":"bool"}]},
	{"type":"function","name":"getGPA","stateMutability":"view","inputs":[
		{"name":"_studentId","type":"uint256"}],"outputs":[
		{"name":"","type":"uint256"}]},
	{"type":"event","name":"StudentAdded","anonymous":false,"inputs":[
		{"name":"id","type":"uint256","indexed":true},{"name":"name","type":"string","indexed":false},
		{"name":"age","type":"uint8","indexed":false},{"name":"wallet","type":"address","indexed":false}]}
]`

// Ledger exposes the contract's public interface for one signer.
// Every method is a round-trip to the wallet; mutations return as soon as the
// transaction is submitted, without waiting for it to be mined.
type Ledger interface {
	AddStudent(ctx context.Context, name string, age uint8, wallet common.Address) (common.Hash, error)
	UpdateStudent(ctx context.Context, id uint64, name string, age uint8, wallet common.Address) (common.Hash, error)
	RemoveStudent(ctx context.Context, id uint64) (common.Hash, error)
	// StudentCount returns the number of student slots ever created, removed ones included.
	StudentCount(ctx context.Context) (uint64, error)
	AddCourse(ctx context.Context, studentID uint64, name string, credits, grade uint8) (common.Hash, error)
	// RemoveCourse removes by position; later courses shift down by one.
	RemoveCourse(ctx context.Context, studentID, courseIndex uint64) (common.Hash, error)
	GetStudentData(ctx context.Context, id uint64) (Student, error)
	// GetGPA returns the GPA scaled by 100.
	GetGPA(ctx context.Context, id uint64) (*big.Int, error)
	Signer() common.Address
}

// Binder hands out a Ledger bound to the currently connected wallet account.
type Binder interface {
	Acquire(ctx context.Context) (Ledger, error)
}

// Contract is the student records contract at a fixed address.
type Contract struct {
	abi      abi.ABI
	address  common.Address
	provider wallet.Provider
	guard    *wallet.Guard
}

var _ Binder = (*Contract)(nil)

func NewContract(provider wallet.Provider, guard *wallet.Guard, address common.Address) (*Contract, error) {
	if guard == nil {
		return nil, errors.New("student.NewContract: nil guard")
	}
	parsed, err := abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		return nil, errors.Wrap(err, "parsing contract ABI")
	}
	return &Contract{
		abi:      parsed,
		address:  address,
		provider: provider,
		guard:    guard,
	}, nil
}

func (c *Contract) Address() common.Address { return c.address }

// Acquire checks the wallet environment and returns a Ledger signed by the connected account.
// It fails with a *wallet.Error when there is no wallet, no account or the wrong network.
func (c *Contract) Acquire(ctx context.Context) (Ledger, error) {
	signer, err := c.guard.Signer(ctx)
	if err != nil {
		return nil, err
	}
	return &Binding{Contract: c, signer: signer}, nil
}

// Binding is the Ledger implementation returned by Contract.Acquire.
type Binding struct {
	*Contract
	signer common.Address
}

var _ Ledger = (*Binding)(nil)

type txArgs struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

func (b *Binding) Signer() common.Address { return b.signer }

func (b *Binding) call(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	input, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "packing %s", method)
	}
	var out hexutil.Bytes
	msg := txArgs{From: b.signer, To: b.address, Data: input}
	if err = b.provider.Request(ctx, &out, wallet.MethodCall, msg, "latest"); err != nil {
		return nil, errors.Wrapf(err, "calling %s", method)
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(ErrNoContract, "calling %s on %s", method, b.address.Hex())
	}
	return out, nil
}

func (b *Binding) transact(ctx context.Context, method string, args ...interface{}) (common.Hash, error) {
	input, err := b.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "packing %s", method)
	}
	var hash common.Hash
	msg := txArgs{From: b.signer, To: b.address, Data: input}
	if err = b.provider.Request(ctx, &hash, wallet.MethodSendTransaction, msg); err != nil {
		return common.Hash{}, errors.Wrapf(err, "sending %s", method)
	}
	return hash, nil
}

func (b *Binding) AddStudent(ctx context.Context, name string, age uint8, wallet common.Address) (common.Hash, error) {
	return b.transact(ctx, "addStudent", name, age, wallet)
}

func (b *Binding) UpdateStudent(ctx context.Context, id uint64, name string, age uint8, wallet common.Address) (common.Hash, error) {
	return b.transact(ctx, "updateStudent", toBig(id), name, age, wallet)
}

func (b *Binding) RemoveStudent(ctx context.Context, id uint64) (common.Hash, error) {
	return b.transact(ctx, "removeStudent", toBig(id))
}

func (b *Binding) AddCourse(ctx context.Context, studentID uint64, name string, credits, grade uint8) (common.Hash, error) {
	return b.transact(ctx, "addCourse", toBig(studentID), name, credits, grade)
}

func (b *Binding) RemoveCourse(ctx context.Context, studentID, courseIndex uint64) (common.Hash, error) {
	return b.transact(ctx, "removeCourse", toBig(studentID), toBig(courseIndex))
}

func (b *Binding) StudentCount(ctx context.Context) (uint64, error) {
	n, err := b.callUint(ctx, "studentCount")
	if err != nil {
		return 0, err
	}
	return narrow(n)
}

func (b *Binding) GetGPA(ctx context.Context, id uint64) (*big.Int, error) {
	return b.callUint(ctx, "getGPA", toBig(id))
}

func (b *Binding) GetStudentData(ctx context.Context, id uint64) (Student, error) {
	data, err := b.call(ctx, "getStudentData", toBig(id))
	if err != nil {
		return Student{}, err
	}

	// field names follow the ABI output names
	var out struct {
		Name    string
		Age     uint8
		Wallet  common.Address
		Courses []Course
		Exists  bool
	}
	if err = b.abi.UnpackIntoInterface(&out, "getStudentData", data); err != nil {
		return Student{}, errors.Wrap(err, "unpacking getStudentData")
	}
	return Student{
		ID:      id,
		Name:    out.Name,
		Age:     out.Age,
		Wallet:  out.Wallet,
		Courses: out.Courses,
		Exists:  out.Exists,
	}, nil
}

func (b *Binding) callUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	data, err := b.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	vals, err := b.abi.Unpack(method, data)
	if err != nil {
		return nil, errors.Wrapf(err, "unpacking %s", method)
	}
	n, ok := vals[0].(*big.Int)
	if !ok {
		return nil, errors.Wrapf(errUnexpectedType, "unpacking %s: %T", method, vals[0])
	}
	return n, nil
}

func toBig(n uint64) *big.Int {
	return new(big.Int).SetUint64(n)
}

// narrow converts a uint256 to uint64 for display and iteration.
func narrow(n *big.Int) (uint64, error) {
	if !n.IsUint64() {
		return 0, errors.Wrap(ErrValueTooLarge, n.String())
	}
	return n.Uint64(), nil
}
