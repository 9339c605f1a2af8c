package student_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xJayOnchain/academic-chain/core"
	"github.com/0xJayOnchain/academic-chain/core/student"
	"github.com/0xJayOnchain/academic-chain/core/wallet"
	"github.com/0xJayOnchain/academic-chain/tests"
)

var (
	walletA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	walletB = common.HexToAddress("0x2222222222222222222222222222222222222222")
	walletC = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func setup(t *testing.T, opts ...func(conf *core.Config)) (*student.Service, *testutil.Chain, *testutil.Logger) {
	t.Helper()
	conf := testutil.Config()
	for _, opt := range opts {
		opt(conf)
	}
	chain := testutil.NewChain()
	guard := wallet.NewGuard(chain, conf.TargetChain())
	contract, err := student.NewContract(chain, guard, common.HexToAddress(conf.Contract.Address))
	require.NoError(t, err)

	logger := new(testutil.Logger)
	svc, err := student.NewService(contract, conf, logger)
	require.NoError(t, err)
	return svc, chain, logger
}

func names(students []student.StudentView) []string {
	out := make([]string, len(students))
	for i, s := range students {
		out[i] = s.Name
	}
	return out
}

func TestNewService_unknownStrategy(t *testing.T) {
	conf := testutil.Config()
	conf.Dashboard.Strategy = "random"
	_, err := student.NewService(nil, conf, new(testutil.Logger))
	assert.EqualError(t, err, `unknown dashboard strategy "random"`)
}

func TestNewContract_nilGuard(t *testing.T) {
	_, err := student.NewContract(testutil.NewChain(), nil, testutil.ContractAddress)
	assert.Error(t, err)
}

func TestService_ListStudents(t *testing.T) {
	ctx := context.Background()

	for _, concurrency := range []int{1, 4} {
		concurrency := concurrency
		t.Run("skips removed students", func(t *testing.T) {
			svc, chain, _ := setup(t, func(conf *core.Config) { conf.Fetch.Concurrency = concurrency })
			chain.AddStudent("Ada", 20, walletA)
			removed := chain.AddStudent("Bob", 21, walletB)
			chain.AddStudent("Cyd", 22, walletC)
			chain.RemoveStudent(removed)

			page, err := svc.ListStudents(ctx)
			require.NoError(t, err)
			assert.Equal(t, student.StatusSuccess, page.State)
			assert.Equal(t, []string{"Ada", "Cyd"}, names(page.Students))
			assert.Equal(t, uint64(0), page.Students[0].ID)
			assert.Equal(t, uint64(2), page.Students[1].ID)
			assert.Equal(t, "0x1111...1111", page.Students[0].WalletShort)
			assert.Equal(t, walletA.Hex(), page.Students[0].Wallet)
			assert.Equal(t, 3, chain.Called("eth_call:getStudentData"))
		})
	}

	t.Run("empty", func(t *testing.T) {
		svc, _, _ := setup(t)
		page, err := svc.ListStudents(ctx)
		require.NoError(t, err)
		assert.Equal(t, student.StatusEmpty, page.State)
		assert.Empty(t, page.Students)
	})

	t.Run("wrong network does not call the contract", func(t *testing.T) {
		svc, chain, _ := setup(t)
		chain.AddStudent("Ada", 20, walletA)
		chain.ChainID = 1

		page, err := svc.ListStudents(ctx)
		assert.Equal(t, student.StatusError, page.State)
		var werr *wallet.Error
		require.True(t, errors.As(err, &werr))
		assert.Equal(t, wallet.StateWrongNetwork, werr.State)
		assert.Zero(t, chain.Called("eth_call:studentCount"))
		assert.Zero(t, chain.Called("eth_call:getStudentData"))
	})

	t.Run("read failure", func(t *testing.T) {
		svc, chain, _ := setup(t)
		chain.AddStudent("Ada", 20, walletA)
		chain.Fail["eth_call:getStudentData"] = testutil.ErrReverted

		page, err := svc.ListStudents(ctx)
		assert.Error(t, err)
		assert.Equal(t, student.StatusError, page.State)
	})

	t.Run("no contract at address", func(t *testing.T) {
		svc, _, _ := setup(t, func(conf *core.Config) { conf.Contract.Address = walletA.Hex() })
		_, err := svc.ListStudents(ctx)
		assert.True(t, errors.Is(err, student.ErrNoContract))
	})
}

func TestService_GetStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("details and GPA", func(t *testing.T) {
		svc, chain, _ := setup(t)
		id := chain.AddStudent("Ada", 20, walletA,
			student.Course{Name: "Algebra", Credits: 2, Grade: 80},
			student.Course{Name: "Logic", Credits: 2, Grade: 100},
		)

		page, err := svc.GetStudent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, student.StatusSuccess, page.State)
		assert.Equal(t, "Ada", page.Student.Name)
		assert.Equal(t, uint8(20), page.Student.Age)
		require.Len(t, page.Courses, 2)
		assert.Equal(t, uint64(1), page.Courses[1].Index)
		assert.Equal(t, "Logic", page.Courses[1].Name)
		assert.Equal(t, "3.60", page.GPADisplay)
		assert.Equal(t, "3.60", page.GPA.String)
	})

	t.Run("GPA unavailable", func(t *testing.T) {
		svc, chain, logger := setup(t)
		id := chain.AddStudent("Ada", 20, walletA)

		page, err := svc.GetStudent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, student.StatusSuccess, page.State)
		assert.Equal(t, student.GPAPlaceholder, page.GPADisplay)
		assert.False(t, page.GPA.Valid)
		assert.True(t, logger.Has("WARN", "reading GPA"))
	})

	t.Run("removed", func(t *testing.T) {
		svc, chain, _ := setup(t)
		id := chain.AddStudent("Ada", 20, walletA)
		chain.RemoveStudent(id)

		page, err := svc.GetStudent(ctx, id)
		assert.Equal(t, student.ErrNotFound, err)
		assert.Equal(t, student.StatusEmpty, page.State)
	})

	t.Run("never assigned", func(t *testing.T) {
		svc, _, _ := setup(t)
		page, err := svc.GetStudent(ctx, 42)
		assert.Equal(t, student.ErrNotFound, err)
		assert.Equal(t, student.StatusEmpty, page.State)
	})
}

func TestService_Dashboard(t *testing.T) {
	ctx := context.Background()

	t.Run("fixed student", func(t *testing.T) {
		svc, chain, _ := setup(t)
		chain.AddStudent("Ada", 20, walletA)
		chain.AddStudent("Bob", 21, walletB, student.Course{Name: "Algebra", Credits: 3, Grade: 75})

		page, err := svc.Dashboard(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Bob", page.Student.Name)
		assert.Equal(t, 1, page.CourseCount)
		assert.Equal(t, "3.00", page.GPADisplay)
	})

	t.Run("fixed student missing", func(t *testing.T) {
		svc, chain, _ := setup(t)
		chain.AddStudent("Ada", 20, walletA)

		page, err := svc.Dashboard(ctx)
		assert.Equal(t, student.ErrNotFound, err)
		assert.Equal(t, student.StatusEmpty, page.State)
	})

	t.Run("signer's student", func(t *testing.T) {
		svc, chain, _ := setup(t, func(conf *core.Config) { conf.Dashboard.Strategy = core.DashboardWallet })
		chain.AddStudent("Ada", 20, walletA)
		chain.AddStudent("Op", 30, testutil.Operator)

		page, err := svc.Dashboard(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Op", page.Student.Name)
		assert.Equal(t, uint64(1), page.Student.ID)
	})

	t.Run("no student for signer", func(t *testing.T) {
		svc, chain, _ := setup(t, func(conf *core.Config) { conf.Dashboard.Strategy = core.DashboardWallet })
		chain.AddStudent("Ada", 20, walletA)
		removed := chain.AddStudent("Op", 30, testutil.Operator)
		chain.RemoveStudent(removed)

		page, err := svc.Dashboard(ctx)
		assert.Equal(t, student.ErrNoWalletMatch, err)
		assert.Equal(t, student.StatusEmpty, page.State)
	})
}

func TestService_Summary(t *testing.T) {
	ctx := context.Background()
	svc, chain, _ := setup(t)
	chain.AddStudent("Ada", 20, walletA, student.Course{Name: "Algebra", Credits: 1, Grade: 100})
	chain.AddStudent("Bob", 21, walletB, student.Course{Name: "Algebra", Credits: 1, Grade: 50}, student.Course{Name: "Logic", Credits: 1, Grade: 50})
	chain.AddStudent("Cyd", 22, walletC)
	removed := chain.AddStudent("Dan", 23, walletC, student.Course{Name: "Algebra", Credits: 1, Grade: 0})
	chain.RemoveStudent(removed)

	page, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, student.StatusSuccess, page.State)
	assert.Equal(t, 3, page.StudentCount)
	assert.Equal(t, 3, page.CourseCount)
	assert.Equal(t, student.GPAStats{Mean: 3, Median: 3, Min: 2, Max: 4}, page.GPA)
	require.Len(t, page.Rows, 3)
	assert.Equal(t, "4.00", page.Rows[0].GPADisplay)
	assert.Equal(t, 2, page.Rows[1].CourseCount)
	assert.Equal(t, student.GPAPlaceholder, page.Rows[2].GPADisplay)
}

func TestService_SubmitStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		svc, chain, _ := setup(t)
		chain.AddStudent("Ada", 20, walletA)
		chain.ResetCalls()

		res, err := svc.SubmitStudent(ctx, student.StudentForm{Name: "Bob", Age: 21, Wallet: walletB.Hex()})
		require.NoError(t, err)
		require.Len(t, chain.Txs, 1)
		assert.Equal(t, "addStudent", chain.Txs[0].Method)
		assert.Equal(t, testutil.Operator, chain.Txs[0].From)
		assert.Equal(t, chain.Txs[0].Hash, res.TxHash)
		assert.Equal(t, 1, chain.Called("eth_call:studentCount"))
		assert.Equal(t, []string{"Ada", "Bob"}, names(res.Students))
	})

	t.Run("update", func(t *testing.T) {
		svc, chain, _ := setup(t)
		id := chain.AddStudent("Ada", 20, walletA)

		res, err := svc.SubmitStudent(ctx, student.StudentForm{ID: id, IsUpdate: true, Name: "Ada L.", Age: 21, Wallet: walletC.Hex()})
		require.NoError(t, err)
		assert.Equal(t, "updateStudent", chain.Txs[0].Method)
		require.Len(t, res.Students, 1)
		assert.Equal(t, "Ada L.", res.Students[0].Name)
		assert.Equal(t, uint8(21), res.Students[0].Age)
		assert.Equal(t, walletC.Hex(), res.Students[0].Wallet)
	})

	t.Run("transaction rejected", func(t *testing.T) {
		svc, chain, _ := setup(t)
		chain.Fail["eth_sendTransaction:addStudent"] = &wallet.RPCError{Code: wallet.CodeUserRejected, Message: "User rejected the request."}

		_, err := svc.SubmitStudent(ctx, student.StudentForm{Name: "Bob", Age: 21, Wallet: walletB.Hex()})
		assert.Equal(t, wallet.CodeUserRejected, wallet.ErrorCode(err))
		assert.Zero(t, chain.Called("eth_call:studentCount"))
	})

	t.Run("disconnected", func(t *testing.T) {
		svc, chain, _ := setup(t)
		chain.Connected = false

		_, err := svc.SubmitStudent(ctx, student.StudentForm{Name: "Bob", Age: 21, Wallet: walletB.Hex()})
		var werr *wallet.Error
		require.True(t, errors.As(err, &werr))
		assert.Equal(t, wallet.ActionConnect, werr.Action)
		assert.Empty(t, chain.Txs)
	})
}

func TestService_outOfRangeNumbers(t *testing.T) {
	ctx := context.Background()
	svc, chain, _ := setup(t)
	id := chain.AddStudent("Ada", 20, walletA)
	chain.ResetCalls()

	var vErr *core.ValidationError
	_, err := svc.SubmitStudent(ctx, student.StudentForm{Name: "Bob", Age: 300, Wallet: walletB.Hex()})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, map[string]string{"age": "must be between 0 and 255"}, vErr.FieldMap())

	_, err = svc.AddCourse(ctx, id, student.CourseForm{Name: "Math", Credits: 3, Grade: -1})
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, map[string]string{"grade": "must be between 0 and 255"}, vErr.FieldMap())

	hashes, err := svc.ImportStudents(ctx, []student.StudentForm{
		{Name: "Bob", Age: 21, Wallet: walletB.Hex()},
		{Name: "Cyd", Age: 256, Wallet: walletC.Hex()},
	})
	require.True(t, errors.As(err, &vErr))
	assert.Empty(t, hashes)

	assert.Empty(t, chain.Txs)
	assert.Empty(t, chain.Calls)
}

func TestService_RemoveStudent(t *testing.T) {
	svc, chain, _ := setup(t)
	chain.AddStudent("Ada", 20, walletA)
	id := chain.AddStudent("Bob", 21, walletB)

	res, err := svc.RemoveStudent(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "removeStudent", chain.Txs[0].Method)
	assert.Equal(t, []string{"Ada"}, names(res.Students))
}

func TestService_courses(t *testing.T) {
	ctx := context.Background()
	svc, chain, _ := setup(t)
	ada := chain.AddStudent("Ada", 20, walletA,
		student.Course{Name: "Algebra", Credits: 3, Grade: 90},
		student.Course{Name: "Biology", Credits: 2, Grade: 70},
		student.Course{Name: "Chemistry", Credits: 4, Grade: 80},
	)
	bob := chain.AddStudent("Bob", 21, walletB, student.Course{Name: "Algebra", Credits: 3, Grade: 60})

	res, err := svc.RemoveCourse(ctx, ada, 1)
	require.NoError(t, err)
	assert.Equal(t, "removeCourse", chain.Txs[0].Method)
	assert.Equal(t, student.StatusSuccess, res.State)
	assert.Equal(t, []student.CourseView{
		{Index: 0, Course: student.Course{Name: "Algebra", Credits: 3, Grade: 90}},
		{Index: 1, Course: student.Course{Name: "Chemistry", Credits: 4, Grade: 80}},
	}, res.Courses)
	assert.Equal(t, []student.Course{{Name: "Algebra", Credits: 3, Grade: 60}}, chain.Courses(bob))

	res, err = svc.AddCourse(ctx, bob, student.CourseForm{Name: "Logic", Credits: 1, Grade: 0})
	require.NoError(t, err)
	assert.Equal(t, bob, res.StudentID)
	require.Len(t, res.Courses, 2)
	assert.Equal(t, student.CourseView{Index: 1, Course: student.Course{Name: "Logic", Credits: 1, Grade: 0}}, res.Courses[1])

	page, err := svc.GetCourses(ctx, ada)
	require.NoError(t, err)
	assert.Len(t, page.Courses, 2)

	_, err = svc.RemoveCourse(ctx, bob, 5)
	assert.Error(t, err)
	assert.Len(t, chain.Txs, 2)
}

func TestService_GetCourses_empty(t *testing.T) {
	svc, chain, _ := setup(t)
	id := chain.AddStudent("Ada", 20, walletA)

	page, err := svc.GetCourses(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, student.StatusEmpty, page.State)
	assert.Empty(t, page.Courses)
}

func TestService_ImportStudents(t *testing.T) {
	ctx := context.Background()
	svc, chain, _ := setup(t)

	hashes, err := svc.ImportStudents(ctx, []student.StudentForm{
		{Name: "Ada", Age: 20, Wallet: walletA.Hex()},
		{Name: "Bob", Age: 21, Wallet: walletB.Hex()},
	})
	require.NoError(t, err)
	assert.Len(t, hashes, 2)
	assert.NotEqual(t, hashes[0], hashes[1])

	page, err := svc.ListStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Bob"}, names(page.Students))

	chain.Fail["eth_sendTransaction:addStudent"] = testutil.ErrReverted
	hashes, err = svc.ImportStudents(ctx, []student.StudentForm{{Name: "Cyd", Age: 22, Wallet: walletC.Hex()}})
	assert.Error(t, err)
	assert.Empty(t, hashes)
}
