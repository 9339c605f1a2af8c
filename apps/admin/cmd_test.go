package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/0xJayOnchain/academic-chain/core"
	"github.com/0xJayOnchain/academic-chain/core/student"
	"github.com/0xJayOnchain/academic-chain/core/wallet"
	"github.com/0xJayOnchain/academic-chain/tests"
)

var (
	walletA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	walletB = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func setup(t *testing.T) (*commandLine, *testutil.Chain, *bytes.Buffer) {
	t.Helper()
	conf := testutil.Config()
	chain := testutil.NewChain()
	guard := wallet.NewGuard(chain, conf.TargetChain())
	contract, err := student.NewContract(chain, guard, testutil.ContractAddress)
	require.NoError(t, err)
	svc, err := student.NewService(contract, conf, new(testutil.Logger))
	require.NoError(t, err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	student.InitValidators(validate, translator)

	var out bytes.Buffer
	return &commandLine{
		svc:        svc,
		guard:      guard,
		validate:   validate,
		translator: translator,
		out:        &out,
	}, chain, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, _ := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "student: no id", args: []string{"student"}, wantErr: errHelp},
		{name: "student: bad id", args: []string{"student", "-id", "x"}, wantErr: errHelp},
		{name: "network: both actions", args: []string{"network", "-connect", "-switch"}, wantErr: errHelp},
		{name: "export: no file", args: []string{"export"}, wantErr: errHelp},
		{name: "import: no file", args: []string{"import"}, wantErr: errHelp},
	})
}

func Test_commandLine_students(t *testing.T) {
	cli, chain, out := setup(t)

	require.NoError(t, cli.run([]string{"admin", "students"}))
	assert.Equal(t, "No students found.\n", out.String())

	chain.AddStudent("Ada", 20, walletA, student.Course{Name: "Algebra", Credits: 3, Grade: 100})
	chain.AddStudent("Bob", 21, walletB)
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "students"}))
	assert.Equal(t,
		"ID  NAME  AGE  WALLET\n"+
			"0   Ada   20   0x1111...1111\n"+
			"1   Bob   21   0x2222...2222\n",
		out.String())

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "student", "-id", "0"}))
	assert.Contains(t, out.String(), "GPA:      4.00\n")
	assert.Contains(t, out.String(), "0  Algebra  3        100\n")

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "dashboard"}))
	assert.Contains(t, out.String(), "Welcome, Bob!\n")
	assert.Contains(t, out.String(), "GPA:      N/A\n")

	err := cli.run([]string{"admin", "student", "-id", "7"})
	assert.Equal(t, student.ErrNotFound, err)
}

func Test_commandLine_network(t *testing.T) {
	cli, chain, out := setup(t)
	chain.ChainID = 1
	delete(chain.KnownChains, testutil.TargetChainID)

	err := cli.run([]string{"admin", "network"})
	var werr *wallet.Error
	require.True(t, errors.As(err, &werr))
	assert.Contains(t, out.String(), "State:   wrong-network\n")
	assert.Contains(t, out.String(), "Please switch to the Base Sepolia network (Chain ID: 84532).\nRun `network -switch` to switch.\n")

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "network", "-switch"}))
	assert.Contains(t, out.String(), "State:   ready\n")
	assert.Len(t, chain.Added, 1)

	chain.Connected = false
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "network", "-connect"}))
	assert.Contains(t, out.String(), "Account: "+testutil.Operator.Hex()+"\n")
}

func Test_commandLine_hashpassword(t *testing.T) {
	cli, _, out := setup(t)
	defer func(fn func(int) ([]byte, error)) { readPasswordFunc = fn }(readPasswordFunc)

	readPasswordFunc = func(int) ([]byte, error) { return nil, nil }
	assert.Equal(t, errHelp, cli.run([]string{"admin", "hashpassword"}))

	readPasswordFunc = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
	assert.EqualError(t, cli.run([]string{"admin", "hashpassword"}), "not a terminal")

	readPasswordFunc = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "hashpassword"}))
	m := regexp.MustCompile(`PROD_AUTH_PASSWORDHASH='(.+)'`).FindStringSubmatch(out.String())
	require.Len(t, m, 2)
	assert.True(t, core.CheckPassword(m[1], "s3cret"))
}

func writeWorkbook(t *testing.T, path string, rows ...[]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}
	require.NoError(t, f.SaveAs(path))
}

func Test_commandLine_importExport(t *testing.T) {
	cli, chain, out := setup(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.xlsx")
	writeWorkbook(t, bad,
		[]interface{}{"Name", "Age", "Wallet"},
		[]interface{}{"Ada", 20, walletA.Hex()},
		[]interface{}{},
		[]interface{}{},
		[]interface{}{"Kid", 12, "0x12"},
	)
	err := cli.run([]string{"admin", "import", "-file", bad})
	assert.EqualError(t, err, "row 5: age must be 16 or greater; wallet must be a valid wallet address")
	assert.Empty(t, chain.Txs)

	good := filepath.Join(dir, "good.xlsx")
	writeWorkbook(t, good,
		[]interface{}{"Name", "Age", "Wallet"},
		[]interface{}{"Ada", 20, walletA.Hex()},
		[]interface{}{"Bob", 21, walletB.Hex()},
	)
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "import", "-file", good}))
	assert.Contains(t, out.String(), "Submitted 2 students\n")
	require.Len(t, chain.Txs, 2)
	assert.Equal(t, "addStudent", chain.Txs[1].Method)

	export := filepath.Join(dir, "export.xlsx")
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "export", "-file", export}))
	assert.Equal(t, "Exported 2 students to "+export+"\n", out.String())

	f, err := excelize.OpenFile(export)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Students")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "Bob", "21", walletB.Hex(), "0", "N/A"}, rows[2])

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "import", "-file", export}))
	assert.Contains(t, out.String(), "Submitted 2 students\n")
	require.Len(t, chain.Txs, 4)

	assert.Error(t, cli.run([]string{"admin", "import", "-file", filepath.Join(dir, "missing.xlsx")}))
}
