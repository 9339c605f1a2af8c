package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/0xJayOnchain/academic-chain/core/student"
	"github.com/0xJayOnchain/academic-chain/core/wallet"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	svc        *student.Service
	guard      *wallet.Guard
	validate   *validator.Validate
	translator ut.Translator
	timeout    time.Duration // wallet round-trips; 0: none
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  students - list students")
	fmt.Fprintln(cli.out, "  student -id ID - show a student's details and courses")
	fmt.Fprintln(cli.out, "  dashboard - show the dashboard student")
	fmt.Fprintln(cli.out, "  network [-connect|-switch] - show the wallet status, or fix it")
	fmt.Fprintln(cli.out, "  export -file FILE.xlsx - export students with their GPA")
	fmt.Fprintln(cli.out, "  import -file FILE.xlsx - add the students listed in a workbook (Name, Age, Wallet)")
	fmt.Fprintln(cli.out, "  hashpassword - hash the API operator password; the password is prompted")
}

func (cli *commandLine) context() (context.Context, context.CancelFunc) {
	if cli.timeout > 0 {
		return context.WithTimeout(context.Background(), cli.timeout)
	}
	return context.WithCancel(context.Background())
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	studentCmd := flag.NewFlagSet("student", flag.ContinueOnError)
	studentID := studentCmd.Int64("id", -1, "The student ID.")

	networkCmd := flag.NewFlagSet("network", flag.ContinueOnError)
	networkConnect := networkCmd.Bool("connect", false, "Ask the wallet to connect an account.")
	networkSwitch := networkCmd.Bool("switch", false, "Ask the wallet to switch to the target network, adding it if needed.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportFile := exportCmd.String("file", "", "The workbook to write.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "The workbook to read.")

	for _, fs := range []*flag.FlagSet{studentCmd, networkCmd, exportCmd, importCmd} {
		fs.SetOutput(cli.out)
	}

	ctx, cancel := cli.context()
	defer cancel()

	switch args[1] {
	case "students":
		return cli.students(ctx)
	case "student":
		if err := studentCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *studentID < 0 {
			studentCmd.Usage()
			return errHelp
		}
		return cli.student(ctx, uint64(*studentID))
	case "dashboard":
		return cli.dashboard(ctx)
	case "network":
		if err := networkCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *networkConnect && *networkSwitch {
			networkCmd.Usage()
			return errHelp
		}
		return cli.network(ctx, *networkConnect, *networkSwitch)
	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *exportFile == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.export(ctx, *exportFile)
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importStudents(ctx, *importFile)
	case "hashpassword":
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}
