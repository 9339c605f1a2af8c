package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/0xJayOnchain/academic-chain/core"
	"github.com/0xJayOnchain/academic-chain/core/student"
	sheetsvc "github.com/0xJayOnchain/academic-chain/services/sheets"
)

func (cli *commandLine) export(ctx context.Context, path string) error {
	page, err := cli.svc.Summary(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = sheetsvc.WriteStudents(f, page.Rows); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Exported %d students to %s\n", len(page.Rows), path)
	return nil
}

// importStudents validates every row before sending any transaction.
func (cli *commandLine) importStudents(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := sheetsvc.ReadStudents(f)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(cli.out, "No students to import.")
		return nil
	}
	forms := make([]student.StudentForm, len(rows))
	for i, row := range rows {
		if err = row.Form.Validate(cli.validate); err != nil {
			return errors.Wrapf(cli.describe(err), "row %d", row.Line)
		}
		forms[i] = row.Form
	}

	hashes, err := cli.svc.ImportStudents(ctx, forms)
	for i, h := range hashes {
		fmt.Fprintf(cli.out, "%s: %s\n", forms[i].Name, h.Hex())
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Submitted %d students\n", len(hashes))
	return nil
}

// describe flattens validation errors into a single readable error.
func (cli *commandLine) describe(err error) error {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	flds := core.TranslateErrors(vErrs, cli.translator)
	msgs := make([]string, 0, len(flds))
	for _, msg := range flds {
		msgs = append(msgs, msg)
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}
