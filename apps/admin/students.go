package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/0xJayOnchain/academic-chain/core/student"
)

func (cli *commandLine) table() *tabwriter.Writer {
	return tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
}

func (cli *commandLine) students(ctx context.Context) error {
	page, err := cli.svc.ListStudents(ctx)
	if err != nil {
		return err
	}
	if page.State == student.StatusEmpty {
		fmt.Fprintln(cli.out, "No students found.")
		return nil
	}

	w := cli.table()
	fmt.Fprintln(w, "ID\tNAME\tAGE\tWALLET")
	for _, s := range page.Students {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", s.ID, s.Name, s.Age, s.WalletShort)
	}
	return w.Flush()
}

func (cli *commandLine) student(ctx context.Context, id uint64) error {
	page, err := cli.svc.GetStudent(ctx, id)
	if err != nil {
		return err
	}
	return cli.printStudent(page, len(page.Courses))
}

func (cli *commandLine) dashboard(ctx context.Context) error {
	page, err := cli.svc.Dashboard(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Welcome, %s!\n", page.Student.Name)
	return cli.printStudent(page.StudentPage, page.CourseCount)
}

func (cli *commandLine) printStudent(page student.StudentPage, courseCount int) error {
	w := cli.table()
	fmt.Fprintf(w, "ID:\t%d\n", page.Student.ID)
	fmt.Fprintf(w, "Name:\t%s\n", page.Student.Name)
	fmt.Fprintf(w, "Age:\t%d\n", page.Student.Age)
	fmt.Fprintf(w, "Wallet:\t%s\n", page.Student.Wallet)
	fmt.Fprintf(w, "GPA:\t%s\n", page.GPADisplay)
	fmt.Fprintf(w, "Courses:\t%d\n", courseCount)
	if err := w.Flush(); err != nil {
		return err
	}
	if courseCount == 0 {
		return nil
	}

	fmt.Fprintln(cli.out)
	w = cli.table()
	fmt.Fprintln(w, "#\tCOURSE\tCREDITS\tGRADE")
	for _, c := range page.Courses {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", c.Index, c.Name, c.Credits, c.Grade)
	}
	return w.Flush()
}
