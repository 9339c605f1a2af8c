// Package sheetsvc moves student records in and out of Excel workbooks.
package sheetsvc

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/0xJayOnchain/academic-chain/core/student"
)

const sheetName = "Students"

var (
	exportHeader = []interface{}{"ID", "Name", "Age", "Wallet", "Courses", "GPA"}

	ErrNoSheet = errors.New("workbook does not contain any sheets")
)

// WriteStudents writes one row per summary row to a new workbook.
func WriteStudents(w io.Writer, rows []student.SummaryRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	if err := f.SetSheetRow(sheetName, "A1", &exportHeader); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{r.Student.ID, r.Student.Name, r.Student.Age, r.Student.Wallet, r.CourseCount, r.GPADisplay}
		if err = f.SetSheetRow(sheetName, cell, &values); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}
	_, err := f.WriteTo(w)
	return errors.Wrap(err, "writing workbook")
}

// Row is a student form with the sheet row it was read from, counting from 1.
type Row struct {
	Line int
	Form student.StudentForm
}

// ReadStudents reads student forms from the first sheet of a workbook.
// The first row is a header naming the Name, Age and Wallet columns, in any order;
// other columns are ignored, so a workbook written by WriteStudents can be read back.
// Blank rows are skipped.
func ReadStudents(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheet)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	cols, err := columns(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}
		form := student.StudentForm{Name: cell(row, cols.name), Wallet: cell(row, cols.wallet)}
		if age := cell(row, cols.age); age != "" {
			if form.Age, err = strconv.Atoi(age); err != nil {
				return nil, errors.Errorf("row %d: age %q is not a number", line, age)
			}
		}
		out = append(out, Row{Line: line, Form: form})
	}
	return out, nil
}

type importColumns struct {
	name, age, wallet int
}

func columns(header []string) (importColumns, error) {
	cols := importColumns{name: -1, age: -1, wallet: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "name":
			cols.name = i
		case "age":
			cols.age = i
		case "wallet":
			cols.wallet = i
		}
	}
	switch {
	case cols.name < 0:
		return cols, errors.New("header has no Name column")
	case cols.age < 0:
		return cols, errors.New("header has no Age column")
	case cols.wallet < 0:
		return cols, errors.New("header has no Wallet column")
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
