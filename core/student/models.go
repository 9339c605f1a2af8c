package student

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/0xJayOnchain/academic-chain/core"
)

// GPAPlaceholder is displayed when the GPA could not be read.
const GPAPlaceholder = "N/A"

var (
	ErrNotFound        = errors.New("student not found")
	ErrNoWalletMatch   = errors.New("no student found for this wallet address")
	ErrNoContract      = errors.New("no contract code at address")
	ErrValueTooLarge   = errors.New("value does not fit in 64 bits")
	ErrTooManyStudents = errors.New("too many student slots to list")
	errUnexpectedType  = errors.New("unexpected return type")
)

// Course mirrors the contract's course tuple; the field order must match it.
type Course struct {
	Name    string `json:"name"`
	Credits uint8  `json:"credits"`
	Grade   uint8  `json:"grade"`
}

// Student is a record as returned by the contract.
// Exists is false for removed students and for ids that were never assigned.
type Student struct {
	ID      uint64
	Name    string
	Age     uint8
	Wallet  common.Address
	Courses []Course
	Exists  bool
}

// FormatGPA renders a GPA scaled by 100 with exactly two decimals, e.g. 350 -> "3.50".
func FormatGPA(raw *big.Int) string {
	if raw == nil {
		return GPAPlaceholder
	}
	q, r := new(big.Int).QuoRem(raw, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s.%02d", q.String(), r.Int64())
}

// ShortAddress shortens an address for display: first 6 characters, "..." and the last 4.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// Page lifecycle states.
type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

type Page struct {
	State Status `json:"state"`
}

func loading() Page { return Page{State: StatusLoading} }

func (p *Page) done(empty bool) {
	if empty {
		p.State = StatusEmpty
	} else {
		p.State = StatusSuccess
	}
}

type StudentView struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Age         uint8  `json:"age"`
	Wallet      string `json:"wallet"`
	WalletShort string `json:"wallet_short"`
}

func newStudentView(s Student) StudentView {
	addr := s.Wallet.Hex()
	return StudentView{
		ID:          s.ID,
		Name:        s.Name,
		Age:         s.Age,
		Wallet:      addr,
		WalletShort: ShortAddress(addr),
	}
}

// CourseView is a course with the positional index it was read at.
// Indices shift down when an earlier course is removed.
type CourseView struct {
	Index uint64 `json:"index"`
	Course
}

func newCourseViews(courses []Course) []CourseView {
	views := make([]CourseView, len(courses))
	for i, c := range courses {
		views[i] = CourseView{Index: uint64(i), Course: c}
	}
	return views
}

// GPAView carries the raw GPA (null when unavailable) and its display form.
type GPAView struct {
	GPA        null.String `json:"gpa"`
	GPADisplay string      `json:"gpa_display"`
}

func newGPAView(raw *big.Int) GPAView {
	if raw == nil {
		return GPAView{GPADisplay: GPAPlaceholder}
	}
	s := FormatGPA(raw)
	return GPAView{GPA: null.StringFrom(s), GPADisplay: s}
}

// StudentsPage backs the student management list.
type StudentsPage struct {
	Page
	Students []StudentView `json:"students"`
}

// StudentPage backs the student details view.
type StudentPage struct {
	Page
	Student StudentView  `json:"student"`
	Courses []CourseView `json:"courses"`
	GPAView
}

// CoursesPage backs the course management view of one student.
type CoursesPage struct {
	Page
	StudentID uint64       `json:"student_id"`
	Courses   []CourseView `json:"courses"`
}

// DashboardPage backs the student dashboard.
type DashboardPage struct {
	StudentPage
	CourseCount int `json:"course_count"`
}

type SummaryRow struct {
	Student     StudentView `json:"student"`
	CourseCount int         `json:"course_count"`
	GPAView
}

type GPAStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// SummaryPage holds class-wide figures over existing students.
type SummaryPage struct {
	Page
	StudentCount int          `json:"student_count"`
	CourseCount  int          `json:"course_count"`
	GPA          GPAStats     `json:"gpa_stats"`
	Rows         []SummaryRow `json:"rows"`
}

// StudentsResult is returned by student mutations: the transaction and the refreshed list.
type StudentsResult struct {
	TxHash common.Hash `json:"tx_hash"`
	StudentsPage
}

// CoursesResult is returned by course mutations: the transaction and the refreshed course list.
type CoursesResult struct {
	TxHash common.Hash `json:"tx_hash"`
	CoursesPage
}

// StudentForm is the add/edit student form. IsUpdate selects update of ID instead of create.
type StudentForm struct {
	ID       uint64 `json:"id"`
	IsUpdate bool   `json:"is_update"`
	Name     string `json:"name" validate:"required"`
	Age      int    `json:"age" validate:"min=16,max=150"`
	Wallet   string `json:"wallet" validate:"required,eth_addr"`
}

func (f *StudentForm) Validate(validate *validator.Validate) error {
	f.Name = core.CleanName(f.Name)
	f.Wallet = core.CleanString(f.Wallet)
	return validate.Struct(f)
}

// CourseForm is the add course form.
type CourseForm struct {
	Name    string `json:"name" validate:"required"`
	Credits int    `json:"credits" validate:"min=1,max=10"`
	Grade   int    `json:"grade" validate:"min=0,max=100"`
}

func (f *CourseForm) Validate(validate *validator.Validate) error {
	f.Name = core.CleanName(f.Name)
	return validate.Struct(f)
}
