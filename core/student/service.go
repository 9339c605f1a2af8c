package student

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/0xJayOnchain/academic-chain/core"
)

// maxStudents bounds the number of slots read from the contract in one listing.
const maxStudents = 1 << 16

// slotCount returns studentCount, refusing counts too large to list.
func slotCount(ctx context.Context, l Ledger) (uint64, error) {
	count, err := l.StudentCount(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	if count > maxStudents {
		return 0, errors.Wrapf(ErrTooManyStudents, "%d slots", count)
	}
	return count, nil
}

// Resolver picks the student shown on the dashboard.
type Resolver func(ctx context.Context, l Ledger) (uint64, error)

// FixedStudent always resolves to `id`.
func FixedStudent(id uint64) Resolver {
	return func(context.Context, Ledger) (uint64, error) { return id, nil }
}

// WalletStudent resolves to the first existing student whose wallet is the signer.
func WalletStudent(ctx context.Context, l Ledger) (uint64, error) {
	count, err := slotCount(ctx, l)
	if err != nil {
		return 0, err
	}
	signer := l.Signer()
	for i := uint64(0); i < count; i++ {
		s, err := l.GetStudentData(ctx, i)
		if err != nil {
			return 0, errors.Wrapf(err, "getting student %d", i)
		}
		if s.Exists && strings.EqualFold(s.Wallet.Hex(), signer.Hex()) {
			return i, nil
		}
	}
	return 0, ErrNoWalletMatch
}

// NewResolver returns the dashboard Resolver selected by the configuration.
func NewResolver(conf *core.Config) (Resolver, error) {
	switch conf.Dashboard.Strategy {
	case "", core.DashboardFixed:
		return FixedStudent(conf.Dashboard.StudentID), nil
	case core.DashboardWallet:
		return WalletStudent, nil
	default:
		return nil, errors.Errorf("unknown dashboard strategy %q", conf.Dashboard.Strategy)
	}
}

// Service builds the views of the admin front end from contract reads and submits its forms.
// Nothing is cached: every call reads the contract again.
type Service struct {
	binder      Binder
	dashboard   Resolver
	concurrency int
	logger      core.Logger
}

func NewService(binder Binder, conf *core.Config, logger core.Logger) (*Service, error) {
	resolve, err := NewResolver(conf)
	if err != nil {
		return nil, err
	}
	concurrency := conf.Fetch.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		binder:      binder,
		dashboard:   resolve,
		concurrency: concurrency,
		logger:      logger,
	}, nil
}

// ListStudents returns every existing student; removed slots are skipped.
func (svc *Service) ListStudents(ctx context.Context) (StudentsPage, error) {
	l, err := svc.binder.Acquire(ctx)
	if err != nil {
		return StudentsPage{Page: Page{State: StatusError}}, err
	}
	return svc.listStudents(ctx, l)
}

func (svc *Service) listStudents(ctx context.Context, l Ledger) (StudentsPage, error) {
	page := StudentsPage{Page: loading()}
	students, err := svc.existingStudents(ctx, l)
	if err != nil {
		page.State = StatusError
		return page, err
	}
	page.Students = make([]StudentView, len(students))
	for i, s := range students {
		page.Students[i] = newStudentView(s)
	}
	page.done(len(students) == 0)
	return page, nil
}

// existingStudents reads slots 0..count-1 and keeps those that exist, in id order.
func (svc *Service) existingStudents(ctx context.Context, l Ledger) ([]Student, error) {
	count, err := slotCount(ctx, l)
	if err != nil {
		return nil, err
	}

	slots := make([]Student, count)
	err = svc.each(ctx, int(count), func(ctx context.Context, i int) error {
		s, err := l.GetStudentData(ctx, uint64(i))
		if err != nil {
			return errors.Wrapf(err, "getting student %d", i)
		}
		slots[i] = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	students := make([]Student, 0, len(slots))
	for _, s := range slots {
		if s.Exists {
			students = append(students, s)
		}
	}
	return students, nil
}

// each runs fn for 0..n-1, one after the other unless concurrency allows more.
func (svc *Service) each(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if svc.concurrency <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(svc.concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error { return fn(gctx, i) })
	}
	return g.Wait()
}

func (svc *Service) getExisting(ctx context.Context, l Ledger, id uint64) (Student, error) {
	s, err := l.GetStudentData(ctx, id)
	if err != nil {
		return Student{}, errors.Wrapf(err, "getting student %d", id)
	}
	if !s.Exists {
		return Student{}, ErrNotFound
	}
	return s, nil
}

// gpa returns nil when the GPA cannot be read; the view then shows a placeholder.
func (svc *Service) gpa(ctx context.Context, l Ledger, id uint64) *big.Int {
	raw, err := l.GetGPA(ctx, id)
	if err != nil {
		svc.logger.Warn("reading GPA", errors.Wrapf(err, "student %d", id))
		return nil
	}
	return raw
}

// GetStudent returns the details of one student and their GPA.
func (svc *Service) GetStudent(ctx context.Context, id uint64) (StudentPage, error) {
	l, err := svc.binder.Acquire(ctx)
	if err != nil {
		return StudentPage{Page: Page{State: StatusError}}, err
	}
	return svc.studentPage(ctx, l, id)
}

func (svc *Service) studentPage(ctx context.Context, l Ledger, id uint64) (StudentPage, error) {
	page := StudentPage{Page: loading()}
	s, err := svc.getExisting(ctx, l, id)
	if err != nil {
		page.State = StatusError
		if errors.Cause(err) == ErrNotFound {
			page.State = StatusEmpty
		}
		return page, err
	}
	page.Student = newStudentView(s)
	page.Courses = newCourseViews(s.Courses)
	page.GPAView = newGPAView(svc.gpa(ctx, l, id))
	page.done(false)
	return page, nil
}

// Dashboard returns the dashboard of the student picked by the configured Resolver.
func (svc *Service) Dashboard(ctx context.Context) (DashboardPage, error) {
	l, err := svc.binder.Acquire(ctx)
	if err != nil {
		return DashboardPage{StudentPage: StudentPage{Page: Page{State: StatusError}}}, err
	}

	id, err := svc.dashboard(ctx, l)
	if err != nil {
		page := DashboardPage{StudentPage: StudentPage{Page: Page{State: StatusError}}}
		if err == ErrNoWalletMatch {
			page.State = StatusEmpty
		}
		return page, err
	}

	sp, err := svc.studentPage(ctx, l, id)
	return DashboardPage{StudentPage: sp, CourseCount: len(sp.Courses)}, err
}

// GetCourses returns the courses of one student with their positional indices.
func (svc *Service) GetCourses(ctx context.Context, studentID uint64) (CoursesPage, error) {
	l, err := svc.binder.Acquire(ctx)
	if err != nil {
		return CoursesPage{Page: Page{State: StatusError}, StudentID: studentID}, err
	}
	return svc.coursesPage(ctx, l, studentID)
}

func (svc *Service) coursesPage(ctx context.Context, l Ledger, studentID uint64) (CoursesPage, error) {
	page := CoursesPage{Page: loading(), StudentID: studentID}
	s, err := svc.getExisting(ctx, l, studentID)
	if err != nil {
		page.State = StatusError
		if errors.Cause(err) == ErrNotFound {
			page.State = StatusEmpty
		}
		return page, err
	}
	page.Courses = newCourseViews(s.Courses)
	page.done(len(page.Courses) == 0)
	return page, nil
}

// Summary returns class-wide figures: counts and GPA statistics of existing students.
// Students whose GPA cannot be read are listed but left out of the statistics.
func (svc *Service) Summary(ctx context.Context) (SummaryPage, error) {
	page := SummaryPage{Page: loading()}
	l, err := svc.binder.Acquire(ctx)
	if err != nil {
		page.State = StatusError
		return page, err
	}

	students, err := svc.existingStudents(ctx, l)
	if err != nil {
		page.State = StatusError
		return page, err
	}

	gpas := make([]*big.Int, len(students))
	_ = svc.each(ctx, len(students), func(ctx context.Context, i int) error {
		gpas[i] = svc.gpa(ctx, l, students[i].ID)
		return nil
	})

	page.Rows = make([]SummaryRow, len(students))
	data := make(stats.Float64Data, 0, len(students))
	for i, s := range students {
		page.CourseCount += len(s.Courses)
		page.Rows[i] = SummaryRow{
			Student:     newStudentView(s),
			CourseCount: len(s.Courses),
			GPAView:     newGPAView(gpas[i]),
		}
		if gpas[i] != nil {
			f, _ := new(big.Float).Quo(new(big.Float).SetInt(gpas[i]), big.NewFloat(100)).Float64()
			data = append(data, f)
		}
	}
	page.StudentCount = len(students)

	if len(data) > 0 {
		// errors are only returned for empty input
		page.GPA.Mean, _ = stats.Round(mustStat(data.Mean()), 2)
		page.GPA.Median, _ = stats.Round(mustStat(data.Median()), 2)
		page.GPA.Min = mustStat(data.Min())
		page.GPA.Max = mustStat(data.Max())
	}
	page.done(len(students) == 0)
	return page, nil
}

func mustStat(v float64, _ error) float64 { return v }

// uint8Field narrows a form number to the contract's uint8.
// Forms are expected to be validated first; this only keeps out-of-range values from wrapping.
func uint8Field(field string, v int) (uint8, error) {
	if v < 0 || v > math.MaxUint8 {
		return 0, core.NewValidationError(nil, core.FieldError{Field: field, Error: fmt.Sprintf("must be between 0 and %d", math.MaxUint8)})
	}
	return uint8(v), nil
}

// SubmitStudent creates a student, or updates form.ID when form.IsUpdate is set,
// then reads the student list again.
func (svc *Service) SubmitStudent(ctx context.Context, form StudentForm) (StudentsResult, error) {
	age, err := uint8Field("age", form.Age)
	if err != nil {
		return StudentsResult{}, err
	}
	l, err := svc.binder.Acquire(ctx)
	if err != nil {
		return StudentsResult{}, err
	}

	var tx common.Hash
	wallet := common.HexToAddress(form.Wallet)
	if form.IsUpdate {
		tx, err = l.UpdateStudent(ctx, form.ID, form.Name, age, wallet)
		err = errors.Wrapf(err, "updating student %d", form.ID)
	} else {
		tx, err = l.AddStudent(ctx, form.Name, age, wallet)
		err = errors.Wrap(err, "adding student")
	}
	if err != nil {
		return StudentsResult{}, err
	}
	svc.logger.Info("student submitted", map[string]interface{}{"tx": tx.Hex(), "update": form.IsUpdate, "id": form.ID})

	page, err := svc.listStudents(ctx, l)
	return StudentsResult{TxHash: tx, StudentsPage: page}, err
}

// RemoveStudent marks a student as removed then reads the student list again.
func (svc *Service) RemoveStudent(ctx context.Context, id uint64) (StudentsResult, error) {
	l, err := svc.binder.Acquire(ctx)
	if err != nil {
		return StudentsResult{}, err
	}
	tx, err := l.RemoveStudent(ctx, id)
	if err != nil {
		return StudentsResult{}, errors.Wrapf(err, "removing student %d", id)
	}
	svc.logger.Info("student removed", map[string]interface{}{"tx": tx.Hex(), "id": id})

	page, err := svc.listStudents(ctx, l)
	return StudentsResult{TxHash: tx, StudentsPage: page}, err
}

// AddCourse appends a course to a student then reads their courses again.
func (svc *Service) AddCourse(ctx context.Context, studentID uint64, form CourseForm) (CoursesResult, error) {
	credits, err := uint8Field("credits", form.Credits)
	if err != nil {
		return CoursesResult{}, err
	}
	grade, err := uint8Field("grade", form.Grade)
	if err != nil {
		return CoursesResult{}, err
	}
	l, err := svc.binder.Acquire(ctx)
	if err != nil {
		return CoursesResult{}, err
	}
	tx, err := l.AddCourse(ctx, studentID, form.Name, credits, grade)
	if err != nil {
		return CoursesResult{}, errors.Wrapf(err, "adding course to student %d", studentID)
	}
	svc.logger.Info("course added", map[string]interface{}{"tx": tx.Hex(), "student": studentID})

	page, err := svc.coursesPage(ctx, l, studentID)
	return CoursesResult{TxHash: tx, CoursesPage: page}, err
}

// RemoveCourse removes the course at `index` then reads the student's courses again.
func (svc *Service) RemoveCourse(ctx context.Context, studentID, index uint64) (CoursesResult, error) {
	l, err := svc.binder.Acquire(ctx)
	if err != nil {
		return CoursesResult{}, err
	}
	tx, err := l.RemoveCourse(ctx, studentID, index)
	if err != nil {
		return CoursesResult{}, errors.Wrapf(err, "removing course %d of student %d", index, studentID)
	}
	svc.logger.Info("course removed", map[string]interface{}{"tx": tx.Hex(), "student": studentID, "index": index})

	page, err := svc.coursesPage(ctx, l, studentID)
	return CoursesResult{TxHash: tx, CoursesPage: page}, err
}

// ImportStudents adds every form in order with a single binding.
// It stops at the first failure and returns the hashes of the transactions already sent.
func (svc *Service) ImportStudents(ctx context.Context, forms []StudentForm) ([]common.Hash, error) {
	ages := make([]uint8, len(forms))
	for i, f := range forms {
		age, err := uint8Field("age", f.Age)
		if err != nil {
			return nil, errors.Wrapf(err, "student #%d (%s)", i+1, f.Name)
		}
		ages[i] = age
	}
	l, err := svc.binder.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	hashes := make([]common.Hash, 0, len(forms))
	for i, f := range forms {
		tx, err := l.AddStudent(ctx, f.Name, ages[i], common.HexToAddress(f.Wallet))
		if err != nil {
			return hashes, errors.Wrapf(err, "adding student #%d (%s)", i+1, f.Name)
		}
		hashes = append(hashes, tx)
	}
	return hashes, nil
}
