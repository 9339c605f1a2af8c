package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/0xJayOnchain/academic-chain/core/student"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *student.Service, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	g.GET("/students", api.list)
	g.GET("/students/summary", api.summary)
	g.GET("/student/:studentId", api.retrieve)
	g.GET("/student-dashboard", api.dashboard)

	// transactions are signed by the wallet; only the operator may trigger them
	g.POST("/students", api.create, jwt)
	g.PUT("/students/:studentId", api.update, jwt)
	g.DELETE("/students/:studentId", api.destroy, jwt)
}

func (api *studentApi) list(ctx echo.Context) error {
	page, err := api.svc.ListStudents(ctx.Request().Context())
	if err != nil {
		return failPage(err, msgFetchStudents)
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *studentApi) summary(ctx echo.Context) error {
	page, err := api.svc.Summary(ctx.Request().Context())
	if err != nil {
		return failPage(err, msgFetchSummary)
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	id, err := pathUint(ctx, studentIDParam)
	if err != nil {
		return err
	}
	page, err := api.svc.GetStudent(ctx.Request().Context(), id)
	if err != nil {
		return failPage(err, msgFetchStudent)
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *studentApi) dashboard(ctx echo.Context) error {
	page, err := api.svc.Dashboard(ctx.Request().Context())
	if err != nil {
		return failPage(err, msgFetchStudent)
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *studentApi) create(ctx echo.Context) error {
	var form student.StudentForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to StudentForm")
	}
	form.ID, form.IsUpdate = 0, false
	return api.submit(ctx, form, http.StatusCreated)
}

func (api *studentApi) update(ctx echo.Context) error {
	id, err := pathUint(ctx, studentIDParam)
	if err != nil {
		return err
	}
	var form student.StudentForm
	if err = ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to StudentForm")
	}
	form.ID, form.IsUpdate = id, true
	return api.submit(ctx, form, http.StatusOK)
}

func (api *studentApi) submit(ctx echo.Context, form student.StudentForm, code int) error {
	if err := form.Validate(api.validate); err != nil {
		return err
	}
	res, err := api.svc.SubmitStudent(ctx.Request().Context(), form)
	if err != nil {
		return failPage(err, msgSubmit)
	}
	return ctx.JSON(code, res)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	id, err := pathUint(ctx, studentIDParam)
	if err != nil {
		return err
	}
	res, err := api.svc.RemoveStudent(ctx.Request().Context(), id)
	if err != nil {
		return failPage(err, msgSubmit)
	}
	return ctx.JSON(http.StatusOK, res)
}
