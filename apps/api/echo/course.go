package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/0xJayOnchain/academic-chain/core/student"
)

type courseApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *student.Service, validate *validator.Validate) {
	api := courseApi{svc: svc, validate: validate}

	cg := g.Group("/courses/:studentId")
	cg.GET("", api.list)
	cg.POST("", api.create, jwt)
	cg.DELETE("/:courseIndex", api.destroy, jwt)
}

func (api *courseApi) list(ctx echo.Context) error {
	id, err := pathUint(ctx, studentIDParam)
	if err != nil {
		return err
	}
	page, err := api.svc.GetCourses(ctx.Request().Context(), id)
	if err != nil {
		return failPage(err, msgFetchCourses)
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *courseApi) create(ctx echo.Context) error {
	id, err := pathUint(ctx, studentIDParam)
	if err != nil {
		return err
	}
	var form student.CourseForm
	if err = ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to CourseForm")
	}
	if err = form.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.AddCourse(ctx.Request().Context(), id, form)
	if err != nil {
		return failPage(err, msgSubmit)
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	id, err := pathUint(ctx, studentIDParam)
	if err != nil {
		return err
	}
	index, err := pathUint(ctx, courseIndexParam)
	if err != nil {
		return err
	}

	res, err := api.svc.RemoveCourse(ctx.Request().Context(), id, index)
	if err != nil {
		return failPage(err, msgSubmit)
	}
	return ctx.JSON(http.StatusOK, res)
}
