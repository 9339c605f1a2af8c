package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/0xJayOnchain/academic-chain/core"
)

const (
	studentIDParam   = "studentId"
	courseIndexParam = "courseIndex"
)

// pathUint parses a non-negative integer path parameter.
func pathUint(ctx echo.Context, name string) (uint64, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be a non-negative integer"})
	}
	return v, nil
}
