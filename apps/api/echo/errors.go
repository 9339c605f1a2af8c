package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/0xJayOnchain/academic-chain/core"
	"github.com/0xJayOnchain/academic-chain/core/student"
	"github.com/0xJayOnchain/academic-chain/core/wallet"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "operator not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
)

// Messages shown when a page cannot be read from the contract.
const (
	msgFetchStudents = "Failed to fetch students."
	msgFetchStudent  = "Failed to fetch student data."
	msgFetchCourses  = "Failed to fetch courses."
	msgFetchSummary  = "Failed to fetch class summary."
	msgSubmit        = "Failed to submit transaction."
)

// pageError is a contract or wallet failure while serving a page.
// The wallet's own message is logged, the user only sees `message`.
type pageError struct {
	message string
	err     error
}

func failPage(err error, msg string) error {
	return &pageError{message: msg, err: err}
}

func (e *pageError) Error() string { return e.message + ": " + e.err.Error() }
func (e *pageError) Cause() error  { return e.err }
func (e *pageError) Unwrap() error { return e.err }

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *wallet.Error:
			code = http.StatusConflict
			if origErr.State == wallet.StateNoProvider {
				code = http.StatusServiceUnavailable
			}
			if origErr.Err != nil {
				logger.Warn(origErr.Message, origErr.Err, contextOperator(ctx))
			}
			message = echo.Map{"state": origErr.State, "error": origErr.Message, "action": origErr.Action}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = core.TranslateErrors(origErr, translator)
		case *core.ValidationError:
			if flds := origErr.FieldMap(); flds != nil {
				message = flds
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if cause == student.ErrNotFound || cause == student.ErrNoWalletMatch {
				code = http.StatusNotFound
				message = echo.Map{"state": student.StatusEmpty, "error": cause.Error()}
				break
			}

			var pErr *pageError
			if errors.As(err, &pErr) {
				code = http.StatusBadGateway
				message = echo.Map{"state": student.StatusError, "error": pErr.message}
				logger.Error(pErr.message, err, contextOperator(ctx))
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, errors.Wrap(err, msg), contextOperator(ctx))
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
