package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/0xJayOnchain/academic-chain/core/wallet"
)

// NetworkResponse is the wallet status with the remediation offered when it is not ready.
type NetworkResponse struct {
	wallet.Status
	Error  string        `json:"error,omitempty"`
	Action wallet.Action `json:"action,omitempty"`
}

type networkApi struct {
	guard *wallet.Guard
}

func registerNetworkAPI(g *echo.Group, jwt echo.MiddlewareFunc, guard *wallet.Guard) {
	api := networkApi{guard: guard}

	ng := g.Group("/network")
	ng.GET("", api.status)
	ng.POST("/connect", api.connect, jwt)
	ng.POST("/switch", api.switchNetwork, jwt)
}

// status answers 200 whatever the wallet state.
func (api *networkApi) status(ctx echo.Context) error {
	st, err := api.guard.Check(ctx.Request().Context())
	res := NetworkResponse{Status: st}
	if err != nil {
		var werr *wallet.Error
		if !errors.As(err, &werr) {
			return errors.Wrap(err, "checking wallet")
		}
		res.Error, res.Action = werr.Message, werr.Action
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *networkApi) connect(ctx echo.Context) error {
	st, err := api.guard.Connect(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, NetworkResponse{Status: st})
}

func (api *networkApi) switchNetwork(ctx echo.Context) error {
	st, err := api.guard.SwitchNetwork(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, NetworkResponse{Status: st})
}
