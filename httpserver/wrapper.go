package httpserver

import (
	"net/http"

	"github.com/andyle182810/orchestrator-dashboard/middleware"
	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog/log"
)

// HandlerFunc receives the bound and validated request and returns the value
// rendered as the JSON body of a 200 response.
type HandlerFunc[REQ any, RES any] func(ectx *echo.Context, request *REQ) (RES, error)

func Wrap[REQ any, RES any](delegate HandlerFunc[REQ, RES]) echo.HandlerFunc {
	return func(ectx *echo.Context) error {
		req, err := bindAndValidate[REQ](ectx)
		if err != nil {
			return err
		}

		ectx.Set(middleware.ContextKeyBody, req)

		res, err := delegate(ectx, req)
		if err != nil {
			return err
		}

		return ectx.JSON(http.StatusOK, res)
	}
}

func bindAndValidate[REQ any](ectx *echo.Context) (*REQ, error) {
	var req REQ

	if err := ectx.Bind(&req); err != nil {
		logBindError(ectx, err, "Failed to bind request to the expected structure")

		return nil, echo.NewHTTPError(http.StatusBadRequest, "malformed request").Wrap(err)
	}

	if err := ectx.Validate(&req); err != nil {
		logBindError(ectx, err, "Request validation failed")

		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error()).Wrap(err)
	}

	return &req, nil
}

func logBindError(ectx *echo.Context, err error, msg string) {
	log.Debug().
		Err(err).
		Str("path", ectx.Request().URL.Path).
		Str("request_id", middleware.GetRequestID(ectx)).
		Str("handler", middleware.GetHandler(ectx)).
		Msg(msg)
}
