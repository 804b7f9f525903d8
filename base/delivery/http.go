package delivery

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/service/query"
)

type JsonResponseStatus string

const (
	JsonResponseStatusSuccess JsonResponseStatus = "success"
	JsonResponseStatusFail    JsonResponseStatus = "fail"
)

type JsonResponse struct {
	Data   interface{}        `json:"data"`
	Status JsonResponseStatus `json:"status"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrOrderNotFound, http.StatusNotFound},
	{domain.ErrNotFound, http.StatusNotFound},
	{query.ErrNotFound, http.StatusNotFound},

	{domain.ErrNotOwner, http.StatusForbidden},
	{domain.ErrNotAdmin, http.StatusForbidden},
	{domain.ErrInvalidSignature, http.StatusUnauthorized},

	{domain.ErrAlreadyInitialized, http.StatusConflict},
	{domain.ErrNotInitialized, http.StatusConflict},
	{domain.ErrOrderNotAvailable, http.StatusConflict},
	{domain.ErrOrderNotOpen, http.StatusConflict},
	{domain.ErrOrderExpired, http.StatusConflict},
	{domain.ErrStateConflict, http.StatusConflict},
	{domain.ErrConflict, http.StatusConflict},

	{domain.ErrSellerAccessRevoked, http.StatusUnprocessableEntity},
	{domain.ErrSellerInsufficientBalance, http.StatusUnprocessableEntity},
	{domain.ErrBuyerAllowanceInsufficient, http.StatusUnprocessableEntity},
	{domain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
	{domain.ErrInsufficientPayment, http.StatusUnprocessableEntity},

	{domain.ErrInvalidOrderParams, http.StatusBadRequest},
	{domain.ErrInvalidFeePercent, http.StatusBadRequest},
	{domain.ErrInvalidAddress, http.StatusBadRequest},
	{domain.ErrInvalidCurrency, http.StatusBadRequest},
	{domain.ErrInvalidNumberFormat, http.StatusBadRequest},
	{domain.ErrBadParamInput, http.StatusBadRequest},
}

// ErrorStatus maps a domain error to its http status, 500 when unknown
func ErrorStatus(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func MakeJsonResp(c echo.Context, status int, data interface{}) error {
	if err, ok := data.(error); ok {
		if s := ErrorStatus(err); s != http.StatusInternalServerError || status < 400 {
			status = s
		}
		body := ErrorBody{Code: domain.ErrorCode(err), Message: err.Error()}
		if status == http.StatusInternalServerError {
			// internals stay in the logs
			body.Message = domain.ErrInternalServerError.Error()
		}
		data = body
	}

	if status >= 400 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusFail})
	}

	if status >= 200 && status < 300 {
		return c.JSON(status, JsonResponse{data, JsonResponseStatusSuccess})
	}

	return c.JSON(status, data)
}
