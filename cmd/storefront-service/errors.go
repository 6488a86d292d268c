package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront-ecom/internal/cart"
	"github.com/MikeMC777/storefront-ecom/internal/checkout"
	"github.com/MikeMC777/storefront-ecom/internal/httpx"
	"github.com/MikeMC777/storefront-ecom/internal/order"
	"github.com/MikeMC777/storefront-ecom/internal/payment"
	"github.com/MikeMC777/storefront-ecom/internal/profile"
)

type errStatus struct {
	err    error
	status int
}

// First match wins, so the more specific checkout errors come before the generic ones.
var errStatuses = []errStatus{
	{checkout.ErrPaymentNotCompleted, http.StatusPaymentRequired},
	{checkout.ErrAmountMismatch, http.StatusConflict},
	{checkout.ErrChargeMismatch, http.StatusConflict},
	{checkout.ErrPaymentNotFound, http.StatusNotFound},
	{checkout.ErrProductUnavailable, http.StatusConflict},
	{checkout.ErrEmptyCart, http.StatusBadRequest},
	{checkout.ErrAddressRequired, http.StatusBadRequest},
	{checkout.ErrInvalidInput, http.StatusBadRequest},
	{payment.ErrUnknownProvider, http.StatusBadRequest},
	{payment.ErrProvider, http.StatusBadGateway},

	{order.ErrNotOwner, http.StatusForbidden},
	{order.ErrInvalidTransition, http.StatusConflict},
	{order.ErrConflict, http.StatusConflict},
	{order.ErrDuplicatePayment, http.StatusConflict},
	{order.ErrInvalidInput, http.StatusBadRequest},
	{order.ErrNotFound, http.StatusNotFound},

	{cart.ErrInvalidInput, http.StatusBadRequest},
	{cart.ErrItemNotFound, http.StatusNotFound},
	{cart.ErrProductNotFound, http.StatusNotFound},
	{cart.ErrNotFound, http.StatusNotFound},

	{profile.ErrInvalidInput, http.StatusBadRequest},
	{profile.ErrAddressNotFound, http.StatusNotFound},
	{profile.ErrNotFound, http.StatusNotFound},
	{profile.ErrConflict, http.StatusConflict},

	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

func writeError(c *gin.Context, err error) {
	for _, m := range errStatuses {
		if errors.Is(err, m.err) {
			msg := err.Error()
			if m.status == http.StatusBadGateway || m.status == http.StatusGatewayTimeout {
				msg = m.err.Error()
			}
			httpx.FailErr(c, m.status, msg, err)
			return
		}
	}
	httpx.FailErr(c, http.StatusInternalServerError, "internal error", err)
}
