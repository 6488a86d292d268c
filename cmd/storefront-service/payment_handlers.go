package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront-ecom/internal/checkout"
	"github.com/MikeMC777/storefront-ecom/internal/httpx"
	"github.com/MikeMC777/storefront-ecom/internal/order"
)

// checkoutAPI is satisfied by *checkout.Service.
type checkoutAPI interface {
	Quote(ctx context.Context, cartKey string) (checkout.Summary, error)
	CreatePayment(ctx context.Context, req checkout.PaymentRequest) (checkout.PaymentResult, error)
	Capture(ctx context.Context, req checkout.CaptureRequest) (*order.Order, error)
}

type createPaymentRequest struct {
	// Total the client displayed; rejected when it differs from the server total.
	Amount   string `json:"amount" example:"132.27"`
	Currency string `json:"currency" example:"USD"`
}

type captureRequest struct {
	ShippingAddress *order.Address `json:"shipping_address"`
	BillingAddress  *order.Address `json:"billing_address"`
}

// createPaymentHandler godoc
// @Summary   Create provider order for the cart
// @Tags      payments
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     X-Cart-ID  header  string                false  "session cart id"
// @Param     provider   path    string                true   "paypal or stripe"
// @Param     body       body    createPaymentRequest  false  "displayed total"
// @Success   201  {object}  checkout.PaymentResult
// @Failure   400  {object}  httpx.HTTPError
// @Failure   409  {object}  httpx.HTTPError
// @Failure   502  {object}  httpx.HTTPError
// @Router    /payments/{provider}/orders [post]
func createPaymentHandler(co checkoutAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := cartKey(c)
		if err != nil {
			writeError(c, err)
			return
		}
		var in createPaymentRequest
		if err := bindOptionalJSON(c, &in); err != nil {
			httpx.FailErr(c, http.StatusBadRequest, "invalid json", err)
			return
		}
		req := checkout.PaymentRequest{
			Provider: c.Param("provider"),
			CartKey:  key,
			Currency: in.Currency,
		}
		if id, ok := httpx.CurrentIdentity(c); ok {
			req.UserID = id.UserID
			req.Email = id.Email
		}
		if s := strings.TrimSpace(in.Amount); s != "" {
			amt, err := decimal.NewFromString(s)
			if err != nil {
				httpx.FailErr(c, http.StatusBadRequest, "amount is not a number", err)
				return
			}
			req.Amount = &amt
		}
		res, err := co.CreatePayment(c.Request.Context(), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	}
}

// capturePaymentHandler godoc
// @Summary   Capture provider order and record the order
// @Tags      payments
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     provider   path    string          true   "paypal or stripe"
// @Param     id         path    string          true   "provider order id"
// @Param     body       body    captureRequest  false  "address snapshot; defaults to the profile default"
// @Success   201  {object}  order.Order
// @Failure   402  {object}  httpx.HTTPError
// @Failure   403  {object}  httpx.HTTPError
// @Failure   404  {object}  httpx.HTTPError
// @Failure   409  {object}  httpx.HTTPError
// @Failure   502  {object}  httpx.HTTPError
// @Router    /payments/{provider}/orders/{id}/capture [post]
func capturePaymentHandler(co checkoutAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := httpx.CurrentIdentity(c)
		if !ok {
			httpx.Fail(c, http.StatusUnauthorized, "token required")
			return
		}
		var in captureRequest
		if err := bindOptionalJSON(c, &in); err != nil {
			httpx.FailErr(c, http.StatusBadRequest, "invalid json", err)
			return
		}
		for _, a := range []*order.Address{in.ShippingAddress, in.BillingAddress} {
			if a != nil && (strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Street) == "" ||
				strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.ZipCode) == "") {
				httpx.Fail(c, http.StatusBadRequest, "address needs name, street, city and zip_code")
				return
			}
		}
		o, err := co.Capture(c.Request.Context(), checkout.CaptureRequest{
			Provider:        c.Param("provider"),
			ProviderOrderID: c.Param("id"),
			UserID:          id.UserID,
			Email:           id.Email,
			ShippingAddress: in.ShippingAddress,
			BillingAddress:  in.BillingAddress,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, o)
	}
}

// bindOptionalJSON binds the body when there is one.
func bindOptionalJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
