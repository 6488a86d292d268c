package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront-ecom/internal/cart"
	"github.com/MikeMC777/storefront-ecom/internal/httpx"
)

// CartHeader names the anonymous cart; signed-in callers without it use their own cart.
const CartHeader = "X-Cart-ID"

type addItemRequest struct {
	ProductID    string `json:"product_id" example:"6f1c7f0e-3f4b-4b8a-9a55-2d3c1b0f8e11"`
	SelectedSize string `json:"selected_size" example:"M"`
	// Defaults to 1.
	Quantity int `json:"quantity" example:"2"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" example:"3"`
}

func cartKey(c *gin.Context) (string, error) {
	var uid string
	if id, ok := httpx.CurrentIdentity(c); ok {
		uid = id.UserID
	}
	return cart.ResolveKey(c.GetHeader(CartHeader), uid)
}

// getCartHandler godoc
// @Summary  Get cart
// @Tags     cart
// @Produce  json
// @Param    X-Cart-ID  header  string  false  "session cart id"
// @Success  200  {object}  cart.View
// @Router   /cart [get]
func getCartHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := cartKey(c)
		if err != nil {
			writeError(c, err)
			return
		}
		ct, err := carts.Get(c.Request.Context(), key)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ct.View())
	}
}

// addCartItemHandler godoc
// @Summary  Add item
// @Tags     cart
// @Accept   json
// @Produce  json
// @Param    X-Cart-ID  header  string          false  "session cart id"
// @Param    body       body    addItemRequest  true   "item"
// @Success  200  {object}  cart.View
// @Failure  400  {object}  httpx.HTTPError
// @Failure  404  {object}  httpx.HTTPError
// @Router   /cart/items [post]
func addCartItemHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := cartKey(c)
		if err != nil {
			writeError(c, err)
			return
		}
		var in addItemRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.FailErr(c, http.StatusBadRequest, "invalid json", err)
			return
		}
		if in.ProductID == "" {
			httpx.Fail(c, http.StatusBadRequest, "product_id is required")
			return
		}
		if in.Quantity == 0 {
			in.Quantity = 1
		}
		ct, err := carts.AddItem(c.Request.Context(), key, in.ProductID, in.SelectedSize, in.Quantity)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ct.View())
	}
}

// updateCartItemHandler godoc
// @Summary  Set item quantity (0 removes)
// @Tags     cart
// @Accept   json
// @Produce  json
// @Param    X-Cart-ID   header  string           false  "session cart id"
// @Param    product_id  path    string           true   "product id"
// @Param    size        query   string           false  "selected size"
// @Param    body        body    quantityRequest  true   "quantity"
// @Success  200  {object}  cart.View
// @Failure  404  {object}  httpx.HTTPError
// @Router   /cart/items/{product_id} [patch]
func updateCartItemHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := cartKey(c)
		if err != nil {
			writeError(c, err)
			return
		}
		var in quantityRequest
		if err := c.ShouldBindJSON(&in); err != nil || in.Quantity == nil {
			httpx.FailErr(c, http.StatusBadRequest, "quantity is required", err)
			return
		}
		ct, err := carts.UpdateQuantity(c.Request.Context(), key, c.Param("product_id"), c.Query("size"), *in.Quantity)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ct.View())
	}
}

// removeCartItemHandler godoc
// @Summary  Remove item
// @Tags     cart
// @Produce  json
// @Param    X-Cart-ID   header  string  false  "session cart id"
// @Param    product_id  path    string  true   "product id"
// @Param    size        query   string  false  "selected size"
// @Success  200  {object}  cart.View
// @Failure  404  {object}  httpx.HTTPError
// @Router   /cart/items/{product_id} [delete]
func removeCartItemHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := cartKey(c)
		if err != nil {
			writeError(c, err)
			return
		}
		ct, err := carts.RemoveItem(c.Request.Context(), key, c.Param("product_id"), c.Query("size"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ct.View())
	}
}

// clearCartHandler godoc
// @Summary  Empty cart
// @Tags     cart
// @Param    X-Cart-ID  header  string  false  "session cart id"
// @Success  204
// @Router   /cart [delete]
func clearCartHandler(carts *cart.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := cartKey(c)
		if err != nil {
			writeError(c, err)
			return
		}
		if err := carts.Clear(c.Request.Context(), key); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// quoteCartHandler godoc
// @Summary  Price the cart (subtotal, tax, shipping, total)
// @Tags     cart
// @Produce  json
// @Param    X-Cart-ID  header  string  false  "session cart id"
// @Success  200  {object}  checkout.Summary
// @Failure  400  {object}  httpx.HTTPError
// @Failure  409  {object}  httpx.HTTPError
// @Router   /cart/quote [get]
func quoteCartHandler(co checkoutAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := cartKey(c)
		if err != nil {
			writeError(c, err)
			return
		}
		sum, err := co.Quote(c.Request.Context(), key)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, sum)
	}
}
