package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront-ecom/internal/httpx"
	"github.com/MikeMC777/storefront-ecom/internal/order"
)

// ownsOrder lets admins through and everyone else only to their own orders.
func ownsOrder(c *gin.Context, userID string) bool {
	id, ok := httpx.CurrentIdentity(c)
	if !ok {
		httpx.Fail(c, http.StatusUnauthorized, "token required")
		return false
	}
	if !id.IsAdmin() && id.UserID != userID {
		httpx.Fail(c, http.StatusForbidden, "access denied")
		return false
	}
	return true
}

// getOrderHandler godoc
// @Summary   Get order
// @Tags      orders
// @Produce   json
// @Security  BearerAuth
// @Param     id   path  string  true  "order id"
// @Success   200  {object}  order.Order
// @Failure   403  {object}  httpx.HTTPError
// @Failure   404  {object}  httpx.HTTPError
// @Router    /orders/{id} [get]
func getOrderHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if !ownsOrder(c, o.UserID) {
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// getOrderItemsHandler godoc
// @Summary   Get order items
// @Tags      orders
// @Produce   json
// @Security  BearerAuth
// @Param     id   path  string  true  "order id"
// @Success   200  {array}   order.Item
// @Failure   404  {object}  httpx.HTTPError
// @Router    /orders/{id}/items [get]
func getOrderItemsHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if !ownsOrder(c, o.UserID) {
			return
		}
		items, err := repo.GetItems(c.Request.Context(), o.ID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// listOrdersByUserHandler godoc
// @Summary   List a user's orders
// @Tags      orders
// @Produce   json
// @Security  BearerAuth
// @Param     user_id  path   string  true   "user id"
// @Param     limit    query  int     false  "page size"
// @Param     offset   query  int     false  "offset"
// @Success   200  {object}  order.ListResponse
// @Failure   403  {object}  httpx.HTTPError
// @Router    /orders/user/{user_id} [get]
func listOrdersByUserHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.Param("user_id")
		if !ownsOrder(c, uid) {
			return
		}
		limit, offset := httpx.Paging(c)
		items, err := repo.ListByUser(c.Request.Context(), uid, limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, order.ListResponse{Limit: limit, Offset: offset, Items: items})
	}
}

// adminListOrdersHandler godoc
// @Summary   List orders by status
// @Tags      admin
// @Produce   json
// @Security  BearerAuth
// @Param     status  query  string  false  "status filter"
// @Param     limit   query  int     false  "page size"
// @Param     offset  query  int     false  "offset"
// @Success   200  {object}  order.ListResponse
// @Failure   400  {object}  httpx.HTTPError
// @Router    /admin/orders [get]
func adminListOrdersHandler(repo order.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var st order.Status
		if s := strings.TrimSpace(c.Query("status")); s != "" {
			parsed, err := order.ParseStatus(s)
			if err != nil {
				writeError(c, err)
				return
			}
			st = parsed
		}
		limit, offset := httpx.Paging(c)
		items, err := repo.ListByStatus(c.Request.Context(), st, limit, offset)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, order.ListResponse{Limit: limit, Offset: offset, Items: items})
	}
}

// orderTransitionsHandler godoc
// @Summary   Allowed next statuses
// @Tags      admin
// @Produce   json
// @Security  BearerAuth
// @Param     id   path  string  true  "order id"
// @Success   200  {object}  order.TransitionsResponse
// @Failure   404  {object}  httpx.HTTPError
// @Router    /admin/orders/{id}/transitions [get]
func orderTransitionsHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := orders.Transitions(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// updateOrderStatusHandler godoc
// @Summary   Transition order status
// @Tags      admin
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path  string                     true  "order id"
// @Param     body  body  order.UpdateStatusRequest  true  "next status"
// @Success   200  {object}  order.Order
// @Failure   400  {object}  httpx.HTTPError
// @Failure   404  {object}  httpx.HTTPError
// @Failure   409  {object}  httpx.HTTPError
// @Router    /admin/orders/{id}/status [put]
func updateOrderStatusHandler(orders *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.FailErr(c, http.StatusBadRequest, "invalid json", err)
			return
		}
		to, err := order.ParseStatus(strings.TrimSpace(in.Status))
		if err != nil {
			writeError(c, err)
			return
		}
		o, err := orders.Transition(c.Request.Context(), c.Param("id"), to, in.Note)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}
