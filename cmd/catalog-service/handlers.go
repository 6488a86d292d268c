package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront-ecom/internal/catalog"
	"github.com/MikeMC777/storefront-ecom/internal/httpx"
)

// listOnlyHandler godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        limit     query  int     false  "page size (max 100)"
// @Param        offset    query  int     false  "offset"
// @Param        category  query  string  false  "category filter"
// @Param        tag       query  string  false  "tag filter"
// @Success      200  {object}  catalog.ListResponse
// @Router       /products [get]
func listOnlyHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := httpx.Paging(c)
		items, err := repo.List(c.Request.Context(), catalog.Query{
			Category: strings.ToLower(strings.TrimSpace(c.Query("category"))),
			Tag:      strings.ToLower(strings.TrimSpace(c.Query("tag"))),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			httpx.FailErr(c, http.StatusInternalServerError, "could not list products", err)
			return
		}
		c.JSON(http.StatusOK, catalog.ListResponse{Limit: limit, Offset: offset, Items: items})
	}
}

// searchHandler godoc
// @Summary      Search products by title or description
// @Tags         products
// @Produce      json
// @Param        q       query  string  true   "at least 2 characters"
// @Param        limit   query  int     false  "page size"
// @Param        offset  query  int     false  "offset"
// @Success      200  {object}  catalog.ListResponse
// @Failure      400  {object}  httpx.HTTPError
// @Router       /products/search [get]
func searchHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if len([]rune(q)) < 2 {
			httpx.Fail(c, http.StatusBadRequest, "q must have at least 2 characters")
			return
		}
		limit, offset := httpx.Paging(c)
		items, err := repo.List(c.Request.Context(), catalog.Query{
			Q:        q,
			Category: strings.ToLower(strings.TrimSpace(c.Query("category"))),
			Tag:      strings.ToLower(strings.TrimSpace(c.Query("tag"))),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			httpx.FailErr(c, http.StatusInternalServerError, "could not search products", err)
			return
		}
		c.JSON(http.StatusOK, catalog.ListResponse{Q: q, Limit: limit, Offset: offset, Items: items})
	}
}

// getProductHandler godoc
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Param        id   path  string  true  "product id"
// @Success      200  {object}  catalog.Product
// @Failure      404  {object}  httpx.HTTPError
// @Router       /products/{id} [get]
func getProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// createProductHandler godoc
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  catalog.CreateProductRequest  true  "product"
// @Success      201  {object}  catalog.Product
// @Failure      400  {object}  httpx.HTTPError
// @Router       /products [post]
func createProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.CreateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.FailErr(c, http.StatusBadRequest, "invalid json", err)
			return
		}
		p, err := catalog.NewProduct(in)
		if err != nil {
			writeError(c, err)
			return
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			httpx.FailErr(c, http.StatusInternalServerError, "could not create product", err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// updateProductHandler godoc
// @Summary      Partially update product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                        true  "product id"
// @Param        body  body  catalog.UpdateProductRequest  true  "fields to change"
// @Success      200  {object}  catalog.Product
// @Failure      400  {object}  httpx.HTTPError
// @Failure      404  {object}  httpx.HTTPError
// @Router       /products/{id} [put]
func updateProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in catalog.UpdateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.FailErr(c, http.StatusBadRequest, "invalid json", err)
			return
		}
		patch, err := catalog.NewPatch(in)
		if err != nil {
			writeError(c, err)
			return
		}
		p, err := repo.Update(c.Request.Context(), c.Param("id"), patch)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// deleteProductHandler godoc
// @Summary      Delete product
// @Tags         products
// @Security     BearerAuth
// @Param        id   path  string  true  "product id"
// @Success      204
// @Failure      404  {object}  httpx.HTTPError
// @Router       /products/{id} [delete]
func deleteProductHandler(repo catalog.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.FailErr(c, http.StatusInternalServerError, "could not delete product", err)
			return
		}
		if !ok {
			httpx.Fail(c, http.StatusNotFound, "product not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput):
		httpx.FailErr(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, catalog.ErrNotFound):
		httpx.FailErr(c, http.StatusNotFound, "product not found", err)
	default:
		httpx.FailErr(c, http.StatusInternalServerError, "internal error", err)
	}
}
