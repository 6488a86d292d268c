package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront-ecom/internal/httpx"
	"github.com/MikeMC777/storefront-ecom/internal/profile"
)

// profileAPI is satisfied by *profilerpc.Client.
type profileAPI interface {
	GetProfile(ctx context.Context, uid, email string) (*profile.Profile, error)
	UpdateProfile(ctx context.Context, uid string, u profile.Update) (*profile.Profile, error)
	AddAddress(ctx context.Context, uid string, in profile.AddressInput) (*profile.Profile, profile.Address, error)
	UpdateAddress(ctx context.Context, uid, id string, in profile.AddressInput) (*profile.Profile, error)
	DeleteAddress(ctx context.Context, uid, id string) (*profile.Profile, error)
	SetDefaultAddress(ctx context.Context, uid, id string) (*profile.Profile, error)
}

func me(c *gin.Context) (httpx.Identity, bool) {
	id, ok := httpx.CurrentIdentity(c)
	if !ok {
		httpx.Fail(c, http.StatusUnauthorized, "token required")
	}
	return id, ok
}

// getProfileHandler godoc
// @Summary   Get my profile
// @Tags      profile
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  profile.Profile
// @Router    /me/profile [get]
func getProfileHandler(profiles profileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := me(c)
		if !ok {
			return
		}
		p, err := profiles.GetProfile(c.Request.Context(), id.UserID, id.Email)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// updateProfileHandler godoc
// @Summary   Update my profile
// @Tags      profile
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body  profile.Update  true  "fields to change"
// @Success   200  {object}  profile.Profile
// @Router    /me/profile [put]
func updateProfileHandler(profiles profileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := me(c)
		if !ok {
			return
		}
		var in profile.Update
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.FailErr(c, http.StatusBadRequest, "invalid json", err)
			return
		}
		p, err := profiles.UpdateProfile(c.Request.Context(), id.UserID, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// listAddressesHandler godoc
// @Summary   List my addresses
// @Tags      profile
// @Produce   json
// @Security  BearerAuth
// @Success   200  {array}  profile.Address
// @Router    /me/addresses [get]
func listAddressesHandler(profiles profileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := me(c)
		if !ok {
			return
		}
		p, err := profiles.GetProfile(c.Request.Context(), id.UserID, id.Email)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, addresses(p))
	}
}

// addAddressHandler godoc
// @Summary   Add address
// @Tags      profile
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body  profile.AddressInput  true  "address"
// @Success   201  {object}  profile.Address
// @Failure   400  {object}  httpx.HTTPError
// @Router    /me/addresses [post]
func addAddressHandler(profiles profileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := me(c)
		if !ok {
			return
		}
		var in profile.AddressInput
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.FailErr(c, http.StatusBadRequest, "invalid json", err)
			return
		}
		_, a, err := profiles.AddAddress(c.Request.Context(), id.UserID, in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, a)
	}
}

// updateAddressHandler godoc
// @Summary   Update address
// @Tags      profile
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path  string                true  "address id"
// @Param     body  body  profile.AddressInput  true  "address"
// @Success   200  {array}   profile.Address
// @Failure   404  {object}  httpx.HTTPError
// @Router    /me/addresses/{id} [put]
func updateAddressHandler(profiles profileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := me(c)
		if !ok {
			return
		}
		var in profile.AddressInput
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.FailErr(c, http.StatusBadRequest, "invalid json", err)
			return
		}
		p, err := profiles.UpdateAddress(c.Request.Context(), id.UserID, c.Param("id"), in)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, addresses(p))
	}
}

// deleteAddressHandler godoc
// @Summary   Delete address
// @Tags      profile
// @Produce   json
// @Security  BearerAuth
// @Param     id   path  string  true  "address id"
// @Success   200  {array}   profile.Address
// @Failure   404  {object}  httpx.HTTPError
// @Router    /me/addresses/{id} [delete]
func deleteAddressHandler(profiles profileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := me(c)
		if !ok {
			return
		}
		p, err := profiles.DeleteAddress(c.Request.Context(), id.UserID, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, addresses(p))
	}
}

// setDefaultAddressHandler godoc
// @Summary   Make address the default
// @Tags      profile
// @Produce   json
// @Security  BearerAuth
// @Param     id   path  string  true  "address id"
// @Success   200  {array}   profile.Address
// @Failure   404  {object}  httpx.HTTPError
// @Router    /me/addresses/{id}/default [post]
func setDefaultAddressHandler(profiles profileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := me(c)
		if !ok {
			return
		}
		p, err := profiles.SetDefaultAddress(c.Request.Context(), id.UserID, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, addresses(p))
	}
}

func addresses(p *profile.Profile) []profile.Address {
	if p.Addresses == nil {
		return []profile.Address{}
	}
	return p.Addresses
}
