package profilerpc

import "github.com/MikeMC777/storefront-ecom/internal/profile"

type userRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

type updateProfileRequest struct {
	UserID string         `json:"user_id"`
	Update profile.Update `json:"update"`
}

type addressRequest struct {
	UserID    string               `json:"user_id"`
	AddressID string               `json:"address_id,omitempty"`
	Address   profile.AddressInput `json:"address"`
}

type addAddressResponse struct {
	Profile *profile.Profile `json:"profile"`
	Address profile.Address  `json:"address"`
}

type appendOrderRequest struct {
	UserID string           `json:"user_id"`
	Order  profile.OrderRef `json:"order"`
}
