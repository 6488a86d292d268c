package order

// UpdateStatusRequest admin payload moving an order forward.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" example:"confirmed"`
	// Optional; defaults to "Order <status>".
	Note string `json:"note" example:"Packed and labelled"`
}

// TransitionsResponse lists the statuses an admin may pick next.
// swagger:model TransitionsResponse
type TransitionsResponse struct {
	OrderID string   `json:"order_id"`
	Current Status   `json:"current" swaggertype:"string" example:"placed"`
	Next    []Status `json:"next" swaggertype:"array,string"`
}

// ListResponse paginated orders.
// swagger:model OrderListResponse
type ListResponse struct {
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Items  []Order `json:"items"`
}
