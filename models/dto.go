package models

type RegisterRequest struct {
	Email        string `json:"email" form:"email" binding:"required,email"`
	Password     string `json:"password" form:"password" binding:"required,min=8"`
	FirstName    string `json:"first_name" form:"first_name" binding:"required"`
	LastName     string `json:"last_name" form:"last_name" binding:"required"`
	AddressLine1 string `json:"address_line1" form:"address_line1"`
	AddressLine2 string `json:"address_line2" form:"address_line2"`
	City         string `json:"city" form:"city"`
	PostalCode   string `json:"postal_code" form:"postal_code"`
	Country      string `json:"country" form:"country" binding:"omitempty,len=2"`
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"password" form:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}

// CartItemRequest carries the quantity for add/update. Missing quantity means 1.
type CartItemRequest struct {
	Quantity *int `json:"quantity" form:"quantity"`
}

func (r CartItemRequest) QuantityOrDefault() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type CheckoutSessionResponse struct {
	OrderID     int64  `json:"order_id"`
	CheckoutURL string `json:"checkout_url"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" form:"status" binding:"required"`
}
