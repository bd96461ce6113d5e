package models

// ShippingForm is the shipping entry form
type ShippingForm struct {
	Name         string `json:"name" validate:"required"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	Zip          string `json:"zip" validate:"required,zip5"`
}

// IsZero reports whether no shipping data has been entered
func (s ShippingForm) IsZero() bool {
	return s == ShippingForm{}
}
