// Package shipping validates the shipping entry form.
package shipping

import (
	"strings"

	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/validation"
)

const msgZip = "Invalid ZIP code format. Please enter a 5-digit ZIP code."

// required fields with the labels shown to the user, in form order
var required = []struct {
	field string
	json  string
	label string
}{
	{"Name", "name", "Recipient Name"},
	{"AddressLine1", "addressLine1", "Address Line 1"},
	{"City", "city", "City"},
	{"State", "state", "State"},
	{"Zip", "zip", "ZIP Code"},
}

// Normalize trims surrounding whitespace from every field
func Normalize(form models.ShippingForm) models.ShippingForm {
	form.Name = strings.TrimSpace(form.Name)
	form.AddressLine1 = strings.TrimSpace(form.AddressLine1)
	form.AddressLine2 = strings.TrimSpace(form.AddressLine2)
	form.City = strings.TrimSpace(form.City)
	form.State = strings.TrimSpace(form.State)
	form.Zip = strings.TrimSpace(form.Zip)
	return form
}

// Validate lists every missing required field in one message, then checks
// the ZIP format. Input is expected to be normalized.
func Validate(form models.ShippingForm) error {
	fieldErrs, err := validation.FieldErrors(form)
	if err != nil {
		return err
	}
	if len(fieldErrs) == 0 {
		return nil
	}

	missing := map[string]bool{}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing[fe.Field()] = true
		}
	}

	if len(missing) > 0 {
		var labels []string
		first := ""
		for _, r := range required {
			if missing[r.field] {
				labels = append(labels, r.label)
				if first == "" {
					first = r.json
				}
			}
		}
		return validation.NewError(first, "Please fill in the following required fields: "+strings.Join(labels, ", "))
	}

	return validation.NewError("zip", msgZip)
}

// Address renders the form as the single address line sent with an order
func Address(form models.ShippingForm) string {
	parts := []string{form.AddressLine1}
	if form.AddressLine2 != "" {
		parts = append(parts, form.AddressLine2)
	}
	parts = append(parts, form.City, strings.TrimSpace(form.State+" "+form.Zip))
	return strings.Join(parts, ", ")
}

// Descriptor reduces the form to what the order API receives
func Descriptor(form models.ShippingForm) models.ShippingDescriptor {
	return models.ShippingDescriptor{Name: form.Name, Address: Address(form)}
}
