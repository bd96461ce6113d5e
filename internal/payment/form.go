package payment

import (
	"strings"

	"github.com/ashendes/storefront/internal/models"
	"github.com/ashendes/storefront/internal/validation"
)

const (
	msgRequired = "Please fill in all required fields: card number, expiry date, CVV code, and cardholder name!"
	msgCard     = "Please enter a valid 16-digit credit card number!"
	msgExpiry   = "Please enter the correct expiry date format (MM/YY)!"
	msgCVV      = "Please enter a valid 3-4 digit CVV code!"
	msgMethod   = "Please choose a credit or debit card."
)

var messages = map[string]string{
	"cardnumber": msgCard,
	"expiry":     msgExpiry,
	"cvv":        msgCVV,
	"oneof":      msgMethod,
}

var jsonNames = map[string]string{
	"CardNumber":    "cardNumber",
	"ExpiryDate":    "expiryDate",
	"CVVCode":       "cvvCode",
	"CardHolder":    "cardHolder",
	"PaymentMethod": "paymentMethod",
}

// Normalize applies the input formatters the way the entry form does
func Normalize(form models.PaymentForm) models.PaymentForm {
	form.CardNumber = FormatCardNumber(form.CardNumber)
	form.ExpiryDate = FormatExpiry(form.ExpiryDate)
	form.CVVCode = strings.TrimSpace(form.CVVCode)
	form.CardHolder = strings.TrimSpace(form.CardHolder)
	if form.PaymentMethod == "" {
		form.PaymentMethod = models.PaymentMethodCredit
	}
	return form
}

// Validate checks required fields first, then formats, and reports the
// first failure as a *models.ValidationError.
func Validate(form models.PaymentForm) error {
	fieldErrs, err := validation.FieldErrors(form)
	if err != nil {
		return err
	}
	if len(fieldErrs) == 0 {
		return nil
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return validation.NewError(jsonNames[fe.Field()], msgRequired)
		}
	}
	fe := fieldErrs[0]
	msg, ok := messages[fe.Tag()]
	if !ok {
		msg = "Invalid " + jsonNames[fe.Field()]
	}
	return validation.NewError(jsonNames[fe.Field()], msg)
}
