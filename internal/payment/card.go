// Package payment formats, validates and redacts the payment entry form.
package payment

import (
	"strings"

	"github.com/ashendes/storefront/internal/models"
)

const maxCardDigits = 16

// FormatCardNumber keeps the digits of s, at most 16, grouped in blocks of
// four separated by single spaces. Fewer than four digits are returned ungrouped.
func FormatCardNumber(s string) string {
	digits := onlyDigits(s)
	if len(digits) < 4 {
		return digits
	}
	if len(digits) > maxCardDigits {
		digits = digits[:maxCardDigits]
	}

	var b strings.Builder
	for i := 0; i < len(digits); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := i + 4
		if end > len(digits) {
			end = len(digits)
		}
		b.WriteString(digits[i:end])
	}
	return b.String()
}

// FormatExpiry keeps the digits of s and inserts a slash after the month
func FormatExpiry(s string) string {
	digits := onlyDigits(s)
	if len(digits) < 2 {
		return digits
	}
	if len(digits) > 4 {
		digits = digits[:4]
	}
	return digits[:2] + "/" + digits[2:]
}

// Last4 returns the last four digits of a card number, or "" if there are fewer
func Last4(cardNumber string) string {
	digits := onlyDigits(cardNumber)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

// Mask hides all but the last four digits. Input with fewer than four
// digits is returned unchanged.
func Mask(cardNumber string) string {
	last4 := Last4(cardNumber)
	if last4 == "" {
		return cardNumber
	}
	return "**** **** **** " + last4
}

// Redact returns the form as it may be stored: masked number, no CVV
func Redact(form models.PaymentForm) models.PaymentForm {
	form.CardNumber = Mask(form.CardNumber)
	form.CVVCode = ""
	return form
}

// Descriptor reduces the form to what the order API receives
func Descriptor(form models.PaymentForm) models.PaymentDescriptor {
	method := form.PaymentMethod
	if method == "" {
		method = models.PaymentMethodCredit
	}
	return models.PaymentDescriptor{Method: method, Last4: Last4(form.CardNumber)}
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
