package payment

import (
	"testing"

	"github.com/ashendes/storefront/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCardNumber(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"12":                   "12",
		"123":                  "123",
		"1234":                 "1234",
		"12345":                "1234 5",
		"4111111111111111":     "4111 1111 1111 1111",
		"4111-1111 1111x1111":  "4111 1111 1111 1111",
		"41111111111111112222": "4111 1111 1111 1111",
		"4111 1111 1111 111":   "4111 1111 1111 111",
		"abcd":                 "",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatCardNumber(in), in)
	}
}

func TestFormatExpiry(t *testing.T) {
	cases := map[string]string{
		"":      "",
		"0":     "0",
		"04":    "04/",
		"042":   "04/2",
		"0426":  "04/26",
		"04/26": "04/26",
		"04262": "04/26",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatExpiry(in), in)
	}
}

func validForm() models.PaymentForm {
	return models.PaymentForm{
		CardNumber:    "4111 1111 1111 1234",
		ExpiryDate:    "04/26",
		CVVCode:       "123",
		CardHolder:    "Ada Lovelace",
		PaymentMethod: models.PaymentMethodDebit,
	}
}

func TestValidate_Accepts(t *testing.T) {
	assert.NoError(t, Validate(validForm()))

	f := validForm()
	f.CVVCode = "1234"
	f.PaymentMethod = ""
	assert.NoError(t, Validate(f))
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*models.PaymentForm)
		field string
		msg   string
	}{
		{"missing holder", func(f *models.PaymentForm) { f.CardHolder = "" }, "cardHolder", msgRequired},
		{"missing card wins over bad cvv", func(f *models.PaymentForm) { f.CardNumber = ""; f.CVVCode = "1" }, "cardNumber", msgRequired},
		{"short card", func(f *models.PaymentForm) { f.CardNumber = "4111 1111 1111" }, "cardNumber", msgCard},
		{"month 13", func(f *models.PaymentForm) { f.ExpiryDate = "13/25" }, "expiryDate", msgExpiry},
		{"month 00", func(f *models.PaymentForm) { f.ExpiryDate = "00/25" }, "expiryDate", msgExpiry},
		{"no slash", func(f *models.PaymentForm) { f.ExpiryDate = "0426" }, "expiryDate", msgExpiry},
		{"cvv letters", func(f *models.PaymentForm) { f.CVVCode = "12a" }, "cvvCode", msgCVV},
		{"cvv too long", func(f *models.PaymentForm) { f.CVVCode = "12345" }, "cvvCode", msgCVV},
		{"bad method", func(f *models.PaymentForm) { f.PaymentMethod = "paypal" }, "paymentMethod", msgMethod},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := validForm()
			tc.edit(&f)

			err := Validate(f)
			var verr *models.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, tc.msg, verr.Message)
		})
	}
}

func TestNormalize(t *testing.T) {
	f := Normalize(models.PaymentForm{
		CardNumber: "4111111111111234",
		ExpiryDate: "0426",
		CVVCode:    " 123 ",
		CardHolder: " Ada ",
	})

	assert.Equal(t, "4111 1111 1111 1234", f.CardNumber)
	assert.Equal(t, "04/26", f.ExpiryDate)
	assert.Equal(t, "123", f.CVVCode)
	assert.Equal(t, "Ada", f.CardHolder)
	assert.Equal(t, models.PaymentMethodCredit, f.PaymentMethod)
	assert.NoError(t, Validate(f))
}

func TestMaskRedactDescriptor(t *testing.T) {
	f := validForm()

	assert.Equal(t, "**** **** **** 1234", Mask(f.CardNumber))
	assert.Equal(t, "12", Mask("12"))
	assert.Equal(t, "1234", Last4("**** **** **** 1234"))

	r := Redact(f)
	assert.Equal(t, "**** **** **** 1234", r.CardNumber)
	assert.Empty(t, r.CVVCode)
	assert.Equal(t, f.CardHolder, r.CardHolder)
	assert.Equal(t, f.ExpiryDate, r.ExpiryDate)

	// redacting twice is stable and still yields the same descriptor
	assert.Equal(t, r, Redact(r))
	assert.Equal(t, models.PaymentDescriptor{Method: "debit", Last4: "1234"}, Descriptor(r))
	assert.Equal(t, "credit", Descriptor(models.PaymentForm{CardNumber: "4111111111119999"}).Method)
}
