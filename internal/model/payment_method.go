package model

// PaymentMethod is the closed set of tender types accepted at the till.
type PaymentMethod string

const (
	MethodCash       PaymentMethod = "cash"
	MethodCreditCard PaymentMethod = "credit_card"
	MethodDebitCard  PaymentMethod = "debit_card"
	MethodTransfer   PaymentMethod = "transfer"
	MethodCheck      PaymentMethod = "check"
	MethodOther      PaymentMethod = "other"
)

// PaymentMethods lists every accepted method in report order.
var PaymentMethods = []PaymentMethod{
	MethodCash, MethodCreditCard, MethodDebitCard,
	MethodTransfer, MethodCheck, MethodOther,
}

// ValidPaymentMethod reports whether m belongs to the accepted set.
func ValidPaymentMethod(m PaymentMethod) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}
