package enums

import "fmt"

// TransactionKind is the kind of a storefront payment transaction.
type TransactionKind string

const (
	TransactionKindAuthorization TransactionKind = "authorization"
	TransactionKindCapture       TransactionKind = "capture"
	TransactionKindSale          TransactionKind = "sale"
	TransactionKindVoid          TransactionKind = "void"
	TransactionKindRefund        TransactionKind = "refund"
)

var validTransactionKinds = []TransactionKind{
	TransactionKindAuthorization,
	TransactionKindCapture,
	TransactionKindSale,
	TransactionKindVoid,
	TransactionKindRefund,
}

// String implements fmt.Stringer.
func (v TransactionKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known TransactionKind.
func (v TransactionKind) IsValid() bool {
	for _, candidate := range validTransactionKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseTransactionKind converts raw input into a TransactionKind.
func ParseTransactionKind(value string) (TransactionKind, error) {
	for _, candidate := range validTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction kind %q", value)
}
