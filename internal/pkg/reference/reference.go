package reference

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

const (
	SubscriptionPrefix = "SUB"
	PaymentPrefix      = "PAY"
)

// New returns a unique, time-sortable reference such as SUB-01J9...
func New(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, ulid.Make().String())
}

func Subscription() string { return New(SubscriptionPrefix) }

func Payment() string { return New(PaymentPrefix) }
