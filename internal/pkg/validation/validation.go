// Package validation registers the domain tags used in request binding.
package validation

import (
	"fmt"
	"reflect"
	"sync"

	"gym-admin-service/internal/domain/payment"
	"gym-admin-service/internal/domain/user"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerOnce sync.Once

// Register installs the custom tags on gin's validator. Safe to call more
// than once.
func Register() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = Configure(v)
	})
	return err
}

// Configure adds the tags to v.
func Configure(v *validator.Validate) error {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	if err := v.RegisterValidation("user_category", validateUserCategory); err != nil {
		return fmt.Errorf("register user_category: %w", err)
	}
	if err := v.RegisterValidation("payment_method", validatePaymentMethod); err != nil {
		return fmt.Errorf("register payment_method: %w", err)
	}
	return nil
}

// decimalValue lets numeric tags such as gte=0 apply to decimal amounts.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validateUserCategory(fl validator.FieldLevel) bool {
	return user.Category(fl.Field().String()).Valid()
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	method := fl.Field().String()
	for _, m := range payment.Methods {
		if m == method {
			return true
		}
	}
	return false
}
