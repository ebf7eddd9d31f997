package config

import (
	"go/token"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validateInst *validator.Validate
)

func validate() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("goident", func(fl validator.FieldLevel) bool {
			return token.IsIdentifier(fl.Field().String())
		})
		_ = v.RegisterValidation("qualifiedtype", func(fl validator.FieldLevel) bool {
			return isQualifiedType(fl.Field().String())
		})
		validateInst = v
	})
	return validateInst
}

// isQualifiedType accepts import/path.Name
func isQualifiedType(s string) bool {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return false
	}
	return token.IsExported(s[i+1:]) && token.IsIdentifier(s[i+1:]) && !strings.ContainsAny(s[:i], " \t")
}
