package http

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yanqian/precipitation-dashboard/internal/domain/precipitation"
)

var registerValidationsOnce sync.Once

// registerValidations adds the datekey tag to gin's binding validator.
func registerValidations() {
	registerValidationsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("datekey", func(fl validator.FieldLevel) bool {
			_, err := precipitation.ParseDateKey(fl.Field().String())
			return err == nil
		})
	})
}
