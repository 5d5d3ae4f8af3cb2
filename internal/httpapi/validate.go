package httpapi

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"classattend/internal/attendance"
)

var registerOnce sync.Once

// registerValidators adds the custom tags used by request bodies to gin's
// validator engine.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("isodate", isoDate)
	})
}

// isoDate accepts only real calendar days in YYYY-MM-DD form.
func isoDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(attendance.DateLayout, fl.Field().String())
	return err == nil
}
