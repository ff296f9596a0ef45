// Package validation registers the custom binding tags used by request DTOs.
package validation

import (
	"fmt"
	"sync"
	"time"

	"venuely/pkg/clock"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// DateLayout is the calendar date format accepted by the API
const DateLayout = "2006-01-02"

var registerOnce sync.Once

// Register adds the hhmm and isodate tags to gin's validator. Safe to call more than once.
func Register() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = RegisterOn(v)
	})
	return err
}

// RegisterOn adds the custom tags to v
func RegisterOn(v *validator.Validate) error {
	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		return err
	}
	return v.RegisterValidation("isodate", validateISODate)
}

func validateHHMM(fl validator.FieldLevel) bool {
	_, err := clock.Parse(fl.Field().String())
	return err == nil
}

func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}
