package controllers

import (
	"sync"

	"Gin_postgres_redis_tool_lending/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the domain tags used in binding structs:
// "role" (admin|superadmin) and "ticket" (TLyymmddNNN).
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("ticket", func(fl validator.FieldLevel) bool {
			return models.ValidTicketCode(fl.Field().String())
		})
	})
}
