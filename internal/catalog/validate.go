package catalog

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/tripquest/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	enums := map[string]func(string) bool{
		"category":   func(s string) bool { return model.Category(s).Valid() },
		"priority":   func(s string) bool { return model.Priority(s).Valid() },
		"event_type": func(s string) bool { return model.EventType(s).Valid() },
		"route_type": func(s string) bool { return model.RoutePointType(s).Valid() },
	}
	for tag, ok := range enums {
		ok := ok
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return ok(fl.Field().String())
		})
		if err != nil {
			panic(fmt.Sprintf("register %s validator: %v", tag, err))
		}
	}
	return v
}
