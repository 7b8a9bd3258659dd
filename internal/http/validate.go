package http

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"weather-forecast-service/internal/models"
)

var validate = validator.New()

// validateForecastRequest range-checks the request before the pipeline
// runs. All field failures are collected and joined into one message so
// the caller sees every problem at once.
func validateForecastRequest(req models.ForecastRequest) error {
	var messages []string

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			messages = append(messages, fieldMessage(fe))
		}
	}

	if req.StartDate != "" && req.EndDate != "" && req.StartDate > req.EndDate {
		messages = append(messages, "start_date must be less than or equal to end_date")
	}

	if len(messages) > 0 {
		return errors.New(strings.Join(messages, "; "))
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "Latitude":
		return "latitude must be between -90 and 90"
	case "Longitude":
		return "longitude must be between -180 and 180"
	case "StartDate":
		return "start_date must be a YYYY-MM-DD date"
	case "EndDate":
		return "end_date must be a YYYY-MM-DD date"
	case "ForecastDays":
		return "forecast_days must be greater than 0"
	}
	return fe.Field() + " is invalid"
}
