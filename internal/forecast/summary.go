package forecast

import (
	"strconv"

	"weather-forecast-service/internal/models"
)

// Summary holds the denormalized daily fields stored directly on a
// snapshot row. Nil means the variable was absent or unparseable.
type Summary struct {
	TemperatureMax   *float64
	TemperatureMin   *float64
	PrecipitationSum *float64
	WeatherCode      *string
}

// ExtractSummary pulls the four summary fields out of a flattened
// observation list. For each target variable the first Daily observation
// wins. Numeric values that fail to parse leave the field nil; the
// weather code is kept verbatim since it is a categorical code.
func ExtractSummary(observations []models.Observation) Summary {
	var s Summary
	s.TemperatureMax = firstDailyFloat(observations, "temperature_2m_max")
	s.TemperatureMin = firstDailyFloat(observations, "temperature_2m_min")
	s.PrecipitationSum = firstDailyFloat(observations, "precipitation_sum")
	if v, ok := firstDaily(observations, "weathercode"); ok {
		s.WeatherCode = &v
	}
	return s
}

func firstDaily(observations []models.Observation, variable string) (string, bool) {
	for _, o := range observations {
		if o.SeriesKind == models.SeriesDaily && o.Variable == variable {
			return o.Value, true
		}
	}
	return "", false
}

func firstDailyFloat(observations []models.Observation, variable string) *float64 {
	v, ok := firstDaily(observations, variable)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
