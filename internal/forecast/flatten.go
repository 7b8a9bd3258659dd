package forecast

import (
	"strconv"

	"weather-forecast-service/internal/models"
)

// DailyVariables is the closed set of daily series the pipeline supports,
// in flattening order. Variables outside this list are ignored.
var DailyVariables = []string{
	"temperature_2m_max",
	"temperature_2m_min",
	"weathercode",
	"precipitation_sum",
	"rain_sum",
	"showers_sum",
}

// HourlyVariables is the closed set of hourly series the pipeline supports,
// in flattening order.
var HourlyVariables = []string{
	"temperature_2m",
	"relativehumidity_2m",
	"dewpoint_2m",
	"weathercode",
	"pressure_msl",
	"surface_pressure",
}

type seriesColumn struct {
	name   string
	values []string
}

// Flatten turns the provider's parallel arrays-per-variable shape into a
// flat observation list. Each supported variable is paired element-wise
// with its group's time axis; when the lengths disagree the pairing stops
// at the shorter one. A group with no time axis contributes nothing.
// Flatten never fails; malformed input degrades to fewer observations.
func Flatten(resp models.ProviderResponse) []models.Observation {
	var out []models.Observation
	out = flattenGroup(out, models.SeriesDaily, resp.Daily.Time, dailyColumns(resp.Daily))
	out = flattenGroup(out, models.SeriesHourly, resp.Hourly.Time, hourlyColumns(resp.Hourly))
	return out
}

func flattenGroup(out []models.Observation, kind models.SeriesKind, times []string, cols []seriesColumn) []models.Observation {
	if len(times) == 0 {
		return out
	}
	for _, col := range cols {
		n := len(col.values)
		if len(times) < n {
			n = len(times)
		}
		for i := 0; i < n; i++ {
			out = append(out, models.Observation{
				SeriesKind: kind,
				Variable:   col.name,
				Time:       times[i],
				Value:      col.values[i],
			})
		}
	}
	return out
}

func dailyColumns(d models.DailySeries) []seriesColumn {
	return []seriesColumn{
		{"temperature_2m_max", floatValues(d.Temperature2mMax)},
		{"temperature_2m_min", floatValues(d.Temperature2mMin)},
		{"weathercode", intValues(d.WeatherCode)},
		{"precipitation_sum", floatValues(d.PrecipitationSum)},
		{"rain_sum", floatValues(d.RainSum)},
		{"showers_sum", floatValues(d.ShowersSum)},
	}
}

func hourlyColumns(h models.HourlySeries) []seriesColumn {
	return []seriesColumn{
		{"temperature_2m", floatValues(h.Temperature2m)},
		{"relativehumidity_2m", intValues(h.RelativeHumidity2m)},
		{"dewpoint_2m", floatValues(h.DewPoint2m)},
		{"weathercode", intValues(h.WeatherCode)},
		{"pressure_msl", floatValues(h.PressureMSL)},
		{"surface_pressure", floatValues(h.SurfacePressure)},
	}
}

func floatValues(vs []float64) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out
}

func intValues(vs []int) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = strconv.Itoa(v)
	}
	return out
}
