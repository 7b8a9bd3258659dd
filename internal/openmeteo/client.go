package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"weather-forecast-service/internal/forecast"
	"weather-forecast-service/internal/models"
	"weather-forecast-service/internal/observability"
)

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// BackoffConfig controls retry behaviour for provider calls.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client calls the Open-Meteo forecast endpoint with retries, exponential
// backoff and a circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	backoff    BackoffConfig
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger
}

// New builds a Client against baseURL. maxRetries bounds retry attempts on
// transient failures.
func New(baseURL string, timeout time.Duration, maxRetries int, log *zap.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		backoff: BackoffConfig{
			MaxRetries:      maxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		breaker: cb,
		log:     log,
	}
}

// Forecast fetches and decodes the forecast payload for a validated
// request.
func (c *Client) Forecast(ctx context.Context, req models.ForecastRequest) (models.ProviderResponse, error) {
	requestURL := c.buildURL(req)

	resp, err := c.doRequest(ctx, requestURL)
	if err != nil {
		observability.ProviderCallsTotal.WithLabelValues("error").Inc()
		return models.ProviderResponse{}, err
	}
	defer resp.Body.Close()

	var payload models.ProviderResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		observability.ProviderCallsTotal.WithLabelValues("error").Inc()
		return models.ProviderResponse{}, fmt.Errorf("decode payload: %w", err)
	}

	observability.ProviderCallsTotal.WithLabelValues("success").Inc()
	return payload, nil
}

// buildURL assembles the query the way Open-Meteo expects it. When the
// request names no variables, the full supported set is asked for, so a
// bare coordinate request still yields series to flatten.
func (c *Client) buildURL(req models.ForecastRequest) string {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(req.Latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(req.Longitude, 'f', -1, 64))

	if req.Timezone != "" {
		values.Set("timezone", req.Timezone)
	}
	if req.TemperatureUnit != "" {
		values.Set("temperature_unit", req.TemperatureUnit)
	}
	if req.PrecipitationUnit != "" {
		values.Set("precipitation_unit", req.PrecipitationUnit)
	}

	hourly := req.HourlyVariables
	if len(hourly) == 0 {
		hourly = forecast.HourlyVariables
	}
	values.Set("hourly", strings.Join(hourly, ","))

	daily := req.DailyVariables
	if len(daily) == 0 {
		daily = forecast.DailyVariables
	}
	values.Set("daily", strings.Join(daily, ","))

	if req.ForecastDays > 0 {
		values.Set("forecast_days", strconv.Itoa(req.ForecastDays))
	} else {
		if req.StartDate != "" {
			values.Set("start_date", req.StartDate)
		}
		if req.EndDate != "" {
			values.Set("end_date", req.EndDate)
		}
	}

	return c.baseURL + "?" + values.Encode()
}

// doRequest executes the GET with retries, exponential backoff and the
// circuit breaker. Rate limiting and 5xx responses are retried; other
// non-2xx statuses fail immediately.
func (c *Client) doRequest(ctx context.Context, requestURL string) (*http.Response, error) {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, err
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			resp, execErr := c.httpClient.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}

			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		if !errors.Is(err, errRateLimited) && !errors.Is(err, errServerError) {
			return nil, err
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, fmt.Errorf("exhausted retries: %w", lastErr)
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}

		observability.ProviderRetriesTotal.Inc()
		c.log.Warn("retrying provider call",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
