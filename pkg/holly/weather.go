package holly

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ilikeorangutans/holly/pkg/predicates"
	"github.com/nathan-osman/go-sunrise"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var weatherKeywords = []string{"weather", "climate", "forecast", "meteorology", "temperature", "cloud cover", "windspeed", "humidity", "pressure"}

var locationPhrases = []string{"weather in", "weather at"}

const (
	defaultGeocodingURL = "https://api.openweathermap.org/geo/1.0/direct"
	defaultWeatherURL   = "https://api.openweathermap.org/data/2.5/weather"
)

// WeatherLookup resolves current conditions for a location. An empty
// location means the configured default.
type WeatherLookup interface {
	Current(ctx context.Context, location string, now time.Time) WeatherResult
}

// WeatherResult carries the spoken sentence plus the structured fields. On
// any failure only Text is populated.
type WeatherResult struct {
	Text        string
	Location    string
	Temperature string
	Humidity    string
	Pressure    string
	Description string
	Sunrise     string
	Sunset      string
}

type WeatherResponse struct {
	Response
	Location    string `json:"location,omitempty"`
	Temperature string `json:"temperature,omitempty"`
	Humidity    string `json:"humidity,omitempty"`
	Pressure    string `json:"pressure,omitempty"`
	Description string `json:"description,omitempty"`
	Sunrise     string `json:"sunrise,omitempty"`
	Sunset      string `json:"sunset,omitempty"`
}

func AddWeatherHandler(a *Assistant, weather WeatherLookup) {
	a.On(
		func(ctx context.Context, cmd Command) (Payload, error) {
			result := weather.Current(ctx, extractLocation(cmd), cmd.Now)

			return WeatherResponse{
				Response:    Response{Text: result.Text, Type: "weather"},
				Location:    result.Location,
				Temperature: result.Temperature,
				Humidity:    result.Humidity,
				Pressure:    result.Pressure,
				Description: result.Description,
				Sunrise:     result.Sunrise,
				Sunset:      result.Sunset,
			}, nil
		},
		predicates.ContainsAny(weatherKeywords...),
	)
}

// extractLocation returns everything after "weather in"/"weather at",
// trimmed. The index is found on the lowercased command but the slice is
// taken from the original so casing survives.
func extractLocation(cmd Command) string {
	for _, phrase := range locationPhrases {
		idx := strings.Index(cmd.Lowered, phrase)
		if idx < 0 {
			continue
		}
		return strings.TrimSpace(cmd.Raw[idx+len(phrase):])
	}

	return ""
}

func NewOpenWeatherClient(apiKey, defaultLocation string) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:          apiKey,
		defaultLocation: defaultLocation,
		geocodingURL:    defaultGeocodingURL,
		weatherURL:      defaultWeatherURL,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		logger:          log.With().Str("component", "weather").Logger(),
	}
}

type OpenWeatherClient struct {
	apiKey          string
	defaultLocation string
	geocodingURL    string
	weatherURL      string
	httpClient      *http.Client
	logger          zerolog.Logger
}

// Current geocodes the location and fetches conditions by coordinates,
// falling back to a lookup by raw name when geocoding comes up empty.
func (c *OpenWeatherClient) Current(ctx context.Context, location string, now time.Time) WeatherResult {
	if c.apiKey == "" {
		return WeatherResult{Text: "Please set your OpenWeatherMap API key."}
	}

	if location == "" {
		location = c.defaultLocation
	}

	lat, lon, resolved := c.cityCoords(ctx, location)

	params := url.Values{}
	if resolved {
		params.Set("lat", fmt.Sprintf("%f", lat))
		params.Set("lon", fmt.Sprintf("%f", lon))
	} else {
		params.Set("q", location)
	}

	conditions, err := c.fetchConditions(ctx, params)
	if err != nil {
		c.logger.Error().Err(err).Str("location", location).Msg("fetching conditions failed")
		return WeatherResult{Text: fmt.Sprintf("Sorry, I had trouble getting the weather for %s. The error was: %s.", location, err)}
	}

	if conditions.notFound() {
		return WeatherResult{Text: fmt.Sprintf("I couldn't find the weather for %s.", location)}
	}

	humidity := "not available"
	humidityField := "not available"
	if conditions.Main.Humidity != nil {
		humidity = fmt.Sprintf("%d", *conditions.Main.Humidity)
		humidityField = fmt.Sprintf("%d%%", *conditions.Main.Humidity)
	}
	pressure := "not available"
	pressureField := "not available"
	if conditions.Main.Pressure != nil {
		pressure = fmt.Sprintf("%d", *conditions.Main.Pressure)
		pressureField = fmt.Sprintf("%d hPa", *conditions.Main.Pressure)
	}
	description := ""
	if len(conditions.Weather) > 0 {
		description = conditions.Weather[0].Description
	}

	result := WeatherResult{
		Text: fmt.Sprintf(
			"The temperature in %s is %.1f degrees Celsius, with %s. The humidity is %s percent, and the atmospheric pressure is %s hectopascals.",
			location, conditions.Main.Temp, description, humidity, pressure,
		),
		Location:    location,
		Temperature: fmt.Sprintf("%.1f °C", conditions.Main.Temp),
		Humidity:    humidityField,
		Pressure:    pressureField,
		Description: description,
	}

	if resolved {
		// go-sunrise yields UTC instants; without timezone data for the
		// coordinates, present them labeled as such
		today := now.UTC()
		rise, set := sunrise.SunriseSunset(lat, lon, today.Year(), today.Month(), today.Day())
		result.Sunrise = rise.Format("03:04 PM MST")
		result.Sunset = set.Format("03:04 PM MST")
	}

	return result
}

func (c *OpenWeatherClient) cityCoords(ctx context.Context, city string) (float64, float64, bool) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("limit", "1")
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.geocodingURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("city", city).Msg("geocoding failed")
		return 0, 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, false
	}

	var places []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return 0, 0, false
	}
	if len(places) == 0 {
		return 0, 0, false
	}

	return places[0].Lat, places[0].Lon, true
}

func (c *OpenWeatherClient) fetchConditions(ctx context.Context, params url.Values) (*currentConditions, error) {
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.weatherURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("weather API returned %s", resp.Status)
	}

	var conditions currentConditions
	if err := json.NewDecoder(resp.Body).Decode(&conditions); err != nil {
		return nil, fmt.Errorf("unable to parse weather response: %w", err)
	}

	return &conditions, nil
}

type currentConditions struct {
	// cod is a number on success and a string on errors
	Cod  json.RawMessage `json:"cod"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity *int    `json:"humidity"`
		Pressure *int    `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

func (c *currentConditions) notFound() bool {
	return strings.Trim(string(c.Cod), `"`) == "404"
}
