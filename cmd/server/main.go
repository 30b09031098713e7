package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ilikeorangutans/holly/pkg/holly"
	"github.com/ilikeorangutans/holly/pkg/observability"
	"github.com/ilikeorangutans/holly/pkg/server"
	"github.com/ilikeorangutans/holly/pkg/storage"
	"github.com/ilikeorangutans/holly/pkg/version"
)

type Config struct {
	Port              int  `default:"5000"`
	FancyLogs         bool `split_words:"true"`
	Debug             bool
	OpenweatherApiKey string   `split_words:"true"`
	GuardianApiKey    string   `split_words:"true"`
	WeatherLocation   string   `split_words:"true" default:"New Delhi"`
	AllowedOrigins    []string `split_words:"true"`
}

func main() {
	godotenv.Load()

	var config Config
	if err := envconfig.Process("holly", &config); err != nil {
		log.Fatal().Err(err).Send()
	}

	if config.FancyLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	startTime := time.Now()
	log.Info().Str("log-level", zerolog.GlobalLevel().String()).Str("sha", version.SHA).Str("build-time", version.BuildTime).Str("weather-location", config.WeatherLocation).Msg("holly starting up")

	// reminders deliberately do not survive restarts
	db, err := storage.Open("file::memory:?_loc=UTC")
	if err != nil {
		log.Fatal().Err(err).Msg("opening database failed")
	}
	defer db.Close()

	reminders := holly.NewReminderStore(db)
	assistant := holly.NewAssistant(reminders, time.Now)

	weather := holly.NewOpenWeatherClient(config.OpenweatherApiKey, config.WeatherLocation)
	news := holly.NewGuardianClient(config.GuardianApiKey)

	// registration order is intent priority, first match wins
	holly.AddTimeHandler(assistant)
	holly.AddWeatherHandler(assistant, weather)
	holly.AddNewsHandler(assistant, news)
	holly.AddReminderHandler(assistant, reminders)
	holly.AddConfirmationHandler(assistant)
	holly.AddGoodbyeHandler(assistant)

	// the gauge refresh only observes the store; reminders fire exclusively
	// from the per-command sweep
	c := cron.New()
	c.AddFunc("@every 1m", func() {
		count, err := reminders.Count(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("could not count reminders")
			return
		}
		observability.PendingReminders.Set(float64(count))
	})
	c.Start()
	defer c.Stop()

	router := server.NewRouter(assistant, config.AllowedOrigins, startTime)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: router,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("could not start HTTP server")
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	<-signals
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
