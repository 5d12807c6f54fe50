package main

import (
	"context"
	"membercard/internal/adapters/converter"
	"membercard/internal/adapters/file"
	"membercard/internal/adapters/handler"
	"membercard/internal/adapters/membership"
	"membercard/internal/adapters/renderer"
	"membercard/internal/adapters/sender"
	"membercard/internal/adapters/store"
	"membercard/internal/core/domain"
	"membercard/internal/core/domain/command"
	"membercard/internal/core/port"
	"membercard/internal/core/service"
	"net/http"
	"os"
	"os/signal"

	"github.com/fsnotify/fsnotify"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func main() {
	log.Info().Msg("starting membercard bot...")

	viper.AddConfigPath(".")
	viper.SetConfigType("toml")
	setDefaults()

	log.Info().Msg("reading config file...")
	err := viper.ReadInConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	applyLogLevel()

	viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Str("file", e.Name).Msg("config changed")
		applyLogLevel()
	})
	viper.WatchConfig()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	token := viper.GetString("telegram.bot_token")
	opts := []bot.Option{
		bot.WithDefaultHandler(noOpHandler),
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing telegram bot")
	}

	s := sender.NewTelegram(b)

	downloader := file.NewDownloader(&http.Client{})

	cardRenderer, err := renderer.NewCardRenderer(file.NewLoader(downloader), renderer.Config{
		Width:        viper.GetInt("card.width"),
		Height:       viper.GetInt("card.height"),
		ImageTimeout: viper.GetDuration("card.image_timeout"),
	})
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing card renderer")
	}

	membershipClient := membership.NewClient(
		viper.GetString("membership.base_url"),
		viper.GetString("membership.api_key"),
		viper.GetDuration("membership.timeout"))

	registrationStore, err := newStore(viper.GetString("store.path"))
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing registration store")
	}

	target := domain.CompressionTarget{
		MaxDimensionPx: viper.GetInt("compression.max_dimension_px"),
		MaxBytes:       viper.GetInt("compression.max_bytes"),
		InitialQuality: viper.GetFloat64("compression.initial_quality"),
		QualityStep:    viper.GetFloat64("compression.quality_step"),
		MinQuality:     viper.GetFloat64("compression.min_quality"),
	}

	registration := service.NewRegistration(registrationStore, downloader, converter.NewJPEGCompressor(),
		cardRenderer, membershipClient, target, membership.DefaultDesigns())

	commandRegistry := &command.Registry{}

	commandRegistry.Register(command.NewStart(registration, s, commandRegistry, "/start"))
	commandRegistry.Register(command.NewName(registration, s, "/name"))
	commandRegistry.Register(command.NewPhone(registration, s, "/phone"))
	commandRegistry.Register(command.NewEmail(registration, s, "/email"))
	commandRegistry.Register(command.NewBirthday(registration, s, "/birthday"))
	commandRegistry.Register(command.NewPhoto(registration, s, "/photo"))
	commandRegistry.Register(command.NewDesigns(registration, s, "/designs"))
	commandRegistry.Register(command.NewDesign(registration, s, s, "/design"))
	commandRegistry.Register(command.NewSubmit(registration, s, s, "/submit"))
	commandRegistry.Register(command.NewCard(registration, s, s, "/card"))

	handlerTimeout := viper.GetDuration("handler.timeout")

	commandHandler := handler.NewCommand(commandRegistry, s, handlerTimeout)

	b.RegisterHandler(bot.HandlerTypeMessageText, "/", bot.MatchTypePrefix, commandHandler.Handle)
	b.RegisterHandler(bot.HandlerTypePhotoCaption, "/", bot.MatchTypePrefix, commandHandler.Handle)

	log.Info().Msg("bot listening")
	b.Start(ctx)
}

func setDefaults() {
	defaults := domain.DefaultCompressionTarget()

	viper.SetDefault("bot.log_level", "info")
	viper.SetDefault("handler.timeout", "2m")
	viper.SetDefault("membership.timeout", membership.DefaultTimeout)
	viper.SetDefault("compression.max_dimension_px", defaults.MaxDimensionPx)
	viper.SetDefault("compression.max_bytes", defaults.MaxBytes)
	viper.SetDefault("compression.initial_quality", defaults.InitialQuality)
	viper.SetDefault("compression.quality_step", defaults.QualityStep)
	viper.SetDefault("compression.min_quality", defaults.MinQuality)
	viper.SetDefault("card.width", renderer.DefaultWidth)
	viper.SetDefault("card.height", renderer.DefaultHeight)
	viper.SetDefault("card.image_timeout", renderer.DefaultImageTimeout)
}

func applyLogLevel() {
	var logLevel zerolog.Level

	switch viper.GetString("bot.log_level") {
	case "info":
		logLevel = zerolog.InfoLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)
}

// newStore keeps registrations on disk when a path is configured, in memory otherwise.
func newStore(path string) (port.RegistrationStore, error) {
	if path == "" {
		log.Warn().Msg("no store.path configured, registrations are kept in memory")
		return store.NewMemory(), nil
	}

	return store.NewFile(path)
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
