package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	pkg "github.com/skillsphere/videocall/pkg/internal"
	"github.com/skillsphere/videocall/pkg/internal/broker"
	"github.com/skillsphere/videocall/pkg/internal/cache"
	"github.com/skillsphere/videocall/pkg/internal/database"
	"github.com/skillsphere/videocall/pkg/internal/grpc"
	"github.com/skillsphere/videocall/pkg/internal/services"
	"github.com/skillsphere/videocall/pkg/internal/web"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Connect to database
	if err := database.NewSource(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	} else if err := database.RunMigration(database.C); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Initialize cache
	if err := cache.NewStore(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connecting to cache.")
	}

	// Connect the broker; signaling degrades to single-instance mode without it
	if err := broker.NewBroker(); err != nil {
		log.Warn().Err(err).Msg("An error occurred when connecting to broker, cross-instance relay disabled...")
	}

	services.SetupRealtime()

	// Server
	web.NewServer()
	go web.Listen()

	srv := grpc.NewGrpc()
	go func() {
		if err := srv.Listen(); err != nil {
			log.Fatal().Err(err).Msg("An error occurred when starting grpc server...")
		}
	}()

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	quartz.AddFunc("@every 60m", services.DoAutoDatabaseCleanup)
	quartz.AddFunc("@every 60s", services.DoSweepStaleParticipants)
	quartz.Start()

	// Messages
	log.Info().Msgf("Videocall v%s is started...", pkg.AppVersion)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msgf("Videocall v%s is quitting...", pkg.AppVersion)

	quartz.Stop()
}
