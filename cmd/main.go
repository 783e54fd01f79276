package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "stable_dashboard/docs"
	"stable_dashboard/internal/alerts"
	"stable_dashboard/internal/handlers"
	"stable_dashboard/internal/hass"
	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/metrics"
	"stable_dashboard/internal/notifier"
	"stable_dashboard/internal/repository"
	"stable_dashboard/internal/repository/db"
	"stable_dashboard/internal/server"
	"stable_dashboard/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

// @title                       Stable dashboard API
// @version                     1.0
// @description                 Home Assistant entity sync and alert rules for the stable dashboard.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load config.yml before the logger so log.level applies
	cfgErr := loadConfig()

	log := logger.Get(viper.GetString("log.level"), viper.GetString("log.format"))
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(sqlDB)
	m := metrics.New()

	// controller link
	creds := service.NewCredentialStore(repos.Settings, hass.Credentials{
		URL:   viper.GetString("ha.url"),
		Token: viper.GetString("ha.token"),
	})
	insecure := viper.GetBool("ha.insecure_skip_verify")
	client := hass.NewClient(creds, hass.NewHTTPClient(viper.GetDuration("ha.request_timeout"), insecure), log)
	cache := hass.NewCache()
	dialer := hass.NewStreamDialer(viper.GetDuration("ha.handshake_timeout"), insecure, log)
	manager := hass.NewManager(
		hass.NewStreamingSource(dialer, creds, cache),
		hass.NewPollingSource(client, cache),
		cache, creds, log,
		hass.WithObserver(m),
	)
	m.RegisterEntityCount(cache.Len)

	evaluator := alerts.NewEvaluator(repos.Alerts, repos.History, alerts.NewTriggerState(), log,
		alerts.WithIDGenerator(uuid.NewString))

	sinks, closeSinks := buildNotifiers(log)
	defer closeSinks()

	services := service.NewService(service.Deps{
		Repos:       repos,
		Cache:       cache,
		Manager:     manager,
		Client:      client,
		Evaluator:   evaluator,
		Credentials: creds,
		Notifier:    sinks,
		Metrics:     m,
		Auth: service.AuthConfig{
			SigningKey: viper.GetString("auth.signing_key"),
			TokenTTL:   viper.GetDuration("auth.token_ttl"),
		},
		Log: log,
	})
	apiHandler := handlers.NewHandler(services, log, m)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if viper.GetBool("ha.autoconnect") {
		go autoConnect(ctx, services, log)
	}

	if tick := viper.GetDuration("alerts.check_interval"); tick > 0 {
		go services.Checker.Run(ctx, tick)
	}

	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	waitForShutdown(cancel, srv, services, log)
}

func loadConfig() error {
	viper.SetDefault("port", "8080")
	viper.SetDefault("db.path", "app.db")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("log.format", logger.FormatConsole)
	viper.SetDefault("auth.token_ttl", time.Hour)
	viper.SetDefault("ha.request_timeout", 10*time.Second)
	viper.SetDefault("ha.handshake_timeout", 10*time.Second)
	viper.SetDefault("ha.autoconnect", true)
	viper.SetDefault("alerts.check_interval", time.Duration(0))
	viper.SetDefault("notify.mqtt.topic", "stable/alerts")
	viper.SetDefault("notify.mqtt.client_id", "stable-dashboard")
	viper.SetDefault("notify.mqtt.qos", 1)
	viper.SetDefault("notify.kafka.topic", "stable.alerts")

	viper.SetEnvPrefix("stable")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	log.Infow("opening sqlite", "path", dbPath)
	return db.InitDB(dbPath)
}

// buildNotifiers connects the enabled alert sinks. A sink that cannot be
// reached at startup is skipped with a warning.
func buildNotifiers(log *logger.Logger) (notifier.Multi, func()) {
	var (
		sinks   notifier.Multi
		closers []func()
	)

	if viper.GetBool("notify.mqtt.enabled") {
		cfg := notifier.MQTTConfig{
			Broker:   viper.GetString("notify.mqtt.broker"),
			Topic:    viper.GetString("notify.mqtt.topic"),
			ClientID: viper.GetString("notify.mqtt.client_id"),
			QoS:      byte(viper.GetInt("notify.mqtt.qos")),
		}
		n, closeFn, err := notifier.DialMQTT(cfg, log)
		if err != nil {
			log.Warnw("mqtt_notifier_disabled", "broker", cfg.Broker, "err", err)
		} else {
			sinks = append(sinks, n)
			closers = append(closers, closeFn)
		}
	}

	if viper.GetBool("notify.kafka.enabled") {
		cfg := notifier.KafkaConfig{
			Brokers: viper.GetStringSlice("notify.kafka.brokers"),
			Topic:   viper.GetString("notify.kafka.topic"),
		}
		kn := notifier.NewKafkaNotifier(notifier.NewKafkaWriter(cfg), cfg.Topic, log)
		sinks = append(sinks, kn)
		closers = append(closers, func() {
			if err := kn.Close(); err != nil {
				log.Warnw("kafka_writer_close_failed", "err", err)
			}
		})
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}

// autoConnect opens the live link once at startup. Failure is not fatal: the
// manager has already fallen back to a poll and exposes the error in status.
func autoConnect(ctx context.Context, services *service.Service, log *logger.Logger) {
	if err := services.Connect(ctx); err != nil {
		if errors.Is(err, hass.ErrNotConfigured) {
			log.Infow("ha_autoconnect_skipped", "reason", "no credentials")
			return
		}
		log.Warnw("ha_autoconnect_failed", "err", err)
		return
	}
	st := services.Status(ctx)
	log.Infow("ha_autoconnect", "state", st.State, "mode", st.Mode, "entities", st.Entities)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, services *service.Service, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	if err := services.Disconnect(); err != nil {
		log.Warnw("ha_disconnect_failed", "err", err)
	}

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
