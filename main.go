package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"github.com/turbekoff/fracbot/pkg/env"
)

type TelegramConfig struct {
	Token    string `env:"TOKEN"`
	Disabled bool   `env:"DISABLED" env-default:"false"`
	Offset   int    `env:"OFFSET" env-default:"20"`
	Timeout  int    `env:"TIMEOUT" env-default:"60"`
}

type HTTPConfig struct {
	Addr     string `env:"ADDR" env-default:":8080"`
	Disabled bool   `env:"DISABLED" env-default:"false"`
}

type Config struct {
	Telegram        TelegramConfig `env-prefix:"TELEGRAM_"`
	HTTP            HTTPConfig     `env-prefix:"HTTP_"`
	Precision       uint           `env:"PRECISION" env-default:"2"`
	MaxPrecision    uint           `env:"MAX_PRECISION" env-default:"64"`
	SessionTTL      time.Duration  `env:"SESSION_TTL" env-default:"20m"`
	SessionCleanup  time.Duration  `env:"SESSION_CLEANUP" env-default:"1m"`
	ShutdownTimeout time.Duration  `env:"SHUTDOWN_TIMEOUT" env-default:"2m"`
}

const envPrefix = "FRACBOT_"

var ErrNoFrontend = errors.New("both telegram and http are disabled")

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.ReadPrefixed(envPrefix, &cfg); err != nil {
		return nil, err
	}

	if !cfg.Telegram.Disabled && cfg.Telegram.Token == "" {
		return nil, &env.FieldError{Name: envPrefix + "TELEGRAM_TOKEN", Err: env.ErrRequired}
	}
	if cfg.Telegram.Disabled && cfg.HTTP.Disabled {
		return nil, ErrNoFrontend
	}
	if cfg.Precision > cfg.MaxPrecision {
		return nil, fmt.Errorf("%w: %d > %d", ErrPrecisionRange, cfg.Precision, cfg.MaxPrecision)
	}
	return &cfg, nil
}

// stop asks the process to shut down the same way a signal would.
func stop() {
	if p, err := os.FindProcess(os.Getpid()); err == nil {
		_ = p.Signal(syscall.SIGTERM)
	}
}

func main() {
	config, err := LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config, error: %v\n", err)
	}

	logger := log.Default()
	sessions := NewMemcached[*Session](config.SessionTTL, config.SessionCleanup)

	var bot *Bot
	if !config.Telegram.Disabled {
		bot, err = LoadBot(config, sessions, logger)
		if err != nil {
			log.Fatalf("failed to connect telegram, error: %v\n", err)
		}

		go func() {
			log.Println("starting telegram bot")
			if err := bot.Run(); !errors.Is(err, ErrClosed) {
				log.Printf("failed to start telegram bot, error: %s\n", err)
			}
			stop()
		}()
	}

	var api *API
	if !config.HTTP.Disabled {
		api = NewAPI(config, sessions, logger)

		go func() {
			log.Printf("starting http api on %s\n", config.HTTP.Addr)
			if err := api.Run(); err != nil {
				log.Printf("failed to start http api, error: %s\n", err)
				stop()
			}
		}()
	}

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		config.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"frontends": func(ctx context.Context) error {
				// open sessions keep being served until they expire
				log.Println("waiting for sessions to expire")
				if err := sessions.Shutdown(ctx); err != nil {
					log.Printf("failed to drain sessions, error: %s\n", err)
					log.Printf("dropping %d open sessions\n", sessions.Len())
					if err := sessions.Close(); err != nil {
						log.Printf("failed to close sessions, error: %s\n", err)
					}
				}

				var errs []error
				if bot != nil {
					log.Println("stopping telegram bot")
					errs = append(errs, bot.Shutdown(ctx))
				}
				if api != nil {
					log.Println("stopping http api")
					errs = append(errs, api.Shutdown(ctx))
				}
				return errors.Join(errs...)
			},
		},
	)

	exitCode := <-wait
	log.Printf("stopped with code: %d\n", exitCode)
	os.Exit(exitCode)
}
