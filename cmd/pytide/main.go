// Command pytide fetches tide predictions for the configured NOAA stations
// and emails a report to each configured recipient. It is meant to run from
// cron or a systemd timer, or by hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pfeif/pytide/pkg/config"
	"github.com/pfeif/pytide/pkg/data"
	"github.com/pfeif/pytide/pkg/email"
	"github.com/pfeif/pytide/pkg/maps"
	"github.com/pfeif/pytide/pkg/metrics"
	"github.com/pfeif/pytide/pkg/noaa"
	"github.com/pfeif/pytide/pkg/report"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pytide: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), logger.Sugar()); err != nil {
		fmt.Fprintf(os.Stderr, "pytide: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *zap.SugaredLogger) error {
	configFile := flag.String("config-file", "", "use a custom configuration file")
	mapsAPIKey := flag.String("maps-api-key", "", "Google Maps Static API key (overrides the configuration file)")
	send := flag.Bool("send", true, "send the email to recipients")
	saveEmail := flag.Bool("save-email", false, "save the email message locally")
	saveHTML := flag.Bool("save-html", false, "save the HTML message body locally")
	clearCache := flag.Bool("clear-cache", false, "delete the local cache and exit")
	flag.Parse()

	// A .env file is a convenience for manual runs; absence is fine.
	_ = godotenv.Load()

	env, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	cachePath, cachePathErr := data.DefaultPath()

	if *clearCache {
		if cachePathErr != nil {
			return cachePathErr
		}
		existed, err := data.Clear(cachePath)
		if err != nil {
			return err
		}
		if existed {
			fmt.Printf("removed cache %s\n", cachePath)
		} else {
			fmt.Printf("no cache at %s\n", cachePath)
		}
		return nil
	}

	path, err := config.Resolve(*configFile, env)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	// Key precedence: flag, then environment, then config file.
	if env.MapsAPIKey != "" {
		cfg.MapsAPIKey = env.MapsAPIKey
	}
	if *mapsAPIKey != "" {
		cfg.MapsAPIKey = *mapsAPIKey
	}

	if err := cfg.Validate(*send); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}

	var cache *data.Cache
	if cachePathErr != nil {
		log.Warnw("cache disabled", "error", cachePathErr)
	} else if cache, err = data.Open(cachePath); err != nil {
		log.Warnw("cache disabled", "error", err)
		cache = nil
	}

	var mapsClient *maps.Client
	if cfg.MapsAPIKey != "" {
		mapsClient = maps.NewClient(cfg.MapsAPIKey)
	} else {
		log.Infow("no maps API key; reports will not include maps")
	}

	builder := report.NewBuilder(noaa.NewClient(), mapsClient, cache, log)
	stations, err := builder.Build(ctx, cfg.Stations)
	if err != nil {
		return err
	}

	msg, err := email.Compose(stations, cfg.SMTP.Sender)
	if err != nil {
		return err
	}

	if *saveHTML {
		if err := msg.SaveHTML("message.html"); err != nil {
			return err
		}
		log.Infow("saved HTML body", "path", "message.html")
	}
	if *saveEmail {
		if err := msg.SaveEML("message.eml"); err != nil {
			return err
		}
		log.Infow("saved message", "path", "message.eml")
	}

	if *send {
		if err := email.Send(msg, cfg.Recipients, cfg.SMTP, log); err != nil {
			return err
		}
	}

	log.Infow("run complete", "stations", len(stations), "counters", metrics.Snapshot())
	return nil
}
