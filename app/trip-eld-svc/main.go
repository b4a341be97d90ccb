package main

import (
	"fmt"
	logger "log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/nats-io/nats.go"

	"github.com/OpenFreightTools/tripcast/app/trip-eld-svc/tripeld"
	"github.com/OpenFreightTools/tripcast/foundation/geocode"
)

var build = "develop"

func main() {
	log := logger.New(os.Stdout, "TRIP_ELD : ", logger.LstdFlags|logger.Lmicroseconds|logger.Lshortfile)
	if err := run(log); err != nil {
		log.Printf("main: error: %v", err)
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	var cfg struct {
		conf.Version
		Args conf.Args
		Web  struct {
			Host string `conf:"default:0.0.0.0"`
			Port int    `conf:"default:8000"`
		}
		Routing struct {
			Url            string `conf:"default:https://router.project-osrm.org"`
			TimeoutSeconds int    `conf:"default:10"`
		}
		Geocode struct {
			Url                string `conf:"default:https://nominatim.openstreetmap.org"`
			CacheDir           string `conf:"default:location_cache"`
			UserAgent          string `conf:"default:tripcast/1.0"`
			TimeoutSeconds     int    `conf:"default:5"`
			MinIntervalSeconds int    `conf:"default:1"`
		}
		Nats struct {
			Url         string `conf:"default:"`
			PlanSubject string `conf:"default:tripcast.plans"`
		}
	}
	cfg.Version.SVN = build
	cfg.Version.Desc = "Plan trips and generate ELD daily logs"
	const prefix = "TRIPELD"
	if err := conf.Parse(os.Args[1:], prefix, &cfg); err != nil {
		switch err {
		case conf.ErrHelpWanted:
			usage, err := conf.Usage(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config usage: %w", err)
			}
			printUsage(usage)
			return nil
		case conf.ErrVersionWanted:
			version, err := conf.VersionString(prefix, &cfg)
			if err != nil {
				return fmt.Errorf("generating config version: %w", err)
			}
			fmt.Println(version)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Printf("main : Started : Application initializing : version %s", build)
	defer log.Println("main: Completed")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Printf("main: Config :\n%v\n", out)

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	namer, err := geocode.NewResolver(log, geocode.Config{
		BaseURL:            cfg.Geocode.Url,
		CacheDir:           cfg.Geocode.CacheDir,
		UserAgent:          cfg.Geocode.UserAgent,
		Timeout:            time.Duration(cfg.Geocode.TimeoutSeconds) * time.Second,
		MinRequestInterval: time.Duration(cfg.Geocode.MinIntervalSeconds) * time.Second,
	}, rnd)
	if err != nil {
		return fmt.Errorf("creating geocode resolver: %w", err)
	}

	var natsConn *nats.Conn
	if cfg.Nats.Url != "" {
		log.Println("main: Initializing nats connection")
		natsConn, err = nats.Connect(cfg.Nats.Url)
		if err != nil {
			return fmt.Errorf("connecting to nats at %s: %w", cfg.Nats.Url, err)
		}
		defer func() {
			log.Printf("main: Closing nats connection")
			natsConn.Close()
		}()
	}

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	tripeld.StartService(log, tripeld.ServiceConfig{
		Host:           cfg.Web.Host,
		Port:           cfg.Web.Port,
		RoutingURL:     cfg.Routing.Url,
		RoutingTimeout: time.Duration(cfg.Routing.TimeoutSeconds) * time.Second,
		Namer:          namer,
		Rnd:            rnd,
		NatsConn:       natsConn,
		PlanSubject:    cfg.Nats.PlanSubject,
	}, shutdown)

	return nil
}

func printUsage(confUsage string) {
	fmt.Println(confUsage)
}
