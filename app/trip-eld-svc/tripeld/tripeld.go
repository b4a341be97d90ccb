// Package tripeld plans HOS-compliant truck trips and generates ELD daily
// log sheets for them, served over HTTP
package tripeld

import (
	logger "log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// ServiceConfig carries everything StartService needs to run
type ServiceConfig struct {
	Host string
	Port int

	RoutingURL     string
	RoutingTimeout time.Duration

	// Namer resolves stop coordinates to place names. May be nil, in which
	// case stops carry generic names.
	Namer LocationNamer

	// Rnd seeds all randomized output. Seed it with a fixed value to make
	// planning reproducible.
	Rnd *rand.Rand

	// NatsConn enables trip plan publication when non-nil
	NatsConn    *nats.Conn
	PlanSubject string
}

//StartService brings up the trip planning web service. Exits on shutdown signal.
func StartService(log *logger.Logger, cfg ServiceConfig, shutdownSignal chan os.Signal) {

	wg := sync.WaitGroup{}

	planner := MakePlanner(log, cfg.RoutingURL, cfg.RoutingTimeout, cfg.Namer, cfg.Rnd)

	var publisher *tripPlanPublisher
	if cfg.NatsConn != nil {
		publisher = makeTripPlanPublisher(log, MakeNatsDestination(cfg.NatsConn, cfg.PlanSubject))
	}

	webServiceShutdown := make(chan bool, 1)
	go runWebService(log, &wg, planner, publisher, cfg.Host, cfg.Port, webServiceShutdown)

	<-shutdownSignal
	log.Printf("Exiting on shutdown signal, shutting down web service")
	webServiceShutdown <- true
	wg.Wait()
	log.Printf("Web service shut down, exiting trip planning service")
}
