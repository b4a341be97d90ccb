package tripeld

import (
	"encoding/json"
	"fmt"
	logger "log"

	"github.com/nats-io/nats.go"

	"github.com/OpenFreightTools/tripcast/business/data/trip"
)

// tripPlanPublicationDestination is where finished trip plans should be
// sent after planning completes
type tripPlanPublicationDestination interface {
	Publish(plan *trip.Plan) error
}

// natsTripPlanPublicationDestination sends trip plans over nats
type natsTripPlanPublicationDestination struct {
	natsConn *nats.Conn
	subject  string
}

func (n *natsTripPlanPublicationDestination) Publish(plan *trip.Plan) error {
	jsonData, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("error marshaling trip plan to json: %w", err)
	}
	return n.natsConn.Publish(n.subject, jsonData)
}

// MakeNatsDestination builds a publication destination on an established
// NATS connection
func MakeNatsDestination(natsConn *nats.Conn, subject string) tripPlanPublicationDestination {
	return &natsTripPlanPublicationDestination{
		natsConn: natsConn,
		subject:  subject,
	}
}

// tripPlanPublisher publishes completed trip plans for downstream
// consumers. Publication is best effort: failures are logged and never
// fail the originating request.
type tripPlanPublisher struct {
	log         *logger.Logger
	destination tripPlanPublicationDestination
}

// makeTripPlanPublisher builds tripPlanPublisher
func makeTripPlanPublisher(log *logger.Logger,
	destination tripPlanPublicationDestination) *tripPlanPublisher {
	return &tripPlanPublisher{
		log:         log,
		destination: destination,
	}
}

// publishPlan sends one trip plan to the destination
func (p *tripPlanPublisher) publishPlan(plan *trip.Plan) {
	if err := p.destination.Publish(plan); err != nil {
		p.log.Printf("Error publishing trip plan: error:%v", err)
		return
	}
	p.log.Printf("published trip plan with %d stops over %d log days",
		len(plan.Stops), len(plan.EldLogs))
}
