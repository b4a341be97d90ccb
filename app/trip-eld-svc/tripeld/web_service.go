package tripeld

import (
	"context"
	"encoding/json"
	logger "log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/OpenFreightTools/tripcast/business/data/trip"
)

//defaultHttpHandler simple default http handler for default route
type defaultHttpHandler struct {
}

//ServeHTTP implements defaultHttpHandler http.Handler interface
func (h *defaultHttpHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Add("Application-Status", "OK")
}

// tripPlanner computes a full trip plan from locations and cycle hours
type tripPlanner interface {
	PlanTrip(ctx context.Context, locations []trip.Location, cycleUsedHours float64) (*trip.Plan, error)
}

// coordinatePayload carries one request coordinate. Pointers distinguish
// absent values from zero.
type coordinatePayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type locationPayload struct {
	Coordinates coordinatePayload `json:"coordinates"`
}

// tripRequest is the inbound POST /trip/ body
type tripRequest struct {
	Trip struct {
		CurrentLocation  locationPayload `json:"currentLocation"`
		PickupLocation   locationPayload `json:"pickupLocation"`
		DropoffLocation  locationPayload `json:"dropoffLocation"`
		CurrentCycleUsed float64         `json:"currentCycleUsed"`
	} `json:"trip"`
}

// locations validates the three coordinate pairs and returns them in
// planning order
func (r *tripRequest) locations() ([]trip.Location, error) {
	payloads := []locationPayload{
		r.Trip.CurrentLocation,
		r.Trip.PickupLocation,
		r.Trip.DropoffLocation,
	}
	locations := make([]trip.Location, 0, len(payloads))
	for _, payload := range payloads {
		if payload.Coordinates.Latitude == nil || payload.Coordinates.Longitude == nil {
			return nil, ErrInvalidLocations
		}
		locations = append(locations, trip.Location{
			Lat: *payload.Coordinates.Latitude,
			Lng: *payload.Coordinates.Longitude,
		})
	}
	return locations, nil
}

// errorResponse is the json error body for failed requests
type errorResponse struct {
	Error string `json:"error"`
}

//tripHandler holds data needed to respond to and log trip planning requests
type tripHandler struct {
	log       *logger.Logger
	planner   tripPlanner
	publisher *tripPlanPublisher
}

//tripHandler factory
func makeTripHandler(log *logger.Logger, planner tripPlanner,
	publisher *tripPlanPublisher) *tripHandler {
	return &tripHandler{
		log:       log,
		planner:   planner,
		publisher: publisher,
	}
}

//ServeHTTP implements tripHandler's http.Handler interface
func (t *tripHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestId := uuid.NewString()[:8]

	// the planner should never panic on valid numeric input, but a
	// degenerate request must still come back as a 500, not a dropped
	// connection
	defer func() {
		if cause := recover(); cause != nil {
			t.log.Printf("trip %s: panic while planning: %v", requestId, cause)
			t.writeError(w, http.StatusInternalServerError, "Error processing request")
		}
	}()

	var request tripRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		t.log.Printf("trip %s: unable to decode request body: %v", requestId, err)
		t.writeError(w, http.StatusBadRequest, "Missing or invalid coordinates in trip data")
		return
	}
	locations, err := request.locations()
	if err != nil {
		t.log.Printf("trip %s: invalid locations: %v", requestId, err)
		t.writeError(w, http.StatusBadRequest, "Missing or invalid coordinates in trip data")
		return
	}

	started := time.Now()
	plan, err := t.planner.PlanTrip(r.Context(), locations, request.Trip.CurrentCycleUsed)
	if err != nil {
		t.log.Printf("trip %s: error planning trip: %v", requestId, err)
		t.writeError(w, http.StatusInternalServerError, "Error processing request")
		return
	}
	t.log.Printf("trip %s: planned %d stops, %d log days in %v",
		requestId, len(plan.Stops), len(plan.EldLogs), time.Since(started))

	if t.publisher != nil {
		t.publisher.publishPlan(plan)
	}

	jsonData, err := json.Marshal(plan)
	if err != nil {
		t.log.Printf("trip %s: error marshaling plan to json: %v", requestId, err)
		t.writeError(w, http.StatusInternalServerError, "Error processing request")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	byteCount, err := w.Write(jsonData)
	if err != nil {
		t.log.Printf("trip %s: error writing json response: %v", requestId, err)
		return
	}
	t.log.Printf("trip %s: wrote %d bytes in json response", requestId, byteCount)
}

//writeError sends a json error body with the given status
func (t *tripHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		t.log.Printf("Error writing error response: %v", err)
	}
}

//createServer creates configured http.Server for responding to trip planning requests
func createServer(log *logger.Logger, planner tripPlanner, publisher *tripPlanPublisher,
	host string, httpPort int) *http.Server {

	tripService := makeTripHandler(log, planner, publisher)

	r := mux.NewRouter()
	r.Handle("/", &defaultHttpHandler{})
	r.Handle("/trip/", tripService).Methods(http.MethodPost)
	srv := &http.Server{
		Addr: strings.Join([]string{host, strconv.Itoa(httpPort)}, ":"),
		// write timeout covers the sequential external routing and
		// geocoding calls a single request can make
		WriteTimeout: time.Second * 120,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}
	return srv
}

//runWebService starts up the trip planning web service, and terminates on shutdown signal
func runWebService(log *logger.Logger,
	wg *sync.WaitGroup,
	planner tripPlanner,
	publisher *tripPlanPublisher,
	host string,
	httpPort int,
	shutdownSignal chan bool,
) {
	wg.Add(1)
	defer wg.Done()
	srv := createServer(log, planner, publisher, host, httpPort)
	log.Printf("Starting server on port %d", httpPort)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Printf("server ListenAndServe ended. %s", err)
		}
	}()
	shutdownCtx, serverCancelFunc := context.WithTimeout(context.Background(), time.Duration(5)*time.Second)
	defer serverCancelFunc()

	<-shutdownSignal
	log.Printf("ending webservice on shutdown signal")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("error shutting down webservice, error:%s", err)
	}
}
