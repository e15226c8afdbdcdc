package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/promisethread/zkvote/log"
	"github.com/promisethread/zkvote/snark"
	stg "github.com/promisethread/zkvote/storage"
)

// APIConfig type represents the configuration for the API HTTP server.
// It includes the host, port, the storage instance and the proof verifier.
type APIConfig struct {
	Host     string
	Port     int
	Storage  *stg.Storage
	Verifier *snark.Verifier
}

// API type represents the anonymous voting HTTP server.
type API struct {
	router   *chi.Mux
	storage  *stg.Storage
	verifier *snark.Verifier
}

// New creates a new API instance with the given configuration and starts the
// HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Storage == nil {
		return nil, fmt.Errorf("missing storage instance")
	}
	if conf.Verifier == nil {
		return nil, fmt.Errorf("missing proof verifier")
	}
	a := &API{
		storage:  conf.Storage,
		verifier: conf.Verifier,
	}

	// Initialize router
	a.initRouter()
	go func() {
		log.Infow("Starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", CensusEndpoint, "method", "GET")
	a.router.Get(CensusEndpoint, a.census)
	log.Infow("register handler", "endpoint", CensusRootEndpoint, "method", "GET")
	a.router.Get(CensusRootEndpoint, a.censusRoot)
	log.Infow("register handler", "endpoint", VerifyProofEndpoint, "method", "POST")
	a.router.Post(VerifyProofEndpoint, a.verifyProof)
	log.Infow("register handler", "endpoint", VotesEndpoint, "method", "POST")
	a.router.Post(VotesEndpoint, a.newVote)
	log.Infow("register handler", "endpoint", PromisesEndpoint, "method", "GET")
	a.router.Get(PromisesEndpoint, a.listPromises)
	log.Infow("register handler", "endpoint", PromisesEndpoint, "method", "POST")
	a.router.Post(PromisesEndpoint, a.newPromise)
	log.Infow("register handler", "endpoint", PromiseEndpoint, "method", "GET")
	a.router.Get(PromiseEndpoint, a.promise)
	log.Infow("register handler", "endpoint", PromiseVotesEndpoint, "method", "GET")
	a.router.Get(PromiseVotesEndpoint, a.promiseVotes)
	log.Infow("register handler", "endpoint", PromiseFinalizeEndpoint, "method", "POST")
	a.router.Post(PromiseFinalizeEndpoint, a.finalizePromise)
	log.Infow("register handler", "endpoint", CredentialEndpoint, "method", "GET")
	a.router.Get(CredentialEndpoint, a.credential)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	// Register the API handlers
	a.registerHandlers()
}
