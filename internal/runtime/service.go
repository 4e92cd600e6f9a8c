package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/plugin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/drblury/surfaceflow/internal/runtime/catalog"
	configpkg "github.com/drblury/surfaceflow/internal/runtime/config"
	errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"
	loggingpkg "github.com/drblury/surfaceflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/surfaceflow/internal/runtime/metadata"
	"github.com/drblury/surfaceflow/internal/runtime/protocol"
	"github.com/drblury/surfaceflow/internal/runtime/render"
	routerpkg "github.com/drblury/surfaceflow/internal/runtime/router"
	"github.com/drblury/surfaceflow/internal/runtime/store"
	"github.com/drblury/surfaceflow/internal/runtime/stream"
	transportpkg "github.com/drblury/surfaceflow/internal/runtime/transport"
)

var routerRun = func(router *message.Router, ctx context.Context) error {
	return router.Run(ctx)
}

const shutdownTimeout = 5 * time.Second

// ServiceDependencies holds the optional collaborators that the Service can use.
// Leave fields nil to use the defaults.
type ServiceDependencies struct {
	// Registry holds the host's renderers. A new empty registry is used when nil.
	Registry *render.Registry
	// Catalogs validates components against the catalog their surface declares.
	Catalogs *catalog.Catalogs
	// Validator replaces Catalogs with a custom component check.
	Validator routerpkg.ComponentValidator
	// ActionHandler receives every action emitted by rendered components
	// before it is published on the action topic.
	ActionHandler render.ActionEmitter
	// Hooks are called around every input chunk.
	Hooks ChunkHooks

	Middlewares               []MiddlewareRegistration // Appended after the default middleware chain.
	DisableDefaultMiddlewares bool                     // Skips registering the default middleware chain when true.
	TransportFactory          transportpkg.Factory

	// MetricsRegisterer receives the surfaceflow and router collectors.
	// prometheus.DefaultRegisterer is used when nil.
	MetricsRegisterer prometheus.Registerer
}

// Service is the explicitly constructed runtime context of one renderer
// process: the surface store, the renderer registry and the action sink,
// connected to a transport through a Watermill router.
type Service struct {
	Conf   *configpkg.Config
	Logger loggingpkg.ServiceLogger

	transport  transportpkg.Transport
	publisher  message.Publisher
	subscriber message.Subscriber
	router     *message.Router

	store      *store.Store
	registry   *render.Registry
	dispatcher *render.Dispatcher
	surfaces   *routerpkg.Router
	parser     *stream.Parser

	actionHandler     render.ActionEmitter
	hooks             ChunkHooks
	metrics           *Metrics
	metricsRegisterer prometheus.Registerer

	// applyMu serialises input. chunkMetadata is only touched while it is held.
	applyMu       sync.Mutex
	chunkMetadata metadatapkg.Metadata

	httpServers   map[int]*http.ServeMux
	httpServersMu sync.Mutex
	running       []*http.Server
}

// NewService constructs a Service for the supplied configuration and panics
// when it cannot be built. Use TryNewService to handle the error instead.
func NewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ServiceDependencies) *Service {
	s, err := TryNewService(conf, log, ctx, deps)
	if err != nil {
		panic(err)
	}
	return s
}

// TryNewService constructs a Service for the supplied configuration.
func TryNewService(conf *configpkg.Config, log loggingpkg.ServiceLogger, ctx context.Context, deps ServiceDependencies) (*Service, error) {
	if conf == nil {
		return nil, errspkg.ErrConfigRequired
	}
	if log == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if err := errspkg.NewConfigValidationError(conf.Validate()); err != nil {
		return nil, err
	}

	wmLogger := loggingpkg.NewWatermillAdapter(log)
	log.Info("Creating surface service",
		loggingpkg.LogFields{
			"pubsub_system": conf.PubSubSystem,
			"config":        conf,
		})

	s := &Service{
		Conf:              conf,
		Logger:            log,
		store:             store.New(),
		registry:          deps.Registry,
		actionHandler:     deps.ActionHandler,
		hooks:             deps.Hooks,
		metrics:           NewMetrics(deps.MetricsRegisterer),
		metricsRegisterer: deps.MetricsRegisterer,
	}
	if s.registry == nil {
		s.registry = render.NewRegistry()
	}
	if conf.MetricsEnabled {
		if err := s.metrics.Register(); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	if err := s.buildPipeline(deps); err != nil {
		return nil, err
	}

	factory := deps.TransportFactory
	if factory == nil {
		factory = transportpkg.DefaultFactory()
	}
	transport, err := factory.Build(ctx, conf, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to build transport: %w", err)
	}
	s.transport = transport
	s.publisher = transport.Publisher
	s.subscriber = transport.Subscriber

	caps := transportpkg.Capabilities(conf)
	if warning := caps.OrderingWarning(); warning != "" {
		log.Warn(warning, loggingpkg.LogFields{"pubsub_system": caps.Name})
	}

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}
	s.router = router
	s.router.AddPlugin(plugin.SignalsHandler)

	if err := s.registerConfiguredMiddlewares(deps); err != nil {
		return nil, err
	}
	s.registerInputHandler()

	return s, nil
}

// buildPipeline wires parser → router → store → dispatcher.
func (s *Service) buildPipeline(deps ServiceDependencies) error {
	opts := []routerpkg.Option{
		routerpkg.WithAppliedHook(s.metrics.RecordApplied),
		routerpkg.WithWarningHook(func(w routerpkg.Warning) { s.metrics.RecordWarning(w.Kind) }),
	}
	switch {
	case deps.Validator != nil:
		opts = append(opts, routerpkg.WithValidator(deps.Validator))
	case deps.Catalogs != nil:
		opts = append(opts, routerpkg.WithValidator(deps.Catalogs))
	}

	surfaces, err := routerpkg.New(s.store, s.Logger, opts...)
	if err != nil {
		return err
	}
	s.surfaces = surfaces

	dispatcher, err := render.NewDispatcher(s.registry, s.store, actionSink{s: s},
		render.WithMissingRendererHook(s.metrics.RecordMissingRenderer))
	if err != nil {
		return err
	}
	s.dispatcher = dispatcher

	s.parser = stream.NewParser()
	s.parser.OnMessage(s.surfaces.Apply)
	s.parser.OnError(s.handleParseError)

	s.store.Subscribe(func() { s.metrics.SetSurfaces(s.store.Len()) })
	return nil
}

func (s *Service) registerConfiguredMiddlewares(deps ServiceDependencies) error {
	var defaults []MiddlewareRegistration
	if !deps.DisableDefaultMiddlewares {
		defaults = DefaultMiddlewares()
	}
	registrations := make([]MiddlewareRegistration, 0, len(defaults)+len(deps.Middlewares))
	registrations = append(registrations, defaults...)
	registrations = append(registrations, deps.Middlewares...)

	for _, reg := range registrations {
		if err := s.RegisterMiddleware(reg); err != nil {
			name := reg.Name
			if name == "" {
				name = "anonymous_middleware"
			}
			return fmt.Errorf("failed to register middleware %s: %w", name, err)
		}
	}
	return nil
}

// Start starts the HTTP servers and runs the underlying Watermill router
// until the provided context is cancelled. Call Stop to release the HTTP
// servers and the transport.
func (s *Service) Start(ctx context.Context) error {
	s.StartInspectServer()
	s.startHTTPServers()
	return routerRun(s.router, ctx)
}

// Stop shuts down the HTTP servers, closes the router and then the transport.
func (s *Service) Stop() error {
	var errs []error

	s.httpServersMu.Lock()
	running := s.running
	s.running = nil
	s.httpServersMu.Unlock()
	for _, srv := range running {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		errs = append(errs, srv.Shutdown(ctx))
		cancel()
	}

	if s.router != nil {
		errs = append(errs, s.router.Close())
	}
	errs = append(errs, s.transport.Close())
	return errors.Join(errs...)
}

// Store returns the surface store. Listeners subscribed on it run while
// input is being applied and must not call ApplyLine or ApplyText.
func (s *Service) Store() *store.Store {
	return s.store
}

// Registry returns the renderer registry.
func (s *Service) Registry() *render.Registry {
	return s.registry
}

// Metrics returns the service collectors.
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// Publisher returns the transport publisher. Hosts running the channel
// transport publish protocol chunks on the input topic through it.
func (s *Service) Publisher() message.Publisher {
	return s.publisher
}

// Render renders a surface from its root component. Actions go through the
// default action sink.
func (s *Service) Render(surfaceID string) (any, bool) {
	return s.RenderWith(surfaceID, nil)
}

// RenderWith renders a surface, routing actions to emitter instead of the
// default action sink. Action ids are filled in either way.
func (s *Service) RenderWith(surfaceID string, emitter render.ActionEmitter) (any, bool) {
	surface, ok := s.store.GetSurface(surfaceID)
	if !ok {
		return nil, false
	}
	if emitter != nil {
		emitter = identifiedEmitter{next: emitter}
	}
	return s.dispatcher.RenderSurface(surface, emitter)
}

// Apply applies one already parsed message.
func (s *Service) Apply(msg protocol.Message) error {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	return s.surfaces.Apply(msg)
}

// RegisterHTTPHandler mounts handler on the HTTP server listening on port.
// Servers are started by Start.
func (s *Service) RegisterHTTPHandler(port int, pattern string, handler http.Handler) {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	if s.httpServers == nil {
		s.httpServers = make(map[int]*http.ServeMux)
	}

	mux, ok := s.httpServers[port]
	if !ok {
		mux = http.NewServeMux()
		s.httpServers[port] = mux
	}

	mux.Handle(pattern, handler)
}

func (s *Service) startHTTPServers() {
	s.httpServersMu.Lock()
	defer s.httpServersMu.Unlock()

	for port, mux := range s.httpServers {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		s.running = append(s.running, srv)
		s.Logger.Info("Starting HTTP server", loggingpkg.LogFields{"address": srv.Addr})
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.Logger.Error("Failed to start HTTP server", err, loggingpkg.LogFields{"address": srv.Addr})
			}
		}()
	}
}
