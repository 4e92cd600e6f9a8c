package surfaceflow

import (
	runtimepkg "github.com/drblury/surfaceflow/internal/runtime"
	"github.com/drblury/surfaceflow/internal/runtime/catalog"
	"github.com/drblury/surfaceflow/internal/runtime/component"
	configpkg "github.com/drblury/surfaceflow/internal/runtime/config"
	"github.com/drblury/surfaceflow/internal/runtime/datapath"
	errspkg "github.com/drblury/surfaceflow/internal/runtime/errors"
	idspkg "github.com/drblury/surfaceflow/internal/runtime/ids"
	jsoncodec "github.com/drblury/surfaceflow/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/surfaceflow/internal/runtime/logging"
	metadatapkg "github.com/drblury/surfaceflow/internal/runtime/metadata"
	"github.com/drblury/surfaceflow/internal/runtime/protocol"
	"github.com/drblury/surfaceflow/internal/runtime/render"
	routerpkg "github.com/drblury/surfaceflow/internal/runtime/router"
	"github.com/drblury/surfaceflow/internal/runtime/store"
	"github.com/drblury/surfaceflow/internal/runtime/stream"
	transportpkg "github.com/drblury/surfaceflow/internal/runtime/transport"
	newtransport "github.com/drblury/surfaceflow/transport"
)

type (
	Config               = configpkg.Config
	Service              = runtimepkg.Service
	ServiceDependencies  = runtimepkg.ServiceDependencies
	Transport            = transportpkg.Transport
	TransportFactory     = transportpkg.Factory
	TransportFactoryFunc = transportpkg.FactoryFunc

	MiddlewareBuilder      = runtimepkg.MiddlewareBuilder
	MiddlewareRegistration = runtimepkg.MiddlewareRegistration

	Metrics = runtimepkg.Metrics

	// Chunk lifecycle hooks
	ChunkContext = runtimepkg.ChunkContext
	ChunkHooks   = runtimepkg.ChunkHooks

	// Protocol messages
	Message          = protocol.Message
	MessageKind      = protocol.Kind
	ParseError       = protocol.ParseError
	BeginRendering   = protocol.BeginRendering
	CreateSurface    = protocol.CreateSurface
	SurfaceUpdate    = protocol.SurfaceUpdate
	UpdateComponents = protocol.UpdateComponents
	DataModelUpdate  = protocol.DataModelUpdate
	UpdateDataModel  = protocol.UpdateDataModel
	DeleteSurface    = protocol.DeleteSurface
	ComponentUpdate  = protocol.ComponentUpdate
	DataValue        = protocol.DataValue
	StreamParser     = stream.Parser

	// Surfaces and rendering
	Component          = component.Component
	Surface            = store.Surface
	Store              = store.Store
	Snapshot           = store.Snapshot
	Registry           = render.Registry
	Renderer           = render.Renderer
	RenderFunc         = render.RenderFunc
	ScopedRenderer     = render.ScopedRenderer
	Node               = render.Node
	Dispatcher         = render.Dispatcher
	DataAccessor       = render.DataAccessor
	Action             = render.Action
	ActionEmitter      = render.ActionEmitter
	ActionEmitterFunc  = render.ActionEmitterFunc
	ErrorMarker        = render.ErrorMarker
	Catalogs           = catalog.Catalogs
	ValidationError    = catalog.ValidationError
	ComponentValidator = routerpkg.ComponentValidator
	RoutingWarning     = routerpkg.Warning

	Metadata = metadatapkg.Metadata

	LogFields                 = loggingpkg.LogFields
	ServiceLogger             = loggingpkg.ServiceLogger
	EntryLogger               = loggingpkg.EntryLogger
	EntryLoggerAdapter[T any] = loggingpkg.EntryLoggerAdapter[T]

	ConfigValidationError = errspkg.ConfigValidationError

	// Transport capabilities
	Capabilities = newtransport.Capabilities

	// Modular transport types
	TransportBuilder  = newtransport.Builder
	TransportConfig   = newtransport.Config
	TransportRegistry = newtransport.Registry
)

var (
	NewService     = runtimepkg.NewService
	TryNewService  = runtimepkg.TryNewService
	ValidateConfig = configpkg.ValidateConfig
	LoadFromEnv    = configpkg.LoadFromEnv

	DefaultMiddlewares      = runtimepkg.DefaultMiddlewares
	CorrelationIDMiddleware = runtimepkg.CorrelationIDMiddleware
	LogMessagesMiddleware   = runtimepkg.LogMessagesMiddleware
	TracerMiddleware        = runtimepkg.TracerMiddleware
	MetricsMiddleware       = runtimepkg.MetricsMiddleware
	RecovererMiddleware     = runtimepkg.RecovererMiddleware

	// Chunk lifecycle hooks
	LoggingHooks = runtimepkg.LoggingHooks

	NewMetrics = runtimepkg.NewMetrics

	// Protocol
	Parse     = protocol.Parse
	ParseAll  = stream.ParseAll
	NewParser = stream.NewParser

	// Surfaces and rendering
	NewStore                = store.New
	NewSurface              = store.NewSurface
	NewRegistry             = render.NewRegistry
	NewDispatcher           = render.NewDispatcher
	WithMissingRendererHook = render.WithMissingRendererHook
	MissingRenderer         = render.MissingRenderer
	DiscardActions          = render.DiscardActions
	NewCatalogs             = catalog.New
	NormalizeComponent      = component.Normalize
	TextContent             = component.TextContent
	ChildIDs                = component.ChildIDs

	// Data paths
	GetPath            = datapath.Get
	SetPath            = datapath.Set
	ErrIndexOutOfRange = datapath.ErrIndexOutOfRange

	// Actions
	NewActionMessage = runtimepkg.NewActionMessage
	PublishAction    = runtimepkg.PublishAction

	// Transport capabilities
	GetCapabilities = newtransport.GetCapabilities

	// Modular transport registry.
	// Import individual transports via: _ "github.com/drblury/surfaceflow/transport/kafka"
	DefaultTransportRegistry = newtransport.DefaultRegistry
	RegisterTransport        = newtransport.Register
	BuildTransport           = newtransport.Build
	DefaultTransportFactory  = transportpkg.DefaultFactory

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrSurfaceNotFound       = errspkg.ErrSurfaceNotFound
	ErrRegistryRequired      = errspkg.ErrRegistryRequired
	ErrRendererRequired      = errspkg.ErrRendererRequired
	ErrComponentTypeRequired = errspkg.ErrComponentTypeRequired
	ErrActionTypeRequired    = errspkg.ErrActionTypeRequired
	ErrPublisherRequired     = errspkg.ErrPublisherRequired
	ErrTopicRequired         = errspkg.ErrTopicRequired
	ErrConfigRequired        = errspkg.ErrConfigRequired
	ErrLoggerRequired        = errspkg.ErrLoggerRequired

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NewNopServiceLogger       = loggingpkg.NewNopServiceLogger

	NewMetadata = metadatapkg.New

	CreateULID = idspkg.CreateULID
)

// Metadata keys set on action and poison queue messages.
const (
	MetadataKeyCorrelationID = metadatapkg.KeyCorrelationID
	MetadataKeyActionID      = metadatapkg.KeyActionID
	MetadataKeyActionType    = metadatapkg.KeyActionType
	MetadataKeySurfaceID     = metadatapkg.KeySurfaceID
	MetadataKeyParseError    = metadatapkg.KeyParseError
)

// Message kinds of both protocol generations.
const (
	KindCreateSurface    = protocol.KindCreateSurface
	KindUpdateComponents = protocol.KindUpdateComponents
	KindUpdateDataModel  = protocol.KindUpdateDataModel
	KindDeleteSurface    = protocol.KindDeleteSurface
	KindBeginRendering   = protocol.KindBeginRendering
	KindSurfaceUpdate    = protocol.KindSurfaceUpdate
	KindDataModelUpdate  = protocol.KindDataModelUpdate
)

func NewEntryServiceLogger[T EntryLoggerAdapter[T]](entry T) ServiceLogger {
	return loggingpkg.NewEntryServiceLogger(entry)
}

// DataAs reads the value at path and converts it to T.
func DataAs[T any](d DataAccessor, path string) (T, bool) {
	return render.DataAs[T](d, path)
}
