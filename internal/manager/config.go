package manager

import (
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	DefaultContainerPrefix   = "voice-studio-models"
	DefaultContainerPort     = 8000
	DefaultPortRangeStart    = 3100
	DefaultPortRangeEnd      = 3110
	DefaultOutputMount       = "/app/output"
	DefaultStartConfirmDelay = 2 * time.Second

	outputDirName = "output"
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Engine Engine
	Store  PortStore
	Probe  Probe

	// Image is the configured image reference, e.g. voicestudio/model-library:latest.
	Image           string
	ContainerPrefix string
	ContainerPort   int
	HostIP          string
	PortRangeStart  int
	PortRangeEnd    int
	// DataDir holds the output directory bind-mounted into the container.
	DataDir     string
	OutputMount string
	// StartConfirmDelay is how long to wait after a start before verifying
	// the container is running.
	StartConfirmDelay time.Duration
	// Platform optionally pins os/arch for pull and create, e.g. linux/amd64.
	Platform string

	Logger    *zerolog.Logger
	Tracer    trace.Tracer
	Publisher EventPublisher
}

// NewWithConfig constructs a Manager from ManagerConfig.
// Configuration problems (missing image, engine, store) surface as a
// ConfigError from EnsureRuntimeReady.
func NewWithConfig(cfg ManagerConfig) *Manager {
	if cfg.ContainerPrefix == "" {
		cfg.ContainerPrefix = DefaultContainerPrefix
	}
	if cfg.ContainerPort <= 0 {
		cfg.ContainerPort = DefaultContainerPort
	}
	if cfg.PortRangeStart <= 0 {
		cfg.PortRangeStart = DefaultPortRangeStart
	}
	if cfg.PortRangeEnd <= 0 {
		cfg.PortRangeEnd = DefaultPortRangeEnd
	}
	if cfg.OutputMount == "" {
		cfg.OutputMount = DefaultOutputMount
	}
	if cfg.StartConfirmDelay <= 0 {
		cfg.StartConfirmDelay = DefaultStartConfirmDelay
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("component", "manager").Logger()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("runtimed/manager")
	}
	pub := cfg.Publisher
	if pub == nil {
		pub = noopPublisher{}
	}

	m := &Manager{
		cfg:       cfg,
		state:     StateIdle,
		flight:    &singleflight.Group{},
		bus:       NewBroadcaster(),
		publisher: pub,
		log:       log,
		tracer:    tracer,
		startTime: time.Now(),
	}
	m.ports = NewPortAllocator(cfg.Engine, cfg.PortRangeStart, cfg.PortRangeEnd)
	m.puller = &ImagePuller{engine: cfg.Engine, emit: m.emit, log: log, platform: cfg.Platform}
	return m
}

// OutputDir is the host directory mounted at OutputMount.
func (c ManagerConfig) OutputDir() string {
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, outputDirName)
}
