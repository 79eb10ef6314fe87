package authgate

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aryadevs/authgate/credential"
	internalaudit "github.com/aryadevs/authgate/internal/audit"
	"github.com/aryadevs/authgate/internal/flows"
	"github.com/aryadevs/authgate/token"
)

// Builder wires an [Engine]. Construction is allocation-only until Build; no
// I/O happens before the first Engine method call.
type Builder struct {
	config Config
	redis  *redis.Client
	store  credential.Store

	logger    zerolog.Logger
	hasLogger bool
	auditSink AuditSink
	hasSink   bool

	built bool
}

// New returns a builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the default credential store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithStore supplies a custom credential store, overriding the Redis-backed
// default. Implementations must honor the [credential.Store] atomicity
// contract or the anti-replay guarantee does not hold.
func (b *Builder) WithStore(store credential.Store) *Builder {
	b.store = store
	return b
}

// WithLogger supplies the operator log. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.hasLogger = true
	return b
}

// WithAuditSink supplies the audit sink and enables audit dispatch. The
// decision survives a later WithConfig call.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.hasSink = sink != nil
	return b
}

// WithMetricsEnabled toggles the in-process metrics counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Authenticate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, constructs the token codecs and the
// credential store, and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or credential store required")
		}
		store = credential.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
	}

	accessCodec, err := token.NewCodec(token.Config{
		Secret: cfg.Token.AccessSecret,
		TTL:    cfg.Token.AccessTTL,
		Issuer: cfg.Token.Issuer,
		Leeway: cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	refreshCodec, err := token.NewCodec(token.Config{
		Secret: cfg.Token.RefreshSecret,
		TTL:    cfg.Token.RefreshTTL,
		Issuer: cfg.Token.Issuer,
		Leeway: cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	logger := zerolog.Nop()
	if b.hasLogger {
		logger = b.logger
	}

	e := &Engine{
		config:  cfg,
		access:  accessCodec,
		refresh: refreshCodec,
		store:   store,
		metrics: NewMetrics(cfg.Metrics),
		log:     logger,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled || b.hasSink,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	e.flows = flows.New(e.flowDeps())

	b.built = true
	return e, nil
}
