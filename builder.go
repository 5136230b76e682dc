package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skulipro/authcore/blacklist"
	"github.com/skulipro/authcore/counter"
	"github.com/skulipro/authcore/credential"
	"github.com/skulipro/authcore/directory"
	"github.com/skulipro/authcore/internal/audit"
	"github.com/skulipro/authcore/internal/rate"
	"github.com/skulipro/authcore/jwt"
	"github.com/skulipro/authcore/notify"
	"github.com/skulipro/authcore/otp"
	"github.com/skulipro/authcore/password"
)

// Builder assembles an [Engine]. A Builder may be used once.
type Builder struct {
	config Config
	store  counter.Store

	directory directory.Store
	sms       notify.SMSSender
	email     notify.EmailSender
	auditSink AuditSink
	logger    *slog.Logger
	now       func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration with a private copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis uses client as the counter store. One client (one pool) should
// be shared by the whole process.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.store = counter.NewRedis(client)
	return b
}

// WithCounterStore uses an arbitrary counter store implementation.
func (b *Builder) WithCounterStore(store counter.Store) *Builder {
	b.store = store
	return b
}

func (b *Builder) WithDirectory(dir directory.Store) *Builder {
	b.directory = dir
	return b
}

// WithSMSSender sets the preferred OTP and link channel.
func (b *Builder) WithSMSSender(s notify.SMSSender) *Builder {
	b.sms = s
	return b
}

// WithEmailSender sets the fallback channel.
func (b *Builder) WithEmailSender(s notify.EmailSender) *Builder {
	b.email = s
	return b
}

// WithAuditSink enables audit dispatch to sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides time.Now for every component. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	if enabled {
		b.config.Metrics.Enabled = true
	}
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("counter store required")
	}
	if b.directory == nil {
		return nil, errors.New("directory required")
	}
	if b.sms == nil && b.email == nil {
		return nil, errors.New("at least one notification sender required")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	cfg := cloneConfig(b.config)
	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MinPasswordBytes: cfg.Password.MinPasswordBytes,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}

	sessions, err := jwt.NewSigner(signerConfig(cfg.Session, now))
	if err != nil {
		return nil, err
	}
	actions, err := jwt.NewSigner(signerConfig(cfg.Action.TokenConfig, now))
	if err != nil {
		return nil, err
	}

	scopes := make(map[string]rate.Policy, len(cfg.RateLimit.Scopes))
	for name, p := range cfg.RateLimit.Scopes {
		scopes[name] = rate.Policy{Limit: p.Limit, Window: p.Window}
	}

	roles := make(map[string]struct{}, len(cfg.Roles.Allowed))
	for _, r := range cfg.Roles.Allowed {
		roles[r] = struct{}{}
	}

	engine := &Engine{
		config:    cfg,
		logger:    logger,
		now:       now,
		store:     b.store,
		directory: b.directory,
		hasher:    hasher,
		limiter:   rate.New(b.store, rate.Config{Prefix: cfg.RateLimit.Prefix, Scopes: scopes}),
		otp: otp.NewManager(b.store, otp.Config{
			Digits:      cfg.OTP.Digits,
			TTL:         cfg.OTP.TTL,
			MaxAttempts: cfg.OTP.MaxAttempts,
			DailyCap:    cfg.OTP.DailyCap,
			Window:      cfg.OTP.Window,
			Cooldown:    cfg.OTP.Cooldown,
			Pepper:      cfg.OTP.Pepper,
			Now:         now,
		}),
		verifier:  credential.NewVerifier(b.directory, hasher),
		sessions:  sessions,
		actions:   actions,
		blacklist: blacklist.New(b.store, now),
		notifier:  notify.NewFailover(b.sms, b.email, logger),
		roles:     roles,
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.initFlowDeps()

	b.built = true
	return engine, nil
}

func signerConfig(t TokenConfig, now func() time.Time) jwt.Config {
	return jwt.Config{
		TTL:           t.TTL,
		SigningMethod: jwt.SigningMethod(t.SigningMethod),
		PrivateKey:    cloneBytes(t.PrivateKey),
		PublicKey:     cloneBytes(t.PublicKey),
		Issuer:        t.Issuer,
		Audience:      t.Audience,
		Leeway:        t.Leeway,
		KeyID:         t.KeyID,
		Now:           now,
	}
}
