package authcore

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/skulipro/authcore/internal/rate"
)

// Config is the full engine configuration. Build validates it and keeps a
// private copy.
type Config struct {
	RateLimit      RateLimitConfig
	OTP            OTPConfig
	Session        TokenConfig
	Action         ActionConfig
	Roles          RolesConfig
	Password       PasswordConfig
	Audit          AuditConfig
	Metrics        MetricsConfig
	Timeouts       TimeoutConfig
	ProductionMode bool
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitPolicy is the cap and fixed window of one scope.
type RateLimitPolicy struct {
	Limit  int
	Window time.Duration
}

// RateLimitConfig maps scope names to policies. Keys are "{Prefix}:{scope}:{clientKey}".
type RateLimitConfig struct {
	Prefix string
	Scopes map[string]RateLimitPolicy
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig tunes the second factor.
type OTPConfig struct {
	Digits      int
	TTL         time.Duration
	MaxAttempts int
	// DailyCap is the generation cap for tenants without an override.
	DailyCap int
	// TenantCaps overrides DailyCap per tenant. Values are clamped to [3,5].
	TenantCaps map[string]int
	Window     time.Duration
	Cooldown   time.Duration
	// Pepper keys the stored code hash. Required in production.
	Pepper []byte
	// ExposeCodeInResponse echoes the code to the caller. Development only.
	ExposeCodeInResponse bool
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures one signer.
type TokenConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	KeyID         string
}

// ActionConfig configures the one-shot link signer.
type ActionConfig struct {
	TokenConfig
	// LinkBaseURL is the client origin that serves /activate.
	LinkBaseURL string
}

/*
====================================
ROLES / PASSWORD
====================================
*/

// RolesConfig lists role labels that action links may carry.
type RolesConfig struct {
	Allowed []string
}

// PasswordConfig holds Argon2id parameters.
type PasswordConfig struct {
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MinPasswordBytes int
	MaxPasswordBytes int
}

/*
====================================
AUDIT / METRICS / TIMEOUTS
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// TimeoutConfig bounds every engine operation.
type TimeoutConfig struct {
	Operation time.Duration
}

// DefaultRoles is the stock role catalog.
var DefaultRoles = []string{
	"super-admin", "school-admin", "principal", "bursar", "dorm-master",
	"transport-officer", "driver", "store-keeper", "class-teacher",
	"academic-master", "displinary-officer", "HOD", "ict-officer", "librarian",
	"meal-officer", "nurse", "parent", "registrar", "teacher", "sports-master",
	"lab-technician", "cleaning-officer", "election-officer", "debate-manager",
	"trips-officer", "maintainance-officer", "matron", "patron", "counselor",
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns a config with every default filled in. Signing keys
// and the pepper are left empty.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	scopes := make(map[string]RateLimitPolicy)
	for name, p := range rate.DefaultScopes() {
		scopes[name] = RateLimitPolicy{Limit: p.Limit, Window: p.Window}
	}
	return Config{
		RateLimit: RateLimitConfig{
			Prefix: "rl",
			Scopes: scopes,
		},
		OTP: OTPConfig{
			Digits:      6,
			TTL:         5 * time.Minute,
			MaxAttempts: 5,
			DailyCap:    3,
			Window:      24 * time.Hour,
			Cooldown:    30 * time.Second,
		},
		Session: TokenConfig{
			TTL:           180 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "authcore",
		},
		Action: ActionConfig{
			TokenConfig: TokenConfig{
				TTL:           60 * time.Minute,
				SigningMethod: "hs256",
				Issuer:        "authcore",
			},
			LinkBaseURL: "http://localhost:5173",
		},
		Roles: RolesConfig{
			Allowed: append([]string(nil), DefaultRoles...),
		},
		Password: PasswordConfig{
			Memory:           64 * 1024,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			MinPasswordBytes: 8,
			MaxPasswordBytes: 128,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Timeouts: TimeoutConfig{
			Operation: 3 * time.Second,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.PrivateKey = cloneBytes(cfg.Session.PrivateKey)
	out.Session.PublicKey = cloneBytes(cfg.Session.PublicKey)
	out.Action.PrivateKey = cloneBytes(cfg.Action.PrivateKey)
	out.Action.PublicKey = cloneBytes(cfg.Action.PublicKey)
	out.OTP.Pepper = cloneBytes(cfg.OTP.Pepper)
	if cfg.RateLimit.Scopes != nil {
		out.RateLimit.Scopes = make(map[string]RateLimitPolicy, len(cfg.RateLimit.Scopes))
		for k, v := range cfg.RateLimit.Scopes {
			out.RateLimit.Scopes[k] = v
		}
	}
	if cfg.OTP.TenantCaps != nil {
		out.OTP.TenantCaps = make(map[string]int, len(cfg.OTP.TenantCaps))
		for k, v := range cfg.OTP.TenantCaps {
			out.OTP.TenantCaps[k] = v
		}
	}
	out.Roles.Allowed = append([]string(nil), cfg.Roles.Allowed...)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	// Rate limit
	if len(c.RateLimit.Scopes) == 0 {
		return errors.New("RateLimit Scopes must not be empty")
	}
	for _, required := range []string{rate.ScopeLogin, rate.ScopeActivationRequest, rate.ScopeMailSend} {
		if _, ok := c.RateLimit.Scopes[required]; !ok {
			return fmt.Errorf("RateLimit scope %q is required", required)
		}
	}
	for name, p := range c.RateLimit.Scopes {
		if strings.TrimSpace(name) == "" || strings.Contains(name, ":") {
			return fmt.Errorf("RateLimit scope name %q is invalid", name)
		}
		if p.Limit <= 0 {
			return fmt.Errorf("RateLimit scope %q Limit must be > 0", name)
		}
		if p.Window <= 0 {
			return fmt.Errorf("RateLimit scope %q Window must be > 0", name)
		}
	}

	// OTP
	if c.OTP.Digits < 6 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 6 and 10")
	}
	if c.OTP.TTL <= 0 || c.OTP.TTL > 15*time.Minute {
		return errors.New("OTP TTL must be > 0 and <= 15m")
	}
	if c.OTP.MaxAttempts <= 0 || c.OTP.MaxAttempts > 10 {
		return errors.New("OTP MaxAttempts must be between 1 and 10")
	}
	if c.OTP.DailyCap < 3 || c.OTP.DailyCap > 5 {
		return errors.New("OTP DailyCap must be between 3 and 5")
	}
	if c.OTP.Window <= 0 {
		return errors.New("OTP Window must be > 0")
	}
	if c.OTP.Cooldown <= 0 || c.OTP.Cooldown >= c.OTP.Window {
		return errors.New("OTP Cooldown must be > 0 and shorter than Window")
	}
	for tenant, n := range c.OTP.TenantCaps {
		if strings.TrimSpace(tenant) == "" {
			return errors.New("OTP TenantCaps contains an empty tenant id")
		}
		if n < 0 {
			return fmt.Errorf("OTP TenantCaps[%q] must be >= 0", tenant)
		}
	}

	// Tokens
	if err := c.Session.validate("Session"); err != nil {
		return err
	}
	if err := c.Action.validate("Action"); err != nil {
		return err
	}
	if c.Action.TTL > 24*time.Hour {
		return errors.New("Action TTL must be <= 24h")
	}
	if c.Session.SigningMethod == "hs256" && c.Action.SigningMethod == "hs256" &&
		string(c.Session.PrivateKey) == string(c.Action.PrivateKey) {
		return errors.New("Session and Action signers must not share a key")
	}
	u, err := url.Parse(c.Action.LinkBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("Action LinkBaseURL must be an absolute URL")
	}

	// Roles
	if len(c.Roles.Allowed) == 0 {
		return errors.New("Roles Allowed must not be empty")
	}
	seen := make(map[string]struct{}, len(c.Roles.Allowed))
	for _, r := range c.Roles.Allowed {
		if strings.TrimSpace(r) == "" {
			return errors.New("Roles Allowed contains an empty role")
		}
		if _, dup := seen[r]; dup {
			return fmt.Errorf("Roles Allowed contains duplicate role %q", r)
		}
		seen[r] = struct{}{}
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MinPasswordBytes < 0 || c.Password.MaxPasswordBytes < 0 ||
		(c.Password.MaxPasswordBytes > 0 && c.Password.MaxPasswordBytes < c.Password.MinPasswordBytes) {
		return errors.New("Password length bounds are invalid")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Timeouts
	if c.Timeouts.Operation <= 0 || c.Timeouts.Operation > time.Minute {
		return errors.New("Timeouts Operation must be > 0 and <= 1m")
	}

	if c.ProductionMode {
		if c.OTP.ExposeCodeInResponse {
			return errors.New("OTP ExposeCodeInResponse is not allowed in production mode")
		}
		if len(c.OTP.Pepper) < 16 {
			return errors.New("OTP Pepper of at least 16 bytes is required in production mode")
		}
		if u.Scheme != "https" {
			return errors.New("Action LinkBaseURL must use https in production mode")
		}
	}

	return nil
}

func (t TokenConfig) validate(section string) error {
	if t.TTL <= 0 {
		return fmt.Errorf("%s TTL must be > 0", section)
	}
	if t.Leeway < 0 || t.Leeway > 2*time.Minute {
		return fmt.Errorf("%s Leeway must be between 0 and 2m", section)
	}
	if t.Audience != "" && strings.TrimSpace(t.Audience) == "" {
		return fmt.Errorf("%s Audience must not be blank", section)
	}
	switch t.SigningMethod {
	case "hs256":
		if len(t.PrivateKey) < 32 {
			return fmt.Errorf("%s hs256 requires a PrivateKey of at least 32 bytes", section)
		}
	case "ed25519":
		if len(t.PrivateKey) == 0 || len(t.PublicKey) == 0 {
			return fmt.Errorf("%s ed25519 requires PrivateKey and PublicKey", section)
		}
	default:
		return fmt.Errorf("%s signing method %q is unsupported", section, t.SigningMethod)
	}
	return nil
}
