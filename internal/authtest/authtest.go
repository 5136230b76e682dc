// Package authtest builds a fully wired authcore.Engine on miniredis and an
// in-memory directory for tests of the packages layered on the engine.
package authtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/skulipro/authcore"
	"github.com/skulipro/authcore/directory"
	"github.com/skulipro/authcore/directory/memory"
)

// Password is the plaintext password of every identity added by AddUser.
const Password = "correct horse battery"

// Clock is a manual clock that also fast-forwards miniredis TTLs.
type Clock struct {
	mu sync.Mutex
	t  time.Time
	mr *miniredis.Miniredis
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock and expires keys whose TTL elapsed.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
	c.mr.FastForward(d)
}

// Outbox records SMS texts. It implements notify.SMSSender.
type Outbox struct {
	mu       sync.Mutex
	messages []string
}

func (o *Outbox) SendOTP(_ context.Context, _ []string, _ string, message string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, message)
	return nil
}

// Count returns the number of texts sent.
func (o *Outbox) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.messages)
}

// Fixture is a wired engine and its backing fakes.
type Fixture struct {
	Engine    *authcore.Engine
	Redis     *miniredis.Miniredis
	Client    *redis.Client
	Clock     *Clock
	Directory *memory.Store
	SMS       *Outbox
}

// Config returns a valid development configuration with cheap Argon2
// parameters and code exposure on.
func Config() authcore.Config {
	cfg := authcore.DefaultConfig()
	cfg.Session.PrivateKey = []byte("session-signing-key-0123456789abcdef")
	cfg.Action.PrivateKey = []byte("action-signing-key-0123456789abcdefgh")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.OTP.ExposeCodeInResponse = true
	cfg.Metrics.Enabled = true
	cfg.Timeouts.Operation = time.Second
	return cfg
}

// New builds an engine. mutate, when non-nil, adjusts the configuration
// before Build.
func New(t testing.TB, mutate func(*authcore.Config)) *Fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	cfg := Config()
	if mutate != nil {
		mutate(&cfg)
	}

	f := &Fixture{
		Redis:     mr,
		Client:    client,
		Clock:     &Clock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), mr: mr},
		Directory: memory.New(),
		SMS:       &Outbox{},
	}

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithDirectory(f.Directory).
		WithSMSSender(f.SMS).
		WithClock(f.Clock.Now).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	f.Engine = engine
	return f
}

// AddUser stores an active identity in tenant "school-1". Without roles the
// identity gets a default "teacher" assignment.
func (f *Fixture) AddUser(t testing.TB, id, username string, roles ...directory.RoleAssignment) directory.Identity {
	t.Helper()

	hash, err := f.Engine.Argon2().Hash(Password)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	identity := directory.Identity{
		ID:           id,
		Username:     username,
		PasswordHash: hash,
		Status:       directory.StatusActive,
		Phone:        "+255700000001",
		Email:        username + "@school.example",
		TenantID:     "school-1",
		SenderName:   "SCHOOL",
	}
	if roles == nil {
		roles = []directory.RoleAssignment{{Role: "teacher", TenantID: "school-1", IsDefault: true}}
	}
	f.Directory.Put(identity, roles...)
	return identity
}

// SessionToken logs username in and verifies the exposed code.
func (f *Fixture) SessionToken(t testing.TB, username string) string {
	t.Helper()

	ctx := authcore.WithClientKey(context.Background(), "ip:192.0.2.10")
	res, err := f.Engine.Login(ctx, authcore.LoginRequest{Username: username, Password: Password})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	verified, err := f.Engine.VerifyOTP(ctx, res.SessionID, res.Code)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	return verified.Token
}
