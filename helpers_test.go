package authcore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/skulipro/authcore/directory"
	"github.com/skulipro/authcore/directory/memory"
)

const testPassword = "correct horse battery"

var errSendFailed = errors.New("provider rejected message")

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
	mr *miniredis.Miniredis
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves both the engine clock and redis key expiry forward.
func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
	c.mr.FastForward(d)
}

type recordingSMS struct {
	mu       sync.Mutex
	fail     bool
	messages []string
}

func (s *recordingSMS) SendOTP(_ context.Context, _ []string, _ string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errSendFailed
	}
	s.messages = append(s.messages, message)
	return nil
}

func (s *recordingSMS) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type recordingEmail struct {
	mu       sync.Mutex
	fail     bool
	subjects []string
}

func (s *recordingEmail) SendEmail(_ context.Context, _ []string, subject, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errSendFailed
	}
	s.subjects = append(s.subjects, subject)
	return nil
}

func (s *recordingEmail) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subjects)
}

type testEnv struct {
	engine *Engine
	mr     *miniredis.Miniredis
	clock  *testClock
	dir    *memory.Store
	sms    *recordingSMS
	email  *recordingEmail
}

func testConfig() Config {
	cfg := DefaultConfig()
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

func newTestEnv(t *testing.T, mutate func(*Config), opts ...func(*Builder)) *testEnv {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	mr, rdb := newTestRedis(t)
	env := &testEnv{
		mr:    mr,
		clock: &testClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), mr: mr},
		dir:   memory.New(),
		sms:   &recordingSMS{},
		email: &recordingEmail{},
	}

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(env.dir).
		WithSMSSender(env.sms).
		WithEmailSender(env.email).
		WithClock(env.clock.Now)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

// addUser stores an active identity with one default role.
func (env *testEnv) addUser(t *testing.T, id, username string, roles ...directory.RoleAssignment) directory.Identity {
	t.Helper()

	hash, err := env.engine.Argon2().Hash(testPassword)
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
	env.dir.Put(identity, roles...)
	return identity
}

func (env *testEnv) login(t *testing.T, username string) *LoginResult {
	t.Helper()

	res, err := env.engine.Login(WithClientKey(context.Background(), "ip:198.51.100.4"), LoginRequest{
		Username: username,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.Code == "" {
		t.Fatal("expected exposed code in test configuration")
	}
	return res
}

func wrongCode(code string) string {
	b := []byte(code)
	if b[0] == '9' {
		b[0] = '0'
	} else {
		b[0]++
	}
	return string(b)
}
