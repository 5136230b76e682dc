package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/skulipro/authcore"
	"github.com/skulipro/authcore/directory"
	"github.com/skulipro/authcore/directory/memory"
	"github.com/skulipro/authcore/notify"
)

const password = "loadtest-password"

func main() {
	var (
		users       = flag.Int("users", 2000, "number of identities to log in")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "session validations to run")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "rl", "rate limit key prefix")
	)
	flag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	engine, dir, err := buildEngine(client, *prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding %d identities...\n", *users)
	hash, err := engine.Argon2().Hash(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash failed: %v\n", err)
		os.Exit(1)
	}
	for i := 0; i < *users; i++ {
		id := fmt.Sprintf("u-%d", i)
		dir.Put(directory.Identity{
			ID:           id,
			Username:     fmt.Sprintf("user%06d", i),
			PasswordHash: hash,
			Status:       directory.StatusActive,
			Phone:        "255700000000",
			TenantID:     "load",
			SenderName:   "LOAD",
		}, directory.RoleAssignment{Role: "teacher", TenantID: "load", IsDefault: true})
	}

	loginStats, tokens := runLoginPhase(ctx, engine, *users, *concurrency)
	if len(tokens) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions were issued")
		os.Exit(1)
	}
	validateStats := runValidatePhase(ctx, engine, tokens, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("login+verify", loginStats)
	printStats("validate", validateStats)
	snap := engine.MetricsSnapshot()
	fmt.Printf("otp_sent=%d sessions=%d store_unavailable=%d\n",
		snap.Counters[authcore.MetricOTPSent],
		snap.Counters[authcore.MetricSessionCreated],
		snap.Counters[authcore.MetricStoreUnavailable],
	)
}

func buildEngine(client redis.UniversalClient, prefix string) (*authcore.Engine, *memory.Store, error) {
	cfg := authcore.DefaultConfig()
	cfg.RateLimit.Prefix = prefix
	cfg.Session.PrivateKey = []byte("loadtest-session-key-0123456789abcdef")
	cfg.Action.PrivateKey = []byte("loadtest-action-key-0123456789abcdefgh")
	// Cheap hashing keeps the run about counters and tokens, not Argon2.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.OTP.ExposeCodeInResponse = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	dir := memory.New()
	quiet := notify.LogSender{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(client).
		WithDirectory(dir).
		WithSMSSender(quiet).
		WithLogger(quiet.Logger).
		Build()
	if err != nil {
		return nil, nil, err
	}
	return engine, dir, nil
}

// runLoginPhase logs every identity in once. Each login uses its own client
// key so the login scope measures nothing but throughput.
func runLoginPhase(ctx context.Context, engine *authcore.Engine, users, concurrency int) (phaseStats, []string) {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, users)
		tokens    = make([]string, 0, users)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= users {
					return
				}
				octx := authcore.WithClientKey(ctx, fmt.Sprintf("lt:%d", i))
				t0 := time.Now()
				token, err := loginOnce(octx, engine, fmt.Sprintf("user%06d", i))
				d := time.Since(t0)

				mu.Lock()
				latencies = append(latencies, d)
				if err == nil {
					tokens = append(tokens, token)
				}
				mu.Unlock()
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures), tokens
}

func loginOnce(ctx context.Context, engine *authcore.Engine, username string) (string, error) {
	res, err := engine.Login(ctx, authcore.LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", err
	}
	verified, err := engine.VerifyOTP(ctx, res.SessionID, res.Code)
	if err != nil {
		return "", err
	}
	return verified.Token, nil
}

func runValidatePhase(ctx context.Context, engine *authcore.Engine, tokens []string, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				_, err := engine.ValidateSession(ctx, tokens[r.Intn(len(tokens))])
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
