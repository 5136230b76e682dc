package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/skulipro/authcore/counter"
)

const (
	otpSessionRecordVersion1 = 1
	otpSessionKeyPrefix      = "otp:session:"
	otpAttemptsKeyPrefix     = "otp:attempts:"
)

var (
	ErrOTPSessionNotFound = errors.New("otp session not found")
	ErrOTPSessionExpired  = errors.New("otp session expired")
	ErrOTPSessionBackend  = errors.New("otp session backend unavailable")
	ErrOTPSessionCorrupt  = errors.New("otp session record corrupt")
)

// OTPSession is the persisted half of an issued code. The plaintext code is
// never part of it.
type OTPSession struct {
	UserID    string
	TenantID  string
	ExpiresAt int64
	CodeHash  [32]byte
}

// OTPSessionStore keeps OTP session records and their attempt counters in
// the counter store. Both keys share the session TTL.
type OTPSessionStore struct {
	store counter.Store
	now   func() time.Time
}

func NewOTPSessionStore(store counter.Store, now func() time.Time) *OTPSessionStore {
	if now == nil {
		now = time.Now
	}
	return &OTPSessionStore{store: store, now: now}
}

func sessionKey(sid string) string  { return otpSessionKeyPrefix + sid }
func attemptsKey(sid string) string { return otpAttemptsKeyPrefix + sid }

// Save writes the record and resets its attempt counter to zero.
func (s *OTPSessionStore) Save(ctx context.Context, sid string, record *OTPSession, ttl time.Duration) error {
	encoded, err := encodeOTPSession(record)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, sessionKey(sid), string(encoded), ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPSessionBackend, err)
	}
	if err := s.store.Set(ctx, attemptsKey(sid), "0", ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrOTPSessionBackend, err)
	}
	return nil
}

// Get loads a live record. A record past its embedded expiry is removed and
// reported as expired even if the backend has not evicted it yet.
func (s *OTPSessionStore) Get(ctx context.Context, sid string) (*OTPSession, error) {
	raw, ok, err := s.store.Get(ctx, sessionKey(sid))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPSessionBackend, err)
	}
	if !ok {
		return nil, ErrOTPSessionNotFound
	}

	record, err := decodeOTPSession([]byte(raw))
	if err != nil {
		return nil, err
	}
	if s.now().Unix() >= record.ExpiresAt {
		_, _ = s.store.Del(ctx, sessionKey(sid), attemptsKey(sid))
		return nil, ErrOTPSessionExpired
	}
	return record, nil
}

// RecordAttempt increments the attempt counter and returns the new value.
// If the counter was lost it is recreated with ttl.
func (s *OTPSessionStore) RecordAttempt(ctx context.Context, sid string, ttl time.Duration) (int64, error) {
	n, err := counter.IncrWithTTL(ctx, s.store, attemptsKey(sid), ttl)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOTPSessionBackend, err)
	}
	return n, nil
}

// Delete removes the record and its attempt counter. It reports whether the
// record itself was still present, so that only one of several concurrent
// consumers observes true.
func (s *OTPSessionStore) Delete(ctx context.Context, sid string) (bool, error) {
	n, err := s.store.Del(ctx, sessionKey(sid))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrOTPSessionBackend, err)
	}
	// An orphaned counter expires on its own TTL if this second delete fails.
	_, _ = s.store.Del(ctx, attemptsKey(sid))
	return n > 0, nil
}

func encodeOTPSession(record *OTPSession) ([]byte, error) {
	if len(record.UserID) > 65535 || len(record.TenantID) > 65535 {
		return nil, errors.New("otp session id length exceeded")
	}

	var buf bytes.Buffer
	buf.WriteByte(otpSessionRecordVersion1)
	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}
	buf.Write(record.CodeHash[:])
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.TenantID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.TenantID)

	return buf.Bytes(), nil
}

func decodeOTPSession(data []byte) (*OTPSession, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPSessionCorrupt, err)
	}
	if version != otpSessionRecordVersion1 {
		return nil, fmt.Errorf("%w: version %d", ErrOTPSessionCorrupt, version)
	}

	record := &OTPSession{}
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPSessionCorrupt, err)
	}
	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPSessionCorrupt, err)
	}

	user, err := readString(reader)
	if err != nil {
		return nil, err
	}
	tenant, err := readString(reader)
	if err != nil {
		return nil, err
	}
	record.UserID = user
	record.TenantID = tenant

	return record, nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", fmt.Errorf("%w: %v", ErrOTPSessionCorrupt, err)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrOTPSessionCorrupt, err)
	}
	return string(b), nil
}
