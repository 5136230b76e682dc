package security

import (
	"sort"
	"time"
)

type PasswordReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// ScopeReport describes one rate-limit scope.
type ScopeReport struct {
	Name   string
	Limit  int
	Window time.Duration
}

type Report struct {
	ProductionMode      bool
	SessionAlgorithm    string
	ActionAlgorithm     string
	SessionTTL          time.Duration
	ActionTTL           time.Duration
	SeparateSigningKeys bool
	Argon2              PasswordReport
	OTPTTL              time.Duration
	OTPMaxAttempts      int
	OTPDailyCap         int
	OTPCooldown         time.Duration
	OTPHashKeyed        bool
	OTPCodeExposed      bool
	RateLimitScopes     []ScopeReport
	AuditEnabled        bool
	Warnings            []string
}

type ReportInput struct {
	ProductionMode   bool
	SessionAlgorithm string
	ActionAlgorithm  string
	SessionTTL       time.Duration
	ActionTTL        time.Duration
	SessionKey       []byte
	ActionKey        []byte
	Password         PasswordReport
	OTPTTL           time.Duration
	OTPMaxAttempts   int
	OTPDailyCap      int
	OTPCooldown      time.Duration
	PepperLength     int
	ExposeCode       bool
	Scopes           map[string]ScopeReport
	AuditEnabled     bool
}

// BuildReport summarizes the active posture. Warnings list settings that are
// legal but weaker than the production defaults.
func BuildReport(input ReportInput) Report {
	scopes := make([]ScopeReport, 0, len(input.Scopes))
	for name, s := range input.Scopes {
		s.Name = name
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopes[i].Name < scopes[j].Name })

	separate := input.SessionAlgorithm != input.ActionAlgorithm ||
		string(input.SessionKey) != string(input.ActionKey)
	exposed := input.ExposeCode && !input.ProductionMode

	var warnings []string
	if input.PepperLength == 0 {
		warnings = append(warnings, "otp codes are hashed without a pepper")
	}
	if exposed {
		warnings = append(warnings, "otp codes and links are echoed to callers")
	}
	if !input.AuditEnabled {
		warnings = append(warnings, "audit dispatch is disabled")
	}
	if input.Password.Memory < 64*1024 {
		warnings = append(warnings, "argon2 memory is below 64 MiB")
	}

	return Report{
		ProductionMode:      input.ProductionMode,
		SessionAlgorithm:    input.SessionAlgorithm,
		ActionAlgorithm:     input.ActionAlgorithm,
		SessionTTL:          input.SessionTTL,
		ActionTTL:           input.ActionTTL,
		SeparateSigningKeys: separate,
		Argon2:              input.Password,
		OTPTTL:              input.OTPTTL,
		OTPMaxAttempts:      input.OTPMaxAttempts,
		OTPDailyCap:         input.OTPDailyCap,
		OTPCooldown:         input.OTPCooldown,
		OTPHashKeyed:        input.PepperLength > 0,
		OTPCodeExposed:      exposed,
		RateLimitScopes:     scopes,
		AuditEnabled:        input.AuditEnabled,
		Warnings:            warnings,
	}
}
