package authcore

import "github.com/skulipro/authcore/internal/security"

type (
	SecurityReport       = security.Report
	PasswordConfigReport = security.PasswordReport
	ScopeReport          = security.ScopeReport
)

// SecurityReport summarizes the active configuration for operators. It
// never includes key material.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	scopes := make(map[string]security.ScopeReport, len(e.config.RateLimit.Scopes))
	for name, p := range e.config.RateLimit.Scopes {
		scopes[name] = security.ScopeReport{Limit: p.Limit, Window: p.Window}
	}

	return security.BuildReport(security.ReportInput{
		ProductionMode:   e.config.ProductionMode,
		SessionAlgorithm: e.config.Session.SigningMethod,
		ActionAlgorithm:  e.config.Action.SigningMethod,
		SessionTTL:       e.config.Session.TTL,
		ActionTTL:        e.config.Action.TTL,
		SessionKey:       e.config.Session.PrivateKey,
		ActionKey:        e.config.Action.PrivateKey,
		Password: security.PasswordReport{
			Memory:      e.config.Password.Memory,
			Time:        e.config.Password.Time,
			Parallelism: e.config.Password.Parallelism,
			SaltLength:  e.config.Password.SaltLength,
			KeyLength:   e.config.Password.KeyLength,
		},
		OTPTTL:         e.config.OTP.TTL,
		OTPMaxAttempts: e.config.OTP.MaxAttempts,
		OTPDailyCap:    e.config.OTP.DailyCap,
		OTPCooldown:    e.config.OTP.Cooldown,
		PepperLength:   len(e.config.OTP.Pepper),
		ExposeCode:     e.config.OTP.ExposeCodeInResponse,
		Scopes:         scopes,
		AuditEnabled:   e.config.Audit.Enabled,
	})
}
