package internaldefs

import (
	"github.com/skulipro/authcore"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// HistogramDef names one engine latency histogram for export.
type HistogramDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Logins that passed credentials and delivered an OTP."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Logins rejected for invalid credentials."},
	{ID: authcore.MetricLoginRateLimited, Name: "authcore_login_rate_limited_total", Help: "Logins denied by the login scope."},
	{ID: authcore.MetricOTPSent, Name: "authcore_otp_sent_total", Help: "OTP codes delivered."},
	{ID: authcore.MetricOTPSendDegraded, Name: "authcore_otp_send_degraded_total", Help: "OTP codes delivered by email after SMS failed."},
	{ID: authcore.MetricOTPSendFailed, Name: "authcore_otp_send_failed_total", Help: "OTP codes no channel delivered."},
	{ID: authcore.MetricOTPGenerationCapped, Name: "authcore_otp_generation_capped_total", Help: "OTP generations denied by the daily cap or cooldown."},
	{ID: authcore.MetricOTPVerifySuccess, Name: "authcore_otp_verify_success_total", Help: "Successful OTP verifications."},
	{ID: authcore.MetricOTPVerifyFailure, Name: "authcore_otp_verify_failure_total", Help: "Failed OTP verifications."},
	{ID: authcore.MetricOTPResend, Name: "authcore_otp_resend_total", Help: "OTP resends delivered."},
	{ID: authcore.MetricSessionCreated, Name: "authcore_session_created_total", Help: "Session tokens issued."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logouts."},
	{ID: authcore.MetricTokenRevoked, Name: "authcore_token_revoked_total", Help: "Tokens written to the blacklist."},
	{ID: authcore.MetricRateLimitHit, Name: "authcore_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
	{ID: authcore.MetricActionLinkIssued, Name: "authcore_action_link_issued_total", Help: "Action links delivered."},
	{ID: authcore.MetricActionLinkConsumed, Name: "authcore_action_link_consumed_total", Help: "Action tokens consumed."},
	{ID: authcore.MetricActionLinkReplay, Name: "authcore_action_link_replay_total", Help: "Action tokens presented after consumption."},
	{ID: authcore.MetricValidateSuccess, Name: "authcore_validate_success_total", Help: "Session validations that passed."},
	{ID: authcore.MetricValidateFailure, Name: "authcore_validate_failure_total", Help: "Session validations that failed."},
	{ID: authcore.MetricStoreUnavailable, Name: "authcore_store_unavailable_total", Help: "Operations failed by a backing store."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: authcore.MetricLoginLatency, Name: "authcore_login_latency_seconds", Help: "Login latency histogram."},
	{ID: authcore.MetricValidateLatency, Name: "authcore_validate_latency_seconds", Help: "Session validation latency histogram."},
}

// BucketCount is the number of histogram buckets, including +Inf.
const BucketCount = 8

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// bucket is +Inf.
var HistogramUpperBounds = [BucketCount - 1]float64{0.005, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// HistogramBoundSuffix names each bucket in instrument names.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"inf",
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
