package internaldefs

import (
	"github.com/polkassembly/govauth"
)

type CounterDef struct {
	ID   govauth.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   govauth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: govauth.MetricLoginSuccess, Name: "govauth_login_success_total", Help: "Successful password logins."},
	{ID: govauth.MetricLoginFailure, Name: "govauth_login_failure_total", Help: "Failed password logins."},
	{ID: govauth.MetricLoginRateLimited, Name: "govauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: govauth.MetricAddressLoginSuccess, Name: "govauth_address_login_success_total", Help: "Successful web3 address logins."},
	{ID: govauth.MetricSignupSuccess, Name: "govauth_signup_success_total", Help: "Successful password signups."},
	{ID: govauth.MetricAddressSignupSuccess, Name: "govauth_address_signup_success_total", Help: "Successful web3 address signups."},
	{ID: govauth.MetricChallengeIssued, Name: "govauth_challenge_issued_total", Help: "Issued sign-in challenges."},
	{ID: govauth.MetricChallengeConsumed, Name: "govauth_challenge_consumed_total", Help: "Challenges consumed by a valid signature."},
	{ID: govauth.MetricChallengeExpired, Name: "govauth_challenge_expired_total", Help: "Confirmations whose challenge was missing or expired."},
	{ID: govauth.MetricSignatureInvalid, Name: "govauth_signature_invalid_total", Help: "Rejected wallet signatures."},
	{ID: govauth.MetricMultisigLinked, Name: "govauth_multisig_linked_total", Help: "Linked multisig addresses."},
	{ID: govauth.MetricProxyLinked, Name: "govauth_proxy_linked_total", Help: "Linked proxied addresses."},
	{ID: govauth.MetricAddressLinked, Name: "govauth_address_linked_total", Help: "Linked addresses."},
	{ID: govauth.MetricAddressUnlinked, Name: "govauth_address_unlinked_total", Help: "Unlinked addresses."},
	{ID: govauth.MetricDefaultAddressChanged, Name: "govauth_default_address_changed_total", Help: "Default address changes."},
	{ID: govauth.MetricCredentialsSet, Name: "govauth_credentials_set_total", Help: "Web3 accounts that set a username and password."},
	{ID: govauth.MetricContentAttested, Name: "govauth_content_attested_total", Help: "Posts created or edited with a wallet signature."},
	{ID: govauth.MetricTokenIssued, Name: "govauth_token_issued_total", Help: "Issued session tokens."},
	{ID: govauth.MetricTokenAddressLookupFailed, Name: "govauth_token_address_lookup_failed_total", Help: "Tokens issued without addresses after a store failure."},
	{ID: govauth.MetricTFARequired, Name: "govauth_tfa_required_total", Help: "Logins that required a second factor."},
	{ID: govauth.MetricTFASuccess, Name: "govauth_tfa_success_total", Help: "Accepted TOTP codes."},
	{ID: govauth.MetricTFAFailure, Name: "govauth_tfa_failure_total", Help: "Rejected TOTP codes."},
	{ID: govauth.MetricUsernameChanged, Name: "govauth_username_changed_total", Help: "Username changes."},
	{ID: govauth.MetricUsernameBlacklisted, Name: "govauth_username_blacklisted_total", Help: "Usernames rejected by the blacklist."},
	{ID: govauth.MetricEmailChanged, Name: "govauth_email_changed_total", Help: "Email changes."},
	{ID: govauth.MetricEmailChangeCooldown, Name: "govauth_email_change_cooldown_total", Help: "Email changes refused during the cooldown."},
	{ID: govauth.MetricEmailChangeUndone, Name: "govauth_email_change_undone_total", Help: "Reverted email changes."},
	{ID: govauth.MetricEmailVerified, Name: "govauth_email_verified_total", Help: "Verified email addresses."},
	{ID: govauth.MetricPasswordChangeSuccess, Name: "govauth_password_change_success_total", Help: "Successful password changes."},
	{ID: govauth.MetricPasswordChangeInvalidOld, Name: "govauth_password_change_invalid_old_total", Help: "Password changes with a wrong current password."},
	{ID: govauth.MetricPasswordResetRequest, Name: "govauth_password_reset_request_total", Help: "Password reset requests."},
	{ID: govauth.MetricPasswordResetConfirmSuccess, Name: "govauth_password_reset_confirm_success_total", Help: "Completed password resets."},
	{ID: govauth.MetricPasswordResetConfirmFailure, Name: "govauth_password_reset_confirm_failure_total", Help: "Rejected password reset tokens."},
	{ID: govauth.MetricNotificationEmitted, Name: "govauth_notification_emitted_total", Help: "Notifications queued for delivery."},
}

var HistogramDefs = []HistogramDef{
	{ID: govauth.MetricConfirmLatency, Name: "govauth_confirm_latency_seconds", Help: "Latency of challenge confirmations."},
}

// HistogramBounds are the upper bounds in seconds; an eighth +Inf bucket follows.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

const DroppedNotificationsName = "govauth_notifications_dropped_total"
const DroppedNotificationsHelp = "Notifications dropped because the dispatcher buffer was full."

func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
