package notify

import (
	"fmt"
	"html"
	"time"
)

// FallbackNotice is shown to the user when the code went out by email
// because SMS failed.
const FallbackNotice = "We have sent OTP via email. SMS delivery is currently unavailable."

// OTPMessage renders a one-time code for both channels.
func OTPMessage(phone, email, senderLabel, code string, ttl time.Duration) Message {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return Message{
		Phone:       phone,
		Email:       email,
		SenderLabel: senderLabel,
		SMSText: fmt.Sprintf("Your verification code for %s is %s. valid for %d minutes. Do not share it with anyone.",
			senderLabel, code, minutes),
		Subject: "Your verification code",
		HTML: fmt.Sprintf("<p>Your verification code for %s is <strong>%s</strong>.</p><p>It is valid for %d minutes. Do not share it with anyone.</p>",
			html.EscapeString(senderLabel), html.EscapeString(code), minutes),
	}
}

// LinkMessage renders a one-shot action link for both channels.
func LinkMessage(phone, email, senderLabel, role, link string, ttl time.Duration) Message {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	return Message{
		Phone:       phone,
		Email:       email,
		SenderLabel: senderLabel,
		SMSText:     fmt.Sprintf("You have been invited as %s. Complete your registration within %d minutes: %s", role, minutes, link),
		Subject:     "Complete your registration",
		HTML: fmt.Sprintf(`<p>You have been invited as <strong>%s</strong>.</p><p><a href="%s">Complete your registration</a> within %d minutes.</p>`,
			html.EscapeString(role), html.EscapeString(link), minutes),
	}
}
