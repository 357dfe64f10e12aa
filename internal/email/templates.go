package email

import (
	"fmt"
	"html"
)

const brand = "GooseTrack"

// PasswordReset builds the message carrying a freshly generated password.
func PasswordReset(to, newPassword string) Message {
	return Message{
		To:      to,
		Subject: brand + " password reset",
		HTML:    fmt.Sprintf(`<p>Your new password is </p> <h4>%s</h4>`, html.EscapeString(newPassword)),
	}
}

// AccountRemovalKey builds the message carrying the account deletion key.
func AccountRemovalKey(to, secretKey string) Message {
	return Message{
		To:      to,
		Subject: brand + " account delete",
		HTML: fmt.Sprintf(
			`<p>Enter this secret key to permanently delete your account:</p> <h4>%s</h4>`,
			html.EscapeString(secretKey),
		),
	}
}
