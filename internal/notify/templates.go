package notify

import (
	"fmt"
	"time"

	"github.com/matcornic/hermes/v2"
)

// Product describes the sender shown in email headers and footers.
type Product struct {
	Name string
	Link string
	// ResetURL is the page that accepts a reset token as its "token" query
	// parameter. When empty the raw token is shown instead of a button.
	ResetURL string
}

// Templates renders transactional emails with hermes.
type Templates struct {
	h        hermes.Hermes
	resetURL string
}

func NewTemplates(p Product) *Templates {
	return &Templates{
		h: hermes.Hermes{
			Theme:         new(hermes.Default),
			TextDirection: hermes.TDLeftToRight,
			Product: hermes.Product{
				Name:      p.Name,
				Link:      p.Link,
				Copyright: fmt.Sprintf("© %d %s", time.Now().Year(), p.Name),
			},
		},
		resetURL: p.ResetURL,
	}
}

func (t *Templates) render(subject string, email hermes.Email) (*Message, error) {
	html, err := t.h.GenerateHTML(email)
	if err != nil {
		return nil, fmt.Errorf("render %q html: %w", subject, err)
	}
	text, err := t.h.GeneratePlainText(email)
	if err != nil {
		return nil, fmt.Errorf("render %q text: %w", subject, err)
	}
	return &Message{Subject: subject, HTML: html, Text: text}, nil
}

// Verification renders the email carrying a verification code.
func (t *Templates) Verification(name, code string, ttl time.Duration) (*Message, error) {
	return t.render("Verify your email address", hermes.Email{
		Body: hermes.Body{
			Name:   name,
			Intros: []string{fmt.Sprintf("Welcome to %s! Please confirm your email address.", t.h.Product.Name)},
			Actions: []hermes.Action{{
				Instructions: fmt.Sprintf("Enter this code in the app. It expires in %s.", humanize(ttl)),
				InviteCode:   code,
			}},
			Outros: []string{"If you did not create an account, you can ignore this email."},
		},
	})
}

// PasswordReset renders the email carrying a reset link or token.
func (t *Templates) PasswordReset(name, token string, ttl time.Duration) (*Message, error) {
	action := hermes.Action{
		Instructions: fmt.Sprintf("Use the code below to choose a new password. It expires in %s.", humanize(ttl)),
		InviteCode:   token,
	}
	if t.resetURL != "" {
		action = hermes.Action{
			Instructions: fmt.Sprintf("Click the button below to choose a new password. The link expires in %s.", humanize(ttl)),
			Button: hermes.Button{
				Text: "Reset your password",
				Link: t.resetURL + "?token=" + token,
			},
		}
	}

	return t.render("Reset your password", hermes.Email{
		Body: hermes.Body{
			Name:    name,
			Intros:  []string{"We received a request to reset the password of your account."},
			Actions: []hermes.Action{action},
			Outros:  []string{"If you did not request a password reset, no further action is required."},
		},
	})
}

// Welcome renders the email sent once an account is activated.
func (t *Templates) Welcome(name string) (*Message, error) {
	return t.render(fmt.Sprintf("Welcome to %s", t.h.Product.Name), hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				"Your account is now active.",
				"Complete your profile to start applying to jobs and registering for events.",
			},
		},
	})
}

// SMS bodies are short and plain.

func verificationSMS(product, code string, ttl time.Duration) string {
	return fmt.Sprintf("%s verification code: %s. It expires in %s.", product, code, humanize(ttl))
}

func passwordResetSMS(product, token string, ttl time.Duration) string {
	return fmt.Sprintf("%s password reset code: %s. It expires in %s.", product, token, humanize(ttl))
}

// humanize prints whole minutes or hours: 10m -> "10 minutes", 1h -> "1 hour".
func humanize(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
