package notify

import (
	"fmt"

	truemail "github.com/truemail-rb/truemail-go"
)

// Email validation types understood by AddressValidator.
const (
	ValidationRegex = "regex"
	ValidationMX    = "mx"
)

// AddressValidator checks that an email address can plausibly receive mail
// before a verification code is spent on it.
type AddressValidator struct {
	cfg *truemail.Configuration
}

// NewAddressValidator builds a validator. validationType is "regex" (syntax
// only) or "mx" (syntax plus a DNS MX lookup). verifierEmail is the address
// truemail identifies as.
func NewAddressValidator(verifierEmail, validationType string) (*AddressValidator, error) {
	if validationType != ValidationRegex && validationType != ValidationMX {
		return nil, fmt.Errorf("unsupported email validation type %q", validationType)
	}
	cfg, err := truemail.NewConfiguration(truemail.ConfigurationAttr{
		VerifierEmail:         verifierEmail,
		ValidationTypeDefault: validationType,
		SmtpFailFast:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("truemail configuration: %w", err)
	}
	return &AddressValidator{cfg: cfg}, nil
}

// Valid reports whether email passes the configured validation.
func (v *AddressValidator) Valid(email string) bool {
	return truemail.IsValid(email, v.cfg)
}
