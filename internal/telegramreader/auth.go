package telegramreader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// ErrSignupNotSupported indicates the phone number has no account.
var ErrSignupNotSupported = errors.New("signup not supported")

const minPhoneDigits = 10

func (r *Reader) authFlow() auth.Flow {
	return auth.NewFlow(r, auth.SendCodeOptions{})
}

// prompt reads one line from stdin.
func prompt(label string) (string, error) {
	fmt.Print(label)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
	}

	return strings.TrimSpace(line), nil
}

func (r *Reader) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	return prompt("Enter code: ")
}

func (r *Reader) Phone(_ context.Context) (string, error) {
	phone := r.cfg.TGPhone
	if phone == "" {
		var err error

		if phone, err = prompt("Enter phone: "); err != nil {
			return "", err
		}
	}

	phone = sanitizePhone(phone)
	r.logger.Info().Str("phone", maskPhone(phone)).Msg("Using phone number")

	if len(phone) < minPhoneDigits {
		r.logger.Warn().Int("length", len(phone)).Msg("Phone number seems too short, make sure it includes the country code")
	}

	return phone, nil
}

func (r *Reader) Password(_ context.Context) (string, error) {
	if r.cfg.TG2FAPassword != "" {
		return r.cfg.TG2FAPassword, nil
	}

	return prompt("Enter 2FA password: ")
}

func (r *Reader) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (r *Reader) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, ErrSignupNotSupported
}
