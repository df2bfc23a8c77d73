package commands

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shopfront-dev/shopfront/internal/cli/client"
	"github.com/shopfront-dev/shopfront/internal/cli/session"
	"golang.org/x/term"
)

var validate = validator.New()

// stdinIsTerminal is swapped out in tests
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// gatewayHTTPClient replaces the client's default transport when set
var gatewayHTTPClient *http.Client

func newClient(sc *session.Context) *client.Client {
	c := client.New(sc.Gateway)
	if gatewayHTTPClient != nil {
		c.SetHTTPClient(gatewayHTTPClient)
	}
	return c
}

// sessionExpired drops the local session when the gateway answers 401,
// so the CLI returns to the anonymous state instead of retrying a dead token
func sessionExpired(sc *session.Context, err error) error {
	if !errors.Is(err, client.ErrUnauthorized) {
		return err
	}
	if clearErr := sc.Clear(); clearErr != nil {
		return errors.Join(err, clearErr)
	}
	return fmt.Errorf("%w\nLocal session cleared. Run 'shopfront login' to sign in again", err)
}

// validationError flattens validator errors into one readable line
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
