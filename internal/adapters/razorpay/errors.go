package razorpay

import (
	"SabhaPay/internal/core/ports"
	"context"
	"encoding/json"
	"errors"
	"net"
	"regexp"
	"strings"
)

// apiErrorEnvelope is the provider's error wire shape.
type apiErrorEnvelope struct {
	Error struct {
		Code        string            `json:"code"`
		Description string            `json:"description"`
		Field       string            `json:"field"`
		Metadata    map[string]string `json:"metadata"`
	} `json:"error"`
}

// accountIDPattern recovers an account identifier embedded in free-text
// error descriptions ("Merchant already exists ... acc_XXXXXXXX").
var accountIDPattern = regexp.MustCompile(`acc_[A-Za-z0-9]{8,}`)

// All string matching against provider error text lives in this file and
// nowhere else. Everything above the adapter switches on ports.ErrorKind.

// translateAPIError maps an HTTP error response onto the structured
// provider error contract.
func translateAPIError(status int, body []byte) *ports.ProviderError {
	var env apiErrorEnvelope
	// A broken body still yields a classified error from the status code.
	_ = json.Unmarshal(body, &env)

	provErr := &ports.ProviderError{
		Kind:        ports.KindUnknown,
		Field:       env.Error.Field,
		Description: env.Error.Description,
		HTTPStatus:  status,
	}
	desc := strings.ToLower(env.Error.Description)

	switch {
	case status == 401:
		provErr.Kind = ports.KindAuth

	case status == 404:
		provErr.Kind = ports.KindNotFound

	case status == 409 || strings.Contains(desc, "already exists"):
		provErr.Kind = ports.KindConflict
		provErr.ExistingAccountID = extractAccountID(env)

	case status == 403 ||
		strings.Contains(desc, "access denied") ||
		strings.Contains(desc, "not allowed to access"):
		provErr.Kind = ports.KindAccessDenied

	case strings.Contains(desc, "under review") ||
		strings.Contains(desc, "form is locked"):
		provErr.Kind = ports.KindLocked

	case env.Error.Field != "":
		provErr.Kind = ports.KindValidation

	case status == 400 && strings.Contains(desc, "invalid"):
		provErr.Kind = ports.KindValidation
	}

	return provErr
}

// extractAccountID pulls the existing account id out of a conflict payload,
// preferring the structured metadata over the description text.
func extractAccountID(env apiErrorEnvelope) string {
	if id, ok := env.Error.Metadata["account_id"]; ok && id != "" {
		return id
	}
	return accountIDPattern.FindString(env.Error.Description)
}

// classifyTransportError maps connection-level failures onto the network
// kind so callers can show a retryable message.
func classifyTransportError(err error) *ports.ProviderError {
	provErr := &ports.ProviderError{
		Kind:        ports.KindUnknown,
		Description: err.Error(),
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout(),
		errors.Is(err, context.DeadlineExceeded):
		provErr.Kind = ports.KindNetwork

	default:
		text := strings.ToLower(err.Error())
		for _, pattern := range []string{"connection refused", "connection reset", "timeout", "no such host", "eof", "broken pipe"} {
			if strings.Contains(text, pattern) {
				provErr.Kind = ports.KindNetwork
				break
			}
		}
	}

	return provErr
}
