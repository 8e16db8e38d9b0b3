package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodeAndKind(t *testing.T) {
	cases := []struct {
		err  error
		code string
		kind ErrorKind
	}{
		{err: fmt.Errorf("%w: %q", ErrUnsupportedProvider, "x"), code: "unsupported_provider", kind: ErrorConfiguration},
		{err: ErrCallbackNotAllowed, code: "callback_not_allowed", kind: ErrorConfiguration},
		{err: ErrStateOrgMismatch, code: "state_org_mismatch", kind: ErrorForbidden},
		{err: fmt.Errorf("decode: %w", ErrInvalidState), code: "invalid_state", kind: ErrorValidation},
		{err: ErrInvalidSignature, code: "invalid_signature", kind: ErrorSignature},
		{err: fmt.Errorf("%w: %w", ErrRefreshFailed, errors.New("invalid_grant")), code: "refresh_failed", kind: ErrorProvider},
		{err: ErrNoToken, code: "no_token", kind: ErrorNotFound},
		{err: ErrAutopostDisabled, code: "autopost_disabled", kind: ErrorNeedsHuman},
		{err: ErrPublishingPaused, code: "publishing_paused", kind: ErrorPaused},
		{err: errors.New("boom"), code: "internal_error", kind: ErrorUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			require.Equal(t, tc.code, ErrorCode(tc.err))
			require.Equal(t, tc.kind, ClassifyError(tc.err))
		})
	}
}
