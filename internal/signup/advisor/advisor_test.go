package advisor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jiran/internal/identity/models"
	dErrors "jiran/pkg/domain-errors"
)

func TestForCoversEveryGateCode(t *testing.T) {
	cases := []struct {
		code               models.GateCode
		status             string
		retryAllowed       bool
		contactAdminAction bool
	}{
		{models.GateAccountInactive, "inactive", false, true},
		{models.GateAccountPending, "pending", true, false},
		{models.GateAccountRejected, "rejected", false, true},
		{models.GateAccountSuspended, "suspended", false, true},
		{models.GateAccountNotApproved, "not_approved", true, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.code), func(t *testing.T) {
			advice := For(tc.code)
			assert.Equal(t, tc.status, advice.Status)
			assert.Equal(t, tc.retryAllowed, advice.RetryAllowed)
			assert.Equal(t, tc.contactAdminAction, advice.ContactAdminAction)
			assert.NotEmpty(t, advice.Message)
		})
	}
}

func TestForUnknownCodeIsGenericNotSwallowed(t *testing.T) {
	advice := For(models.GateCode("ACCOUNT_SOMETHING_NEW"))
	assert.Equal(t, "unknown", advice.Status)
	assert.True(t, advice.ContactAdminAction)
	assert.NotEmpty(t, advice.Message)
}

func TestForIsPure(t *testing.T) {
	first := For(models.GateAccountPending)
	second := For(models.GateAccountPending)
	assert.Equal(t, first, second)
}

func TestFromErrorUnwrapsGateCode(t *testing.T) {
	gateErr := models.NewGateError(models.GateAccountSuspended)
	wrapped := dErrors.Wrap(gateErr, dErrors.CodeForbidden, "account is suspended")

	advice, found := FromError(wrapped)
	require.True(t, found)
	assert.Equal(t, "suspended", advice.Status)
}

func TestFromErrorIgnoresOtherErrors(t *testing.T) {
	_, found := FromError(fmt.Errorf("connection refused"))
	assert.False(t, found)
}
