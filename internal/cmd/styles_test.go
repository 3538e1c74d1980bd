package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/electisspace/spacectl/internal/api"
)

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Invalid email or password.", humanize("error.invalid_credentials"))
	assert.Equal(t, "That verification code has expired. Request a new one.", humanize("error.code_expired"))
	assert.Equal(t, "The operation failed.", humanize(""))
	// Unknown keys fall through verbatim rather than hiding the code.
	assert.Equal(t, "error.something_new", humanize("error.something_new"))
}

func TestRoleLabel(t *testing.T) {
	assert.Equal(t, "platform admin", roleLabel(api.RolePlatformAdmin))
	assert.Equal(t, "store manager", roleLabel(api.RoleStoreManager))
	assert.Equal(t, "CUSTOM_ROLE", roleLabel("CUSTOM_ROLE"))
}
