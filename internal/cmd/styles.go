package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/electisspace/spacectl/internal/api"
	"github.com/electisspace/spacectl/internal/session"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))
)

// errorMessages maps the API error translation keys to CLI text. A web
// frontend would feed the same keys into its i18n layer.
var errorMessages = map[string]string{
	"error.invalid_credentials":     "Invalid email or password.",
	"error.user_not_found":          "No account exists for that email.",
	"error.user_inactive":           "This account has been deactivated.",
	"error.email_service_error":     "The verification email could not be sent. Try again shortly.",
	"error.invalid_code":            "That verification code is not valid.",
	"error.code_expired":            "That verification code has expired. Request a new one.",
	"error.network_error":           "Could not reach the server. Check your connection.",
	"error.connection_refused":      "The server refused the connection.",
	"error.server_error":            "The server reported an unexpected error.",
	session.ErrCodeNoPendingVerification: "No login in progress. Start with the password step.",
}

// humanize renders a translation key as CLI-facing text.
func humanize(code string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	if code == "" {
		return "The operation failed."
	}
	return code
}

// roleLabel renders a role constant for display.
func roleLabel(role string) string {
	switch role {
	case api.RolePlatformAdmin:
		return "platform admin"
	case api.RoleCompanyAdmin:
		return "company admin"
	case api.RoleCompanyViewer:
		return "viewer"
	case api.RoleStoreAdmin:
		return "store admin"
	case api.RoleStoreManager:
		return "store manager"
	case api.RoleStoreEmployee:
		return "store employee"
	case api.RoleStoreViewer:
		return "store viewer"
	default:
		return role
	}
}
