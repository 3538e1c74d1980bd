package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/electisspace/spacectl/internal/token"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the electisSpace session",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email, password, and an emailed verification code",
	Long: `Log in to electisSpace.

Login is a two-step flow: the password step triggers a verification
code sent to your email, and the code completes the session.

Examples:
  spacectl auth login
  spacectl auth login --email anna@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if err := promptCredentials(&email, &password); err != nil {
			return err
		}

		if !app.session.Login(ctx, email, password) {
			return fmt.Errorf("%s", humanize(app.session.ErrorCode()))
		}
		fmt.Println("A verification code has been sent to " + email + ".")

		if err := runVerificationStep(ctx, app); err != nil {
			app.session.CancelLogin()
			return err
		}

		user := app.session.User()
		fmt.Println(successStyle.Render("Logged in as " + user.Email))
		printActiveContext(app)
		return nil
	},
}

// runVerificationStep loops on the 2FA prompt until the code is
// accepted, the user asks for a resend, or the error is terminal.
func runVerificationStep(ctx context.Context, app *app) error {
	for {
		var code string
		input := huh.NewInput().
			Title("Verification code").
			Description("Enter the code from your email, or leave empty to resend it.").
			Value(&code)
		if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
			return fmt.Errorf("prompt failed: %w", err)
		}

		if code == "" {
			if app.session.ResendCode(ctx) {
				fmt.Println("A new code is on its way.")
			} else {
				fmt.Println(errorStyle.Render(humanize(app.session.ErrorCode())))
			}
			continue
		}

		if app.session.Verify2FA(ctx, code) {
			return nil
		}

		errCode := app.session.ErrorCode()
		switch errCode {
		case "error.invalid_code", "error.code_expired":
			fmt.Println(errorStyle.Render(humanize(errCode)))
			continue
		default:
			return fmt.Errorf("%s", humanize(errCode))
		}
	}
}

func promptCredentials(email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(email))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password))
	}
	if len(fields) == 0 {
		return nil
	}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("email and password are required")
	}
	return nil
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear local credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		// Restore first so the server-side logout carries the token;
		// local cleanup happens regardless.
		_ = app.session.Restore(cmd.Context())
		app.session.Logout(cmd.Context())

		fmt.Println("Logged out.")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		if !app.session.Restore(cmd.Context()) {
			fmt.Println("Not logged in.")
			return nil
		}

		user := app.session.User()
		fmt.Println(headerStyle.Render("Session"))
		fmt.Printf("  %s %s (%s)\n", labelStyle.Render("User:"), user.FullName(), user.Email)
		if user.Role != "" {
			fmt.Printf("  %s %s\n", labelStyle.Render("Role:"), roleLabel(user.Role))
		}
		printActiveContext(app)
		printTokenExpiry(app)
		return nil
	},
}

func printActiveContext(app *app) {
	user := app.session.User()
	companyID, storeID := app.session.ActiveIDs()

	if c := user.CompanyByID(companyID); c != nil {
		fmt.Printf("  %s %s\n", labelStyle.Render("Company:"), activeStyle.Render(c.Name))
	}
	if st := user.StoreByID(storeID); st != nil {
		fmt.Printf("  %s %s (%s)\n", labelStyle.Render("Store:"),
			activeStyle.Render(st.Name), roleLabel(st.Role))
	} else if storeID == "" {
		fmt.Printf("  %s none (run 'spacectl context select')\n", labelStyle.Render("Store:"))
	}
}

func printTokenExpiry(app *app) {
	claims, err := token.Inspect(app.tokens.AccessToken())
	if err != nil {
		return
	}
	if claims.ExpiresAt.IsZero() {
		return
	}
	if claims.Expired() {
		fmt.Printf("  %s expired (will refresh on next call)\n", labelStyle.Render("Token:"))
		return
	}
	fmt.Printf("  %s valid for %s\n", labelStyle.Render("Token:"),
		time.Until(claims.ExpiresAt).Round(time.Second))
}

func init() {
	authLoginCmd.Flags().String("email", "", "account email")
	authLoginCmd.Flags().String("password", "", "account password (prompted if omitted)")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
