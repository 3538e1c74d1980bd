package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/electisspace/spacectl/internal/guard"
	"github.com/electisspace/spacectl/internal/permission"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show or switch the active company/store context",
}

var contextShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active context and available features",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.restoreSession(cmd.Context()); err != nil {
			return err
		}

		user := app.session.User()
		fmt.Println(headerStyle.Render("Active context"))
		printActiveContext(app)

		_, storeID := app.session.ActiveIDs()
		if storeID != "" {
			features := permission.EffectiveEnabledFeatures(user, storeID)
			fmt.Printf("  %s %v\n", labelStyle.Render("Features:"), features)
		}
		if s := app.settings.Current(); s != nil && s.Timezone != "" {
			fmt.Printf("  %s %s\n", labelStyle.Render("Timezone:"), s.Timezone)
		}
		return nil
	},
}

var contextCompanyCmd = &cobra.Command{
	Use:   "company <company-id>",
	Short: "Switch the active company (resets the active store)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.restoreSession(cmd.Context()); err != nil {
			return err
		}

		if !app.session.SetActiveCompany(cmd.Context(), args[0]) {
			return fmt.Errorf("%s", humanize(app.session.ErrorCode()))
		}
		fmt.Println(successStyle.Render("Company switched."))
		fmt.Println("Pick a store with 'spacectl context select'.")
		return nil
	},
}

var contextStoreCmd = &cobra.Command{
	Use:   "store <store-id>",
	Short: "Switch the active store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.restoreSession(cmd.Context()); err != nil {
			return err
		}

		out := app.guard.Run(cmd.Context(), args[0])
		return reportGuardOutcome(app, out)
	},
}

var contextSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick the active store interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.restoreSession(cmd.Context()); err != nil {
			return err
		}

		storeID, auto := app.guard.AutoSelectable()
		if !auto {
			storeID, err = promptStoreChoice(app.guard.Choices())
			if err != nil {
				return err
			}
		}

		out := app.guard.Run(cmd.Context(), storeID)
		return reportGuardOutcome(app, out)
	},
}

// promptStoreChoice renders one select across all companies, with
// stores grouped under company headings.
func promptStoreChoice(groups []guard.CompanyStores) (string, error) {
	if len(groups) == 0 {
		return "", fmt.Errorf("no stores available on this account")
	}

	var options []huh.Option[string]
	for _, group := range groups {
		for _, st := range group.Stores {
			label := fmt.Sprintf("%s / %s (%s)", group.CompanyName, st.Name, roleLabel(st.Role))
			options = append(options, huh.NewOption(label, st.ID))
		}
	}

	var selected string
	sel := huh.NewSelect[string]().
		Title("Active store").
		Options(options...).
		Value(&selected)
	if err := huh.NewForm(huh.NewGroup(sel)).Run(); err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return selected, nil
}

// reportGuardOutcome turns a guard outcome into CLI output, offering
// the continue-without-AIMS escape where the flow allows it.
func reportGuardOutcome(app *app, out guard.Outcome) error {
	switch out.State {
	case guard.StateAIMSOK:
		fmt.Println(successStyle.Render("Store switched."))
		if connected, _, cfg := app.aims.Status(); connected && cfg != nil {
			fmt.Printf("  %s %s (%s)\n", labelStyle.Render("AIMS:"), cfg.BaseURL, cfg.Cluster)
		}
		return nil

	case guard.StateNeedsCreds:
		fmt.Println("Store switched, but AIMS is not configured for this company.")
		fmt.Println("Configure the AIMS credentials in the web console, then run")
		fmt.Println("'spacectl aims reconnect' - or continue without label sync.")
		return nil

	case guard.StateContactAdmin:
		fmt.Println("Store switched, but AIMS is not configured and you cannot set it up.")
		if len(out.Contacts) > 0 {
			fmt.Println("Ask one of your administrators:")
			for _, c := range out.Contacts {
				fmt.Printf("  - %s <%s>\n", c.Name, c.Email)
			}
		}
		return nil

	case guard.StateError:
		if out.Err != nil {
			return fmt.Errorf("store switch failed: %w", out.Err)
		}
		return fmt.Errorf("%s", humanize(app.session.ErrorCode()))

	default:
		return fmt.Errorf("store %q is not on your account", out.StoreID)
	}
}

var aimsCmd = &cobra.Command{
	Use:   "aims",
	Short: "Manage AIMS/SoluM connectivity for the active store",
}

var aimsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show AIMS connectivity for the active store",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.restoreSession(cmd.Context()); err != nil {
			return err
		}

		_, storeID := app.session.ActiveIDs()
		if storeID == "" {
			return fmt.Errorf("no active store (run 'spacectl context select')")
		}

		info, err := app.aims.ConnectionInfo(cmd.Context(), storeID)
		if err != nil {
			return err
		}
		if info.Configured {
			fmt.Println("AIMS is configured for this store.")
		} else {
			fmt.Println("AIMS is not configured for this store.")
		}
		if connected, _, cfg := app.aims.Status(); connected && cfg != nil {
			fmt.Printf("Connected to %s (%s)\n", cfg.BaseURL, cfg.Cluster)
		}
		return nil
	},
}

var aimsReconnectCmd = &cobra.Command{
	Use:   "reconnect",
	Short: "Retry the AIMS connection for the active store",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.restoreSession(cmd.Context()); err != nil {
			return err
		}

		if !app.session.ReconnectToSolum(cmd.Context()) {
			return fmt.Errorf("AIMS connection failed; check the store's configuration")
		}
		fmt.Println(successStyle.Render("AIMS connected."))
		return nil
	},
}

func init() {
	contextCmd.AddCommand(contextShowCmd)
	contextCmd.AddCommand(contextCompanyCmd)
	contextCmd.AddCommand(contextStoreCmd)
	contextCmd.AddCommand(contextSelectCmd)
	rootCmd.AddCommand(contextCmd)

	aimsCmd.AddCommand(aimsStatusCmd)
	aimsCmd.AddCommand(aimsReconnectCmd)
	rootCmd.AddCommand(aimsCmd)
}
