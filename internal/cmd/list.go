package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/electisspace/spacectl/internal/permission"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List resources in the active store",
}

// requireFeature gates a list subcommand on the active store's feature
// toggles, the same check the web frontend applies to its navigation.
func requireFeature(app *app, feature string) error {
	user := app.session.User()
	_, storeID := app.session.ActiveIDs()
	if storeID == "" {
		return fmt.Errorf("no active store (run 'spacectl context select')")
	}
	if !permission.CanAccessFeature(user, storeID, feature) {
		return fmt.Errorf("the %s feature is not enabled for this store", feature)
	}
	return nil
}

var listSpacesCmd = &cobra.Command{
	Use:   "spaces",
	Short: "List spaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.restoreSession(cmd.Context()); err != nil {
			return err
		}
		if err := requireFeature(app, permission.FeatureSpaces); err != nil {
			return err
		}

		spaces, err := app.spaces.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range spaces {
			fmt.Printf("%s  %s (%s, capacity %d)\n", s.ID, s.Name, s.Type, s.Capacity)
		}
		return nil
	},
}

var listPeopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List people",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.restoreSession(cmd.Context()); err != nil {
			return err
		}
		if err := requireFeature(app, permission.FeaturePeople); err != nil {
			return err
		}

		people, err := app.people.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, p := range people {
			fmt.Printf("%s  %s %s <%s>\n", p.ID, p.FirstName, p.LastName, p.Email)
		}
		return nil
	},
}

var listRoomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List conference rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.restoreSession(cmd.Context()); err != nil {
			return err
		}
		if err := requireFeature(app, permission.FeatureConference); err != nil {
			return err
		}

		rooms, err := app.conference.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range rooms {
			fmt.Printf("%s  %s (capacity %d)\n", r.ID, r.Name, r.Capacity)
		}
		return nil
	},
}

var listLabelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List electronic shelf labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.restoreSession(cmd.Context()); err != nil {
			return err
		}
		if err := requireFeature(app, permission.FeatureLabels); err != nil {
			return err
		}

		labels, err := app.labels.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, l := range labels {
			line := fmt.Sprintf("%s  %s [%s]", l.ID, l.Code, l.Status)
			if l.LinkedID != "" {
				line += fmt.Sprintf(" -> %s %s", l.LinkedType, l.LinkedID)
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	listCmd.AddCommand(listSpacesCmd)
	listCmd.AddCommand(listPeopleCmd)
	listCmd.AddCommand(listRoomsCmd)
	listCmd.AddCommand(listLabelsCmd)
	rootCmd.AddCommand(listCmd)
}
