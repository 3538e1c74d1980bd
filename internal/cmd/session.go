package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/electisspace/spacectl/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and monitor the session",
}

var sessionWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the session validated in the background",
	Long: `Watch the session: revalidate it periodically against the server and
report when it dies. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if err := app.restoreSession(ctx); err != nil {
			return err
		}

		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			interval = app.cfg.Watchdog.Interval
		}

		expired := make(chan struct{})
		watchdog := session.NewWatchdog(app.session, app.logger, session.WatchdogConfig{
			Interval:  interval,
			MinGap:    app.cfg.Watchdog.MinGap,
			OnInvalid: func() { close(expired) },
		})

		app.session.Subscribe(func(snap session.Snapshot) {
			if snap.IsAuthenticated {
				fmt.Printf("%s session valid (last check %s)\n",
					labelStyle.Render(time.Now().Format(time.TimeOnly)),
					snap.LastValidation.Format(time.TimeOnly))
			}
		})

		watchdog.Start(ctx)
		defer watchdog.Stop()

		fmt.Println("Watching session; Ctrl+C to stop.")
		select {
		case <-ctx.Done():
			return nil
		case <-expired:
			return fmt.Errorf("session expired; run 'spacectl auth login'")
		}
	},
}

var sessionValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the session against the server once",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.restoreSession(cmd.Context()); err != nil {
			return err
		}

		if !app.session.ValidateSession(cmd.Context()) {
			return fmt.Errorf("session is no longer valid; run 'spacectl auth login'")
		}
		fmt.Println(successStyle.Render("Session valid."))
		return nil
	},
}

func init() {
	sessionWatchCmd.Flags().Duration("interval", 0, "revalidation interval (default from config, 60s)")

	sessionCmd.AddCommand(sessionWatchCmd)
	sessionCmd.AddCommand(sessionValidateCmd)
	rootCmd.AddCommand(sessionCmd)
}
