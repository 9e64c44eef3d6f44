package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/logger"
	"github.com/spf13/cobra"

	"FocusTimers/config"
	"FocusTimers/i18n"
	"FocusTimers/timer"
)

var (
	app       *AppManager
	logFile   *os.File
	minutes   int
	seconds   int
	histLimit int
)

// RootCmd is the entrypoint for FocusTimers.
var RootCmd = &cobra.Command{
	Use:          "focustimers",
	Short:        "Pomodoro-style countdown timers in the terminal",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		var sink io.Writer = io.Discard
		if cfg.Log.File != "" {
			logFile, err = os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			sink = logFile
		}
		logger.Init("FocusTimers", cfg.Log.Verbose, false, sink)
		if cfg.Lang != "" {
			i18n.SetLang(cfg.Lang)
		}

		app, err = NewAppManager(cfg, content, cmd.OutOrStdout())
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		err := app.Close()
		if logFile != nil {
			logFile.Close()
		}
		return err
	},
}

var runCmd = &cobra.Command{
	Use:   "run [preset]",
	Short: "Count a preset down",
	Long: `Count a preset down, printing the remaining time every second.

The preset is chosen by name or id and defaults to the first one (the pomodoro).
--minutes and --seconds override its length for this run only.

While running, type a key and press enter:
  p (or just enter)  pause / continue
  r                  restart
  x                  reset
  f                  finish now
  q                  quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		presets := app.Timers()
		if len(presets) == 0 {
			return fmt.Errorf("no presets configured")
		}
		preset := presets[0]
		if len(args) == 1 {
			var ok bool
			if preset, ok = app.Timer(args[0]); !ok {
				return fmt.Errorf("unknown preset %q", args[0])
			}
		}
		if cmd.Flags().Changed("minutes") {
			preset.Minutes = minutes
		}
		if cmd.Flags().Changed("seconds") {
			preset.Seconds = seconds
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return app.Run(ctx, preset, cmd.InOrStdin())
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List timer presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range app.Timers() {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", p.ID, i18n.T(p.Name), timer.FormatTime(timer.PartsOf(p.Duration().Value())))
		}
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and change stored settings",
	Args:  cobra.NoArgs,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := app.Settings()
		for _, k := range st.Keys() {
			v, err := st.Get(k)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", k, v)
		}
		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := app.Settings().Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Settings().Set(args[0], args[1])
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show completed runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db := app.History()
		if db == nil {
			return fmt.Errorf("history is disabled")
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		records, err := db.Recent(ctx, histLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, r := range records {
			fmt.Fprintf(out, "%s\t%s\t%s\n",
				r.FinishedAt.Local().Format("2006-01-02 15:04"),
				i18n.T(r.Name),
				timer.FormatTime(timer.PartsOf(r.Duration)))
		}

		now := time.Now()
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		today, err := db.TotalsSince(ctx, midnight)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "today: %d sessions, %s\n", today.Sessions, today.Duration)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "override the preset minutes")
	runCmd.Flags().IntVarP(&seconds, "seconds", "s", 0, "override the preset seconds")
	historyCmd.Flags().IntVar(&histLimit, "limit", 10, "number of runs to show")

	settingsCmd.AddCommand(settingsListCmd, settingsGetCmd, settingsSetCmd)
	RootCmd.AddCommand(runCmd, presetsCmd, settingsCmd, historyCmd)
}
