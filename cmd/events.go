package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/fs-harness/internal/audit"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Display the harness event log of the workspace",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

var (
	eventsJSON     bool
	eventsInstance string
)

func init() {
	eventsCmd.Flags().BoolVar(&eventsJSON, "jsonl", false, "Output events as JSON lines")
	eventsCmd.Flags().StringVar(&eventsInstance, "instance", "", "Only show events of one daemon instance")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, args []string) error {
	a := currentApp()
	if err := a.RequireWorkspace(); err != nil {
		return err
	}
	logger := a.Events
	if logger == nil {
		logger = audit.NewLogger(a.Workspace.LogDir)
	}

	var (
		events []audit.Event
		err    error
	)
	if eventsInstance != "" {
		events, err = logger.InstanceEvents(eventsInstance)
	} else {
		events, err = logger.Events()
	}
	if err != nil {
		return fmt.Errorf("failed to read event log: %w", err)
	}

	if len(events) == 0 {
		logInfo("No events recorded in %s", logger.Path())
		return nil
	}

	out := cmd.OutOrStdout()
	for _, e := range events {
		if eventsJSON {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to marshal event: %w", err)
			}
			fmt.Fprintln(out, string(data))
			continue
		}

		ts := e.Timestamp.Local().Format("2006-01-02 15:04:05")
		subject := e.Instance
		if subject == "" {
			subject = "-"
		}
		switch {
		case e.ExitCode != nil:
			fmt.Fprintf(out, "[%s] %-9s %s (exit %d)\n", ts, e.Type, e.Details, *e.ExitCode)
		case e.Details != "":
			fmt.Fprintf(out, "[%s] %-9s %s pid=%d (%s)\n", ts, e.Type, subject, e.PID, e.Details)
		default:
			fmt.Fprintf(out, "[%s] %-9s %s pid=%d\n", ts, e.Type, subject, e.PID)
		}
	}

	return nil
}
