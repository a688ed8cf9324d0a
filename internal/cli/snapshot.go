package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bolasblack/outcache/internal/history"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record the current state of all output properties",
	Long: `Capture a snapshot of every declared output property and record it as
the workspace history. 'outcache status' reports changes relative to the
recorded state.`,
	RunE: runSnapshot,
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	_, collections, err := ws.captureProperties()
	if err != nil {
		return err
	}

	rec := &history.Record{Properties: collections}
	if err := history.Save(ws.env.Fs, ws.cwd, rec); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	for _, spec := range ws.specs {
		col, ok := collections[spec.PropertyName]
		if !ok {
			fmt.Printf("%-20s (no value)\n", spec.PropertyName)
			continue
		}
		fmt.Printf("%-20s %s  (%d entries)\n", spec.PropertyName, col.CombinedHash().Short(), len(col.Entries()))
		ws.env.Log.Debug("recorded property", "property", spec.PropertyName, "hash", col.CombinedHash())
	}
	return nil
}
