package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bolasblack/outcache/internal/fingerprint"
	"github.com/bolasblack/outcache/internal/history"
)

var (
	statusIncludeAdded bool
	statusShowDiff     bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show changes since the last recorded snapshot",
	Long: `Capture the current state of every declared output property and report
what changed relative to the recorded workspace history.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusIncludeAdded, "include-added", true, "Report added paths as changes")
	statusCmd.Flags().BoolVar(&statusShowDiff, "diff", false, "Print a unified diff of the recorded and current entry listings")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := getCwd()
	if err != nil {
		return err
	}
	if _, err := afero.NewOsFs().Stat(filepath.Join(cwd, ConfigFilename)); os.IsNotExist(err) {
		fmt.Println("Status: Not initialized")
		fmt.Println("")
		fmt.Println("Run 'outcache init' to create a configuration file.")
		return nil
	}

	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	rec, err := history.Load(ws.env.Fs, ws.cwd)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if rec == nil {
		fmt.Println("No recorded snapshot. Run 'outcache snapshot' first.")
		return nil
	}

	_, collections, err := ws.captureProperties()
	if err != nil {
		return err
	}

	upToDate := true
	for _, spec := range ws.specs {
		current, ok := collections[spec.PropertyName]
		if !ok {
			continue
		}
		previous := rec.Properties[spec.PropertyName]
		if previous == nil {
			previous = fingerprint.FromRoots()
		}

		var changes []fingerprint.Change
		current.VisitChangesSince(previous, statusIncludeAdded, func(c fingerprint.Change) bool {
			changes = append(changes, c)
			return true
		})
		if len(changes) == 0 {
			fmt.Printf("%-20s up to date\n", spec.PropertyName)
			continue
		}

		upToDate = false
		fmt.Printf("%-20s %d change(s)\n", spec.PropertyName, len(changes))
		for _, c := range changes {
			fmt.Printf("  %-10s %s\n", c.Kind, c.Path)
		}

		if statusShowDiff {
			diff, err := entryListingDiff(previous, current, spec.PropertyName)
			if err != nil {
				return err
			}
			if diff != "" {
				fmt.Print(diff)
			}
		}
	}

	if upToDate {
		fmt.Println("\nAll properties up to date.")
	}
	return nil
}

// entryListingDiff renders entry listings of a recorded and a current
// fingerprint as a unified diff, one "path kind hash" line per entry.
func entryListingDiff(previous, current *fingerprint.Collection, propertyName string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        entryListingLines(previous),
		B:        entryListingLines(current),
		FromFile: propertyName + " (recorded)",
		ToFile:   propertyName + " (current)",
		Context:  3,
	})
}

func entryListingLines(col *fingerprint.Collection) []string {
	entries := col.Entries()
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		e := entries[p]
		lines = append(lines, fmt.Sprintf("%s %s %s\n", p, e.Kind, e.Hash.Short()))
	}
	return lines
}
