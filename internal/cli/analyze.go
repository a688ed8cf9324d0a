package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/bolasblack/outcache/internal/analysis"
	"github.com/bolasblack/outcache/internal/logging"
	"github.com/bolasblack/outcache/internal/util"
)

var (
	analyzeSnapshotOut string
	analyzeShowDiff    bool
	analyzeShowConsts  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze class directories for incremental recompilation",
}

var analyzeSnapshotCmd = &cobra.Command{
	Use:   "snapshot <class-dir>",
	Short: "Snapshot a directory of compiled classes",
	Long: `Hash every .class file under a directory and write the result as a
JSON snapshot. Two snapshots of the same directory taken at different
times can then be compared with 'outcache analyze diff'.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyzeSnapshot,
}

var analyzeDiffCmd = &cobra.Command{
	Use:   "diff <old-snapshot> <new-snapshot>",
	Short: "Report classes affected by changes between two snapshots",
	Long: `Compare two class set snapshots and report which classes must be
recompiled: every changed or removed class plus its transitive
dependents in the new snapshot, and every newly added class.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyzeDiff,
}

func init() {
	analyzeSnapshotCmd.Flags().StringVarP(&analyzeSnapshotOut, "output", "o", "", "Write the snapshot to this file instead of stdout")
	analyzeDiffCmd.Flags().BoolVar(&analyzeShowDiff, "diff", false, "Print a unified diff of the per-class hashes")
	analyzeDiffCmd.Flags().BoolVar(&analyzeShowConsts, "constants", false, "Print constants from the old snapshot no longer present in the new one")
	analyzeCmd.AddCommand(analyzeSnapshotCmd)
	analyzeCmd.AddCommand(analyzeDiffCmd)
}

func runAnalyzeSnapshot(cmd *cobra.Command, args []string) error {
	env := util.NewOsEnv(logging.New(os.Stderr, "info", "auto"))
	data, err := analysis.SnapshotEntry(env.Fs, args[0], nil, nil)
	if err != nil {
		return fmt.Errorf("failed to snapshot %q: %w", args[0], err)
	}

	out := os.Stdout
	if analyzeSnapshotOut != "" {
		f, err := env.Fs.Create(analyzeSnapshotOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := analysis.WriteSnapshotData(f, data); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
		fmt.Printf("Wrote snapshot of %d classes to %s\n", len(data.ClassHashes), analyzeSnapshotOut)
		return nil
	}
	return analysis.WriteSnapshotData(out, data)
}

func runAnalyzeDiff(cmd *cobra.Command, args []string) error {
	env := util.NewOsEnv(logging.New(os.Stderr, "info", "auto"))
	old, err := loadEntrySnapshot(env.Fs, args[0])
	if err != nil {
		return err
	}
	current, err := loadEntrySnapshot(env.Fs, args[1])
	if err != nil {
		return err
	}

	affected := current.AffectedClassesSince(old)
	if affected.Affected.IsDependencyToAll() {
		fmt.Printf("Full recompilation required: %s\n", affected.Affected.Reason())
	} else if affected.Affected.Empty() && len(affected.Added) == 0 {
		fmt.Println("No classes affected.")
	} else {
		for _, name := range affected.Affected.Classes() {
			fmt.Printf("affected: %s\n", name)
		}
		for _, name := range affected.Added {
			fmt.Printf("added:    %s\n", name)
		}
	}

	if analyzeShowConsts && !affected.Affected.IsDependencyToAll() {
		consts := current.RelevantConstants(old, affected.Affected.Classes())
		if len(consts) > 0 {
			fmt.Printf("stale constants: %v\n", consts)
		}
	}

	if analyzeShowDiff {
		diff, err := classHashDiff(old, current, args[0], args[1])
		if err != nil {
			return err
		}
		if diff != "" {
			fmt.Print(diff)
		}
	}
	return nil
}

func loadEntrySnapshot(fs afero.Fs, path string) (*analysis.EntrySnapshot, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %q: %w", path, err)
	}
	defer f.Close()
	data, err := analysis.ReadSnapshotData(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %q: %w", path, err)
	}
	return analysis.NewEntrySnapshot(data), nil
}

// classHashDiff renders the per-class hash listings of two snapshots as a
// unified diff, one "class hash" line per class.
func classHashDiff(old, current *analysis.EntrySnapshot, oldName, newName string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        classHashLines(old),
		B:        classHashLines(current),
		FromFile: oldName,
		ToFile:   newName,
		Context:  3,
	})
}

func classHashLines(snap *analysis.EntrySnapshot) []string {
	hashes := snap.ClassHashes()
	names := make([]string, 0, len(hashes))
	for name := range hashes {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s %s\n", name, hashes[name].Short()))
	}
	return lines
}
