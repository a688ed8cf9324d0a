package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bolasblack/outcache/internal/history"
	"github.com/bolasblack/outcache/internal/state"
	"github.com/bolasblack/outcache/internal/store"
	"github.com/bolasblack/outcache/internal/util"
)

var (
	cleanupAll       bool
	cleanupWorkspace bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove cache entries from the store",
	Long: `Remove cache entries from the local store.

Without flags, lists the stored entries and prompts for which ones to
delete. With --all, every entry is removed without prompting. With
--workspace, the recorded history and workspace state are removed too.`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupAll, "all", false, "Delete all cache entries without prompting")
	cleanupCmd.Flags().BoolVar(&cleanupWorkspace, "workspace", false, "Also remove recorded history and workspace state")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}
	entryStore := ws.openStore()

	entries, err := entryStore.List()
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}

	var toDelete []store.EntryInfo
	switch {
	case len(entries) == 0:
		// Nothing stored; --workspace cleanup may still apply below.
	case cleanupAll:
		toDelete = entries
	default:
		toDelete = selectEntriesInteractively(entries)
	}

	deleted := 0
	for _, entry := range toDelete {
		util.ProgressStep(os.Stdout, "Removing %s... ", entry.Key.Short())
		if err := entryStore.Remove(entry.Key); err != nil {
			util.Progress(os.Stdout, "failed: %v\n", err)
		} else {
			util.Progress(os.Stdout, "done\n")
			deleted++
		}
	}
	if deleted > 0 {
		util.ProgressDone(os.Stdout, "Removed %d cache entr%s.\n", deleted, pluralY(deleted))
	}

	if cleanupWorkspace {
		if err := ws.env.Fs.Remove(history.FilePath(ws.cwd)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove history: %w", err)
		}
		if err := state.Delete(ws.env.Fs, ws.cwd); err != nil {
			return fmt.Errorf("failed to remove workspace state: %w", err)
		}
		util.ProgressDone(os.Stdout, "Removed workspace history and state.\n")
	}
	return nil
}

// selectEntriesInteractively displays entries and prompts for selection.
func selectEntriesInteractively(entries []store.EntryInfo) []store.EntryInfo {
	fmt.Printf("Found %d cache entr%s:\n\n", len(entries), pluralY(len(entries)))
	for i, entry := range entries {
		fmt.Printf("  [%d] %s\n", i+1, entry.Key)
		fmt.Printf("      Size: %d bytes\n", entry.Size)
		fmt.Printf("      Stored: %s\n", entry.ModTime.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}

	fmt.Println("Select entries to delete (comma-separated numbers, or Enter for all):")
	fmt.Print("> ")

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		// Ctrl+C or EOF
		fmt.Println("\nCancelled.")
		return nil
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return entries
	}
	return parseEntrySelection(input, entries)
}

// parseEntrySelection parses user input and returns selected entries.
func parseEntrySelection(input string, entries []store.EntryInfo) []store.EntryInfo {
	var selected []store.EntryInfo
	seen := make(map[int]bool)

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		num, err := strconv.Atoi(part)
		if err != nil {
			fmt.Printf("Invalid number: %s\n", part)
			continue
		}
		if num < 1 || num > len(entries) {
			fmt.Printf("Number out of range: %d\n", num)
			continue
		}
		if !seen[num] {
			seen[num] = true
			selected = append(selected, entries[num-1])
		}
	}
	return selected
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
