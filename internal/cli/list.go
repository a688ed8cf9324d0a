package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listFull bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cache entries in the store",
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listFull, "full", false, "Print full keys instead of shortened ones")
}

func runList(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	entries, err := ws.openStore().List()
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("Cache is empty.")
		return nil
	}

	var total int64
	for _, entry := range entries {
		key := entry.Key.Short()
		if listFull {
			key = entry.Key.String()
		}
		fmt.Printf("%s  %10d  %s\n", key, entry.Size, entry.ModTime.Format("2006-01-02 15:04:05"))
		total += entry.Size
	}
	fmt.Printf("%d entries, %d bytes\n", len(entries), total)
	return nil
}
