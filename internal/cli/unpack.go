package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bolasblack/outcache/internal/fingerprint"
	"github.com/bolasblack/outcache/internal/hashing"
	"github.com/bolasblack/outcache/internal/history"
	"github.com/bolasblack/outcache/internal/origin"
	"github.com/bolasblack/outcache/internal/pack"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack <key>",
	Short: "Restore output properties from a cache entry",
	Long: `Look up a cache entry by key and restore every output property it
contains to the locations declared in the configuration. Existing
contents at those locations are replaced. The restored snapshots are
recorded as the new history, so 'outcache status' reports up to date
immediately after a restore.`,
	Args: cobra.ExactArgs(1),
	RunE: runUnpack,
}

func runUnpack(cmd *cobra.Command, args []string) error {
	key := hashing.HashCode(args[0])
	if !key.Valid() {
		return fmt.Errorf("invalid cache key %q", args[0])
	}

	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	entry, err := ws.openStore().Get(key)
	if err != nil {
		return fmt.Errorf("failed to open cache entry %s: %w", key.Short(), err)
	}
	defer entry.Close()

	packer := pack.NewPacker(ws.env.Fs)
	result, err := packer.Unpack(ws.specs, entry, origin.Read)
	if err != nil {
		return fmt.Errorf("failed to unpack cache entry %s: %w", key.Short(), err)
	}

	collections := make(map[string]*fingerprint.Collection, len(result.Snapshots))
	for name, snap := range result.Snapshots {
		collections[name] = fingerprint.FromRoots(snap)
	}
	if err := history.Save(ws.env.Fs, ws.cwd, &history.Record{Properties: collections}); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	ws.env.Log.Info("unpacked cache entry",
		"key", key.Short(),
		"entries", result.EntryCount,
		"build_id", result.Metadata.BuildInvocationID,
		"identity", result.Metadata.IdentityPath,
	)
	fmt.Printf("Restored %d entries from cache entry %s\n", result.EntryCount, key.Short())
	fmt.Printf("Originally produced by %q on %s\n", result.Metadata.IdentityPath, result.Metadata.HostOS)
	return nil
}
