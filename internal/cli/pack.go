package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bolasblack/outcache/internal/fingerprint"
	"github.com/bolasblack/outcache/internal/hashing"
	"github.com/bolasblack/outcache/internal/history"
	"github.com/bolasblack/outcache/internal/origin"
	"github.com/bolasblack/outcache/internal/pack"
)

var packIdentity string

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack all output properties into the cache store",
	Long: `Snapshot every declared output property, pack the outputs into a single
cache entry archive, and store it keyed by the combined hash of all
properties. The key is printed so later runs can restore with
'outcache unpack <key>'.`,
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringVar(&packIdentity, "identity", "", "Identity path recorded in origin metadata (defaults to the workspace directory)")
}

func runPack(cmd *cobra.Command, args []string) error {
	started := time.Now()
	ws, err := loadWorkspace()
	if err != nil {
		return err
	}

	snapshots, collections, err := ws.captureProperties()
	if err != nil {
		return err
	}

	key := cacheKey(collections)
	entryStore := ws.openStore()
	if entryStore.Has(key) {
		fmt.Printf("Cache entry already present: %s\n", key)
		return nil
	}

	identity := packIdentity
	if identity == "" {
		identity = ws.cwd
	}
	meta := origin.New(identity, time.Since(started))

	packer := pack.NewPacker(ws.env.Fs)
	var entryCount int64
	err = entryStore.Put(key, func(w io.Writer) error {
		var packErr error
		entryCount, packErr = packer.Pack(ws.specs, snapshots, w, meta.Write)
		return packErr
	})
	if err != nil {
		return fmt.Errorf("failed to pack cache entry: %w", err)
	}

	if err := history.Save(ws.env.Fs, ws.cwd, &history.Record{Properties: collections}); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	ws.env.Log.Info("packed cache entry",
		"key", key.Short(),
		"entries", entryCount,
		"properties", len(collections),
	)
	fmt.Printf("Packed %d entries into cache entry %s\n", entryCount, key)
	return nil
}

// cacheKey combines the per-property fingerprints into one store key. The
// property names participate so renaming a property changes the key.
func cacheKey(collections map[string]*fingerprint.Collection) hashing.HashCode {
	hashes := make(map[string]hashing.HashCode, len(collections))
	for name, col := range collections {
		hashes[name] = col.CombinedHash()
	}
	return hashing.Combine(hashes)
}
