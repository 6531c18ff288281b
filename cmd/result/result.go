// Package result implements the verdict lookup command.
package result

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pcbvision/aoi-go/internal/artifact"
	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/datastore"
	"github.com/pcbvision/aoi-go/internal/errors"
)

// Command creates the result command for reading back a stored verdict.
// The datastore is preferred when one is configured; the on-disk result
// record is the fallback, so lookups work without any database.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "result [pcb-id]",
		Short: "Print the most recent verdict for a PCB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pcbID := args[0]

			rec, err := lookup(settings, pcbID)
			if err != nil {
				if errors.IsNotFound(err) {
					return fmt.Errorf("no verdict found for %s", pcbID)
				}
				return err
			}

			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func lookup(settings *conf.Settings, pcbID string) (*artifact.Record, error) {
	if ds := datastore.New(settings, nil); ds != nil {
		if err := ds.Open(); err == nil {
			defer ds.Close()
			rec, err := ds.Get(pcbID)
			if err == nil {
				return rec, nil
			}
			if !errors.IsNotFound(err) {
				return nil, err
			}
		}
	}

	store, err := artifact.NewStore(settings)
	if err != nil {
		return nil, err
	}
	return store.LatestRecord(pcbID)
}
