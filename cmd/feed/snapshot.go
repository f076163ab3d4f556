package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/hub"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/simulator"
)

func newSnapshotCmd(opts *rootOptions) *cobra.Command {
	var (
		ticks int
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run N ticks offline and print the resulting snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticks < 0 {
				return fmt.Errorf("invalid --ticks %d", ticks)
			}

			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			universe, err := instruments(cfg)
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			engine := simulator.NewEngine(
				engineConfig(cfg.Feed),
				logger,
				universe,
				hub.NewHub(cfg.Feed.SubscriberBuffer, logger),
				simulator.NewRealRand(seed),
				simulator.RealClock{},
			)
			engine.Warmup(ticks)

			out, err := json.MarshalIndent(engine.Snapshot(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().IntVar(&ticks, "ticks", 10, "number of ticks to simulate")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	return cmd
}
