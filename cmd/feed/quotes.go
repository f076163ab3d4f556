package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/sink"
	"github.com/shubham-shewale/market-feed/pkg/models"
)

func newQuotesCmd(opts *rootOptions) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "quotes SYMBOL...",
		Short: "Read mirrored quotes from Redis, optionally following live updates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			store := sink.NewQuoteStore(redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			}))
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			enc := json.NewEncoder(cmd.OutOrStdout())
			emit := func(u models.StockUpdate) {
				if err := enc.Encode(u); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			}

			quotes, err := store.Quotes(ctx, args)
			if err != nil {
				return fmt.Errorf("read quotes: %w", err)
			}
			for _, q := range quotes {
				emit(q)
			}

			if !follow {
				return nil
			}
			return store.Follow(ctx, args, emit)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream live updates until interrupted")
	return cmd
}
