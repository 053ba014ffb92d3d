package main

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/service"
)

var sweepLinksCmd = &cobra.Command{
	Use:   "sweep-links",
	Short: "Mark reservation links past their expiry as expired",
	Long: `Persists the expired status of active links whose expiry has passed.
Redemption checks expiry on its own, so this is housekeeping for
listings and reports only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		bcfg := config.LoadBookingConfig()
		svcs := service.New(service.Options{
			Store:  store,
			Logger: logger,
			Config: service.Config{Location: bcfg.Location()},
		})
		n, err := svcs.Links.SweepExpired(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("links swept", "expired", n)
		return nil
	},
}
