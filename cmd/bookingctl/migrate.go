package main

import "github.com/spf13/cobra"

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("schema up to date", "dialect", string(store.Dialect()))
		return nil
	},
}
