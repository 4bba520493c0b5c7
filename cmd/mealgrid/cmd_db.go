package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mealgrid/mealgrid/config"
	"github.com/mealgrid/mealgrid/database"
	"github.com/mealgrid/mealgrid/database/seeders"

	"go.mongodb.org/mongo-driver/mongo"
)

// bootDB loads config and opens the Mongo connection.
func bootDB(cmd *cobra.Command) (*mongo.Database, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	return database.Connect(cmd.Context())
}

// mealgrid db:index
var dbIndexCmd = &cobra.Command{
	Use:   "db:index",
	Short: "Create the indexes the application relies on",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB(cmd)
		if err != nil {
			return err
		}
		defer database.Disconnect(cmd.Context(), db) //nolint:errcheck

		fmt.Println("Ensuring indexes…")
		return database.EnsureIndexes(cmd.Context(), db)
	},
}

// mealgrid db:seed
var dbSeedCmd = &cobra.Command{
	Use:   "db:seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := bootDB(cmd)
		if err != nil {
			return err
		}
		defer database.Disconnect(cmd.Context(), db) //nolint:errcheck

		fmt.Println("Running seeders…")
		return seeders.RunAll(cmd.Context(), db)
	},
}
