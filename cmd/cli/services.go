package main

import (
	"fmt"
	"sort"

	"github.com/lingxijiao/backend/internal/kernel"
	"github.com/spf13/cobra"
)

var checkServicesCmd = &cobra.Command{
	Use:   "check-services",
	Short: "Probe the database, Elasticsearch and Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		k := kernel.New().SetConfig(cfg).SetLogger(log).SetDB(db)
		results := k.ServiceValidator().Report(cmd.Context())

		names := make([]string, 0, len(results))
		for name := range results {
			names = append(names, name)
		}
		sort.Strings(names)

		failed := 0
		for _, name := range names {
			err := results[name]
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "❌ %-14s %v\n", name, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %-14s ok\n", name)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d services unreachable", failed, len(results))
		}
		return nil
	},
}
