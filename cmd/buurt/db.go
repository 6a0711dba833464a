package main

import (
	"fmt"

	"github.com/buurtplein/buurtchat/internal/db"
	"github.com/spf13/cobra"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var (
		configPath string
		seed       bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Buurtchat database",
		Long:  "Migrates the conversation and message tables and, with --seed, adds demo conversations to an empty database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath, seed)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&seed, "seed", false, "add demo conversations when the database is empty")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string, seed bool) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(cmd, configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Connected to %s database\n", cfg.Database.Driver)

	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	if seed {
		n, err := db.SeedDemo(gormDB, cfg.Self)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(out, "Database already has conversations, skipped demo seed")
		} else {
			fmt.Fprintf(out, "Seeded %d demo conversations\n", n)
		}
	}

	fmt.Fprintln(out, "\nBuurtchat database initialized successfully.")
	return nil
}
