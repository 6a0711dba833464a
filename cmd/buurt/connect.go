package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/buurtplein/buurtchat/internal/config"
	"github.com/buurtplein/buurtchat/internal/db"
	"github.com/buurtplein/buurtchat/internal/store"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// addConfigFlag registers the shared --config flag.
func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to Buurtchat config file")
}

// loadConfig reads configPath. When the user did not pass --config and the
// default file does not exist, the built-in defaults are used.
func loadConfig(cmd *cobra.Command, configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	return nil, fmt.Errorf("load config: %w", err)
}

func connectFromConfig(cmd *cobra.Command, configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(cmd, configPath)
	if err != nil {
		return nil, nil, err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s database: %w", cfg.Database.Driver, err)
	}
	return cfg, gormDB, nil
}

// newService builds a chat service over gormDB and loads the inbox.
func newService(ctx context.Context, cfg *config.Config, gormDB *gorm.DB) (*chat.Service, error) {
	st, err := store.New(gormDB, cfg.Self.ID)
	if err != nil {
		return nil, err
	}
	svc, err := chat.NewService(chat.ServiceOpts{
		Backend:        st,
		Self:           chat.Participant{ID: cfg.Self.ID, Name: cfg.Self.Name, Avatar: cfg.Self.Avatar},
		ReplyDelay:     time.Duration(cfg.Chat.ReplyDelayMS) * time.Millisecond,
		ReplyTemplates: cfg.Chat.ReplyTemplates,
	})
	if err != nil {
		return nil, err
	}
	if err := svc.Load(ctx); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// openService connects, migrates and loads in one step for the commands
// that work on conversations.
func openService(cmd *cobra.Command, configPath string) (*config.Config, *chat.Service, error) {
	cfg, gormDB, err := connectFromConfig(cmd, configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return nil, nil, err
	}
	svc, err := newService(cmd.Context(), cfg, gormDB)
	if err != nil {
		return nil, nil, err
	}
	return cfg, svc, nil
}
