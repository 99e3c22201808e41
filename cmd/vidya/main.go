package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vidyalab/vidya/internal/profile"
	"github.com/vidyalab/vidya/server"
	"github.com/vidyalab/vidya/store"
	"github.com/vidyalab/vidya/store/db"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "vidya",
	Short: "AI tutoring service",
	Long:  "Vidya is the tutoring orchestration service: model routing, conversation memory, curriculum retrieval, and quiz synthesis behind one REST API.",
	RunE: func(_ *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		driver, err := db.NewDBDriver(p)
		if err != nil {
			return fmt.Errorf("create db driver: %w", err)
		}
		st := store.New(driver, p)

		s, err := server.NewServer(ctx, p, st)
		if err != nil {
			st.Close()
			return fmt.Errorf("create server: %w", err)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			slog.Info("received signal, shutting down", "signal", sig)
			s.Shutdown(ctx)
			cancel()
		}()

		if err := s.Start(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("start server: %w", err)
		}
		<-ctx.Done()
		return nil
	},
}

func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version,
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

func init() {
	viper.SetDefault("mode", "demo")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8081)
	viper.SetDefault("driver", "sqlite")

	rootCmd.PersistentFlags().String("mode", "demo", `server mode: "prod", "dev", or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "binding address")
	rootCmd.PersistentFlags().Int("port", 8081, "binding port")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver: "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("vidya")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}
