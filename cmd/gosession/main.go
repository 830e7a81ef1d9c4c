package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/frostime/gosession/internal/config"
	"github.com/frostime/gosession/internal/hub"
	"github.com/frostime/gosession/internal/mcpserver"
	"github.com/frostime/gosession/internal/session"
	"github.com/frostime/gosession/internal/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "gosession",
		Short:         "Localhost Go code-execution session service",
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := rootCmd.Flags()
	f.String("token", "", "bearer token required on all /v1 endpoints")
	f.Int("port", 8000, "HTTP port on 127.0.0.1")
	f.String("workdir", "", "default session working directory (default: current directory)")
	f.Int("exec-timeout", 30, "default execution timeout in seconds (0 disables)")

	// Viper keys use underscores so they match the env var suffix after
	// stripping the GOSESSION_ prefix.
	bindFlag := func(viperKey, flagName string) {
		_ = viper.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("token", "token")
	bindFlag("port", "port")
	bindFlag("workdir", "workdir")
	bindFlag("exec_timeout", "exec-timeout")

	viper.SetEnvPrefix("GOSESSION")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP stdio server exposing sessions as tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return mcpserver.Run()
		},
	}
	rootCmd.AddCommand(mcpCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The token is deliberately absent from the banner.
	fmt.Printf("go-session %s starting\n", config.Version)
	fmt.Printf("  Listen: 127.0.0.1:%d\n", cfg.Port)
	fmt.Printf("  Workdir: %s\n", cfg.Workdir)
	fmt.Printf("  Exec timeout: %ds\n", cfg.ExecTimeout)
	fmt.Println()

	mgr := session.NewManager(cfg.Workdir, cfg.ExecTimeout)
	sseHub := hub.New()
	srv := web.New(&cfg, mgr, sseHub)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case sig := <-sigCh:
		log.Printf("received %s, shutting down...", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
	return nil
}
