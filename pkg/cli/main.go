// Package cli wires configuration, logging, the Vault client and the
// lease container into the leasekeeper command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leasekeeper/leasekeeper/pkg/config"
	"github.com/leasekeeper/leasekeeper/pkg/container"
	"github.com/leasekeeper/leasekeeper/pkg/event"
	"github.com/leasekeeper/leasekeeper/pkg/lease"
	"github.com/leasekeeper/leasekeeper/pkg/observability/logger"
	"github.com/leasekeeper/leasekeeper/pkg/secrets"
	"github.com/leasekeeper/leasekeeper/pkg/version"
)

const (
	serviceName      = "leasekeeper"
	defaultEnvPrefix = "LEASEKEEPER"
)

// NewRootCommand builds the leasekeeper root command with its watch and
// version subcommands.
func NewRootCommand() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Keep secret leases alive and rotate expiring secrets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to configuration file")

	rootCmd.AddCommand(newWatchCommand(&configFile))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		return 1
	}
	return 0
}

func newWatchCommand(configFile *string) *cobra.Command {
	var (
		oncePaths         []string
		renewPaths        []string
		rotatePaths       []string
		rotateUnauthPaths []string
		shutdownTimeout   time.Duration
	)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch secrets, renewing and rotating their leases until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			requested := collectSecrets(oncePaths, renewPaths, rotatePaths, rotateUnauthPaths)
			if len(requested) == 0 {
				return errors.New("no secrets requested: pass --once, --renew, --rotate or --rotate-unauthenticated")
			}

			cfg, log, err := loadConfig(*configFile)
			if err != nil {
				return err
			}

			client, err := secrets.NewVaultClient(secrets.VaultConfig{
				Address:   cfg.Vault.Address,
				Token:     cfg.Vault.Token,
				Namespace: cfg.Vault.Namespace,
				Timeout:   cfg.Vault.Timeout,
				RateLimit: cfg.Vault.RateLimit,
				RateBurst: cfg.Vault.RateBurst,
			}, log)
			if err != nil {
				return fmt.Errorf("create vault client: %w", err)
			}

			cont, err := container.New(client, log, container.Config{
				Timing:   cfg.Container.TimingPolicy(),
				Strategy: cfg.Container.Strategy(),
			})
			if err != nil {
				return fmt.Errorf("create lease container: %w", err)
			}
			cont.AddListener(event.ListenerFunc(func(e event.Event) {
				logEvent(log, e)
			}))

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			for _, secret := range requested {
				if err := cont.AddRequestedSecret(runCtx, secret); err != nil {
					return fmt.Errorf("register secret %s: %w", secret.Path, err)
				}
			}
			if err := cont.Start(runCtx); err != nil {
				return fmt.Errorf("start lease container: %w", err)
			}
			log.Info("watching secrets", "count", len(requested))

			<-runCtx.Done()
			log.Info("shutting down, revoking held leases")

			destroyCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return cont.Destroy(destroyCtx)
		},
	}

	watchCmd.Flags().StringSliceVar(&oncePaths, "once", nil, "secret paths fetched once without renewal (repeatable)")
	watchCmd.Flags().StringSliceVar(&renewPaths, "renew", nil, "secret paths whose leases are kept renewed (repeatable)")
	watchCmd.Flags().StringSliceVar(&rotatePaths, "rotate", nil, "secret paths re-fetched before lease expiry (repeatable)")
	watchCmd.Flags().StringSliceVar(&rotateUnauthPaths, "rotate-unauthenticated", nil, "rotating secret paths fetched without a client token (repeatable)")
	watchCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 15*time.Second, "time allowed for lease revocation on shutdown")

	return watchCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Current(serviceName).String())
			return err
		},
	}
}

func collectSecrets(once, renew, rotate, rotateUnauth []string) []lease.RequestedSecret {
	var requested []lease.RequestedSecret
	for _, path := range once {
		requested = append(requested, lease.Once(path))
	}
	for _, path := range renew {
		requested = append(requested, lease.Renewable(path))
	}
	for _, path := range rotate {
		requested = append(requested, lease.Rotating(path))
	}
	for _, path := range rotateUnauth {
		requested = append(requested, lease.RotatingUnauthenticated(path))
	}
	return requested
}

func loadConfig(configFile string) (*config.Config, logger.Logger, error) {
	loader := config.NewViperLoader(configFile, defaultEnvPrefix)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}

	level, err := logger.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	format, err := logger.ParseLogFormat(cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewZapLogger(logger.Config{Level: level, Format: format})
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, log, nil
}

func logEvent(log logger.Logger, e event.Event) {
	meta := e.EventMeta()
	fields := []any{
		"path", meta.Secret.Path,
		"mode", meta.Secret.Mode.String(),
		"lease_id", meta.Lease.ID,
	}

	switch evt := e.(type) {
	case event.SecretLeaseCreated:
		log.Info("secret lease created", fields...)
	case event.SecretLeaseRotated:
		log.Info("secret rotated", fields...)
	case event.SecretLeaseExpired:
		log.Warn("secret lease expired", fields...)
	case event.SecretNotFound:
		log.Warn("secret not found", fields...)
	case event.SecretLeaseError:
		log.Error("secret lease error", append(fields, "error", evt.Err)...)
	case event.BeforeSecretLeaseRevocation:
		log.Debug("revoking secret lease", fields...)
	case event.AfterSecretLeaseRevocation:
		log.Info("secret lease revoked", fields...)
	default:
		log.Debug("lease lifecycle event", fields...)
	}
}
