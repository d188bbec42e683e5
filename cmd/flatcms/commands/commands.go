package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/flatcms/core/internal/adapters/repository"
	"github.com/flatcms/core/internal/adapters/session"
	"github.com/flatcms/core/internal/application/services"
	"github.com/flatcms/core/internal/domain/entities"
	"github.com/flatcms/core/internal/infrastructure/config"
	"github.com/flatcms/core/internal/infrastructure/logger"
	"github.com/flatcms/core/internal/infrastructure/server"
	"github.com/flatcms/core/internal/ports"
)

// Version is overridden at build time with -ldflags
var Version = "dev"

const sessionSweepInterval = time.Minute

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the flatcms server",
		Long:  "Start the flatcms HTTP server using configuration from the environment and an optional .env file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Credential management commands",
		Long:  "Hash passwords and manage entries in the credentials file",
	}

	hashCmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the bcrypt hash of a password",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			cost, _ := cmd.Flags().GetInt("cost")

			hash, err := services.HashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	hashCmd.Flags().String("password", "", "Password to hash (required)")
	hashCmd.Flags().Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	_ = hashCmd.MarkFlagRequired("password")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a user in the credentials file",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			cost, _ := cmd.Flags().GetInt("cost")
			file, _ := cmd.Flags().GetString("file")

			if username == "" || password == "" {
				return errors.New("username and password are required")
			}

			if file == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				file = cfg.UsersFile()
			}

			return addUser(file, username, password, cost, cmd)
		},
	}
	addCmd.Flags().String("username", "", "Username (required)")
	addCmd.Flags().String("password", "", "Password (required)")
	addCmd.Flags().Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	addCmd.Flags().String("file", "", "Credentials file (defaults to the configured users file)")

	userCmd.AddCommand(hashCmd)
	userCmd.AddCommand(addCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print flatcms version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flatcms %s\n", Version)
		},
	}
}

func addUser(file, username, password string, cost int, cmd *cobra.Command) error {
	hash, err := services.HashPassword(password, cost)
	if err != nil {
		return err
	}

	if err := repository.SaveCredential(file, entities.Credential{Username: username, PasswordHash: hash}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "User %s saved to %s\n", username, file)
	return nil
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	documents, err := repository.NewDocumentRepository(cfg.DataDir())
	if err != nil {
		return fmt.Errorf("failed to open data directory: %w", err)
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer closeSessions()

	srv, err := server.New(cfg, server.Dependencies{
		Documents:   documents,
		Credentials: repository.NewCredentialRepository(cfg.UsersFile()),
		Sessions:    sessions,
	}, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Starting flatcms",
		"address", cfg.Server.GetAddr(),
		"environment", cfg.App.Environment,
		"data_dir", cfg.DataDir(),
		"session_store", cfg.Session.Store,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(cfg.Server.GetAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		appLogger.Infow("Received shutdown signal", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func newSessionStore(ctx context.Context, cfg *config.Config) (ports.SessionStore, func(), error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		rdb, err := session.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(rdb, cfg.Session.TTL), func() { _ = rdb.Close() }, nil
	default:
		store := session.NewMemoryStore(cfg.Session.TTL)
		sweepCtx, cancel := context.WithCancel(ctx)
		go store.Run(sweepCtx, sessionSweepInterval)
		return store, cancel, nil
	}
}
