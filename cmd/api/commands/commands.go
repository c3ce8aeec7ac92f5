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

	"github.com/focuswin/core/internal/adapters/cache"
	"github.com/focuswin/core/internal/adapters/notify"
	"github.com/focuswin/core/internal/adapters/repository"
	"github.com/focuswin/core/internal/adapters/repository/gormrepo"
	"github.com/focuswin/core/internal/application/services"
	"github.com/focuswin/core/internal/infrastructure/config"
	"github.com/focuswin/core/internal/infrastructure/database"
	"github.com/focuswin/core/internal/infrastructure/logger"
	"github.com/focuswin/core/internal/infrastructure/metrics"
	"github.com/focuswin/core/internal/infrastructure/server"
	"github.com/focuswin/core/internal/ports"
)

// Build information, set with -ldflags at release time
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "development"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the FocusWin API server",
		Long:  "Start the FocusWin API server with all configured routes and middleware",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage postgres schema migrations (up, down, version). The sqlite store migrates itself on open.",
	}

	var steps int

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Run up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration("up", steps)
		},
	}
	upCmd.Flags().IntVar(&steps, "steps", 0, "Number of migrations to apply (0 applies all)")

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Run down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration("down", steps)
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 0, "Number of migrations to revert (0 reverts all)")

	migrateCmd.AddCommand(upCmd, downCmd, &cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			if email == "" || password == "" {
				return errors.New("email and password are required")
			}
			if name == "" {
				name = email
			}

			return createUser(cmd.Context(), name, email, password)
		},
	}

	createUserCmd.Flags().String("name", "", "Display name (defaults to the email)")
	createUserCmd.Flags().String("email", "", "User email (required)")
	createUserCmd.Flags().String("password", "", "User password (required)")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print FocusWin version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("FocusWin %s\n", Version)
			fmt.Printf("Build Date: %s\n", BuildDate)
			fmt.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}

// openStore opens the configured storage backend
func openStore(cfg *config.Config, appLogger *logger.Logger) (ports.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := gormrepo.Open(cfg.Database.GetDSN(), appLogger)
		if err != nil {
			return nil, err
		}
		return gormrepo.NewStore(db), nil
	default:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			changed, err := db.Migrate("up", 0)
			if err != nil {
				_ = db.Close()
				return nil, err
			}
			appLogger.Infow("schema migrated", "changed", changed)
		}
		return repository.NewStore(db), nil
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = appLogger.Close() }()

	store, err := openStore(cfg, appLogger)
	if err != nil {
		appLogger.Errorw("failed to open store", "driver", cfg.Database.Driver, "error", err)
		return err
	}
	defer func() { _ = store.Close() }()

	deps := server.Dependencies{
		Store:      store,
		Dispatcher: notify.NewDispatcher(cfg.SMTP, appLogger.WithComponent("notify")),
	}

	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		cancel()
		if err != nil {
			// Lookups fall back to the store without a cache.
			appLogger.Warnw("redis unavailable, continuing without cache", "error", err)
		} else {
			redisCache := cache.NewRedisCache(client)
			defer func() { _ = redisCache.Close() }()
			deps.Cache = redisCache
		}
	}

	srv, err := server.New(cfg, deps, appLogger)
	if err != nil {
		appLogger.Errorw("failed to initialize server", "error", err)
		return err
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Infow("starting FocusWin API server",
		"address", address,
		"environment", cfg.App.Environment,
		"driver", cfg.Database.Driver,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
			appLogger.Errorw("server failed", "error", err)
			return err
		}
		return nil
	case sig := <-quit:
		appLogger.Infow("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Errorw("graceful shutdown failed", "error", err)
		return err
	}
	appLogger.Infow("server stopped")
	return nil
}

func openPostgres() (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("migrations apply to the postgres driver only, configured driver is %q", cfg.Database.Driver)
	}
	return database.New(cfg.Database)
}

func runMigration(direction string, steps int) error {
	db, err := openPostgres()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	changed, err := db.Migrate(direction, steps)
	if err != nil {
		return err
	}

	if !changed {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
	return nil
}

func showMigrationVersion() error {
	db, err := openPostgres()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	version, dirty, err := db.MigrationVersion()
	if err != nil {
		return err
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
	return nil
}

func createUser(ctx context.Context, name, email, password string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = appLogger.Close() }()

	store, err := openStore(cfg, appLogger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	authService := services.NewAuthService(store.Users(), nil, cfg.JWT, 0, metrics.New(), appLogger.WithComponent("auth"))
	resp, err := authService.Signup(ctx, ports.SignupRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User created successfully:\n")
	fmt.Printf("  ID: %s\n", resp.User.ID)
	fmt.Printf("  Name: %s\n", resp.User.Name)
	fmt.Printf("  Email: %s\n", resp.User.Email)
	return nil
}
