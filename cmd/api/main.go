// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/your-org/caster-store/internal/app"
	"github.com/your-org/caster-store/internal/config"
	"github.com/your-org/caster-store/internal/pkg/auth"
	"github.com/your-org/caster-store/internal/pkg/email"
	"github.com/your-org/caster-store/internal/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cliApp := &cli.App{
		Name:  "caster-store",
		Usage: "industrial caster storefront API",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "create or update the database schema",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "fresh", Usage: "drop every table first (not in production)"},
				},
				Action: migrate,
			},
			{
				Name:   "seed",
				Usage:  "load the starter catalog and the admin account",
				Action: seed,
			},
			{
				Name:  "import-products",
				Usage: "import products from a catalog CSV export",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "path to the CSV file", Required: true},
				},
				Action: importProducts,
			},
			{
				Name:      "hash-password",
				Usage:     "print the bcrypt hash of a password",
				ArgsUsage: "<password>",
				Action:    hashPassword,
			},
			{
				Name:  "send-test-email",
				Usage: "send a test message through the configured SMTP relay",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "to", Usage: "recipient address", Required: true},
				},
				Action: sendTestEmail,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("Command failed")
	}
}

// bootstrap loads configuration, sets up logging and wires the application
func bootstrap() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.Logging)

	logrus.WithFields(logrus.Fields{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
		"driver":      cfg.Database.Driver,
	}).Infof("Starting %s", cfg.App.Name)

	return app.New(cfg)
}

func serve(c *cli.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Config.Database.Driver == config.DriverMemory || a.Config.IsDevelopment() {
		if err := a.Migrate(false); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		if err := a.Seed(c.Context); err != nil {
			logrus.WithError(err).Warn("Data seeding failed")
		}
	}

	server := a.Server()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(server.Start)
	eg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logrus.Info("Server shutdown completed")
	return nil
}

func migrate(c *cli.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.Migration == nil {
		logrus.Info("Memory driver has no schema to migrate")
		return nil
	}
	return a.Migrate(c.Bool("fresh"))
}

func seed(c *cli.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Seed(c.Context)
}

func importProducts(c *cli.Context) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	result, err := a.Importer.Import(c.Context, file)
	if err != nil {
		return err
	}

	for _, rowErr := range result.Errors {
		logrus.WithFields(logrus.Fields{"line": rowErr.Line, "sku": rowErr.SKU}).Warn(rowErr.Error)
	}
	logrus.WithFields(logrus.Fields{
		"rows":    result.TotalRows,
		"created": result.ProductsCreated,
		"updated": result.ProductsUpdated,
		"failed":  len(result.Errors),
	}).Info("Catalog import finished")
	return nil
}

func hashPassword(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: caster-store hash-password <password>", 2)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordManager(cfg)

	hash, err := passwords.HashPassword(c.Args().First())
	if err != nil {
		return err
	}
	if err := passwords.VerifyPassword(c.Args().First(), hash); err != nil {
		return fmt.Errorf("hash verification failed: %w", err)
	}

	fmt.Fprintln(c.App.Writer, hash)
	return nil
}

func sendTestEmail(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Setup(cfg.Logging)

	sender := email.NewSMTPSender(cfg.Email)
	return sender.Send(c.Context, &email.Email{
		To:          []string{c.String("to")},
		Subject:     fmt.Sprintf("Test email from %s", cfg.App.Name),
		HTMLContent: "<h1>Success!</h1><p>SMTP delivery is working.</p>",
		Type:        "test",
	})
}
