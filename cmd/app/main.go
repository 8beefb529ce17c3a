package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/opencfg/confcheck/internal/app"
	"github.com/opencfg/confcheck/internal/bundled"
	"github.com/opencfg/confcheck/internal/core/domain"
	"github.com/opencfg/confcheck/internal/core/usecase"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "confcheck",
		Usage: "Schema-aware validator for JWCC project configuration files",
		Commands: []*cli.Command{
			serveCommand(),
			validateCommand(),
			initCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: ":8080",
				Usage: "HTTP listen address",
			},
			&cli.StringFlag{
				Name:  "db-path",
				Value: "./confcheck.sqlite",
				Usage: "SQLite file path",
			},
			&cli.StringFlag{
				Name:    "config",
				Sources: cli.EnvVars("CONFCHECK_CONFIG"),
				Usage:   "Optional YAML config file, overridden by explicit flags",
			},
			&cli.StringFlag{
				Name:    "bootstrap-api-key",
				Sources: cli.EnvVars("CONFCHECK_BOOTSTRAP_API_KEY"),
				Usage:   "Optional API key to upsert at startup",
			},
			&cli.StringFlag{
				Name:    "bootstrap-tenant",
				Value:   "default",
				Sources: cli.EnvVars("CONFCHECK_BOOTSTRAP_TENANT"),
				Usage:   "Tenant for bootstrap API key",
			},
			&cli.StringFlag{
				Name:    "bootstrap-key-name",
				Value:   "bootstrap",
				Sources: cli.EnvVars("CONFCHECK_BOOTSTRAP_KEY_NAME"),
				Usage:   "Name for bootstrap API key",
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Sources: cli.EnvVars("CONFCHECK_WEBHOOK_URL"),
				Usage:   "Validation event webhook target URL",
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Sources: cli.EnvVars("CONFCHECK_WEBHOOK_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for outbound webhook requests",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, c *cli.Command) error {
	cfg := app.Config{
		Addr:             c.String("addr"),
		DBPath:           c.String("db-path"),
		BootstrapAPIKey:  c.String("bootstrap-api-key"),
		BootstrapTenant:  c.String("bootstrap-tenant"),
		BootstrapKeyName: c.String("bootstrap-key-name"),
		WebhookURL:       c.String("webhook-url"),
		WebhookSecret:    c.String("webhook-secret"),
	}

	if path := c.String("config"); path != "" {
		fileCfg, err := app.LoadFileConfig(path)
		if err != nil {
			return err
		}
		if fileCfg.Addr != "" && !c.IsSet("addr") {
			cfg.Addr = fileCfg.Addr
		}
		if fileCfg.DBPath != "" && !c.IsSet("db-path") {
			cfg.DBPath = fileCfg.DBPath
		}
		if fileCfg.Webhook.URL != "" && !c.IsSet("webhook-url") {
			cfg.WebhookURL = fileCfg.Webhook.URL
		}
		if fileCfg.Webhook.Secret != "" && !c.IsSet("webhook-secret") {
			cfg.WebhookSecret = fileCfg.Webhook.Secret
		}
	}

	server, closer, err := app.NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			log.Printf("close resources: %v", closeErr)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case sig := <-sigCh:
		log.Printf("received signal %s", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a JWCC document against a schema without the server",
		ArgsUsage: "<document>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "schema",
				Usage: "Schema file to validate against (defaults to the bundled project schema)",
			},
			&cli.StringFlag{
				Name:  "mode",
				Value: "strict",
				Usage: "Validation mode: strict or lenient",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the validation result as JSON",
			},
		},
		Action: runValidate,
	}
}

func runValidate(_ context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return cli.Exit("expected exactly one document path", 2)
	}
	docPath := c.Args().First()

	mode, err := domain.ParseMode(c.String("mode"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	schemaSrc := bundled.ProjectSchema
	if path := c.String("schema"); path != "" {
		schemaSrc, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
	}

	docSrc, err := os.ReadFile(docPath)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	result, err := usecase.ValidateSources(schemaSrc, docSrc, mode)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	if c.Bool("json") {
		out, err := json.MarshalIndent(map[string]any{
			"valid":      result.Valid(),
			"violations": result.Violations,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else if result.Valid() {
		fmt.Printf("%s: valid\n", docPath)
	} else {
		for _, v := range result.Violations {
			fmt.Printf("%s: %s: %s\n", strings.Join(v.Path, "."), v.Kind, v.Message)
		}
	}

	if !result.Valid() {
		return cli.Exit("", 1)
	}
	return nil
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write the bundled project schema and default configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Value: ".",
				Usage: "Directory to write the files into",
			},
		},
		Action: runInit,
	}
}

func runInit(_ context.Context, c *cli.Command) error {
	dir := c.String("dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{bundled.SchemaFileName, bundled.ProjectSchema},
		{bundled.ConfigFileName, bundled.DefaultProjectConfig},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil {
			return cli.Exit(fmt.Sprintf("%s already exists, refusing to overwrite", path), 1)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}
