// Command wireplan resolves a declaration file into a wiring plan and writes it as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Station-Manager/wireplan"
	"github.com/Station-Manager/wireplan/declfile"
	"github.com/Station-Manager/wireplan/dynamic"
	"github.com/Station-Manager/wireplan/dynamic/filewatch"
	"github.com/Station-Manager/wireplan/internal/config"
	"github.com/Station-Manager/wireplan/internal/logging"
	"github.com/Station-Manager/wireplan/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "wireplan:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("wireplan", flag.ContinueOnError)
	envFile := fs.String("env", ".env", "dotenv file read before flags are applied")
	decl := fs.String("decl", "", "declaration file (WIREPLAN_DECL_FILE)")
	out := fs.String("out", "", "plan output file, - for stdout (WIREPLAN_OUT_FILE)")
	metricsFile := fs.String("metrics-file", "", "write Prometheus metrics here on exit (WIREPLAN_METRICS_FILE)")
	watch := fs.Bool("watch", false, "re-resolve whenever the declaration file changes (WIREPLAN_WATCH)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Load(*envFile)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "decl":
			cfg.DeclFile = *decl
		case "out":
			cfg.OutFile = *out
		case "metrics-file":
			cfg.MetricsFile = *metricsFile
		case "watch":
			cfg.Watch = *watch
		}
	})

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if cfg.MetricsFile != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
				logger.Error("failed to write metrics", zap.String("file", cfg.MetricsFile), zap.Error(err))
			}
		}()
	}

	resolver := wireplan.NewResolver(
		wireplan.WithLogger(logger),
		wireplan.WithObserver(collector),
	)

	if !cfg.Watch {
		decls, err := declfile.Load(cfg.DeclFile)
		if err != nil {
			return err
		}
		return resolveAndWrite(resolver, decls, cfg.OutFile, stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchAndResolve(ctx, cfg, resolver, logger, stdout)
}

func watchAndResolve(ctx context.Context, cfg *config.Config, resolver *wireplan.Resolver, logger *zap.Logger, stdout io.Writer) error {
	w, err := filewatch.Watch[[]wireplan.ContextDescriptor](ctx, cfg.DeclFile, declfile.Parse,
		filewatch.WithLogger(logger),
		filewatch.WithDebounce(cfg.Debounce),
	)
	if err != nil {
		return err
	}

	cancel := w.Resource().OnChangeAndCurrent(func(c dynamic.Change[[]wireplan.ContextDescriptor]) {
		if err := resolveAndWrite(resolver, c.New, cfg.OutFile, stdout); err != nil {
			// Keep watching: the next save may fix the declarations.
			logger.Error("declarations rejected", zap.Int("errors", len(multierr.Errors(err))), zap.Error(err))
		}
	})
	defer cancel()

	logger.Info("watching declarations", zap.String("file", cfg.DeclFile))

	<-w.Done()
	logger.Info("stopped watching", zap.String("file", cfg.DeclFile))
	return nil
}

func resolveAndWrite(resolver *wireplan.Resolver, decls []wireplan.ContextDescriptor, out string, stdout io.Writer) error {
	plan, err := resolver.Resolve(decls)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	raw = append(raw, '\n')

	if out == "" || out == "-" {
		_, err = stdout.Write(raw)
		return err
	}
	return writeFileAtomic(out, raw)
}

// writeFileAtomic replaces path in one rename so a reader never sees a partial plan.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write plan: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}
