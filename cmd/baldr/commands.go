package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmcdole/baldr/internal/adapter"
	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/mediaserver"
	"github.com/mmcdole/baldr/internal/mediaserver/local"
	"github.com/mmcdole/baldr/internal/mediaserver/server"
	"github.com/mmcdole/baldr/internal/mediauri"
	"github.com/mmcdole/baldr/internal/resolver"
	"github.com/mmcdole/baldr/internal/search"
	"github.com/mmcdole/baldr/internal/store"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"resolve": runResolve,
	"sample":  runSample,
	"parts":   runParts,
	"search":  runSearch,
	"play":    runPlay,
	"import":  runImport,
	"serve":   runServe,
	"probe":   runProbe,
	"config":  runConfig,
	"version": runVersion,
}

// app holds what commands share. The source is opened on first use.
type app struct {
	cfg    *adapter.Config
	logger *slog.Logger
	out    *printer

	source   mediaserver.MediaSource
	resolver *resolver.Resolver
}

func (a *app) openSource() (mediaserver.MediaSource, error) {
	if a.source != nil {
		return a.source, nil
	}
	src, err := mediaserver.NewClient(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.source = src
	return src, nil
}

func (a *app) openResolver() (*resolver.Resolver, error) {
	if a.resolver != nil {
		return a.resolver, nil
	}
	src, err := a.openSource()
	if err != nil {
		return nil, err
	}
	a.resolver = resolver.New(src, store.NewSession(),
		resolver.WithLogger(a.logger),
		resolver.WithBestEffort(a.cfg.Resolver.BestEffort),
		resolver.WithConcurrency(a.cfg.Resolver.Concurrency),
		resolver.WithMediaBaseURL(a.cfg.Server.MediaURL),
	)
	return a.resolver, nil
}

// openIndex opens the local index regardless of the configured source
func (a *app) openIndex() (*local.Index, error) {
	if idx, ok := a.source.(*local.Index); ok {
		return idx, nil
	}
	idx, err := local.Open(a.cfg.Index.Path, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", a.cfg.Index.Path, err)
	}
	if a.source != nil {
		a.source.Close()
	}
	a.source = idx
	return idx, nil
}

func (a *app) close() {
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			a.logger.Warn("failed to close source", "error", err)
		}
	}
}

func needArgs(name string, args []string, min int) error {
	if len(args) < min {
		return fmt.Errorf("%s: expected at least %d argument(s)", name, min)
	}
	return nil
}

func runResolve(ctx context.Context, a *app, args []string) error {
	if err := needArgs("resolve", args, 1); err != nil {
		return err
	}
	r, err := a.openResolver()
	if err != nil {
		return err
	}
	res, err := r.Resolve(ctx, args...)
	if err != nil {
		return err
	}
	return a.out.printResult(res)
}

func runSample(ctx context.Context, a *app, args []string) error {
	if err := needArgs("sample", args, 1); err != nil {
		return err
	}
	r, err := a.openResolver()
	if err != nil {
		return err
	}

	var samples []*domain.Sample
	for _, raw := range args {
		u, err := mediauri.Parse(raw)
		if err != nil {
			return err
		}
		if u.HasFragment() {
			s, err := r.ResolveSample(ctx, raw)
			if err != nil {
				return err
			}
			samples = append(samples, s)
			continue
		}
		asset, err := r.ResolveSingle(ctx, raw)
		if err != nil {
			return err
		}
		if asset.Samples == nil {
			return fmt.Errorf("%s is a %s and has no samples", asset.URI, asset.Category())
		}
		samples = append(samples, asset.Samples.All()...)
	}
	return a.out.printSamples(samples)
}

func runParts(ctx context.Context, a *app, args []string) error {
	if err := needArgs("parts", args, 1); err != nil {
		return err
	}
	r, err := a.openResolver()
	if err != nil {
		return err
	}
	sel, err := r.ResolveParts(ctx, args[0])
	if err != nil {
		return err
	}
	return a.out.printParts(sel)
}

func runSearch(ctx context.Context, a *app, args []string) error {
	if err := needArgs("search", args, 1); err != nil {
		return err
	}
	query := args[0]

	if len(args) > 1 {
		r, err := a.openResolver()
		if err != nil {
			return err
		}
		res, err := r.Resolve(ctx, args[1:]...)
		if err != nil {
			return err
		}
		return a.out.printMatches(search.FilterAssets(query, res.Assets))
	}

	src, err := a.openSource()
	if err != nil {
		return err
	}
	entries, err := src.Titles(ctx)
	if err != nil {
		return err
	}
	return a.out.printEntries(search.RankTitles(query, entries))
}

func runPlay(ctx context.Context, a *app, args []string) error {
	if err := needArgs("play", args, 1); err != nil {
		return err
	}
	r, err := a.openResolver()
	if err != nil {
		return err
	}
	s, err := r.ResolveSample(ctx, args[0])
	if err != nil {
		return err
	}
	launcher := adapter.NewLauncher(a.cfg.Player, a.logger)
	if err := launcher.Play(s); err != nil {
		return err
	}
	a.out.success("Playing %s", s.DisplayTitle())
	return nil
}

func runImport(ctx context.Context, a *app, args []string) error {
	if err := needArgs("import", args, 1); err != nil {
		return err
	}
	idx, err := a.openIndex()
	if err != nil {
		return err
	}
	result, err := idx.Import(args...)
	if err != nil {
		return err
	}
	if a.out.json {
		return a.out.encode(result.Imported)
	}
	a.out.success("Imported %d asset(s) into %s", len(result.Imported), a.cfg.Index.Path)
	for file, err := range result.Failed {
		fmt.Fprintf(a.out.w, "%s %s: %v\n", a.out.render(ErrorStyle, "failed"), file, err)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d file(s) failed to import", len(result.Failed))
	}
	return nil
}

func runServe(ctx context.Context, a *app, args []string) error {
	idx, err := a.openIndex()
	if err != nil {
		return err
	}
	n, err := idx.Count(ctx)
	if err != nil {
		return err
	}
	a.out.success("Serving %d asset(s) on http://%s%s", n, a.cfg.Server.Listen, server.BasePath)
	return server.New(idx, a.logger, server.WithCompression(a.cfg.Server.Gzip)).Run(ctx, a.cfg.Server.Listen)
}

func runProbe(ctx context.Context, a *app, args []string) error {
	url := a.cfg.Server.URL
	if len(args) > 0 {
		url = args[0]
	}
	n, err := mediaserver.ProbeServer(ctx, url, a.logger)
	if err != nil {
		return err
	}
	if a.out.json {
		return a.out.encode(map[string]any{"url": url, "count": n})
	}
	a.out.success("%s serves %d asset(s)", url, n)
	return nil
}

func runConfig(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 || args[0] != "save" {
		return errors.New("usage: baldr config save")
	}
	if err := adapter.SaveConfig(a.cfg); err != nil {
		return err
	}
	a.out.success("Configuration saved")
	return nil
}

func runVersion(ctx context.Context, a *app, args []string) error {
	fmt.Fprintf(a.out.w, "baldr %s\n", Version)
	return nil
}
