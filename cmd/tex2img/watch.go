package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/svinagrero/go-tex2img/internal/fileutil"
)

// Editors often emit a burst of events per save; re-render once the burst
// settles.
const watchDebounce = 200 * time.Millisecond

// runWatch renders each fragment file, then re-renders it whenever it
// changes. Runs until the context is cancelled.
func runWatch(ctx context.Context, args []string, env *Environment) error {
	flags, files, err := parseRenderFlags(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: watch needs at least one fragment file", ErrNoInput)
	}

	settings, err := buildSettings(flags)
	if err != nil {
		return err
	}

	jobs, err := resolveJobs(files, flags.output, flags.format)
	if err != nil {
		return err
	}

	// Initial render; failures are reported but do not stop the watch.
	printResults(renderBatch(ctx, settings, jobs, env), settings.quiet, settings.verbose, env)

	jobsByPath := make(map[string]renderJob, len(jobs))
	for _, job := range jobs {
		if !fileutil.FileExists(job.InputPath) {
			return fmt.Errorf("%w: %s", ErrReadInput, job.InputPath)
		}
		abs, err := filepath.Abs(job.InputPath)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrReadInput, job.InputPath, err)
		}
		jobsByPath[abs] = job
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directories: editors that replace files on save
	// (write to temp, rename) would otherwise drop the watch.
	watched := make(map[string]bool)
	for path := range jobsByPath {
		dir := filepath.Dir(path)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		watched[dir] = true
	}

	if !settings.quiet {
		fmt.Fprintf(env.Stdout, "Watching %d file(s), press Ctrl-C to stop\n", len(jobsByPath))
	}

	rerender := make(chan renderJob, len(jobsByPath))
	timers := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			job, tracked := jobsByPath[abs]
			if !tracked {
				continue
			}
			if t, ok := timers[abs]; ok {
				t.Stop()
			}
			timers[abs] = time.AfterFunc(watchDebounce, func() {
				rerender <- job
			})

		case job := <-rerender:
			result := renderOne(ctx, settings, job, env)
			printResults([]renderResult{result}, settings.quiet, settings.verbose, env)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(env.Stderr, "watch error: %v\n", err)
		}
	}
}
