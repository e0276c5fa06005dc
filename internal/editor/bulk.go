package editor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/bnema/addonctl/internal/addons"
)

// BulkReport aggregates the outcome of a per-addon network operation
type BulkReport struct {
	Succeeded int
	Failed    int
	Updated   int      // AutoUpdate only: manifests that changed
	Skipped   int      // AutoUpdate only: entries excluded from auto-update
	Errors    []string // "<name>: <error>" per failure
}

type fetchResult struct {
	index    int
	url      string
	manifest *addons.Manifest
	err      error
}

// fetchAll fetches the manifest of every listed entry concurrently. Every
// fetch settles independently; one failure never cancels the others.
func (e *Editor) fetchAll(ctx context.Context, targets []fetchResult) []fetchResult {
	var g errgroup.Group
	for i := range targets {
		g.Go(func() error {
			targets[i].manifest, targets[i].err = e.fetchManifest(ctx, targets[i].url)
			return nil
		})
	}
	_ = g.Wait()
	return targets
}

// CheckHealth fetches every entry's manifest and sets its status. Allowed in
// read-only mode since statuses are transient.
func (e *Editor) CheckHealth(ctx context.Context) (*BulkReport, error) {
	e.mu.Lock()
	if !e.gate.acquire() {
		e.mu.Unlock()
		return nil, addons.ErrBusy
	}
	targets := make([]fetchResult, len(e.collection))
	for i := range e.collection {
		e.collection[i].Status = addons.StatusChecking
		targets[i] = fetchResult{index: i, url: e.collection[i].TransportURL}
	}
	e.mu.Unlock()

	results := e.fetchAll(ctx, targets)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gate.release()

	report := &BulkReport{}
	for _, r := range results {
		if r.index >= len(e.collection) || e.collection[r.index].TransportURL != r.url {
			continue
		}
		entry := &e.collection[r.index]
		if r.err != nil {
			entry.Status = addons.StatusError
			entry.Err = r.err.Error()
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", entry.Name(), r.err))
			continue
		}
		entry.Status = addons.StatusOK
		entry.Err = ""
		report.Succeeded++
	}

	e.log.Info("Health check complete", "ok", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// AutoUpdate refetches the manifest of every entry not excluded from
// auto-update and applies the changed ones as a single recorded action.
// Local names are kept.
func (e *Editor) AutoUpdate(ctx context.Context) (*BulkReport, error) {
	e.mu.Lock()
	if err := e.begin(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	report := &BulkReport{}
	var targets []fetchResult
	for i := range e.collection {
		if e.collection[i].DisableAutoUpdate {
			report.Skipped++
			continue
		}
		targets = append(targets, fetchResult{index: i, url: e.collection[i].TransportURL})
	}
	e.mu.Unlock()

	results := e.fetchAll(ctx, targets)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gate.release()

	var changed []fetchResult
	for _, r := range results {
		if r.index >= len(e.collection) || e.collection[r.index].TransportURL != r.url {
			continue
		}
		entry := &e.collection[r.index]
		if r.err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", entry.Name(), r.err))
			continue
		}
		report.Succeeded++
		if r.manifest.Version != entry.Manifest.Version {
			changed = append(changed, r)
		}
	}

	if len(changed) == 0 {
		e.log.Info("Auto-update complete", "updated", 0, "failed", report.Failed)
		return report, nil
	}

	err := e.mutate(fmt.Sprintf("Updated %s", plural(len(changed))), func() {
		for _, r := range changed {
			entry := &e.collection[r.index]
			manifest := *r.manifest
			if entry.Manifest.Name != "" {
				manifest.Name = entry.Manifest.Name
			}
			entry.Manifest = manifest
			entry.Status = addons.StatusOK
			entry.Err = ""
		}
	})
	if err != nil {
		return nil, err
	}
	report.Updated = len(changed)

	e.log.Info("Auto-update complete", "updated", report.Updated, "failed", report.Failed)
	return report, nil
}
