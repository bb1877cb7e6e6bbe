package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bayduroff/tableService/internal/config"
	"github.com/bayduroff/tableService/internal/datasource"
	"github.com/bayduroff/tableService/internal/datasource/file"
	"github.com/bayduroff/tableService/internal/datasource/httpds"
	"github.com/bayduroff/tableService/internal/document"
	"github.com/bayduroff/tableService/internal/metrics"
	"github.com/bayduroff/tableService/internal/metrics/datadog"
	"github.com/bayduroff/tableService/internal/metrics/prompush"
	"github.com/bayduroff/tableService/internal/pipeline"
	"github.com/bayduroff/tableService/internal/storage"
)

// job is everything a subcommand needs, built from one config file.
type job struct {
	orch *pipeline.Orchestrator
}

// loadJobConfig loads and validates the config at path, printing every issue
// to w. Warnings pass; any error fails. Without needDB the storage section is
// not checked.
func loadJobConfig(w io.Writer, path string, needDB bool) (config.Pipeline, error) {
	p, err := config.Load(path)
	if err != nil {
		return config.Pipeline{}, err
	}
	issues := config.ValidatePipeline(p)
	if !needDB {
		kept := issues[:0]
		for _, iss := range issues {
			if !strings.HasPrefix(iss.Path, "storage.") {
				kept = append(kept, iss)
			}
		}
		issues = kept
	}
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return config.Pipeline{}, fmt.Errorf("configuration is invalid: %s", path)
	}
	return p, nil
}

// withJob builds the job for cmd, runs fn and releases the database and
// metrics backend afterwards, whatever fn returned. The database is opened
// only when needDB is set; commands that just read the feed never touch it.
func withJob(cmd *cobra.Command, g *globals, needDB bool, fn func(j *job) error) (err error) {
	p, err := loadJobConfig(cmd.ErrOrStderr(), g.cfgPath, needDB)
	if err != nil {
		return err
	}

	logOut := io.Discard
	if g.verbose {
		logOut = cmd.ErrOrStderr()
	}
	logger := log.New(logOut, "", log.LstdFlags)

	flush := setupMetrics(logger, p)
	defer flush()

	start := time.Now()
	var repo storage.Repository
	kind := "none"
	if needDB {
		repo, err = storage.New(cmd.Context(), storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DB.DSN})
		if err != nil {
			return err
		}
		defer repo.Close()
		kind = repo.Kind()
	}

	logger.Printf("pipeline: job=%s source=%s storage=%s root=%s",
		p.Job, p.Source.Kind, kind, p.Document.RootTag)

	j := &job{
		orch: pipeline.New(document.NewFetcher(newSource(p.Source), logger), repo, pipeline.Options{
			Job:     p.Job,
			RootTag: p.Document.RootTag,
			Rules:   p.Schema.Rules(),
			Logger:  logger,
		}),
	}
	defer func() {
		logger.Printf("completed in %s err=%v", time.Since(start).Truncate(time.Millisecond), err)
	}()
	return fn(j)
}

// newSource maps the source section onto a datasource. Kinds were checked by
// ValidatePipeline.
func newSource(s config.Source) datasource.Source {
	if s.Kind == "http" {
		headers := make(http.Header, len(s.HTTP.Headers))
		for k, v := range s.HTTP.Headers {
			headers.Set(k, v)
		}
		client := httpds.NewClient(httpds.Config{
			Timeout:            time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
			Headers:            headers,
		})
		return httpds.NewSource(client, s.HTTP.URL)
	}
	return file.NewLocal(s.File.Path)
}

// setupMetrics installs the configured backend and returns the function that
// flushes it. A backend that fails to start leaves metrics disabled.
func setupMetrics(logger *log.Logger, p config.Pipeline) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch p.Metrics.Backend {
	case "prometheus", "prom", "pushgateway":
		b, err = prompush.NewBackend(p.Job, p.Metrics.PushgatewayURL)
	case "datadog", "dogstatsd":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       p.Metrics.DatadogAddr,
			Namespace:  p.Metrics.Namespace,
			GlobalTags: p.Metrics.Tags,
		})
	default:
		logger.Printf("metrics: disabled (backend=%q)", p.Metrics.Backend)
		return func() {}
	}
	if err != nil {
		logger.Printf("metrics: failed to init %s backend: %v; using nop", p.Metrics.Backend, err)
		return func() {}
	}

	logger.Printf("metrics: backend=%s job=%s", p.Metrics.Backend, p.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			logger.Printf("metrics: flush error: %v", err)
		}
	}
}

func printResult(w io.Writer, res pipeline.TableResult) {
	fmt.Fprintf(w, "%s: %s, %d rows upserted on %s (%s)\n",
		res.Table, res.Outcome, res.Rows, res.Conflict, res.Duration.Truncate(time.Millisecond))
	if res.Skipped > 0 {
		fmt.Fprintf(w, "%s: %d records skipped without %s\n", res.Table, res.Skipped, res.Conflict)
	}
}
