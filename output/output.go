package output

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-publish-test-results/publish"
)

const (
	publishedRunCountKey = "BITRISE_PUBLISHED_TEST_RUN_COUNT"
	publishedRunNamesKey = "BITRISE_PUBLISHED_TEST_RUN_NAMES"
	publishStatusKey     = "BITRISE_TEST_RESULTS_PUBLISH_STATUS"
	publishSummaryKey    = "BITRISE_TEST_RESULTS_PUBLISH_SUMMARY_PATH"

	publishSummaryFileName = "test_results_publish_summary.json"
)

// OutputExporter exports files as step outputs, export.Exporter implements it.
type OutputExporter interface {
	ExportOutputFile(key, sourcePath, destinationPath string) error
}

// Exporter ...
type Exporter interface {
	ExportPublishSummary(summary publish.Summary)
	ExportPublishSummaryFile(deployDir string, summary publish.Summary) error
}

type exporter struct {
	envRepository  env.Repository
	logger         log.Logger
	outputExporter OutputExporter
	pathProvider   pathutil.PathProvider
	fileManager    fileutil.FileManager
}

// NewExporter ...
func NewExporter(envRepository env.Repository, logger log.Logger, outputExporter OutputExporter, pathProvider pathutil.PathProvider, fileManager fileutil.FileManager) Exporter {
	return &exporter{
		envRepository:  envRepository,
		logger:         logger,
		outputExporter: outputExporter,
		pathProvider:   pathProvider,
		fileManager:    fileManager,
	}
}

func (e exporter) ExportPublishSummary(summary publish.Summary) {
	status := "succeeded"
	if summary.HasWarnings() {
		status = "succeeded_with_warnings"
	}
	if err := e.envRepository.Set(publishStatusKey, status); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", publishStatusKey, err)
	}

	if err := e.envRepository.Set(publishedRunCountKey, strconv.Itoa(len(summary.PublishedRuns))); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", publishedRunCountKey, err)
	}

	var names []string
	for _, run := range summary.PublishedRuns {
		names = append(names, run.Name)
	}
	if err := e.envRepository.Set(publishedRunNamesKey, strings.Join(names, "\n")); err != nil {
		e.logger.Warnf("Failed to export: %s: %s", publishedRunNamesKey, err)
	}
}

type summaryFile struct {
	PublishedRuns []publishedRun `json:"published_runs"`
	Warnings      []warning      `json:"warnings"`
}

type publishedRun struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type warning struct {
	Kind    string `json:"kind"`
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

func (e exporter) ExportPublishSummaryFile(deployDir string, summary publish.Summary) error {
	content := summaryFile{
		PublishedRuns: []publishedRun{},
		Warnings:      []warning{},
	}
	for _, run := range summary.PublishedRuns {
		content.PublishedRuns = append(content.PublishedRuns, publishedRun{ID: run.ID, Name: run.Name, URL: run.URL})
	}
	for _, w := range summary.Warnings {
		content.Warnings = append(content.Warnings, warning{Kind: string(w.Kind), File: w.File, Message: w.Message})
	}

	bytes, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode publish summary: %w", err)
	}

	tmpDir, err := e.pathProvider.CreateTempDir("publish-summary")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	pth := filepath.Join(tmpDir, publishSummaryFileName)
	if err := e.fileManager.Write(pth, string(bytes), 0600); err != nil {
		return fmt.Errorf("failed to write publish summary: %w", err)
	}

	deployPth := filepath.Join(deployDir, publishSummaryFileName)
	if err := e.outputExporter.ExportOutputFile(publishSummaryKey, pth, deployPth); err != nil {
		return fmt.Errorf("failed to export %s: %w", publishSummaryKey, err)
	}

	return nil
}
