package step

import (
	"context"
	"fmt"
	"strings"

	"code.cloudfoundry.org/clock"
	"github.com/bitrise-io/bitrise/configs"
	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-publish-test-results/models"
	"github.com/bitrise-steplib/steps-publish-test-results/output"
	"github.com/bitrise-steplib/steps-publish-test-results/publish"
	"github.com/bitrise-steplib/steps-publish-test-results/reader"
	"github.com/bitrise-steplib/steps-publish-test-results/testaddon"
)

// Input ...
type Input struct {
	// Publish command
	TestRunner            string `env:"test_runner"`
	ResultFiles           string `env:"result_files"`
	TestResults           string `env:"test_results"`
	MergeResults          string `env:"merge_results"`
	Platform              string `env:"platform"`
	Configuration         string `env:"configuration"`
	RunTitle              string `env:"run_title"`
	PublishRunAttachments string `env:"publish_run_attachments"`
	MaxParallelUploads    int    `env:"max_parallel_uploads"`

	// Build and release correlation
	TeamProject           string `env:"team_project"`
	RequestedFor          string `env:"requested_for"`
	BuildID               int    `env:"build_id"`
	BuildURI              string `env:"build_uri"`
	ReleaseURI            string `env:"release_uri"`
	ReleaseEnvironmentURI string `env:"release_environment_uri"`

	// Debug
	VerboseLog bool `env:"verbose_log,opt[yes,no]"`

	// Output export
	DeployDir string `env:"BITRISE_DEPLOY_DIR"`
}

func (i Input) properties() map[string]string {
	return map[string]string{
		PropertyType:                  i.TestRunner,
		PropertyMergeResults:          i.MergeResults,
		PropertyPlatform:              i.Platform,
		PropertyConfiguration:         i.Configuration,
		PropertyRunTitle:              i.RunTitle,
		PropertyPublishRunAttachments: i.PublishRunAttachments,
		PropertyResultFiles:           i.ResultFiles,
	}
}

// Config ...
type Config struct {
	Request     publish.Request
	RunContext  models.RunContext
	TeamProject string

	TestResultDir string
	MaxParallel   int
	DeployDir     string
}

// ConfigParser ...
type ConfigParser struct {
	inputParser   stepconf.InputParser
	envRepository env.Repository
	logger        log.Logger
	pathProvider  pathutil.PathProvider
}

// NewConfigParser ...
func NewConfigParser(inputParser stepconf.InputParser, envRepository env.Repository, logger log.Logger, pathProvider pathutil.PathProvider) ConfigParser {
	return ConfigParser{
		inputParser:   inputParser,
		envRepository: envRepository,
		logger:        logger,
		pathProvider:  pathProvider,
	}
}

// ProcessConfig ...
func (p ConfigParser) ProcessConfig() (Config, error) {
	var input Input
	if err := p.inputParser.Parse(&input); err != nil {
		return Config{}, err
	}

	stepconf.Print(input)
	p.logger.Println()

	p.logger.EnableDebugLog(input.VerboseLog)

	request, err := LoadRequest(input.properties(), input.TestResults)
	if err != nil {
		return Config{}, err
	}

	if input.MaxParallelUploads < 0 {
		return Config{}, fmt.Errorf("invalid max_parallel_uploads (%d), should not be negative", input.MaxParallelUploads)
	}

	// Without a build there is nothing to attach a flavor or platform to.
	platform, configuration := request.Platform, request.BuildConfiguration
	if input.BuildID == 0 {
		platform, configuration = "", ""
	}

	releaseURI, releaseEnvironmentURI := "", ""
	if strings.TrimSpace(input.ReleaseURI) != "" {
		releaseURI, releaseEnvironmentURI = input.ReleaseURI, input.ReleaseEnvironmentURI
	}

	runContext := models.NewRunContext(input.RequestedFor, platform, configuration, input.BuildID, input.BuildURI, releaseURI, releaseEnvironmentURI)

	testResultDir := p.envRepository.Get(configs.BitrisePerStepTestResultDirEnvKey)
	if testResultDir == "" {
		testResultDir, err = p.pathProvider.CreateTempDir("test-results")
		if err != nil {
			return Config{}, fmt.Errorf("failed to create test result dir: %w", err)
		}
		p.logger.Warnf("%s is not set, test runs are written to %s", configs.BitrisePerStepTestResultDirEnvKey, testResultDir)
	}

	return Config{
		Request:       request,
		RunContext:    runContext,
		TeamProject:   input.TeamProject,
		TestResultDir: testResultDir,
		MaxParallel:   input.MaxParallelUploads,
		DeployDir:     input.DeployDir,
	}, nil
}

// ReaderRegistry ...
type ReaderRegistry interface {
	Reader(runner string) (reader.Reader, error)
}

// TestResultsPublisher ...
type TestResultsPublisher struct {
	logger         log.Logger
	clock          clock.Clock
	registry       ReaderRegistry
	testAddon      testaddon.TestAddon
	fileManager    fileutil.FileManager
	pathChecker    pathutil.PathChecker
	outputExporter output.Exporter
}

// NewTestResultsPublisher ...
func NewTestResultsPublisher(logger log.Logger, clock clock.Clock, registry ReaderRegistry, testAddon testaddon.TestAddon, fileManager fileutil.FileManager, pathChecker pathutil.PathChecker, outputExporter output.Exporter) TestResultsPublisher {
	return TestResultsPublisher{
		logger:         logger,
		clock:          clock,
		registry:       registry,
		testAddon:      testAddon,
		fileManager:    fileManager,
		pathChecker:    pathChecker,
		outputExporter: outputExporter,
	}
}

// Result ...
type Result struct {
	Summary publish.Summary
}

// Run publishes the configured result files. The returned error is either a reader lookup
// failure or the cancellation of ctx, publishing problems end up in the Result's warnings.
func (s TestResultsPublisher) Run(ctx context.Context, cfg Config) (Result, error) {
	resultReader, err := s.registry.Reader(cfg.Request.RunnerName)
	if err != nil {
		return Result{}, err
	}
	resultReader.SetAddResultsFileToRunLevelAttachments(cfg.Request.PublishRunLevelAttachments)

	s.logger.Infof("Publishing %d %s result file(s)", len(cfg.Request.ResultFiles), resultReader.Name())
	if cfg.Request.MergeResults {
		s.logger.Printf("Results are merged into a single test run")
	}
	if cfg.RunContext.IsRelease() {
		s.logger.Printf("Release: %s", cfg.RunContext.ReleaseURI)
	}

	publisher := testaddon.NewPublisher(cfg.TestResultDir, s.testAddon, s.fileManager, s.pathChecker, s.logger)
	orchestrator := publish.NewOrchestrator(s.logger, s.clock, publisher, cfg.MaxParallel)

	summary, err := orchestrator.Publish(ctx, cfg.Request, resultReader, cfg.RunContext)
	if err != nil {
		return Result{}, err
	}

	s.logger.Println()
	if len(summary.PublishedRuns) == 0 {
		s.logger.Warnf("No test run was published")
	} else {
		s.logger.Donef("%d test run(s) published", len(summary.PublishedRuns))
	}

	return Result{Summary: summary}, nil
}

// ExportOpts ...
type ExportOpts struct {
	Summary   publish.Summary
	DeployDir string
}

// Export ...
func (s TestResultsPublisher) Export(opts ExportOpts) error {
	s.logger.Println()
	s.logger.Infof("Export outputs")

	s.outputExporter.ExportPublishSummary(opts.Summary)

	if opts.DeployDir == "" {
		return nil
	}
	if err := s.outputExporter.ExportPublishSummaryFile(opts.DeployDir, opts.Summary); err != nil {
		return fmt.Errorf("failed to export publish summary: %w", err)
	}

	return nil
}
