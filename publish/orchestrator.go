package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"code.cloudfoundry.org/clock"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-publish-test-results/models"
	"github.com/bitrise-steplib/steps-publish-test-results/reader"
	"golang.org/x/sync/errgroup"
)

// Publisher creates and populates test runs on the test management service.
// It must support concurrent calls for independent runs.
type Publisher interface {
	StartTestRun(ctx context.Context, run models.TestRun) (models.PublishedRun, error)
	AddResults(ctx context.Context, run models.PublishedRun, results []models.CaseResult) error
	EndTestRun(ctx context.Context, run models.PublishedRun, success bool) error
}

// Summary lists the published runs and the contained problems of a publish invocation.
type Summary struct {
	PublishedRuns []models.PublishedRun
	Warnings      []Warning
}

// HasWarnings ...
func (s Summary) HasWarnings() bool {
	return len(s.Warnings) > 0
}

// Orchestrator turns result files into published test runs.
type Orchestrator struct {
	logger      log.Logger
	clock       clock.Clock
	publisher   Publisher
	maxParallel int
	namer       *RunNamer
}

// NewOrchestrator returns an orchestrator publishing at most maxParallel files at once
// in per-file mode, a maxParallel below 1 means no limit.
func NewOrchestrator(logger log.Logger, clock clock.Clock, publisher Publisher, maxParallel int) *Orchestrator {
	return &Orchestrator{
		logger:      logger,
		clock:       clock,
		publisher:   publisher,
		maxParallel: maxParallel,
		namer:       NewRunNamer(),
	}
}

// Publish publishes the request's result files as one merged run or as one run per file.
// Read and publish failures are contained in the returned Summary, the only error returned
// is the cancellation of ctx.
func (o *Orchestrator) Publish(ctx context.Context, request Request, resultReader reader.Reader, runContext models.RunContext) (Summary, error) {
	if request.MergeResults {
		return o.PublishMerged(ctx, request, resultReader, runContext)
	}
	return o.PublishPerFile(ctx, request, resultReader, runContext)
}

// PublishMerged publishes the results of every file as a single run.
func (o *Orchestrator) PublishMerged(ctx context.Context, request Request, resultReader reader.Reader, runContext models.RunContext) (Summary, error) {
	var warnings []Warning

	publishedRun, err := o.publishMerged(ctx, request, resultReader, runContext, &warnings)
	if err != nil {
		if isCancellation(err) {
			return Summary{}, err
		}

		var publishErr *PublishError
		if !errors.As(err, &publishErr) {
			publishErr = &PublishError{Runner: request.RunnerName, Err: err}
		}
		warnings = append(warnings, o.warnPublishFailed(publishErr))
		return Summary{Warnings: warnings}, nil
	}

	summary := Summary{Warnings: warnings}
	if publishedRun != nil {
		summary.PublishedRuns = append(summary.PublishedRuns, *publishedRun)
	}
	return summary, nil
}

func (o *Orchestrator) publishMerged(ctx context.Context, request Request, resultReader reader.Reader, runContext models.RunContext, warnings *[]Warning) (*models.PublishedRun, error) {
	startTime := o.clock.Now()

	var aggregated aggregatedRun
	for _, resultFile := range request.ResultFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o.logger.Debugf("Reading test results from file '%s'", resultFile)
		run, err := resultReader.ReadResults(ctx, runContext, resultFile, "")
		if err != nil {
			return nil, &PublishError{File: resultFile, Runner: request.RunnerName, Err: err}
		}

		if !run.HasResults() {
			*warnings = append(*warnings, o.warnInvalidResultFile(resultFile, request.RunnerName))
			continue
		}
		aggregated.add(*run)
	}

	runName := request.RunTitle
	if strings.TrimSpace(runName) == "" {
		runName = reader.ImplicitRunName(request.RunnerName, runContext.BuildID)
	}

	testRun := aggregated.testRun(runName, startTime, runContext)
	if !testRun.HasResults() {
		return nil, nil
	}

	publishedRun, err := o.publishRun(ctx, testRun)
	if err != nil {
		return nil, err
	}
	return &publishedRun, nil
}

type fileOutcome struct {
	publishedRun *models.PublishedRun
	warning      *Warning
}

// PublishPerFile publishes every file as its own run, files are processed concurrently.
// A failing file does not affect its siblings. The Summary lists runs and warnings in
// input file order.
func (o *Orchestrator) PublishPerFile(ctx context.Context, request Request, resultReader reader.Reader, runContext models.RunContext) (Summary, error) {
	outcomes := make([]fileOutcome, len(request.ResultFiles))

	var g errgroup.Group
	if o.maxParallel > 0 {
		g.SetLimit(o.maxParallel)
	}

	for i, resultFile := range request.ResultFiles {
		g.Go(func() error {
			publishedRun, err := o.publishFile(ctx, request, resultReader, runContext, resultFile)
			switch {
			case isCancellation(err):
				return err
			case err != nil:
				warning := o.warnPublishFailed(&PublishError{File: resultFile, Runner: request.RunnerName, Err: err})
				outcomes[i].warning = &warning
			case publishedRun == nil:
				warning := o.warnInvalidResultFile(resultFile, request.RunnerName)
				outcomes[i].warning = &warning
			default:
				outcomes[i].publishedRun = publishedRun
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	var summary Summary
	for _, outcome := range outcomes {
		if outcome.publishedRun != nil {
			summary.PublishedRuns = append(summary.PublishedRuns, *outcome.publishedRun)
		}
		if outcome.warning != nil {
			summary.Warnings = append(summary.Warnings, *outcome.warning)
		}
	}
	return summary, nil
}

// publishFile returns a nil run when the file has no results.
func (o *Orchestrator) publishFile(ctx context.Context, request Request, resultReader reader.Reader, runContext models.RunContext, resultFile string) (*models.PublishedRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runName := ""
	if strings.TrimSpace(request.RunTitle) != "" {
		runName = o.namer.Next(request.RunTitle)
	}

	o.logger.Debugf("Reading test results from file '%s'", resultFile)
	run, err := resultReader.ReadResults(ctx, runContext, resultFile, runName)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !run.HasResults() {
		return nil, nil
	}

	publishedRun, err := o.publishRun(ctx, *run)
	if err != nil {
		return nil, err
	}
	return &publishedRun, nil
}

func (o *Orchestrator) publishRun(ctx context.Context, run models.TestRun) (models.PublishedRun, error) {
	publishedRun, err := o.publisher.StartTestRun(ctx, run)
	if err != nil {
		return models.PublishedRun{}, fmt.Errorf("failed to start test run (%s): %w", run.Name, err)
	}

	if err := o.publisher.AddResults(ctx, publishedRun, run.Results); err != nil {
		return models.PublishedRun{}, fmt.Errorf("failed to add results to test run (%s): %w", publishedRun.Name, err)
	}

	if err := o.publisher.EndTestRun(ctx, publishedRun, true); err != nil {
		return models.PublishedRun{}, fmt.Errorf("failed to end test run (%s): %w", publishedRun.Name, err)
	}

	o.logger.Donef("Published test run %s with %d results", publishedRun.Name, len(run.Results))

	return publishedRun, nil
}

func (o *Orchestrator) warnInvalidResultFile(resultFile, runner string) Warning {
	warning := invalidResultFileWarning(resultFile, runner)
	o.logger.Warnf("%s", warning.Message)
	return warning
}

func (o *Orchestrator) warnPublishFailed(err *PublishError) Warning {
	warning := publishFailedWarning(err)
	o.logger.Warnf("%s", warning.Message)
	return warning
}
