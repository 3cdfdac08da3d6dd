package reader

import (
	"context"
	"fmt"
	"os"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-publish-test-results/junit"
	"github.com/bitrise-steplib/steps-publish-test-results/models"
)

// JUnitRunner ...
const JUnitRunner = "JUnit"

// JUnitReader reads JUnit XML reports.
type JUnitReader struct {
	runLevelAttachments

	logger log.Logger
	clock  clock.Clock
}

// NewJUnitReader ...
func NewJUnitReader(logger log.Logger, clock clock.Clock) *JUnitReader {
	return &JUnitReader{
		logger: logger,
		clock:  clock,
	}
}

// Name ...
func (r *JUnitReader) Name() string {
	return JUnitRunner
}

// ReadResults ...
func (r *JUnitReader) ReadResults(ctx context.Context, runContext models.RunContext, filePath, runName string) (*models.TestRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		r.logger.Debugf("Failed to open result file (%s): %s", filePath, err)
		return nil, nil
	}
	defer func() {
		if err := f.Close(); err != nil {
			r.logger.Warnf("Failed to close result file (%s): %s", filePath, err)
		}
	}()

	report, err := junit.Decode(f)
	if err != nil {
		r.logger.Debugf("Failed to parse JUnit report (%s): %s", filePath, err)
		return nil, nil
	}

	startedDate, hasTimestamp := time.Time{}, false
	var results []models.CaseResult
	var totalDuration time.Duration

	for _, suite := range report.TestSuites {
		if !hasTimestamp {
			startedDate, hasTimestamp = parseTimestamp(suite.Timestamp)
		}

		suite.Walk(func(s junit.TestSuite, testCase junit.TestCase) {
			duration := secondsToDuration(testCase.Time)
			totalDuration += duration
			results = append(results, r.caseResult(runContext, s, testCase, duration))
		})
	}

	if !hasTimestamp {
		startedDate = r.clock.Now()
	}

	run := newTestRun(runContext, runNameOrDefault(runName, r.Name(), runContext.BuildID), startedDate, totalDuration)
	run.Results = results
	run.Attachments = r.attachments(filePath)

	return &run, nil
}

func (r *JUnitReader) caseResult(runContext models.RunContext, suite junit.TestSuite, testCase junit.TestCase, duration time.Duration) models.CaseResult {
	automatedTestName := testCase.Name
	if testCase.ClassName != "" {
		automatedTestName = fmt.Sprintf("%s.%s", testCase.ClassName, testCase.Name)
	}

	result := models.CaseResult{
		TestCaseTitle:        testCase.Name,
		AutomatedTestName:    automatedTestName,
		AutomatedTestStorage: suite.Name,
		AutomatedTestType:    JUnitRunner,
		Outcome:              models.OutcomePassed,
		DurationInMs:         durationInMs(duration),
		ComputerName:         suite.Hostname,
		Owner:                runContext.Owner,
	}

	failure := testCase.Failure
	if failure == nil {
		failure = testCase.Error
	}

	switch {
	case failure != nil:
		result.Outcome = models.OutcomeFailed
		result.ErrorMessage = failure.Message
		result.StackTrace = failure.Value
		if result.ErrorMessage == "" {
			result.ErrorMessage = failure.Value
		}
	case testCase.Skipped != nil:
		result.Outcome = models.OutcomeNotExecuted
		result.ErrorMessage = testCase.Skipped.Message
	}

	return result
}
