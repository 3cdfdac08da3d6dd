package reader

import (
	"context"
	"encoding/xml"
	"os"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-publish-test-results/models"
)

// NUnitRunner ...
const NUnitRunner = "NUnit"

type nunitTestRun struct {
	XMLName    xml.Name         `xml:"test-run"`
	Name       string           `xml:"name,attr"`
	StartTime  string           `xml:"start-time,attr"`
	TestSuites []nunitTestSuite `xml:"test-suite"`
}

type nunitTestSuite struct {
	Name       string           `xml:"name,attr"`
	FullName   string           `xml:"fullname,attr"`
	TestCases  []nunitTestCase  `xml:"test-case"`
	TestSuites []nunitTestSuite `xml:"test-suite"`
}

type nunitTestCase struct {
	Name       string        `xml:"name,attr"`
	FullName   string        `xml:"fullname,attr"`
	ClassName  string        `xml:"classname,attr"`
	MethodName string        `xml:"methodname,attr"`
	Result     string        `xml:"result,attr"`
	Duration   string        `xml:"duration,attr"`
	StartTime  string        `xml:"start-time,attr"`
	EndTime    string        `xml:"end-time,attr"`
	Failure    *nunitFailure `xml:"failure"`
	Reason     *nunitReason  `xml:"reason"`
}

type nunitFailure struct {
	Message    string `xml:"message"`
	StackTrace string `xml:"stack-trace"`
}

type nunitReason struct {
	Message string `xml:"message"`
}

func (s nunitTestSuite) walk(fn func(suite nunitTestSuite, testCase nunitTestCase)) {
	for _, testCase := range s.TestCases {
		fn(s, testCase)
	}
	for _, nested := range s.TestSuites {
		nested.walk(fn)
	}
}

// NUnitReader reads NUnit 3 test-run XML reports.
type NUnitReader struct {
	runLevelAttachments

	logger log.Logger
	clock  clock.Clock
}

// NewNUnitReader ...
func NewNUnitReader(logger log.Logger, clock clock.Clock) *NUnitReader {
	return &NUnitReader{
		logger: logger,
		clock:  clock,
	}
}

// Name ...
func (r *NUnitReader) Name() string {
	return NUnitRunner
}

// ReadResults ...
func (r *NUnitReader) ReadResults(ctx context.Context, runContext models.RunContext, filePath, runName string) (*models.TestRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		r.logger.Debugf("Failed to read result file (%s): %s", filePath, err)
		return nil, nil
	}

	var testRun nunitTestRun
	if err := xml.Unmarshal(content, &testRun); err != nil {
		r.logger.Debugf("Failed to parse NUnit report (%s): %s", filePath, err)
		return nil, nil
	}

	startedDate, ok := parseTimestamp(testRun.StartTime)
	if !ok {
		startedDate = r.clock.Now()
	}

	var results []models.CaseResult
	var totalDuration time.Duration
	for _, suite := range testRun.TestSuites {
		suite.walk(func(s nunitTestSuite, testCase nunitTestCase) {
			result := r.caseResult(runContext, s, testCase)
			if ms, err := strconv.ParseInt(result.DurationInMs, 10, 64); err == nil {
				totalDuration += time.Duration(ms) * time.Millisecond
			}
			results = append(results, result)
		})
	}

	run := newTestRun(runContext, runNameOrDefault(runName, r.Name(), runContext.BuildID), startedDate, totalDuration)
	run.Results = results
	run.Attachments = r.attachments(filePath)

	return &run, nil
}

func (r *NUnitReader) caseResult(runContext models.RunContext, suite nunitTestSuite, testCase nunitTestCase) models.CaseResult {
	var duration time.Duration
	if seconds, err := strconv.ParseFloat(strings.TrimSpace(testCase.Duration), 64); err == nil {
		duration = secondsToDuration(seconds)
	}

	automatedTestName := testCase.FullName
	if automatedTestName == "" {
		automatedTestName = testCase.Name
	}

	storage := testCase.ClassName
	if storage == "" {
		storage = suite.FullName
	}

	result := models.CaseResult{
		TestCaseTitle:        testCase.Name,
		AutomatedTestName:    automatedTestName,
		AutomatedTestStorage: storage,
		AutomatedTestType:    NUnitRunner,
		Outcome:              nunitOutcome(testCase.Result),
		DurationInMs:         durationInMs(duration),
		Owner:                runContext.Owner,
	}

	if startedDate, ok := parseTimestamp(testCase.StartTime); ok {
		result.StartedDate = startedDate
	}
	if completedDate, ok := parseTimestamp(testCase.EndTime); ok {
		result.CompletedDate = completedDate
	}

	if testCase.Failure != nil {
		result.ErrorMessage = strings.TrimSpace(testCase.Failure.Message)
		result.StackTrace = strings.TrimSpace(testCase.Failure.StackTrace)
	} else if testCase.Reason != nil {
		result.ErrorMessage = strings.TrimSpace(testCase.Reason.Message)
	}

	return result
}

func nunitOutcome(result string) models.Outcome {
	switch strings.ToLower(result) {
	case "passed":
		return models.OutcomePassed
	case "failed":
		return models.OutcomeFailed
	case "skipped", "ignored":
		return models.OutcomeNotExecuted
	default:
		return models.OutcomeInconclusive
	}
}
