package testaddon

import (
	"strconv"
	"strings"

	"github.com/bitrise-steplib/steps-publish-test-results/junit"
	"github.com/bitrise-steplib/steps-publish-test-results/models"
)

const timestampLayout = "2006-01-02T15:04:05"

// newReport groups the run's results into JUnit suites by test storage, suites keep the order of their first result.
func newReport(run models.TestRun, results []models.CaseResult) junit.TestReport {
	report := junit.TestReport{Name: run.Name}

	suiteIndexes := map[string]int{}
	for _, result := range results {
		suiteName := result.AutomatedTestStorage
		if suiteName == "" {
			suiteName = run.Name
		}

		idx, ok := suiteIndexes[suiteName]
		if !ok {
			idx = len(report.TestSuites)
			suiteIndexes[suiteName] = idx
			report.TestSuites = append(report.TestSuites, junit.TestSuite{
				Name:      suiteName,
				Timestamp: run.StartedDate.Format(timestampLayout),
				Hostname:  result.ComputerName,
			})
		}

		suite := &report.TestSuites[idx]
		testCase := newTestCase(suiteName, result)
		suite.Tests++
		suite.Time += testCase.Time
		if testCase.Failure != nil {
			suite.Failures++
		}
		if testCase.Skipped != nil {
			suite.Skipped++
		}
		suite.TestCases = append(suite.TestCases, testCase)
	}

	return report
}

func newTestCase(suiteName string, result models.CaseResult) junit.TestCase {
	className := strings.TrimSuffix(result.AutomatedTestName, "."+result.TestCaseTitle)
	if className == "" || className == result.AutomatedTestName {
		className = suiteName
	}

	testCase := junit.TestCase{
		Name:      result.TestCaseTitle,
		ClassName: className,
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(result.DurationInMs)); err == nil {
		testCase.Time = float64(ms) / 1000
	}

	switch result.Outcome {
	case models.OutcomeFailed:
		testCase.Failure = &junit.Failure{Message: result.ErrorMessage, Value: result.StackTrace}
	case models.OutcomeNotExecuted, models.OutcomeInconclusive:
		testCase.Skipped = &junit.Skipped{Message: result.ErrorMessage}
	}

	return testCase
}
