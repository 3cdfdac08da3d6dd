package testaddon

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-publish-test-results/junit"
	"github.com/bitrise-steplib/steps-publish-test-results/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var startTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)

func Test_GivenNormalRunName_WhenStartingRun_ThenCreatesRunDirectory(t *testing.T) {
	runStartTest(t, "Bitrise", "Bitrise")
}

func Test_GivenRunNameWithSpecialCharacters_WhenStartingRun_ThenReplacesSpecialCharacters(t *testing.T) {
	runStartTest(t, "W/eir/d:Na::me/", "W-eir-d-Na--me-")
}

func runStartTest(t *testing.T, runName string, expectedDirName string) {
	// Given
	resultDir := t.TempDir()
	publisher := createPublisher(resultDir)

	// When
	publishedRun, err := publisher.StartTestRun(context.Background(), models.TestRun{Name: runName})

	// Then
	require.NoError(t, err)
	assert.Equal(t, runName, publishedRun.Name)
	assert.Equal(t, filepath.Join(resultDir, expectedDirName), publishedRun.URL)
	assert.True(t, isPathExists(publishedRun.URL))
}

func Test_GivenPublishedRun_WhenEndingRun_ThenWritesReportAttachmentsAndMetadata(t *testing.T) {
	// Given
	resultDir := t.TempDir()
	attachment := writeFile(t, filepath.Join(t.TempDir(), "TEST-LoginTests.xml"), "<testsuite/>")
	publisher := createPublisher(resultDir)
	run := models.TestRun{
		Name:        "JUnit_TestResults_42",
		StartedDate: startTime,
		Attachments: []string{attachment},
	}

	publishedRun, err := publisher.StartTestRun(context.Background(), run)
	require.NoError(t, err)

	// When
	require.NoError(t, publisher.AddResults(context.Background(), publishedRun, caseResults()[:1]))
	require.NoError(t, publisher.AddResults(context.Background(), publishedRun, caseResults()[1:]))
	err = publisher.EndTestRun(context.Background(), publishedRun, true)

	// Then
	require.NoError(t, err)

	runDir := filepath.Join(resultDir, "JUnit_TestResults_42")
	report := readReport(t, filepath.Join(runDir, "JUnit_TestResults_42.xml"))
	require.Len(t, report.TestSuites, 1)
	assert.Equal(t, 3, report.TestSuites[0].Tests)
	assert.Equal(t, 1, report.TestSuites[0].Failures)
	assert.Equal(t, 1, report.TestSuites[0].Skipped)

	assert.True(t, isPathExists(filepath.Join(runDir, "attachments", "TEST-LoginTests.xml")))
	assert.Equal(t, testRunInfo{RunName: "JUnit_TestResults_42", State: "Completed"}, readRunInfo(t, runDir))
}

func Test_GivenSameRunNameTwice_WhenStartingRuns_ThenSecondRunGetsOwnDirectory(t *testing.T) {
	// Given
	resultDir := t.TempDir()
	publisher := createPublisher(resultDir)

	// When
	first, err := publisher.StartTestRun(context.Background(), models.TestRun{Name: "Nightly"})
	require.NoError(t, err)
	second, err := publisher.StartTestRun(context.Background(), models.TestRun{Name: "Nightly"})
	require.NoError(t, err)

	// Then
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, filepath.Join(resultDir, "Nightly"), first.URL)
	assert.Equal(t, filepath.Join(resultDir, "Nightly_2"), second.URL)
}

func Test_GivenMissingAttachment_WhenEndingRun_ThenSkipsIt(t *testing.T) {
	// Given
	resultDir := t.TempDir()
	publisher := createPublisher(resultDir)
	publishedRun, err := publisher.StartTestRun(context.Background(), models.TestRun{
		Name:        "Run",
		Attachments: []string{filepath.Join(t.TempDir(), "missing.xml")},
	})
	require.NoError(t, err)

	// When
	err = publisher.EndTestRun(context.Background(), publishedRun, false)

	// Then
	require.NoError(t, err)
	assert.False(t, isPathExists(filepath.Join(resultDir, "Run", "attachments")))
	assert.Equal(t, "Aborted", readRunInfo(t, filepath.Join(resultDir, "Run")).State)
}

func Test_GivenAttachmentsWithSameName_WhenEndingRun_ThenKeepsEveryAttachment(t *testing.T) {
	// Given
	resultDir := t.TempDir()
	attachmentDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(attachmentDir, "moduleA"), 0700))
	require.NoError(t, os.MkdirAll(filepath.Join(attachmentDir, "moduleB"), 0700))
	publisher := createPublisher(resultDir)
	publishedRun, err := publisher.StartTestRun(context.Background(), models.TestRun{
		Name: "Merged",
		Attachments: []string{
			writeFile(t, filepath.Join(attachmentDir, "moduleA", "TEST-results.xml"), "<A/>"),
			writeFile(t, filepath.Join(attachmentDir, "moduleB", "TEST-results.xml"), "<B/>"),
		},
	})
	require.NoError(t, err)

	// When
	err = publisher.EndTestRun(context.Background(), publishedRun, true)

	// Then
	require.NoError(t, err)

	attachmentsDir := filepath.Join(resultDir, "Merged", "attachments")
	entries, err := os.ReadDir(attachmentsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "<A/>", readFile(t, filepath.Join(attachmentsDir, "TEST-results.xml")))
	assert.Equal(t, "<B/>", readFile(t, filepath.Join(attachmentsDir, "2_TEST-results.xml")))
}

func Test_GivenNameTakenByEarlierAttachments_WhenNamingAttachment_ThenPicksUnusedName(t *testing.T) {
	usedNames := map[string]bool{}

	assert.Equal(t, "a.xml", attachmentName("/x/a.xml", usedNames))
	assert.Equal(t, "2_a.xml", attachmentName("/y/a.xml", usedNames))
	assert.Equal(t, "3_a.xml", attachmentName("/z/a.xml", usedNames))
	assert.Equal(t, "b.xml", attachmentName("/x/b.xml", usedNames))
}

func Test_GivenUncreatableRunDirectory_WhenStartingRun_ThenForgetsTheRun(t *testing.T) {
	// Given
	resultDir := writeFile(t, filepath.Join(t.TempDir(), "not-a-dir"), "")
	publisher := createPublisher(resultDir)

	// When
	_, err := publisher.StartTestRun(context.Background(), models.TestRun{Name: "Run"})

	// Then
	require.Error(t, err)
	assert.Empty(t, publisher.runs)
	assert.Empty(t, publisher.dirNames)
}

func Test_GivenArchivedAttachments_WhenEndingRun_ThenZipsThem(t *testing.T) {
	if !isPathExists("/usr/bin/zip") {
		t.Skip("zip is not installed")
	}

	// Given
	resultDir := t.TempDir()
	attachmentDir := t.TempDir()
	publisher := createPublisher(resultDir)
	publishedRun, err := publisher.StartTestRun(context.Background(), models.TestRun{
		Name: "Merged",
		Attachments: []string{
			writeFile(t, filepath.Join(attachmentDir, "a.xml"), "<testsuite/>"),
			writeFile(t, filepath.Join(attachmentDir, "b.xml"), "<testsuite/>"),
		},
		ArchiveAttachments: true,
	})
	require.NoError(t, err)

	// When
	err = publisher.EndTestRun(context.Background(), publishedRun, true)

	// Then
	require.NoError(t, err)
	assert.True(t, isPathExists(filepath.Join(resultDir, "Merged", "attachments.zip")))
	assert.False(t, isPathExists(filepath.Join(resultDir, "Merged", "attachments")))
}

func Test_GivenUnknownRun_WhenAddingResults_ThenFails(t *testing.T) {
	publisher := createPublisher(t.TempDir())

	err := publisher.AddResults(context.Background(), models.PublishedRun{ID: 99}, caseResults())
	require.Error(t, err)

	err = publisher.EndTestRun(context.Background(), models.PublishedRun{ID: 99}, true)
	require.Error(t, err)
}

func Test_GivenResultsOfSeveralStorages_WhenBuildingReport_ThenGroupsThemIntoSuites(t *testing.T) {
	// Given
	results := append(caseResults(), models.CaseResult{
		TestCaseTitle:        "testLogout",
		AutomatedTestName:    "app.SessionTests.testLogout",
		AutomatedTestStorage: "SessionTests",
		Outcome:              models.OutcomePassed,
		DurationInMs:         "250",
	})

	// When
	report := newReport(models.TestRun{Name: "Run", StartedDate: startTime}, results)

	// Then
	require.Len(t, report.TestSuites, 2)
	assert.Equal(t, "LoginTests", report.TestSuites[0].Name)
	assert.Equal(t, "2024-05-01T10:00:00", report.TestSuites[0].Timestamp)
	assert.Equal(t, "mac-mini", report.TestSuites[0].Hostname)
	assert.InDelta(t, 0.6, report.TestSuites[0].Time, 0.0001)
	assert.Equal(t, junit.TestCase{
		Name:      "testInvalid",
		ClassName: "app.LoginTests",
		Time:      0.5,
		Failure:   &junit.Failure{Message: "expected error", Value: "LoginTests.swift:42"},
	}, report.TestSuites[0].TestCases[1])
	assert.Equal(t, "SessionTests", report.TestSuites[1].Name)
	assert.Equal(t, "app.SessionTests", report.TestSuites[1].TestCases[0].ClassName)
}

// Helpers

type testRunInfo struct {
	RunName string `json:"test-name"`
	State   string `json:"state"`
}

func createPublisher(resultDir string) *Publisher {
	logger := log.NewLogger()
	fileManager := fileutil.NewFileManager()
	testAddon := NewTestAddon(command.NewFactory(env.NewRepository()), fileManager, logger)
	return NewPublisher(resultDir, testAddon, fileManager, pathutil.NewPathChecker(), logger)
}

func caseResults() []models.CaseResult {
	return []models.CaseResult{
		{TestCaseTitle: "testValid", AutomatedTestName: "app.LoginTests.testValid", AutomatedTestStorage: "LoginTests", Outcome: models.OutcomePassed, DurationInMs: "100", ComputerName: "mac-mini"},
		{TestCaseTitle: "testInvalid", AutomatedTestName: "app.LoginTests.testInvalid", AutomatedTestStorage: "LoginTests", Outcome: models.OutcomeFailed, DurationInMs: "500", ErrorMessage: "expected error", StackTrace: "LoginTests.swift:42"},
		{TestCaseTitle: "testSkipped", AutomatedTestName: "app.LoginTests.testSkipped", AutomatedTestStorage: "LoginTests", Outcome: models.OutcomeNotExecuted, DurationInMs: "0", ErrorMessage: "flaky"},
	}
}

func writeFile(t *testing.T, pth, content string) string {
	require.NoError(t, fileutil.NewFileManager().Write(pth, content, 0600))
	return pth
}

func readFile(t *testing.T, pth string) string {
	bytes, err := os.ReadFile(pth)
	require.NoError(t, err)
	return string(bytes)
}

func readReport(t *testing.T, pth string) junit.TestReport {
	f, err := os.Open(pth)
	require.NoError(t, err)
	defer f.Close()

	report, err := junit.Decode(f)
	require.NoError(t, err)
	return report
}

func readRunInfo(t *testing.T, runDir string) testRunInfo {
	bytes, err := os.ReadFile(filepath.Join(runDir, "test-info.json"))
	require.NoError(t, err)

	var info testRunInfo
	require.NoError(t, json.Unmarshal(bytes, &info))
	return info
}

func isPathExists(path string) bool {
	isExist, _ := pathutil.NewPathChecker().IsPathExists(path)
	return isExist
}
