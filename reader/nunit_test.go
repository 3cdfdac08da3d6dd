package reader

import (
	"context"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-steplib/steps-publish-test-results/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nunitReport = `<?xml version="1.0" encoding="utf-8"?>
<test-run id="2" name="App.Tests.dll" total="3" passed="1" failed="1" skipped="1" start-time="2024-05-01 08:00:00Z">
  <test-suite type="Assembly" name="App.Tests.dll" fullname="App.Tests.dll">
    <test-suite type="TestFixture" name="CalculatorTests" fullname="App.Tests.CalculatorTests">
      <test-case name="Adds" fullname="App.Tests.CalculatorTests.Adds" classname="App.Tests.CalculatorTests" result="Passed" duration="0.25"/>
      <test-case name="Divides" fullname="App.Tests.CalculatorTests.Divides" classname="App.Tests.CalculatorTests" result="Failed" duration="1.5">
        <failure>
          <message>Expected 2 but was 3</message>
          <stack-trace>at CalculatorTests.Divides()</stack-trace>
        </failure>
      </test-case>
      <test-case name="Ignored" fullname="App.Tests.CalculatorTests.Ignored" result="Skipped" duration="">
        <reason><message>not ready</message></reason>
      </test-case>
    </test-suite>
  </test-suite>
</test-run>`

func Test_GivenNUnitReport_WhenReading_ThenConvertsNestedCases(t *testing.T) {
	// Given
	pth := writeResultFile(t, "TestResult.xml", nunitReport)
	reader := NewNUnitReader(log.NewLogger(), fakeclock.NewFakeClock(startTime))

	// When
	run, err := reader.ReadResults(context.Background(), defaultRunContext(), pth, "")

	// Then
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "NUnit_TestResults_42", run.Name)

	expectedStart := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	assert.True(t, expectedStart.Equal(run.StartedDate))
	assert.True(t, expectedStart.Add(1750*time.Millisecond).Equal(run.CompletedDate))

	require.Len(t, run.Results, 3)
	assert.Equal(t, "App.Tests.CalculatorTests.Adds", run.Results[0].AutomatedTestName)
	assert.Equal(t, "App.Tests.CalculatorTests", run.Results[0].AutomatedTestStorage)
	assert.Equal(t, "250", run.Results[0].DurationInMs)
	assert.Equal(t, models.OutcomeFailed, run.Results[1].Outcome)
	assert.Equal(t, "Expected 2 but was 3", run.Results[1].ErrorMessage)
	assert.Equal(t, "at CalculatorTests.Divides()", run.Results[1].StackTrace)
	assert.Equal(t, models.OutcomeNotExecuted, run.Results[2].Outcome)
	assert.Equal(t, "App.Tests.CalculatorTests", run.Results[2].AutomatedTestStorage)
	assert.Equal(t, "not ready", run.Results[2].ErrorMessage)
	assert.Equal(t, "0", run.Results[2].DurationInMs)
}

func Test_GivenJUnitFile_WhenReadingAsNUnit_ThenReturnsNoRun(t *testing.T) {
	// Given
	pth := writeResultFile(t, "a.xml", junitReport)
	reader := NewNUnitReader(log.NewLogger(), fakeclock.NewFakeClock(startTime))

	// When
	run, err := reader.ReadResults(context.Background(), defaultRunContext(), pth, "")

	// Then
	require.NoError(t, err)
	assert.Nil(t, run)
}

func Test_GivenNUnitResults_WhenMappingOutcome_ThenMapsKnownResults(t *testing.T) {
	assert.Equal(t, models.OutcomePassed, nunitOutcome("Passed"))
	assert.Equal(t, models.OutcomeFailed, nunitOutcome("failed"))
	assert.Equal(t, models.OutcomeNotExecuted, nunitOutcome("Skipped"))
	assert.Equal(t, models.OutcomeNotExecuted, nunitOutcome("Ignored"))
	assert.Equal(t, models.OutcomeInconclusive, nunitOutcome("Inconclusive"))
	assert.Equal(t, models.OutcomeInconclusive, nunitOutcome("Warning"))
}
