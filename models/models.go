package models

import (
	"time"
)

//=======================================
// Models
//=======================================

// Outcome ...
type Outcome string

// Test case outcomes ...
const (
	OutcomePassed       Outcome = "Passed"
	OutcomeFailed       Outcome = "Failed"
	OutcomeNotExecuted  Outcome = "NotExecuted"
	OutcomeInconclusive Outcome = "Inconclusive"
)

// RunState ...
type RunState string

// Run states ...
const (
	RunStateInProgress RunState = "InProgress"
	RunStateCompleted  RunState = "Completed"
	RunStateAborted    RunState = "Aborted"
)

// CaseResult is a single test case result read from a result file.
type CaseResult struct {
	TestCaseTitle        string
	AutomatedTestName    string
	AutomatedTestStorage string
	AutomatedTestType    string
	Outcome              Outcome
	// DurationInMs is kept as the reader reported it, it is not guaranteed to be numeric.
	DurationInMs  string
	ErrorMessage  string
	StackTrace    string
	ComputerName  string
	Owner         string
	StartedDate   time.Time
	CompletedDate time.Time
}

// TestRun describes a run to be created on the test management service,
// together with the case results read for it.
type TestRun struct {
	Name          string
	StartedDate   time.Time
	CompletedDate time.Time
	State         RunState
	IsAutomated   bool

	BuildID               int
	BuildFlavor           string
	BuildPlatform         string
	ReleaseURI            string
	ReleaseEnvironmentURI string
	Owner                 string

	Results     []CaseResult
	Attachments []string
	// ArchiveAttachments asks the publisher to upload the run level attachments as a single archive.
	ArchiveAttachments bool
}

// HasResults ...
func (r *TestRun) HasResults() bool {
	return r != nil && len(r.Results) > 0
}

// PublishedRun is the publisher side handle of a created run.
type PublishedRun struct {
	ID   int
	Name string
	URL  string
}

// RunContext is the build and release correlation data attached to every published run.
type RunContext struct {
	Owner                 string
	Platform              string
	Configuration         string
	BuildID               int
	BuildURI              string
	ReleaseURI            string
	ReleaseEnvironmentURI string
}

// NewRunContext ...
func NewRunContext(owner, platform, configuration string, buildID int, buildURI, releaseURI, releaseEnvironmentURI string) RunContext {
	return RunContext{
		Owner:                 owner,
		Platform:              platform,
		Configuration:         configuration,
		BuildID:               buildID,
		BuildURI:              buildURI,
		ReleaseURI:            releaseURI,
		ReleaseEnvironmentURI: releaseEnvironmentURI,
	}
}

// IsRelease reports whether the run context belongs to a release pipeline.
func (c RunContext) IsRelease() bool {
	return c.ReleaseURI != ""
}
