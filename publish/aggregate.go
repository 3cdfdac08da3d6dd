package publish

import (
	"strconv"
	"strings"
	"time"

	"github.com/bitrise-steplib/steps-publish-test-results/models"
)

// aggregatedRun collects the results of every file of a merged run in file order.
type aggregatedRun struct {
	results       []models.CaseResult
	attachments   []string
	totalDuration time.Duration
}

func (a *aggregatedRun) add(run models.TestRun) {
	for _, result := range run.Results {
		a.totalDuration += caseDuration(result)
	}
	a.results = append(a.results, run.Results...)
	a.attachments = append(a.attachments, run.Attachments...)
}

func (a *aggregatedRun) testRun(name string, startedDate time.Time, runContext models.RunContext) models.TestRun {
	return models.TestRun{
		Name:                  name,
		StartedDate:           startedDate,
		CompletedDate:         startedDate.Add(a.totalDuration),
		State:                 models.RunStateInProgress,
		IsAutomated:           true,
		BuildID:               runContext.BuildID,
		BuildFlavor:           runContext.Configuration,
		BuildPlatform:         runContext.Platform,
		ReleaseURI:            runContext.ReleaseURI,
		ReleaseEnvironmentURI: runContext.ReleaseEnvironmentURI,
		Owner:                 runContext.Owner,
		Results:               a.results,
		Attachments:           a.attachments,
		ArchiveAttachments:    true,
	}
}

// Missing or non numeric durations count as 0.
func caseDuration(result models.CaseResult) time.Duration {
	ms, err := strconv.Atoi(strings.TrimSpace(result.DurationInMs))
	if err != nil {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
