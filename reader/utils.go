package reader

import (
	"math"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bitrise-steplib/steps-publish-test-results/models"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

type runLevelAttachments struct {
	addResultsFile atomic.Bool
}

// SetAddResultsFileToRunLevelAttachments controls whether the result file itself is attached to its run.
func (a *runLevelAttachments) SetAddResultsFileToRunLevelAttachments(add bool) {
	a.addResultsFile.Store(add)
}

func (a *runLevelAttachments) attachments(filePath string) []string {
	if !a.addResultsFile.Load() {
		return nil
	}
	return []string{filePath}
}

func newTestRun(runContext models.RunContext, name string, startedDate time.Time, duration time.Duration) models.TestRun {
	return models.TestRun{
		Name:                  name,
		StartedDate:           startedDate,
		CompletedDate:         startedDate.Add(duration),
		State:                 models.RunStateInProgress,
		IsAutomated:           true,
		BuildID:               runContext.BuildID,
		BuildFlavor:           runContext.Configuration,
		BuildPlatform:         runContext.Platform,
		ReleaseURI:            runContext.ReleaseURI,
		ReleaseEnvironmentURI: runContext.ReleaseEnvironmentURI,
		Owner:                 runContext.Owner,
	}
}

func runNameOrDefault(runName, readerName string, buildID int) string {
	if strings.TrimSpace(runName) != "" {
		return runName
	}
	return ImplicitRunName(readerName, buildID)
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

func durationInMs(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
