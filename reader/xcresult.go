package reader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-publish-test-results/models"
	"github.com/hashicorp/go-version"
)

// XCResultRunner ...
const XCResultRunner = "XCResult"

// Xcode 16 beta3 ships the first xcresulttool with the test-results subcommand.
const minXcresulttoolVersion = "23021"

var xcresulttoolVersionRegexp = regexp.MustCompile(`xcresulttool version ([0-9]+)`)

// These are the node types of `xcresulttool get test-results tests` this reader relies on.
const (
	xcNodeTypeUnitTestBundle = "Unit test bundle"
	xcNodeTypeUITestBundle   = "UI test bundle"
	xcNodeTypeTestSuite      = "Test Suite"
	xcNodeTypeTestCase       = "Test Case"
	xcNodeTypeRepetition     = "Repetition"
	xcNodeTypeFailureMessage = "Failure Message"
)

type xcTestData struct {
	Devices   []xcDevice   `json:"devices"`
	TestNodes []xcTestNode `json:"testNodes"`
}

type xcDevice struct {
	Name string `json:"deviceName"`
}

type xcTestNode struct {
	Identifier string       `json:"nodeIdentifier"`
	Type       string       `json:"nodeType"`
	Name       string       `json:"name"`
	Details    string       `json:"details"`
	Duration   string       `json:"duration"`
	Result     string       `json:"result"`
	Children   []xcTestNode `json:"children"`
}

type xcresulttool interface {
	Version() (string, error)
	TestResults(bundlePth string) ([]byte, error)
}

type commandXcresulttool struct {
	commandFactory command.Factory
}

func (t commandXcresulttool) Version() (string, error) {
	return t.run([]string{"xcresulttool", "version"})
}

func (t commandXcresulttool) TestResults(bundlePth string) ([]byte, error) {
	out, err := t.run([]string{"xcresulttool", "get", "test-results", "tests", "--path", bundlePth})
	return []byte(out), err
}

func (t commandXcresulttool) run(args []string) (string, error) {
	cmd := t.commandFactory.Create("xcrun", args, nil)
	out, err := cmd.RunAndReturnTrimmedCombinedOutput()
	if err != nil {
		var exerr *exec.ExitError
		if errors.As(err, &exerr) {
			return "", fmt.Errorf("%s failed: %s", cmd.PrintableCommandArgs(), out)
		}
		return "", fmt.Errorf("%s failed: %w", cmd.PrintableCommandArgs(), err)
	}
	return out, nil
}

// XCResultReader reads Xcode result bundles (Xcode 16+) through xcresulttool.
type XCResultReader struct {
	runLevelAttachments

	logger      log.Logger
	clock       clock.Clock
	tool        xcresulttool
	pathChecker pathutil.PathChecker

	installOnce sync.Once
	toolVersion *version.Version
	installErr  error
}

// NewXCResultReader ...
func NewXCResultReader(logger log.Logger, clock clock.Clock, commandFactory command.Factory, pathChecker pathutil.PathChecker) *XCResultReader {
	return newXCResultReader(logger, clock, commandXcresulttool{commandFactory: commandFactory}, pathChecker)
}

func newXCResultReader(logger log.Logger, clock clock.Clock, tool xcresulttool, pathChecker pathutil.PathChecker) *XCResultReader {
	return &XCResultReader{
		logger:      logger,
		clock:       clock,
		tool:        tool,
		pathChecker: pathChecker,
	}
}

// Name ...
func (r *XCResultReader) Name() string {
	return XCResultRunner
}

// CheckInstall returns the xcresulttool version, the check runs once per reader.
func (r *XCResultReader) CheckInstall() (*version.Version, error) {
	r.installOnce.Do(func() {
		r.toolVersion, r.installErr = r.checkInstall()
	})
	return r.toolVersion, r.installErr
}

func (r *XCResultReader) checkInstall() (*version.Version, error) {
	out, err := r.tool.Version()
	if err != nil {
		return nil, fmt.Errorf("failed to get xcresulttool version: %w", err)
	}

	matches := xcresulttoolVersionRegexp.FindStringSubmatch(out)
	if len(matches) < 2 {
		return nil, fmt.Errorf("no xcresulttool version found in output: %s", out)
	}

	toolVersion, err := version.NewVersion(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid xcresulttool version (%s): %w", matches[1], err)
	}

	minVersion := version.Must(version.NewVersion(minXcresulttoolVersion))
	if toolVersion.LessThan(minVersion) {
		return nil, fmt.Errorf("xcresulttool version (%s) does not support test-results export, Xcode 16 or newer is required", toolVersion)
	}

	r.logger.Debugf("xcresulttool version: %s", toolVersion)

	return toolVersion, nil
}

// ReadResults ...
func (r *XCResultReader) ReadResults(ctx context.Context, runContext models.RunContext, bundlePth, runName string) (*models.TestRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if filepath.Ext(bundlePth) != ".xcresult" {
		r.logger.Debugf("Not an xcresult bundle: %s", bundlePth)
		return nil, nil
	}

	infoPth := filepath.Join(bundlePth, "Info.plist")
	if exist, err := r.pathChecker.IsPathExists(infoPth); err != nil {
		r.logger.Debugf("Failed to check Info.plist at %s: %s", infoPth, err)
		return nil, nil
	} else if !exist {
		r.logger.Debugf("No Info.plist found at %s", infoPth)
		return nil, nil
	}

	if _, err := r.CheckInstall(); err != nil {
		return nil, err
	}

	out, err := r.tool.TestResults(bundlePth)
	if err != nil {
		return nil, fmt.Errorf("failed to export test results of %s: %w", bundlePth, err)
	}

	var data xcTestData
	if err := json.Unmarshal(out, &data); err != nil {
		r.logger.Debugf("Failed to parse xcresulttool output for %s: %s", bundlePth, err)
		return nil, nil
	}

	computerName := ""
	if len(data.Devices) > 0 {
		computerName = data.Devices[0].Name
	}

	var results []models.CaseResult
	var totalDuration time.Duration
	collectXCTestCases(data.TestNodes, "", func(suiteName string, node xcTestNode) {
		duration := xcDuration(node.Duration)
		totalDuration += duration
		results = append(results, xcCaseResult(runContext, suiteName, computerName, node, duration))
	})

	run := newTestRun(runContext, runNameOrDefault(runName, r.Name(), runContext.BuildID), r.clock.Now(), totalDuration)
	run.Results = results
	run.Attachments = r.attachments(bundlePth)

	return &run, nil
}

func collectXCTestCases(nodes []xcTestNode, suiteName string, fn func(suiteName string, node xcTestNode)) {
	for _, node := range nodes {
		switch node.Type {
		case xcNodeTypeTestCase:
			fn(suiteName, node)
		case xcNodeTypeTestSuite, xcNodeTypeUnitTestBundle, xcNodeTypeUITestBundle:
			collectXCTestCases(node.Children, node.Name, fn)
		default:
			collectXCTestCases(node.Children, suiteName, fn)
		}
	}
}

func xcCaseResult(runContext models.RunContext, suiteName, computerName string, node xcTestNode, duration time.Duration) models.CaseResult {
	className := strings.Split(node.Identifier, "/")[0]
	if className == "" {
		className = suiteName
	}

	result := models.CaseResult{
		TestCaseTitle:        node.Name,
		AutomatedTestName:    fmt.Sprintf("%s.%s", className, node.Name),
		AutomatedTestStorage: suiteName,
		AutomatedTestType:    XCResultRunner,
		Outcome:              xcOutcome(node.Result),
		DurationInMs:         durationInMs(duration),
		ComputerName:         computerName,
		Owner:                runContext.Owner,
	}
	if result.Outcome == models.OutcomeFailed {
		result.ErrorMessage = xcFailureMessage(node)
	}
	return result
}

// Duration is in the format "123.456789s" or "123,456789s".
func xcDuration(text string) time.Duration {
	text = strings.Replace(text, ",", ".", -1)
	duration, err := time.ParseDuration(text)
	if err != nil {
		return 0
	}
	return duration
}

func xcFailureMessage(node xcTestNode) string {
	if len(node.Children) == 0 {
		return ""
	}

	// With test repetitions the failure of the last repetition is the relevant one.
	last := node.Children[len(node.Children)-1]
	if last.Type == xcNodeTypeRepetition {
		return xcFailureMessage(last)
	}

	var messages []string
	for _, child := range node.Children {
		if child.Type == xcNodeTypeFailureMessage {
			messages = append(messages, child.Name)
		}
	}
	return strings.Join(messages, "\n")
}

func xcOutcome(result string) models.Outcome {
	switch result {
	case "Passed", "Expected Failure":
		return models.OutcomePassed
	case "Failed":
		return models.OutcomeFailed
	case "Skipped":
		return models.OutcomeNotExecuted
	default:
		return models.OutcomeInconclusive
	}
}
