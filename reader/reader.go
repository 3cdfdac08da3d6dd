package reader

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"code.cloudfoundry.org/clock"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-publish-test-results/models"
)

// Reader reads the test results of a single result file written by a specific test runner.
//
// ReadResults returns nil when the file is missing or not in the reader's format and a run
// without results when the file is well formed but empty. An error means the file could not
// be processed at all (missing tooling, cancellation). Implementations must be safe for
// concurrent use on different files.
type Reader interface {
	Name() string
	SetAddResultsFileToRunLevelAttachments(add bool)
	ReadResults(ctx context.Context, runContext models.RunContext, filePath, runName string) (*models.TestRun, error)
}

// UnknownRunnerError ...
type UnknownRunnerError struct {
	Runner string
}

func (e UnknownRunnerError) Error() string {
	return fmt.Sprintf("unknown test runner: %s", e.Runner)
}

// Registry maps test runner names to their readers.
type Registry struct {
	readers map[string]Reader
}

// NewRegistry ...
func NewRegistry(readers ...Reader) *Registry {
	r := &Registry{
		readers: map[string]Reader{},
	}
	for _, reader := range readers {
		r.Register(reader)
	}
	return r
}

// NewDefaultRegistry returns a registry with the built-in JUnit, NUnit and XCResult readers.
func NewDefaultRegistry(logger log.Logger, clock clock.Clock, commandFactory command.Factory, pathChecker pathutil.PathChecker) *Registry {
	return NewRegistry(
		NewJUnitReader(logger, clock),
		NewNUnitReader(logger, clock),
		NewXCResultReader(logger, clock, commandFactory, pathChecker),
	)
}

// Register adds a reader, replacing any reader registered with the same name.
func (r *Registry) Register(reader Reader) {
	r.readers[strings.ToLower(reader.Name())] = reader
}

// Reader returns the reader registered for the runner, the lookup ignores case.
func (r *Registry) Reader(runner string) (Reader, error) {
	reader, ok := r.readers[strings.ToLower(runner)]
	if !ok {
		return nil, UnknownRunnerError{Runner: runner}
	}
	return reader, nil
}

// Names returns the registered runner names in alphabetical order.
func (r *Registry) Names() []string {
	var names []string
	for _, reader := range r.readers {
		names = append(names, reader.Name())
	}
	sort.Strings(names)
	return names
}

// ImplicitRunName is the run name used when neither the user nor the result file names the run.
func ImplicitRunName(readerName string, buildID int) string {
	return fmt.Sprintf("%s_TestResults_%d", readerName, buildID)
}
