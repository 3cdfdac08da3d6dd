package testaddon

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-io/go-utils/ziputil"
	"github.com/bitrise-steplib/steps-publish-test-results/junit"
	"github.com/bitrise-steplib/steps-publish-test-results/models"
)

const (
	attachmentsDirName     = "attachments"
	attachmentsArchiveName = "attachments.zip"
)

type testRun struct {
	descriptor models.TestRun
	dirName    string
	outputDir  string
	results    []models.CaseResult
}

// Publisher publishes test runs into the test add-on result directory, one sub directory per run.
type Publisher struct {
	resultDir   string
	testAddon   TestAddon
	fileManager fileutil.FileManager
	pathChecker pathutil.PathChecker
	logger      log.Logger

	mu       sync.Mutex
	lastID   int
	runs     map[int]*testRun
	dirNames map[string]bool
}

// NewPublisher ...
func NewPublisher(resultDir string, testAddon TestAddon, fileManager fileutil.FileManager, pathChecker pathutil.PathChecker, logger log.Logger) *Publisher {
	return &Publisher{
		resultDir:   resultDir,
		testAddon:   testAddon,
		fileManager: fileManager,
		pathChecker: pathChecker,
		logger:      logger,
		runs:        map[int]*testRun{},
		dirNames:    map[string]bool{},
	}
}

// StartTestRun creates the run's output directory.
func (p *Publisher) StartTestRun(ctx context.Context, run models.TestRun) (models.PublishedRun, error) {
	if err := ctx.Err(); err != nil {
		return models.PublishedRun{}, err
	}

	p.mu.Lock()
	p.lastID++
	id := p.lastID
	dirName := p.testAddon.ReplaceUnsupportedFilenameCharacters(run.Name)
	if p.dirNames[dirName] || p.isPathExists(filepath.Join(p.resultDir, dirName)) {
		dirName = fmt.Sprintf("%s_%d", dirName, id)
	}
	p.dirNames[dirName] = true

	state := &testRun{
		descriptor: run,
		dirName:    dirName,
		outputDir:  filepath.Join(p.resultDir, dirName),
	}
	p.runs[id] = state
	p.mu.Unlock()

	if err := os.MkdirAll(state.outputDir, 0700); err != nil {
		p.mu.Lock()
		delete(p.runs, id)
		delete(p.dirNames, dirName)
		p.mu.Unlock()

		return models.PublishedRun{}, fmt.Errorf("failed to create test run directory (%s): %w", state.outputDir, err)
	}

	return models.PublishedRun{ID: id, Name: run.Name, URL: state.outputDir}, nil
}

// AddResults buffers the results until the run ends.
func (p *Publisher) AddResults(ctx context.Context, run models.PublishedRun, results []models.CaseResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.runs[run.ID]
	if !ok {
		return fmt.Errorf("test run (%d) not started", run.ID)
	}
	state.results = append(state.results, results...)

	return nil
}

// EndTestRun writes the run's JUnit report, attachments and metadata.
func (p *Publisher) EndTestRun(ctx context.Context, run models.PublishedRun, success bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	state, ok := p.runs[run.ID]
	delete(p.runs, run.ID)
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("test run (%d) not started", run.ID)
	}

	var buf bytes.Buffer
	if err := junit.Encode(&buf, newReport(state.descriptor, state.results)); err != nil {
		return fmt.Errorf("failed to encode test report: %w", err)
	}
	reportPth := filepath.Join(state.outputDir, state.dirName+".xml")
	if err := p.fileManager.Write(reportPth, buf.String(), 0600); err != nil {
		return fmt.Errorf("failed to write test report: %w", err)
	}

	if err := p.exportAttachments(state); err != nil {
		return err
	}

	runState := models.RunStateCompleted
	if !success {
		runState = models.RunStateAborted
	}
	if err := p.testAddon.SaveRunMetadata(state.outputDir, state.descriptor.Name, string(runState)); err != nil {
		return err
	}

	return nil
}

func (p *Publisher) exportAttachments(state *testRun) error {
	attachmentsDir := filepath.Join(state.outputDir, attachmentsDirName)

	copied := 0
	usedNames := map[string]bool{}
	for _, attachment := range state.descriptor.Attachments {
		if !p.isPathExists(attachment) {
			p.logger.Warnf("Attachment not found: %s", attachment)
			continue
		}
		target := filepath.Join(attachmentsDir, attachmentName(attachment, usedNames))
		if err := p.testAddon.CopyAttachment(attachment, target); err != nil {
			return fmt.Errorf("failed to copy attachment (%s): %w", attachment, err)
		}
		copied++
	}

	if copied == 0 || !state.descriptor.ArchiveAttachments {
		return nil
	}

	archivePth := filepath.Join(state.outputDir, attachmentsArchiveName)
	if err := ziputil.ZipDir(attachmentsDir, archivePth, true); err != nil {
		return fmt.Errorf("failed to archive attachments: %w", err)
	}
	if err := p.fileManager.RemoveAll(attachmentsDir); err != nil {
		p.logger.Warnf("Failed to remove %s: %s", attachmentsDir, err)
	}

	return nil
}

// attachmentName returns the attachment's base name, prefixed with a counter
// when an earlier attachment of the run already took that name.
func attachmentName(attachment string, usedNames map[string]bool) string {
	base := filepath.Base(attachment)
	name := base
	for i := 2; usedNames[name]; i++ {
		name = fmt.Sprintf("%d_%s", i, base)
	}
	usedNames[name] = true
	return name
}

func (p *Publisher) isPathExists(pth string) bool {
	exist, err := p.pathChecker.IsPathExists(pth)
	if err != nil {
		p.logger.Debugf("Failed to check path (%s): %s", pth, err)
		return false
	}
	return exist
}
