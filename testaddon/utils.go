package testaddon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
)

// TestAddon ...
type TestAddon interface {
	ReplaceUnsupportedFilenameCharacters(s string) string
	CopyAttachment(source string, target string) error
	SaveRunMetadata(outputDir string, runName string, state string) error
}

type testAddon struct {
	commandFactory command.Factory
	fileManager    fileutil.FileManager
	logger         log.Logger
}

// NewTestAddon ...
func NewTestAddon(commandFactory command.Factory, fileManager fileutil.FileManager, logger log.Logger) TestAddon {
	return &testAddon{
		commandFactory: commandFactory,
		fileManager:    fileManager,
		logger:         logger,
	}
}

// ReplaceUnsupportedFilenameCharacters Replaces characters '/' and ':', which are unsupported in filnenames on macOS
func (t testAddon) ReplaceUnsupportedFilenameCharacters(s string) string {
	s = strings.Replace(s, "/", "-", -1)
	s = strings.Replace(s, ":", "-", -1)
	return s
}

// CopyAttachment copies source to the target path, the target must not exist yet.
func (t testAddon) CopyAttachment(source string, target string) error {
	targetDir := filepath.Dir(target)
	if err := os.MkdirAll(targetDir, 0700); err != nil {
		return fmt.Errorf("failed to create directory (%s): %w", targetDir, err)
	}

	// -a keeps symlinks and attributes (directories like .xcresult bundles)
	cmd := t.commandFactory.Create("cp", []string{"-a", source, target}, nil)
	t.logger.Debugf("$ %s", cmd.PrintableCommandArgs())
	if out, err := cmd.RunAndReturnTrimmedCombinedOutput(); err != nil {
		return fmt.Errorf("copy failed: %w, output: %s", err, out)
	}

	return nil
}

func (t testAddon) SaveRunMetadata(outputDir string, runName string, state string) error {
	type testRunInfo struct {
		RunName string `json:"test-name"`
		State   string `json:"state"`
	}
	bytes, err := json.Marshal(testRunInfo{
		RunName: runName,
		State:   state,
	})
	if err != nil {
		return fmt.Errorf("could not encode metadata: %w", err)
	}
	if err = t.fileManager.Write(filepath.Join(outputDir, "test-info.json"), string(bytes), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
