package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"code.cloudfoundry.org/clock"
	"github.com/bitrise-io/go-steputils/v2/export"
	"github.com/bitrise-io/go-steputils/v2/stepconf"
	"github.com/bitrise-io/go-steputils/v2/stepenv"
	"github.com/bitrise-io/go-utils/v2/command"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-publish-test-results/output"
	"github.com/bitrise-steplib/steps-publish-test-results/reader"
	"github.com/bitrise-steplib/steps-publish-test-results/step"
	"github.com/bitrise-steplib/steps-publish-test-results/testaddon"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configParser, publisher := createStep(logger)

	config, err := configParser.ProcessConfig()
	if err != nil {
		logger.Println()
		logger.Errorf("Failed to process Step inputs: %s", err)
		return 1
	}

	result, err := publisher.Run(ctx, config)
	if err != nil {
		logger.Println()
		logger.Errorf("Failed to publish test results: %s", err)
		return 1
	}

	if err := publisher.Export(step.ExportOpts{
		Summary:   result.Summary,
		DeployDir: config.DeployDir,
	}); err != nil {
		logger.Println()
		logger.Warnf("Failed to export outputs: %s", err)
	}

	return 0
}

func createStep(logger log.Logger) (step.ConfigParser, step.TestResultsPublisher) {
	envRepository := env.NewRepository()
	stepEnvRepository := stepenv.NewRepository(envRepository)
	commandFactory := command.NewFactory(envRepository)
	pathProvider := pathutil.NewPathProvider()
	pathChecker := pathutil.NewPathChecker()
	fileManager := fileutil.NewFileManager()
	systemClock := clock.NewClock()

	inputParser := stepconf.NewInputParser(envRepository)
	configParser := step.NewConfigParser(inputParser, envRepository, logger, pathProvider)

	registry := reader.NewDefaultRegistry(logger, systemClock, commandFactory, pathChecker)
	testAddon := testaddon.NewTestAddon(commandFactory, fileManager, logger)

	exporter := export.NewExporter(commandFactory, fileManager)
	outputExporter := output.NewExporter(stepEnvRepository, logger, &exporter, pathProvider, fileManager)

	publisher := step.NewTestResultsPublisher(logger, systemClock, registry, testAddon, fileManager, pathChecker, outputExporter)

	return configParser, publisher
}
