package step

import (
	"fmt"
	"strings"

	"github.com/bitrise-steplib/steps-publish-test-results/publish"
)

// Publish command property keys.
const (
	PropertyType                  = "type"
	PropertyMergeResults          = "mergeResults"
	PropertyPlatform              = "platform"
	PropertyConfiguration         = "config"
	PropertyRunTitle              = "runTitle"
	PropertyPublishRunAttachments = "publishRunAttachments"
	PropertyResultFiles           = "resultFiles"
)

// ConfigurationError is returned for a missing or invalid required input.
type ConfigurationError struct {
	Field string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("required input is missing: %s", e.Field)
}

// LoadRequest validates the publish command's properties. The comma separated data string,
// when not blank, takes precedence over the resultFiles property.
func LoadRequest(properties map[string]string, data string) (publish.Request, error) {
	resultFiles := splitFileList(data)
	if len(resultFiles) == 0 {
		resultFiles = splitFileList(properties[PropertyResultFiles])
	}
	if len(resultFiles) == 0 {
		return publish.Request{}, ConfigurationError{Field: PropertyResultFiles}
	}

	runnerName := strings.TrimSpace(properties[PropertyType])
	if runnerName == "" {
		return publish.Request{}, ConfigurationError{Field: PropertyType}
	}

	return publish.Request{
		ResultFiles:                resultFiles,
		RunnerName:                 runnerName,
		MergeResults:               parseBool(properties[PropertyMergeResults], true),
		Platform:                   properties[PropertyPlatform],
		BuildConfiguration:         properties[PropertyConfiguration],
		RunTitle:                   properties[PropertyRunTitle],
		PublishRunLevelAttachments: parseBool(properties[PropertyPublishRunAttachments], true),
	}, nil
}

func splitFileList(list string) []string {
	var files []string
	for _, file := range strings.Split(list, ",") {
		if file = strings.TrimSpace(file); file != "" {
			files = append(files, file)
		}
	}
	return files
}

// parseBool accepts true/false and yes/no, ignoring case, anything else yields the default.
func parseBool(value string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	default:
		return defaultValue
	}
}
