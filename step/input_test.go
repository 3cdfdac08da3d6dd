package step

import (
	"testing"

	"github.com/bitrise-steplib/steps-publish-test-results/publish"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_GivenDataAndResultFilesProperty_WhenLoadingRequest_ThenDataWins(t *testing.T) {
	// Given
	properties := map[string]string{
		PropertyType:        "JUnit",
		PropertyResultFiles: "c.xml",
	}

	// When
	request, err := LoadRequest(properties, "a.xml, b.xml")

	// Then
	require.NoError(t, err)
	assert.Equal(t, []string{"a.xml", "b.xml"}, request.ResultFiles)
}

func Test_GivenBlankData_WhenLoadingRequest_ThenFallsBackToResultFilesProperty(t *testing.T) {
	// Given
	properties := map[string]string{
		PropertyType:        "JUnit",
		PropertyResultFiles: "c.xml,,d.xml ",
	}

	// When
	request, err := LoadRequest(properties, "  ")

	// Then
	require.NoError(t, err)
	assert.Equal(t, []string{"c.xml", "d.xml"}, request.ResultFiles)
}

func Test_GivenOnlyRequiredProperties_WhenLoadingRequest_ThenAppliesDefaults(t *testing.T) {
	// Given
	properties := map[string]string{
		PropertyType:        "NUnit",
		PropertyResultFiles: "TestResult.xml",
	}

	// When
	request, err := LoadRequest(properties, "")

	// Then
	require.NoError(t, err)
	assert.Equal(t, publish.Request{
		ResultFiles:                []string{"TestResult.xml"},
		RunnerName:                 "NUnit",
		MergeResults:               true,
		Platform:                   "",
		BuildConfiguration:         "",
		RunTitle:                   "",
		PublishRunLevelAttachments: true,
	}, request)
}

func Test_GivenAllProperties_WhenLoadingRequest_ThenMapsThem(t *testing.T) {
	// Given
	properties := map[string]string{
		PropertyType:                  "xcresult",
		PropertyResultFiles:           "Test.xcresult",
		PropertyMergeResults:          "False",
		PropertyPlatform:              "arm64",
		PropertyConfiguration:         "Debug",
		PropertyRunTitle:              "Nightly",
		PropertyPublishRunAttachments: "no",
	}

	// When
	request, err := LoadRequest(properties, "")

	// Then
	require.NoError(t, err)
	assert.Equal(t, "xcresult", request.RunnerName)
	assert.False(t, request.MergeResults)
	assert.Equal(t, "arm64", request.Platform)
	assert.Equal(t, "Debug", request.BuildConfiguration)
	assert.Equal(t, "Nightly", request.RunTitle)
	assert.False(t, request.PublishRunLevelAttachments)
}

func Test_GivenMissingResultFiles_WhenLoadingRequest_ThenFailsWithConfigurationError(t *testing.T) {
	for _, resultFiles := range []string{"", " , ,"} {
		// When
		_, err := LoadRequest(map[string]string{PropertyType: "JUnit", PropertyResultFiles: resultFiles}, "")

		// Then
		var configErr ConfigurationError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, PropertyResultFiles, configErr.Field)
	}
}

func Test_GivenMissingRunner_WhenLoadingRequest_ThenFailsWithConfigurationError(t *testing.T) {
	// When
	_, err := LoadRequest(map[string]string{PropertyType: "  "}, "a.xml")

	// Then
	var configErr ConfigurationError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, PropertyType, configErr.Field)
	assert.Equal(t, "required input is missing: type", err.Error())
}

func Test_GivenBoolValues_WhenParsing_ThenFallsBackToDefault(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{value: "true", want: true},
		{value: "FALSE", want: false},
		{value: "yes", want: true},
		{value: "No", want: false},
		{value: " False ", want: false},
		{value: "0", want: true},
		{value: "f", want: true},
		{value: "1", want: true},
		{value: "", want: true},
		{value: "maybe", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseBool(tt.value, true))
		})
	}
}
