package publish

// Request is the validated configuration of one publish invocation.
type Request struct {
	ResultFiles                []string
	RunnerName                 string
	MergeResults               bool
	Platform                   string
	BuildConfiguration         string
	RunTitle                   string
	PublishRunLevelAttachments bool
}
