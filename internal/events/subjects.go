package events

const (
	StreamName   = "FLOODRISK_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectScenarioCreated(name string) string    { return "flood.scenario." + name + ".created" }
func SubjectScenarioRun(name string) string        { return "flood.scenario." + name + ".run" }
func SubjectScenarioIntegrated(name string) string { return "flood.scenario." + name + ".integrated" }

func SubjectAnalysisCreated(name string) string   { return "flood.analysis." + name + ".created" }
func SubjectAnalysisCompleted(name string) string { return "flood.analysis." + name + ".completed" }
func SubjectAnalysisBlocked(name string) string   { return "flood.analysis." + name + ".blocked" }
