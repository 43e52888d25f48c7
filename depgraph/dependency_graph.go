package depgraph

// DependencyGraph maps each source path to the project source paths it must be compiled after.
type DependencyGraph map[string][]string
