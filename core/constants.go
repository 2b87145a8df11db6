package core

const (
	LogFileName = "kvs.db" // Name of the log file inside the store directory

	// 0 (special bit - ignored), 7 (rwx - owner), 5 (r-x - user group), 5 (r-x - others)
	directoryPerm = 0755

	metricsNamespace = "kvs"
)
