package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the admin API to manage background
// maintenance work: cache pruning, feed refresh, and tracked-grant
// enrichment.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
