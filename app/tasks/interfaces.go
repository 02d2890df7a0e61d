package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Example usage:
//
//	scheduler := NewScheduler(pipeline, history, 24*time.Hour)
//	scheduler.Start()
//	defer scheduler.Stop()
//	runID, err := scheduler.TriggerRun(TriggerManual)
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	TriggerRun(trigger string) (string, error)
}
