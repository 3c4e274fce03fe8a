package model

// TaskStatus represents the status of a transcode job
type TaskStatus string

const (
	// TaskStatusPending means the job is queued but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusProbing means ffprobe is reading the input duration and frame rate
	TaskStatusProbing TaskStatus = "Probing"

	// TaskStatusMeasuring means the EBU R128 measurement pass is running
	TaskStatusMeasuring TaskStatus = "Measuring"

	// TaskStatusEncoding means the DNxHR encode is in progress
	TaskStatusEncoding TaskStatus = "Encoding"

	// TaskStatusStopping means the job is in the process of stopping
	TaskStatusStopping TaskStatus = "Stopping"

	// TaskStatusStopped means the job was stopped by user
	TaskStatusStopped TaskStatus = "Stopped"

	// TaskStatusCompleted means the job finished successfully
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusError means the job failed with an error
	TaskStatusError TaskStatus = "Error"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive returns true if a process is running (or being stopped) for the job
func (ts TaskStatus) IsActive() bool {
	switch ts {
	case TaskStatusProbing, TaskStatusMeasuring, TaskStatusEncoding, TaskStatusStopping:
		return true
	}
	return false
}

// IsFinished returns true if the task is in a finished state (completed, stopped, or error)
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusStopped || ts == TaskStatusError
}
