// Package model defines the task records consumed by the scheduler.
package model

import (
	"time"
)

// TaskID identifies a task by its position in the loaded task list.
// All tie-breaking is by lowest TaskID.
type TaskID = int

// Task is an immutable unit of work to be fitted into the schedule.
// Remaining volume is derived from committed intervals, never stored here.
type Task struct {
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Priority    float32   `json:"priority"`
	Volume      float32   `json:"volume"` // work-hours required to finish
	DependsOn   []TaskID  `json:"depends_on,omitempty"`
}
