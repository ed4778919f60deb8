// Jamf Sync - MDM Device Reconciliation for GLPI
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jamfsync

package sync

import "github.com/tomtom215/jamfsync/internal/models"

// Task names one step of the sync chain.
type Task string

// Tasks, in execution order.
const (
	TaskGeneral             Task = "general"
	TaskOS                  Task = "os"
	TaskSoftware            Task = "software"
	TaskUser                Task = "user"
	TaskPurchasing          Task = "purchasing"
	TaskExtensionAttributes Task = "extension_attributes"
	TaskSecurity            Task = "security"
	TaskNetwork             Task = "network"
	TaskOther               Task = "other"
	TaskDeviceLink          Task = "device_link"
)

// TaskOrder is the fixed execution order of the chain.
var TaskOrder = []Task{
	TaskGeneral,
	TaskOS,
	TaskSoftware,
	TaskUser,
	TaskPurchasing,
	TaskExtensionAttributes,
	TaskSecurity,
	TaskNetwork,
	TaskOther,
	TaskDeviceLink,
}

// Outcome is the result of one task.
type Outcome string

const (
	OutcomeOK            Outcome = "OK"
	OutcomeSkipped       Outcome = "SKIPPED"
	OutcomeError         Outcome = "ERROR"
	OutcomeDeferred      Outcome = "DEFERRED"
	OutcomeNotApplicable Outcome = "NOT_APPLICABLE"
)

// TaskOutcome pairs a task with its outcome. Err is set for ERROR.
type TaskOutcome struct {
	Task    Task
	Outcome Outcome
	Err     error
}

// Outcomes is the ordered outcome set of one run.
type Outcomes []TaskOutcome

// Get returns the outcome of task, or "" when the task did not run.
func (o Outcomes) Get(task Task) Outcome {
	for _, t := range o {
		if t.Task == task {
			return t.Outcome
		}
	}
	return ""
}

// set replaces the outcome of task, appending it if absent.
func (o *Outcomes) set(res TaskOutcome) {
	for i := range *o {
		if (*o)[i].Task == res.Task {
			(*o)[i] = res
			return
		}
	}
	*o = append(*o, res)
}

// Failed returns the tasks in ERROR or DEFERRED.
func (o Outcomes) Failed() []TaskOutcome {
	var failed []TaskOutcome
	for _, t := range o {
		if t.Outcome == OutcomeError || t.Outcome == OutcomeDeferred {
			failed = append(failed, t)
		}
	}
	return failed
}

// Models converts the set for API responses.
func (o Outcomes) Models() []models.TaskOutcome {
	out := make([]models.TaskOutcome, len(o))
	for i, t := range o {
		out[i] = models.TaskOutcome{Task: string(t.Task), Outcome: string(t.Outcome)}
	}
	return out
}
