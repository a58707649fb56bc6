// Copyright 2026 Arcentra Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bpm is the boundary to the remote workflow engine. It holds the wire
// types of the engine's REST API, the Client contract the retry core depends on,
// a resty based implementation and the normalizer for batch statistics.
package bpm

import "time"

// Incident types reported by the engine.
const (
	IncidentTypeFailedJob          = "failedJob"
	IncidentTypeFailedExternalTask = "failedExternalTask"
)

// Incident is an open failure record attached to a process instance.
type Incident struct {
	Id                string      `json:"id"`
	ProcessInstanceId string      `json:"processInstanceId"`
	IncidentType      string      `json:"incidentType"`
	ActivityId        string      `json:"activityId,omitempty"`
	Configuration     string      `json:"configuration,omitempty"` // id of the failed job or external task
	IncidentMessage   string      `json:"incidentMessage,omitempty"`
	IncidentTimestamp *EngineTime `json:"incidentTimestamp,omitempty"`
}

// IsJobFailure reports whether the incident was raised by a failed job.
func (i Incident) IsJobFailure() bool {
	return i.IncidentType == IncidentTypeFailedJob
}

// IsExternalTaskFailure reports whether the incident was raised by a failed external task.
func (i Incident) IsExternalTaskFailure() bool {
	return i.IncidentType == IncidentTypeFailedExternalTask
}

// Job is an asynchronous engine job.
type Job struct {
	Id                string      `json:"id"`
	ProcessInstanceId string      `json:"processInstanceId"`
	ExceptionMessage  string      `json:"exceptionMessage,omitempty"`
	Retries           int         `json:"retries"`
	DueDate           *EngineTime `json:"dueDate,omitempty"`
}

// ExternalTask is a unit of work fetched and locked by an external worker.
type ExternalTask struct {
	Id                 string      `json:"id"`
	ProcessInstanceId  string      `json:"processInstanceId"`
	TopicName          string      `json:"topicName,omitempty"`
	WorkerId           string      `json:"workerId,omitempty"`
	ErrorMessage       string      `json:"errorMessage,omitempty"`
	Retries            *int        `json:"retries,omitempty"`
	LockExpirationTime *EngineTime `json:"lockExpirationTime,omitempty"`
}

// Failed reports whether the task carries an error or has run out of retries.
func (t ExternalTask) Failed() bool {
	return t.ErrorMessage != "" || (t.Retries != nil && *t.Retries == 0)
}

// Batch is the handle of an asynchronous bulk operation.
type Batch struct {
	Id        string `json:"id"`
	Type      string `json:"type,omitempty"`
	TotalJobs int    `json:"totalJobs,omitempty"`
}

// EngineTime parses the engine's "2006-01-02T15:04:05.000-0700" timestamps,
// falling back to RFC 3339.
type EngineTime struct {
	time.Time
}

const engineTimeLayout = "2006-01-02T15:04:05.000-0700"

func (t *EngineTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || len(s) < 2 {
		return nil
	}
	s = s[1 : len(s)-1]
	if s == "" {
		return nil
	}
	parsed, err := time.Parse(engineTimeLayout, s)
	if err != nil {
		if parsed, err = time.Parse(time.RFC3339Nano, s); err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}

func (t EngineTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(engineTimeLayout) + `"`), nil
}
