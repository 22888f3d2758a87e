package models

import (
	"fmt"

	"github.com/tanvir-rifat007/maker-cli/internal/validator"
)

// Worker pool bounds accepted by the generation service.
const (
	MinWorkerCount = 1
	MaxWorkerCount = 8
)

// GenerationRequest is the configuration for a single generation job.
// It is constructed fresh per submission and never mutated after sending.
type GenerationRequest struct {
	Language    string `json:"language"`
	Template    string `json:"template"`
	BasePackage string `json:"basePackage"`
	WorkerCount int    `json:"workerCount"`
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	ProjectName string `json:"projectName"`
}

// DefaultGenerationRequest mirrors the defaults the generator form starts with.
func DefaultGenerationRequest() GenerationRequest {
	return GenerationRequest{
		Language:    "go",
		Template:    "go-gin",
		BasePackage: "github.com/user/app",
		WorkerCount: 4,
		Model:       "o3-mini",
	}
}

// Normalized returns a copy with the project name defaulted to
// "{language}-project" when blank.
func (r GenerationRequest) Normalized() GenerationRequest {
	if r.ProjectName == "" {
		r.ProjectName = fmt.Sprintf("%s-project", r.Language)
	}
	return r
}

// Validate runs the pre-submit field checks. The returned validator carries
// one message per failing field; nothing may be sent while it is not Valid.
func (r GenerationRequest) Validate() *validator.Validator {
	v := validator.New()
	v.Check(r.Prompt != "", "prompt", "Prompt is required")
	v.Check(r.Language != "", "language", "Language is required")
	v.Check(r.WorkerCount >= MinWorkerCount && r.WorkerCount <= MaxWorkerCount,
		"workers", fmt.Sprintf("Workers must be between %d and %d", MinWorkerCount, MaxWorkerCount))
	return v
}

// EventType tags a streamed progress frame.
type EventType string

const (
	EventStart    EventType = "start"
	EventFile     EventType = "file"
	EventError    EventType = "error"
	EventComplete EventType = "complete"
)

// ProgressEvent is one inbound frame of a generation session. Which fields
// are set depends on Type: start/complete carry Message, file carries File,
// error carries Error, complete carries ZipURL.
type ProgressEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	File    string    `json:"file,omitempty"`
	Error   string    `json:"error,omitempty"`
	ZipURL  string    `json:"zipUrl,omitempty"`
}

// Terminal reports whether no further events are expected after this one.
func (e ProgressEvent) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// Known reports whether the event type is one the client understands.
// Unknown types are skipped for forward compatibility.
func (e ProgressEvent) Known() bool {
	switch e.Type {
	case EventStart, EventFile, EventError, EventComplete:
		return true
	}
	return false
}
