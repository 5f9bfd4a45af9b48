// Package progress defines the event structures emitted during analysis runs.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart  Stage = "RUN_START"
	StageRunDone   Stage = "RUN_DONE"
	StageRunError  Stage = "RUN_ERROR"
	StagePageDone  Stage = "PAGE_DONE"
	StagePageError Stage = "PAGE_ERROR"
	StageBatchDone Stage = "BATCH_DONE"
)

// Event captures a single milestone of analysis progress.
type Event struct {
	// RunID uniquely identifies an orchestrator run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle or page milestone occurred.
	Stage Stage
	// URL is the page URL for page-scoped events; it should not contain credentials.
	URL string
	// PageType carries the classified type label for page completions.
	PageType string
	// Dur captures execution latency for page and run completions.
	Dur time.Duration
	// Completed is the number of pages finished so far in the run.
	Completed int
	// Total is the number of pages submitted to the run.
	Total int
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError, StageBatchDone:
	case StagePageDone:
		if e.URL == "" {
			return errors.New("page done requires url")
		}
		if e.PageType == "" {
			return errors.New("page done requires page type")
		}
	case StagePageError:
		if e.URL == "" {
			return errors.New("page error requires url")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	if e.Completed < 0 || e.Total < 0 {
		return errors.New("counters must be >= 0")
	}
	if e.Total > 0 && e.Completed > e.Total {
		return errors.New("completed cannot exceed total")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID for repositories.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
