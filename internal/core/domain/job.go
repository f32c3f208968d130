package domain

import "fmt"

type JobOutcome int

const (
	JobCompleted JobOutcome = iota
	JobFailed
	JobExhausted
)

func (o JobOutcome) String() string {
	switch o {
	case JobCompleted:
		return "completed"
	case JobFailed:
		return "failed"
	case JobExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// RemovalResult is the tagged outcome of a background-removal job. ImageURL
// is set only for JobCompleted; Status carries the service's terminal status
// for JobFailed (FAILED or CANCELLED).
type RemovalResult struct {
	Outcome  JobOutcome
	ImageURL string
	Status   string
	Attempts int
}

// Err turns a non-completed outcome into the message recorded on the item.
func (r RemovalResult) Err() error {
	switch r.Outcome {
	case JobCompleted:
		if r.ImageURL == "" {
			return fmt.Errorf("no image URL in the result")
		}
		return nil
	case JobFailed:
		return fmt.Errorf("background removal request %s", r.Status)
	case JobExhausted:
		return fmt.Errorf("background removal request timed out after %d attempts", r.Attempts)
	default:
		return fmt.Errorf("background removal request ended in unknown state")
	}
}
