package model

// QueueRecord is a raw message delivered by the queue transport
type QueueRecord struct {
	ID   string
	Body []byte
}

// RecordStatus is the outcome of processing one queue record
type RecordStatus string

const (
	RecordProcessed RecordStatus = "processed"
	RecordSkipped   RecordStatus = "skipped"
	RecordFailed    RecordStatus = "failed"
)

// RecordResult is the outcome of processing one queue record. Err is set
// only for failed records, which are eligible for redelivery.
type RecordResult struct {
	RecordID string
	Status   RecordStatus
	Err      error
}

// HasFailure reports whether any record in results failed
func HasFailure(results []RecordResult) bool {
	for _, r := range results {
		if r.Status == RecordFailed {
			return true
		}
	}
	return false
}
