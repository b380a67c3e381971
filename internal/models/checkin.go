package models

// CheckInMethod is how a check-in was performed.
type CheckInMethod string

const (
	MethodFacial CheckInMethod = "FACIAL_RECOGNITION"
	MethodManual CheckInMethod = "MANUAL"
)

// CheckInStatus marks whether the attempt was the first of the day.
type CheckInStatus string

const (
	CheckInSuccess   CheckInStatus = "SUCCESS"
	CheckInDuplicate CheckInStatus = "DUPLICATE"
)

// CheckIn is one arrival attempt. Duplicate attempts are recorded, not
// rejected; the status tells them apart. Timestamps are ISO 8601 so
// day-prefix queries work against the participant index.
type CheckIn struct {
	ID            string        `json:"id" dynamodbav:"id"`
	ParticipantID string        `json:"participantId" dynamodbav:"participantId"`
	Timestamp     string        `json:"timestamp" dynamodbav:"timestamp"`
	Method        CheckInMethod `json:"method" dynamodbav:"method"`
	Confidence    float64       `json:"confidence,omitempty" dynamodbav:"confidence,omitempty"`
	Status        CheckInStatus `json:"status" dynamodbav:"status"`
}
