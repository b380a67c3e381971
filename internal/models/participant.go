package models

// ParticipantType classifies a registered attendee.
type ParticipantType string

const (
	TypeAdmin   ParticipantType = "ADMIN"
	TypeSpeaker ParticipantType = "SPEAKER"
	TypeGuest   ParticipantType = "GUEST"
	TypeSponsor ParticipantType = "SPONSOR"
)

// Valid reports whether t is a known participant type.
func (t ParticipantType) Valid() bool {
	switch t {
	case TypeAdmin, TypeSpeaker, TypeGuest, TypeSponsor:
		return true
	}
	return false
}

// ParticipantStatus is the lifecycle state of a participant record.
type ParticipantStatus string

const (
	StatusActive   ParticipantStatus = "ACTIVE"
	StatusInactive ParticipantStatus = "INACTIVE"
)

// Participant is an event attendee. Email is the unique business key
// across active participants, checked before insert. FaceID and
// ImageKey reference the face identity service and the stored photo;
// both are sensitive and excluded from every JSON response.
type Participant struct {
	ID         string            `json:"id" dynamodbav:"id"`
	Name       string            `json:"name" dynamodbav:"name"`
	Email      string            `json:"email" dynamodbav:"email"`
	Company    string            `json:"company" dynamodbav:"company"`
	Type       ParticipantType   `json:"type" dynamodbav:"type"`
	Phone      string            `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Position   string            `json:"position,omitempty" dynamodbav:"position,omitempty"`
	FaceID     string            `json:"-" dynamodbav:"faceId,omitempty"`
	ImageKey   string            `json:"-" dynamodbav:"imageKey,omitempty"`
	Confidence float64           `json:"confidence,omitempty" dynamodbav:"confidence,omitempty"`
	Status     ParticipantStatus `json:"status" dynamodbav:"status"`
	CreatedAt  string            `json:"createdAt" dynamodbav:"createdAt"`
}

// Summary is the reduced participant view embedded in admin check-in
// listings.
type Summary struct {
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Company string          `json:"company"`
	Type    ParticipantType `json:"type"`
}

// Summary returns the reduced view of p.
func (p *Participant) Summary() Summary {
	return Summary{Name: p.Name, Email: p.Email, Company: p.Company, Type: p.Type}
}
