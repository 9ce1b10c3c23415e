package models

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// DeliveryMode describes how a course is taught.
type DeliveryMode string

const (
	DeliveryOnline  DeliveryMode = "online"
	DeliveryOffline DeliveryMode = "offline"
	DeliveryHybrid  DeliveryMode = "hybrid"
)

// Valid reports whether the mode is one of the recognized values.
func (m DeliveryMode) Valid() bool {
	switch m {
	case DeliveryOnline, DeliveryOffline, DeliveryHybrid:
		return true
	}
	return false
}

// StructuredQuery is the typed representation of user intent extracted from
// the conversation. Every slot is optional; an absent slot means "do not
// constrain or score on this field", never "match empty". String slots use
// the empty string for absence, Grade uses nil.
type StructuredQuery struct {
	Teacher      string       `json:"teacher,omitempty"`
	Keywords     string       `json:"keywords,omitempty"`
	Department   string       `json:"department,omitempty"`
	Program      string       `json:"program,omitempty"`
	Grade        *int         `json:"grade,omitempty"`
	DeliveryMode DeliveryMode `json:"deliveryMode,omitempty"`
}

// IsEmpty reports whether no slot is populated.
func (q StructuredQuery) IsEmpty() bool {
	return q.Teacher == "" &&
		q.Keywords == "" &&
		q.Department == "" &&
		q.Program == "" &&
		q.Grade == nil &&
		q.DeliveryMode == ""
}

// PopulatedFields lists the populated slot names, for logging and prompt
// rendering.
func (q StructuredQuery) PopulatedFields() []string {
	var fields []string
	if q.Teacher != "" {
		fields = append(fields, "teacher")
	}
	if q.Keywords != "" {
		fields = append(fields, "keywords")
	}
	if q.Department != "" {
		fields = append(fields, "department")
	}
	if q.Program != "" {
		fields = append(fields, "program")
	}
	if q.Grade != nil {
		fields = append(fields, "grade")
	}
	if q.DeliveryMode != "" {
		fields = append(fields, "deliveryMode")
	}
	return fields
}
