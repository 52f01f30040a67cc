package domain

// Contact is a support-desk contact. It is not owned by this system:
// contacts are created and updated through the remote API and may already
// exist, matched by name search.
type Contact struct {
	// ID is the support-desk contact id.
	ID int64

	// Name is the contact display name.
	Name string

	// PhoneNumber is the contact phone in E.164-like form, or empty.
	PhoneNumber string

	// Email is the contact email, or empty.
	Email string

	// CustomAttributes carries the structured attributes written on
	// every sync (CRM id, type, city, country, support link).
	CustomAttributes map[string]any

	// Labels are the labels currently attached to the contact.
	Labels []string
}

// ContactWrite is the payload for a contact create or update.
// A nil Phone leaves the remote phone untouched; an empty non-nil phone
// is never sent (the remote system enforces phone uniqueness).
type ContactWrite struct {
	Name             string
	Phone            string
	CustomAttributes map[string]any
}

// Inbox is a support-desk inbox contacts can be assigned to.
type Inbox struct {
	ID          int64
	Name        string
	ChannelType string
}

// ContactAttributes builds the structured custom attributes written
// alongside every contact create or update.
func ContactAttributes(org *Organization) map[string]any {
	return map[string]any{
		"pipedrive_org_id":  org.CRMOrgID,
		"type":              "organization",
		"status":            org.Status,
		"city":              org.City,
		"country":           org.Country,
		"support_link":      org.SupportLink,
		"company_name":      org.Name,
		"organization_name": org.Name,
	}
}
