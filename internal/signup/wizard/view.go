package wizard

import (
	"jiran/internal/signup/models"
	id "jiran/pkg/domain"
)

// DraftView is the renderable draft: everything the applicant typed
// except the password, which never leaves the server once set.
type DraftView struct {
	FullName            string         `json:"full_name"`
	Phone               string         `json:"phone"`
	DistrictID          id.DistrictID  `json:"district_id"`
	CommunityID         id.CommunityID `json:"community_id"`
	Address             string         `json:"address"`
	BusinessName        string         `json:"business_name"`
	BusinessType        string         `json:"business_type"`
	BusinessDescription string         `json:"business_description"`
	Email               string         `json:"email"`
	PasswordSet         bool           `json:"password_set"`
	ExperienceYears     *int           `json:"experience_years"`
	Language            string         `json:"language"`
	PDPAAccepted        bool           `json:"pdpa_accepted"`
}

// DocumentView lists the staged file names for one document type.
type DocumentView struct {
	DocumentType string   `json:"document_type"`
	FileNames    []string `json:"file_names"`
}

// View is a consistent point-in-time snapshot of a session, safe to
// render after the service has released its lock.
type View struct {
	SessionID id.SessionID                `json:"session_id"`
	State     State                       `json:"state"`
	Draft     DraftView                   `json:"draft"`
	Documents []DocumentView              `json:"documents"`
	Message   string                      `json:"message,omitempty"`
	Result    *models.ProvisionedIdentity `json:"result,omitempty"`
}

// View snapshots the session under its lock.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		SessionID: s.ID,
		State:     s.State,
		Message:   s.Message,
		Result:    s.Result,
		Draft: DraftView{
			FullName:            s.Draft.FullName,
			Phone:               s.Draft.Phone,
			DistrictID:          s.Draft.DistrictID,
			CommunityID:         s.Draft.CommunityID,
			Address:             s.Draft.Address,
			BusinessName:        s.Draft.BusinessName,
			BusinessType:        s.Draft.BusinessType,
			BusinessDescription: s.Draft.BusinessDescription,
			Email:               s.Draft.Email,
			PasswordSet:         s.Draft.Password != "",
			ExperienceYears:     s.Draft.ExperienceYears,
			Language:            s.Draft.Language,
			PDPAAccepted:        s.Draft.PDPAAccepted,
		},
	}

	var current *DocumentView
	for _, pending := range s.Staging.Snapshot() {
		if current == nil || current.DocumentType != pending.DocumentType {
			view.Documents = append(view.Documents, DocumentView{DocumentType: pending.DocumentType})
			current = &view.Documents[len(view.Documents)-1]
		}
		current.FileNames = append(current.FileNames, pending.File.Name)
	}
	return view
}
