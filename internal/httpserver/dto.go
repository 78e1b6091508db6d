package httpserver

import (
	"time"

	"scholarfund/internal/core/domain"
)

type documentDTO struct {
	ID           string    `json:"id"`
	DocumentType string    `json:"documentType"`
	FileRef      string    `json:"fileRef"`
	IsVerified   bool      `json:"isVerified"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type eventDTO struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	Reason     string    `json:"reason,omitempty"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type noteDTO struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type verificationDTO struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	Status        string        `json:"status"`
	FullName      string        `json:"fullName"`
	Country       string        `json:"country"`
	Institution   string        `json:"institution"`
	DegreeProgram string        `json:"degreeProgram"`
	RiskScore     float64       `json:"riskScore"`
	RiskFlags     []string      `json:"riskFlags,omitempty"`
	Documents     []documentDTO `json:"documents"`
	Events        []eventDTO    `json:"events,omitempty"`
	Notes         []noteDTO     `json:"notes,omitempty"`
	SubmittedAt   *time.Time    `json:"submittedAt,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	Version       int64         `json:"version"`
}

// toDTO flattens a record for the wire. Admin view includes the audit
// trail and internal notes; the student view leaves them off.
func toDTO(v *domain.Verification, adminView bool) verificationDTO {
	dto := verificationDTO{
		ID:            v.ID.String(),
		UserID:        v.UserID.String(),
		Status:        string(v.Status),
		FullName:      v.Profile.FullName,
		Country:       v.Profile.Country,
		Institution:   v.Profile.Institution,
		DegreeProgram: v.Profile.DegreeProgram,
		RiskScore:     v.RiskScore,
		SubmittedAt:   v.SubmittedAt,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
		Version:       v.Version,
		Documents:     []documentDTO{},
	}
	for _, d := range v.Documents {
		dto.Documents = append(dto.Documents, documentDTO{
			ID:           d.ID.String(),
			DocumentType: string(d.DocumentType),
			FileRef:      d.FileRef,
			IsVerified:   d.IsVerified,
			UploadedAt:   d.UploadedAt,
		})
	}
	if !adminView {
		return dto
	}
	dto.RiskFlags = v.RiskFlags
	for _, e := range v.Events {
		dto.Events = append(dto.Events, eventDTO{
			ID:         e.ID,
			Actor:      string(e.Actor),
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			Reason:     e.Reason,
			Message:    e.Message,
			CreatedAt:  e.CreatedAt,
		})
	}
	for _, n := range v.Notes {
		dto.Notes = append(dto.Notes, noteDTO{
			ID:        n.ID.String(),
			AuthorID:  n.AuthorID.String(),
			Body:      n.Body,
			CreatedAt: n.CreatedAt,
		})
	}
	return dto
}
