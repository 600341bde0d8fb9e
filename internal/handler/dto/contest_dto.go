package dto

import (
	"time"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/service"
)

// ContestResponse is a contest in client-facing form.
type ContestResponse struct {
	ID              uint       `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Prize           string     `json:"prize,omitempty"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	Status          string     `json:"status"`
	WinnerCount     int        `json:"winner_count"`
	PrizeTiers      []string   `json:"prize_tiers,omitempty"`
	CreatedBy       uint       `json:"created_by"`
	HeroImageKey    string     `json:"hero_image_key,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	ApprovalMessage string     `json:"approval_message,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// ContestDetailsResponse adds the derived fields to a contest.
type ContestDetailsResponse struct {
	ContestResponse
	EffectiveStatus string `json:"effective_status"`
	EntryCount      int64  `json:"entry_count"`
	IsComplete      bool   `json:"is_complete"`
}

// NewContestResponse builds a contest DTO.
func NewContestResponse(c *entity.Contest) *ContestResponse {
	return &ContestResponse{
		ID:              c.ID,
		Name:            c.Name,
		Description:     c.Description,
		Prize:           c.Prize,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		Status:          string(c.Status),
		WinnerCount:     c.WinnerCount,
		PrizeTiers:      c.PrizeTiers,
		CreatedBy:       c.CreatedBy,
		HeroImageKey:    c.HeroImageKey,
		SubmittedAt:     c.SubmittedAt,
		ApprovedAt:      c.ApprovedAt,
		RejectedAt:      c.RejectedAt,
		ApprovalMessage: c.ApprovalMessage,
		RejectionReason: c.RejectionReason,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// NewContestDetailsResponse builds a contest DTO with the derived fields.
func NewContestDetailsResponse(d *service.ContestDetails) *ContestDetailsResponse {
	return &ContestDetailsResponse{
		ContestResponse: *NewContestResponse(d.Contest),
		EffectiveStatus: string(d.EffectiveStatus),
		EntryCount:      d.EntryCount,
		IsComplete:      d.IsComplete,
	}
}

// NewListContestResponse builds contest DTOs for a list endpoint.
func NewListContestResponse(contests []entity.Contest) []*ContestResponse {
	out := make([]*ContestResponse, len(contests))
	for i := range contests {
		out[i] = NewContestResponse(&contests[i])
	}
	return out
}

// EntryResponse is an entry with the phone masked.
type EntryResponse struct {
	ID          uint      `json:"id"`
	ContestID   uint      `json:"contest_id"`
	MaskedPhone string    `json:"masked_phone"`
	UserID      *uint     `json:"user_id,omitempty"`
	Source      string    `json:"source"`
	Code        string    `json:"code"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEntryResponse builds an entry DTO. Raw phones never leave the API.
func NewEntryResponse(e *entity.Entry) *EntryResponse {
	return &EntryResponse{
		ID:          e.ID,
		ContestID:   e.ContestID,
		MaskedPhone: e.MaskedPhone(),
		UserID:      e.UserID,
		Source:      e.Source,
		Code:        e.Code,
		CreatedAt:   e.CreatedAt,
	}
}

// WinnerResponse is a contest winner with display fields resolved.
type WinnerResponse struct {
	ID          uint       `json:"id"`
	ContestID   uint       `json:"contest_id"`
	EntryID     uint       `json:"entry_id"`
	Position    int        `json:"position"`
	Prize       string     `json:"prize,omitempty"`
	MaskedPhone string     `json:"masked_phone,omitempty"`
	SelectedAt  time.Time  `json:"selected_at"`
	NotifiedAt  *time.Time `json:"notified_at,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
}

// NewWinnerResponse builds a winner DTO; entry may be nil when the caller did
// not resolve it.
func NewWinnerResponse(w *entity.ContestWinner, entry *entity.Entry) *WinnerResponse {
	resp := &WinnerResponse{
		ID:         w.ID,
		ContestID:  w.ContestID,
		EntryID:    w.EntryID,
		Position:   w.Position,
		Prize:      w.Prize,
		SelectedAt: w.SelectedAt,
		NotifiedAt: w.NotifiedAt,
		ClaimedAt:  w.ClaimedAt,
	}
	if entry != nil {
		resp.MaskedPhone = entry.MaskedPhone()
	}
	return resp
}

// AuditRecordResponse is one status audit record.
type AuditRecordResponse struct {
	ID        uint      `json:"id"`
	ContestID uint      `json:"contest_id"`
	OldStatus *string   `json:"old_status,omitempty"`
	NewStatus string    `json:"new_status"`
	ActorID   *uint     `json:"actor_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAuditRecordResponse builds an audit record DTO.
func NewAuditRecordResponse(r *entity.StatusAuditRecord) *AuditRecordResponse {
	resp := &AuditRecordResponse{
		ID:        r.ID,
		ContestID: r.ContestID,
		NewStatus: string(r.NewStatus),
		ActorID:   r.ActorID,
		Reason:    r.Reason,
		CreatedAt: r.CreatedAt,
	}
	if r.OldStatus != nil {
		old := string(*r.OldStatus)
		resp.OldStatus = &old
	}
	return resp
}
