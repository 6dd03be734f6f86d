package convert

import (
	"fmt"
	"strings"
	"time"

	u "github.com/gofrs/uuid/v5"

	"github.com/and161185/cadetcorps/internal/api"
	"github.com/and161185/cadetcorps/internal/errs"
	model "github.com/and161185/cadetcorps/internal/model"
)

// --- helpers ---

func idString(id u.UUID) string {
	if id == u.Nil {
		return ""
	}
	return id.String()
}

func tsPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// ParseID parses a wire id. Malformed ids are validation errors naming field.
func ParseID(field, s string) (u.UUID, error) {
	var id u.UUID
	if err := id.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return u.Nil, errs.Invalidf("%s: invalid id %q", field, s)
	}
	return id, nil
}

// ParseOptionalID parses s, returning uuid.Nil for an empty string.
func ParseOptionalID(field, s string) (u.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return u.Nil, nil
	}
	return ParseID(field, s)
}

// ParseIDs parses a list of wire ids.
func ParseIDs(field string, in []string) ([]u.UUID, error) {
	out := make([]u.UUID, 0, len(in))
	for i, s := range in {
		id, err := ParseID(fmt.Sprintf("%s[%d]", field, i), s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func idStrings(ids []u.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func mapSlice[T, R any](in []T, f func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

// --- members ---

// ToMember converts a domain user to its wire form. Credentials never leave the server.
func ToMember(m model.User) api.Member {
	return api.Member{
		ID:                 m.ID.String(),
		Email:              m.Email,
		Role:               string(m.Role),
		Status:             string(m.Status),
		TotalPoints:        m.TotalPoints,
		FullName:           m.FullName,
		RegisterNumber:     m.RegisterNumber,
		Year:               m.Year,
		Department:         m.Department,
		Phone:              m.Phone,
		Wing:               m.Wing,
		Squad:              m.Squad,
		Rank:               m.Rank,
		MustChangePassword: m.MustChangePassword,
		CreatedAt:          m.CreatedAt,
	}
}

// ToMembers converts a slice of users.
func ToMembers(in []model.User) []api.Member { return mapSlice(in, ToMember) }

// FromProvision splits a provisioning request into member input and password.
func FromProvision(in *api.ProvisionRequest) (model.NewMember, string) {
	return model.NewMember{
		Email:          in.Email,
		Role:           model.Role(strings.ToLower(strings.TrimSpace(in.Role))),
		FullName:       in.FullName,
		RegisterNumber: in.RegisterNumber,
		Year:           in.Year,
		Department:     in.Department,
		Phone:          in.Phone,
		Wing:           in.Wing,
		Squad:          in.Squad,
	}, in.Password
}

// FromUpdateMember converts a profile update request.
func FromUpdateMember(in *api.UpdateMemberRequest) model.ProfileUpdate {
	return model.ProfileUpdate{
		FullName:       in.FullName,
		RegisterNumber: in.RegisterNumber,
		Year:           in.Year,
		Department:     in.Department,
		Phone:          in.Phone,
		Wing:           in.Wing,
		Squad:          in.Squad,
		Rank:           in.Rank,
	}
}

// --- ledger ---

// ToSession converts a session record to its wire form.
func ToSession(s model.SessionRecord) api.Session {
	return api.Session{
		ID:            s.ID.String(),
		Date:          s.Date,
		Label:         s.Label,
		Kind:          string(s.Kind),
		PointValue:    s.PointValue,
		PresentCadets: idStrings(s.PresentCadets),
		TotalPresent:  s.TotalPresent,
		TotalEligible: s.TotalEligible,
		CreatedBy:     idString(s.CreatedBy),
		CreatedAt:     s.CreatedAt,
	}
}

// ToSessions converts a slice of session records.
func ToSessions(in []model.SessionRecord) []api.Session { return mapSlice(in, ToSession) }

// FromCreateSession converts a session request. EligibleCount is filled in by the caller.
func FromCreateSession(in *api.CreateSessionRequest) (model.NewSession, error) {
	attendees, err := ParseIDs("attendees", in.Attendees)
	if err != nil {
		return model.NewSession{}, err
	}
	return model.NewSession{
		Date:       in.Date,
		Label:      in.Label,
		Kind:       model.SessionKind(strings.ToLower(strings.TrimSpace(in.Kind))),
		PointValue: in.PointValue,
		Attendees:  attendees,
	}, nil
}

// ToSummary converts an attendance summary.
func ToSummary(s model.AttendanceSummary) api.Summary {
	byCat := make(map[string]int64, len(s.ByCategory))
	for k, v := range s.ByCategory {
		byCat[string(k)] = v
	}
	return api.Summary{
		UserID:      s.UserID.String(),
		Attended:    s.Attended,
		Total:       s.Total,
		Percentage:  s.Percentage,
		TotalPoints: s.TotalPoints,
		ByCategory:  byCat,
	}
}

// --- content ---

func ToAnnouncement(a model.Announcement) api.Announcement {
	return api.Announcement{
		ID:          a.ID.String(),
		Title:       a.Title,
		Description: a.Description,
		Link:        a.Link,
		CreatedBy:   idString(a.CreatedBy),
		CreatedAt:   a.CreatedAt,
	}
}

func ToAnnouncements(in []model.Announcement) []api.Announcement {
	return mapSlice(in, ToAnnouncement)
}

func ToDocument(d model.Document) api.Document {
	return api.Document{
		ID:              d.ID.String(),
		UserID:          d.UserID.String(),
		FileName:        d.FileName,
		Type:            d.Type,
		FileURL:         d.FileURL,
		Status:          string(d.Status),
		RejectionReason: d.RejectionReason,
		UploadedBy:      idString(d.UploadedBy),
		UploadedAt:      d.UploadedAt,
		ReviewedBy:      idString(d.ReviewedBy),
		ReviewedAt:      tsPtr(d.ReviewedAt),
	}
}

func ToDocuments(in []model.Document) []api.Document { return mapSlice(in, ToDocument) }

// FromSubmitDocument converts a submission. The returned id is uuid.Nil for a first submission.
func FromSubmitDocument(in *api.SubmitDocumentRequest) (u.UUID, model.DocumentInput, error) {
	id, err := ParseOptionalID("id", in.ID)
	if err != nil {
		return u.Nil, model.DocumentInput{}, err
	}
	uid, err := ParseOptionalID("user_id", in.UserID)
	if err != nil {
		return u.Nil, model.DocumentInput{}, err
	}
	return id, model.DocumentInput{UserID: uid, FileName: in.FileName, Type: in.Type, Link: in.Link}, nil
}

func ToMaterial(m model.Material) api.Material {
	return api.Material{
		ID:              m.ID.String(),
		Title:           m.Title,
		Type:            m.Type,
		Link:            m.Link,
		Status:          string(m.Status),
		RejectionReason: m.RejectionReason,
		CreatedBy:       idString(m.CreatedBy),
		CreatedAt:       m.CreatedAt,
	}
}

func ToMaterials(in []model.Material) []api.Material { return mapSlice(in, ToMaterial) }

// --- messages ---

func ToChatMessage(m model.ChatMessage) api.ChatMessage {
	return api.ChatMessage{
		ID:         m.ID.String(),
		CadetID:    m.CadetID.String(),
		SenderID:   m.SenderID.String(),
		SenderRole: string(m.SenderRole),
		Text:       m.Text,
		CreatedAt:  m.CreatedAt,
	}
}

func ToChatMessages(in []model.ChatMessage) []api.ChatMessage { return mapSlice(in, ToChatMessage) }

func ToChatRoom(r model.ChatRoom) api.ChatRoom {
	return api.ChatRoom{
		CadetID:       r.CadetID.String(),
		LastMessage:   r.LastMessage,
		LastUpdated:   r.LastUpdated,
		UnreadByAdmin: r.UnreadByAdmin,
		UnreadByCadet: r.UnreadByCadet,
	}
}

func ToChatRooms(in []model.ChatRoom) []api.ChatRoom { return mapSlice(in, ToChatRoom) }

// --- change feed ---

// ToChange converts a change notification. Bulk changes carry no id.
func ToChange(c model.Change) *api.Change {
	return &api.Change{
		Collection: c.Collection,
		Op:         string(c.Op),
		ID:         idString(c.ID),
		At:         c.At,
	}
}
