package api

import "time"

// Empty is used where a call takes or returns nothing.
type Empty struct{}

// IDRequest addresses a single record.
type IDRequest struct {
	ID string `json:"id"`
}

// --- auth ---

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Member      Member    `json:"member"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ProvisionRequest creates a member. An empty password falls back to the default cadet password.
type ProvisionRequest struct {
	Email          string `json:"email"`
	Role           string `json:"role"`
	FullName       string `json:"full_name"`
	RegisterNumber string `json:"register_number,omitempty"`
	Year           string `json:"year,omitempty"`
	Department     string `json:"department,omitempty"`
	Phone          string `json:"phone"`
	Wing           string `json:"wing,omitempty"`
	Squad          string `json:"squad,omitempty"`
	Password       string `json:"password,omitempty"`
}

// --- members ---

type Member struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	Status             string    `json:"status"`
	TotalPoints        int64     `json:"total_points"`
	FullName           string    `json:"full_name"`
	RegisterNumber     string    `json:"register_number,omitempty"`
	Year               string    `json:"year,omitempty"`
	Department         string    `json:"department,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Wing               string    `json:"wing,omitempty"`
	Squad              string    `json:"squad,omitempty"`
	Rank               string    `json:"rank,omitempty"`
	MustChangePassword bool      `json:"must_change_password,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

type ListMembersRequest struct {
	Role   string `json:"role,omitempty"`
	Status string `json:"status,omitempty"`
}

type ListMembersResponse struct {
	Members []Member `json:"members"`
}

// UpdateMemberRequest replaces a member's profile. An empty ID means the caller.
type UpdateMemberRequest struct {
	ID             string `json:"id,omitempty"`
	FullName       string `json:"full_name"`
	RegisterNumber string `json:"register_number,omitempty"`
	Year           string `json:"year,omitempty"`
	Department     string `json:"department,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Wing           string `json:"wing,omitempty"`
	Squad          string `json:"squad,omitempty"`
	Rank           string `json:"rank,omitempty"`
}

type SetMemberStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// --- ledger ---

type Session struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	Label         string    `json:"label"`
	Kind          string    `json:"kind"`
	PointValue    int64     `json:"point_value"`
	PresentCadets []string  `json:"present_cadets"`
	TotalPresent  int       `json:"total_present"`
	TotalEligible int       `json:"total_eligible"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

type CreateSessionRequest struct {
	Date       string   `json:"date"`
	Label      string   `json:"label"`
	Kind       string   `json:"kind,omitempty"`
	PointValue int64    `json:"point_value"`
	Attendees  []string `json:"attendees"`
}

type ListSessionsRequest struct {
	Limit int `json:"limit,omitempty"`
}

type ListSessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

// SummaryRequest targets one cadet. An empty UserID means the caller.
type SummaryRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type Summary struct {
	UserID      string           `json:"user_id"`
	Attended    int              `json:"attended"`
	Total       int              `json:"total"`
	Percentage  int              `json:"percentage"`
	TotalPoints int64            `json:"total_points"`
	ByCategory  map[string]int64 `json:"by_category"`
}

// --- announcements ---

type Announcement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type PostAnnouncementRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
}

type ListAnnouncementsResponse struct {
	Announcements []Announcement `json:"announcements"`
}

// --- documents and materials ---

type Document struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	FileName        string     `json:"file_name"`
	Type            string     `json:"doc_type"`
	FileURL         string     `json:"file_url"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	UploadedBy      string     `json:"uploaded_by"`
	UploadedAt      time.Time  `json:"uploaded_at"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
}

// SubmitDocumentRequest submits a new document, or resubmits the one named by ID.
type SubmitDocumentRequest struct {
	ID       string `json:"id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	FileName string `json:"file_name"`
	Type     string `json:"doc_type"`
	Link     string `json:"link"`
}

// ReviewRequest approves or rejects a document or material.
type ReviewRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// ListDocumentsRequest lists one cadet's documents when UserID is set, otherwise all by status.
type ListDocumentsRequest struct {
	UserID string `json:"user_id,omitempty"`
	Status string `json:"status,omitempty"`
}

type ListDocumentsResponse struct {
	Documents []Document `json:"documents"`
}

type Material struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Type            string    `json:"material_type"`
	Link            string    `json:"link"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

type AddMaterialRequest struct {
	Title string `json:"title"`
	Type  string `json:"material_type"`
	Link  string `json:"link"`
}

type ListMaterialsRequest struct {
	Status string `json:"status,omitempty"`
}

type ListMaterialsResponse struct {
	Materials []Material `json:"materials"`
}

// --- messages ---

type ChatMessage struct {
	ID         string    `json:"id"`
	CadetID    string    `json:"cadet_id"`
	SenderID   string    `json:"sender_id"`
	SenderRole string    `json:"sender_role"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

type ChatRoom struct {
	CadetID       string    `json:"cadet_id"`
	LastMessage   string    `json:"last_message"`
	LastUpdated   time.Time `json:"last_updated"`
	UnreadByAdmin bool      `json:"unread_by_admin"`
	UnreadByCadet bool      `json:"unread_by_cadet"`
}

// SendMessageRequest posts into a cadet's room. Cadets leave CadetID empty.
type SendMessageRequest struct {
	CadetID string `json:"cadet_id,omitempty"`
	Text    string `json:"text"`
}

type ThreadRequest struct {
	CadetID string `json:"cadet_id,omitempty"`
}

type ThreadResponse struct {
	Messages []ChatMessage `json:"messages"`
}

type RoomsResponse struct {
	Rooms []ChatRoom `json:"rooms"`
}

// --- change feed ---

// WatchRequest filters the change stream. No collections means all of them.
type WatchRequest struct {
	Collections []string `json:"collections,omitempty"`
}

type Change struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	ID         string    `json:"id,omitempty"`
	At         time.Time `json:"at"`
}
