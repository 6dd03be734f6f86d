package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/and161185/cadetcorps/internal/notify"
	"github.com/and161185/cadetcorps/internal/repository"
)

/************ users ************/

type fakeUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[uuid.UUID]*model.User{}} }

// addCadet stores an active cadet with zero points and returns its id.
func (f *fakeUsers) addCadet(name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.Must(uuid.NewV4())
	f.byID[id] = &model.User{
		ID: id, Email: strings.ToLower(name) + "@corps.test", Role: model.RoleCadet,
		Status: model.StatusActive, FullName: name, Rank: model.DefaultRank,
	}
	return id
}

func (f *fakeUsers) addAdmin(name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.Must(uuid.NewV4())
	f.byID[id] = &model.User{ID: id, Email: strings.ToLower(name) + "@corps.test", Role: model.RoleAdmin, Status: model.StatusActive, FullName: name}
	return id
}

func (f *fakeUsers) points(id uuid.UUID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id].TotalPoints
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.byID {
		if strings.EqualFold(x.Email, u.Email) {
			return errs.ErrAlreadyExists
		}
	}
	cpy := *u
	cpy.CreatedAt = time.Now().UTC()
	u.CreatedAt = cpy.CreatedAt
	f.byID[u.ID] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, role model.Role, status model.Status) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.byID {
		if (role == "" || u.Role == role) && (status == "" || u.Status == status) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id uuid.UUID, p model.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.FullName, u.RegisterNumber, u.Year, u.Department = p.FullName, p.RegisterNumber, p.Year, p.Department
	u.Phone, u.Wing, u.Squad, u.Rank = p.Phone, p.Wing, p.Squad, p.Rank
	return nil
}

func (f *fakeUsers) SetStatus(_ context.Context, id uuid.UUID, status model.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.Status = status
	return nil
}

func (f *fakeUsers) SetPassword(_ context.Context, id uuid.UUID, hash, salt []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.PwdHash, u.SaltAuth, u.MustChangePassword = hash, salt, false
	return nil
}

func (f *fakeUsers) CountActiveCadets(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.byID {
		if u.Role == model.RoleCadet && u.Status == model.StatusActive {
			n++
		}
	}
	return n, nil
}

/************ ledger ************/

// fakeLedger applies each write all-or-nothing under one lock, like the SQL transaction does.
type fakeLedger struct {
	mu       sync.Mutex
	users    *fakeUsers
	sessions map[uuid.UUID]*model.SessionRecord
	logs     map[uuid.UUID][]model.PointLogEntry

	createErr error
	deleteErr error
	creates   int
}

var _ repository.LedgerRepository = (*fakeLedger)(nil)

func newFakeLedger(users *fakeUsers) *fakeLedger {
	return &fakeLedger{
		users:    users,
		sessions: map[uuid.UUID]*model.SessionRecord{},
		logs:     map[uuid.UUID][]model.PointLogEntry{},
	}
}

func (f *fakeLedger) CreateSession(_ context.Context, s *model.SessionRecord, logs []model.PointLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, x := range f.sessions {
		if x.Date == s.Date && x.Label == s.Label {
			return errs.ErrDuplicateSession
		}
	}
	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	for _, l := range logs {
		u, ok := f.users.byID[l.UserID]
		if !ok || u.Role != model.RoleCadet || u.Status != model.StatusActive {
			return errs.Invalidf("attendee %s is not an active cadet", l.UserID)
		}
	}
	s.CreatedAt = time.Now().UTC()
	cpy := *s
	cpy.PresentCadets = append([]uuid.UUID(nil), s.PresentCadets...)
	f.sessions[s.ID] = &cpy
	for i := range logs {
		logs[i].CreatedAt = s.CreatedAt
		f.users.byID[logs[i].UserID].TotalPoints += logs[i].Points
	}
	f.logs[s.ID] = append([]model.PointLogEntry(nil), logs...)
	f.creates++
	return nil
}

func (f *fakeLedger) DeleteSession(_ context.Context, id uuid.UUID) (*model.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	f.users.mu.Lock()
	for _, uid := range s.PresentCadets {
		if u, ok := f.users.byID[uid]; ok {
			u.TotalPoints -= s.PointValue
		}
	}
	f.users.mu.Unlock()
	delete(f.logs, id)
	delete(f.sessions, id)
	return s, nil
}

func (f *fakeLedger) GetSession(_ context.Context, id uuid.UUID) (*model.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeLedger) sorted(keep func(*model.SessionRecord) bool) []model.SessionRecord {
	var out []model.SessionRecord
	for _, s := range f.sessions {
		if keep(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (f *fakeLedger) ListSessions(_ context.Context, limit int) ([]model.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sorted(func(*model.SessionRecord) bool { return true })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLedger) ListAttended(_ context.Context, uid uuid.UUID) ([]model.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(s *model.SessionRecord) bool {
		for _, id := range s.PresentCadets {
			if id == uid {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeLedger) AttendanceCounts(_ context.Context, uid uuid.UUID) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	attended := 0
	for _, s := range f.sessions {
		for _, id := range s.PresentCadets {
			if id == uid {
				attended++
			}
		}
	}
	return attended, len(f.sessions), nil
}

func (f *fakeLedger) PointsByKind(_ context.Context, uid uuid.UUID) (map[model.SessionKind]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[model.SessionKind]int64{}
	for _, ls := range f.logs {
		for _, l := range ls {
			if l.UserID == uid {
				out[l.Kind] += l.Points
			}
		}
	}
	return out, nil
}

func (f *fakeLedger) LogsForSession(_ context.Context, sid uuid.UUID) ([]model.PointLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.PointLogEntry(nil), f.logs[sid]...), nil
}

// logSum returns the sum of points over log entries of existing sessions for uid.
func (f *fakeLedger) logSum(uid uuid.UUID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, ls := range f.logs {
		for _, l := range ls {
			if l.UserID == uid {
				sum += l.Points
			}
		}
	}
	return sum
}

func (f *fakeLedger) logCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, ls := range f.logs {
		n += len(ls)
	}
	return n
}

/************ content ************/

type fakeAnnouncements struct {
	items map[uuid.UUID]*model.Announcement
}

var _ repository.AnnouncementRepository = (*fakeAnnouncements)(nil)

func (f *fakeAnnouncements) Create(_ context.Context, a *model.Announcement) error {
	if f.items == nil {
		f.items = map[uuid.UUID]*model.Announcement{}
	}
	a.CreatedAt = time.Now().UTC()
	c := *a
	f.items[a.ID] = &c
	return nil
}

func (f *fakeAnnouncements) List(context.Context) ([]model.Announcement, error) {
	var out []model.Announcement
	for _, a := range f.items {
		if !a.Deleted {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAnnouncements) SoftDelete(_ context.Context, id uuid.UUID) error {
	a, ok := f.items[id]
	if !ok || a.Deleted {
		return errs.ErrNotFound
	}
	a.Deleted = true
	return nil
}

type fakeDocuments struct {
	items map[uuid.UUID]*model.Document
}

var _ repository.DocumentRepository = (*fakeDocuments)(nil)

func (f *fakeDocuments) get(id uuid.UUID) (*model.Document, error) {
	d, ok := f.items[id]
	if !ok || d.Deleted {
		return nil, errs.ErrNotFound
	}
	return d, nil
}

func (f *fakeDocuments) Create(_ context.Context, d *model.Document) error {
	if f.items == nil {
		f.items = map[uuid.UUID]*model.Document{}
	}
	d.UploadedAt = time.Now().UTC()
	c := *d
	f.items[d.ID] = &c
	return nil
}

func (f *fakeDocuments) Get(_ context.Context, id uuid.UUID) (*model.Document, error) {
	d, err := f.get(id)
	if err != nil {
		return nil, err
	}
	c := *d
	return &c, nil
}

func (f *fakeDocuments) ListByUser(_ context.Context, uid uuid.UUID) ([]model.Document, error) {
	var out []model.Document
	for _, d := range f.items {
		if !d.Deleted && d.UserID == uid {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocuments) List(_ context.Context, status model.ReviewStatus) ([]model.Document, error) {
	var out []model.Document
	for _, d := range f.items {
		if !d.Deleted && (status == "" || d.Status == status) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDocuments) Resubmit(_ context.Context, id uuid.UUID, fileName, docType, fileURL string) error {
	d, err := f.get(id)
	if err != nil {
		return err
	}
	d.FileName, d.Type, d.FileURL = fileName, docType, fileURL
	d.Status, d.RejectionReason, d.ReviewedBy, d.ReviewedAt = model.ReviewPending, "", uuid.Nil, time.Time{}
	return nil
}

func (f *fakeDocuments) SetReview(_ context.Context, in *model.Document) error {
	d, err := f.get(in.ID)
	if err != nil {
		return err
	}
	d.Status, d.RejectionReason, d.ReviewedBy, d.ReviewedAt = in.Status, in.RejectionReason, in.ReviewedBy, in.ReviewedAt
	return nil
}

func (f *fakeDocuments) SoftDelete(_ context.Context, id uuid.UUID) error {
	d, err := f.get(id)
	if err != nil {
		return err
	}
	d.Deleted = true
	return nil
}

type fakeMaterials struct {
	items map[uuid.UUID]*model.Material
}

var _ repository.MaterialRepository = (*fakeMaterials)(nil)

func (f *fakeMaterials) Create(_ context.Context, m *model.Material) error {
	if f.items == nil {
		f.items = map[uuid.UUID]*model.Material{}
	}
	c := *m
	f.items[m.ID] = &c
	return nil
}

func (f *fakeMaterials) Get(_ context.Context, id uuid.UUID) (*model.Material, error) {
	m, ok := f.items[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (f *fakeMaterials) List(_ context.Context, status model.ReviewStatus) ([]model.Material, error) {
	var out []model.Material
	for _, m := range f.items {
		if status == "" || m.Status == status {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMaterials) SetReview(_ context.Context, id uuid.UUID, status model.ReviewStatus, reason string) error {
	m, ok := f.items[id]
	if !ok {
		return errs.ErrNotFound
	}
	m.Status, m.RejectionReason = status, reason
	return nil
}

func (f *fakeMaterials) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeMessages struct {
	msgs  []model.ChatMessage
	rooms map[uuid.UUID]*model.ChatRoom
}

var _ repository.MessageRepository = (*fakeMessages)(nil)

func (f *fakeMessages) Append(_ context.Context, m *model.ChatMessage) error {
	if f.rooms == nil {
		f.rooms = map[uuid.UUID]*model.ChatRoom{}
	}
	m.CreatedAt = time.Now().UTC()
	fromAdmin := m.SenderRole == model.RoleAdmin
	f.rooms[m.CadetID] = &model.ChatRoom{
		CadetID: m.CadetID, LastMessage: m.Text, LastUpdated: m.CreatedAt,
		UnreadByAdmin: !fromAdmin, UnreadByCadet: fromAdmin,
	}
	f.msgs = append(f.msgs, *m)
	return nil
}

func (f *fakeMessages) Thread(_ context.Context, cadetID uuid.UUID) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	for _, m := range f.msgs {
		if m.CadetID == cadetID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) Rooms(context.Context) ([]model.ChatRoom, error) {
	var out []model.ChatRoom
	for _, r := range f.rooms {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, cadetID uuid.UUID, reader model.Role) error {
	r, ok := f.rooms[cadetID]
	if !ok {
		return nil
	}
	switch reader {
	case model.RoleAdmin:
		r.UnreadByAdmin = false
	case model.RoleCadet:
		r.UnreadByCadet = false
	default:
		return errors.New("unknown role")
	}
	return nil
}

/************ side effects ************/

type recFeed struct {
	mu      sync.Mutex
	changes []model.Change
	err     error
}

func (r *recFeed) Publish(_ context.Context, c model.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
	return r.err
}

func (r *recFeed) collections() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.Collection)
	}
	return out
}

type recNotifier struct {
	mu        sync.Mutex
	events    []notify.Event
	err       error
	deadlines []time.Time
	block     bool
}

func (r *recNotifier) Notify(ctx context.Context, e notify.Event) error {
	if r.block {
		<-ctx.Done()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if d, ok := ctx.Deadline(); ok {
		r.deadlines = append(r.deadlines, d)
	}
	if r.block {
		return ctx.Err()
	}
	return r.err
}

func (r *recNotifier) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}
