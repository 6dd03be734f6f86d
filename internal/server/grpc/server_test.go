package grpcserver

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/and161185/cadetcorps/internal/api"
	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/feed"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/and161185/cadetcorps/internal/service"
)

type fakeAuth struct {
	key   []byte
	users map[string]model.User
}

func (f *fakeAuth) Provision(_ context.Context, in model.NewMember, _ string) (*model.User, error) {
	return &model.User{ID: uuid.Must(uuid.NewV4()), Email: in.Email, Role: in.Role, Status: model.StatusActive}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (model.Tokens, model.User, error) {
	u, ok := f.users[email]
	if !ok || password != "pw" {
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}
	tok, exp, err := service.IssueAccessToken(f.key, u.ID, u.Role, time.Hour, time.Now().UTC())
	return model.Tokens{AccessToken: tok, ExpiresAt: exp}, u, err
}

func (f *fakeAuth) ChangePassword(context.Context, uuid.UUID, string, string) error { return nil }

type fakeMembers struct {
	active      int
	lastProfile model.ProfileUpdate
	ranks       map[uuid.UUID]string
}

func (f *fakeMembers) Get(_ context.Context, uid uuid.UUID) (*model.User, error) {
	return &model.User{ID: uid, Role: model.RoleCadet, Rank: f.ranks[uid]}, nil
}
func (f *fakeMembers) List(context.Context, model.Role, model.Status) ([]model.User, error) {
	return nil, nil
}
func (f *fakeMembers) UpdateProfile(_ context.Context, _ uuid.UUID, p model.ProfileUpdate) error {
	f.lastProfile = p
	return nil
}
func (f *fakeMembers) SetStatus(context.Context, uuid.UUID, model.Status) error { return nil }
func (f *fakeMembers) ActiveCadetCount(context.Context) (int, error)           { return f.active, nil }
func (f *fakeMembers) Leaderboard(context.Context) ([]model.User, error)       { return nil, nil }

type fakeLedger struct {
	mu      sync.Mutex
	last    model.NewSession
	dates   map[string]bool
	changes feed.Publisher
}

func (f *fakeLedger) CreateSession(ctx context.Context, in model.NewSession, actor uuid.UUID) (*model.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(in.Attendees) == 0 {
		return nil, errs.InvalidFields(errs.FieldError{Field: "attendees", Error: "must have at least 1 item"})
	}
	key := in.Date + "|" + in.Label
	if f.dates[key] {
		return nil, errs.ErrDuplicateSession
	}
	f.dates[key] = true
	f.last = in
	rec := &model.SessionRecord{
		ID: uuid.Must(uuid.NewV4()), Date: in.Date, Label: in.Label, Kind: in.Kind, PointValue: in.PointValue,
		PresentCadets: in.Attendees, TotalPresent: len(in.Attendees), TotalEligible: in.EligibleCount, CreatedBy: actor,
	}
	_ = f.changes.Publish(ctx, model.Change{Collection: model.CollectionSessions, Op: model.OpCreated, ID: rec.ID})
	return rec, nil
}
func (f *fakeLedger) DeleteSession(context.Context, uuid.UUID) (*model.SessionRecord, error) {
	return nil, errs.ErrNotFound
}
func (f *fakeLedger) GetSession(context.Context, uuid.UUID) (*model.SessionRecord, error) {
	return nil, errs.ErrNotFound
}
func (f *fakeLedger) ListSessions(context.Context, int) ([]model.SessionRecord, error) {
	return nil, nil
}
func (f *fakeLedger) AttendancePercentage(context.Context, uuid.UUID) (int, error) { return 0, nil }
func (f *fakeLedger) PointsByCategory(context.Context, uuid.UUID) (map[model.SessionKind]int64, error) {
	return nil, nil
}
func (f *fakeLedger) History(context.Context, uuid.UUID) ([]model.SessionRecord, error) {
	return nil, nil
}
func (f *fakeLedger) Summary(_ context.Context, uid uuid.UUID) (*model.AttendanceSummary, error) {
	return &model.AttendanceSummary{UserID: uid, Attended: 3, Total: 4, Percentage: 75, TotalPoints: 30}, nil
}

type fakeDocuments struct{ resubmitted uuid.UUID }

func (f *fakeDocuments) Submit(_ context.Context, c model.Caller, in model.DocumentInput) (*model.Document, error) {
	return &model.Document{ID: uuid.Must(uuid.NewV4()), UserID: c.ID, Type: in.Type, Status: model.ReviewPending}, nil
}
func (f *fakeDocuments) Resubmit(_ context.Context, c model.Caller, id uuid.UUID, in model.DocumentInput) (*model.Document, error) {
	f.resubmitted = id
	return &model.Document{ID: id, UserID: c.ID, Type: in.Type, Status: model.ReviewPending}, nil
}
func (f *fakeDocuments) Review(context.Context, uuid.UUID, uuid.UUID, model.ReviewStatus, string) (*model.Document, error) {
	return nil, errs.ErrNotFound
}
func (f *fakeDocuments) Delete(context.Context, model.Caller, uuid.UUID) error { return nil }
func (f *fakeDocuments) ListForCadet(_ context.Context, c model.Caller, cadetID uuid.UUID) ([]model.Document, error) {
	if !c.IsAdmin() && c.ID != cadetID {
		return nil, errs.ErrForbidden
	}
	return []model.Document{{ID: uuid.Must(uuid.NewV4()), UserID: cadetID}}, nil
}
func (f *fakeDocuments) ListAll(context.Context, model.ReviewStatus) ([]model.Document, error) {
	return nil, nil
}

type fakeMaterials struct{ items []model.Material }

func (f *fakeMaterials) Add(context.Context, model.Caller, model.MaterialInput) (*model.Material, error) {
	return nil, errs.Invalidf("unused")
}
func (f *fakeMaterials) Review(context.Context, uuid.UUID, model.ReviewStatus, string) error {
	return nil
}
func (f *fakeMaterials) List(context.Context, model.ReviewStatus) ([]model.Material, error) {
	return f.items, nil
}
func (f *fakeMaterials) Delete(context.Context, model.Caller, uuid.UUID) error { return nil }

const bufSize = 1 << 20

type env struct {
	cl      *api.CorpsClient
	members *fakeMembers
	ledger  *fakeLedger
	docs    *fakeDocuments
	mats    *fakeMaterials
	hub     *feed.Hub
	admin   model.User
	cadet   model.User
}

func startBufGRPC(t *testing.T) *env {
	t.Helper()
	key := []byte("test-secret")
	e := &env{
		members: &fakeMembers{active: 5, ranks: map[uuid.UUID]string{}},
		docs:    &fakeDocuments{},
		mats:    &fakeMaterials{},
		hub:     feed.NewHub(),
		admin:   model.User{ID: uuid.Must(uuid.NewV4()), Email: "ano@corps.in", Role: model.RoleAdmin},
		cadet:   model.User{ID: uuid.Must(uuid.NewV4()), Email: "cdt@corps.in", Role: model.RoleCadet},
	}
	e.ledger = &fakeLedger{dates: map[string]bool{}, changes: e.hub}
	auth := &fakeAuth{key: key, users: map[string]model.User{e.admin.Email: e.admin, e.cadet.Email: e.cadet}}

	log := zaptest.NewLogger(t)
	srv := New(Services{
		Auth:      auth,
		Members:   e.members,
		Ledger:    e.ledger,
		Documents: e.docs,
		Materials: e.mats,
	}, e.hub, log)

	lis := bufconn.Listen(bufSize)
	gs := grpc.NewServer(ServerOptions(log, key)...)
	api.RegisterCorpsServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	//nolint:staticcheck // DialContext is supported through 1.x; migrate when grpc.NewClient is stable
	cc, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close(); gs.Stop(); _ = lis.Close(); e.hub.Close() })
	e.cl = api.NewCorpsClient(cc)
	return e
}

func (e *env) login(t *testing.T, u model.User) context.Context {
	t.Helper()
	resp, err := e.cl.Login(context.Background(), &api.LoginRequest{Email: u.Email, Password: "pw"})
	if err != nil {
		t.Fatalf("login %s: %v", u.Email, err)
	}
	if resp.Member.ID != u.ID.String() || resp.AccessToken == "" {
		t.Fatalf("login response: %+v", resp)
	}
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+resp.AccessToken)
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if status.Code(err) != code {
		t.Fatalf("want %s, got %v", code, err)
	}
}

func TestServer_E2E_AuthAndRoles(t *testing.T) {
	t.Parallel()
	e := startBufGRPC(t)

	_, err := e.cl.Login(context.Background(), &api.LoginRequest{Email: e.admin.Email, Password: "nope"})
	wantCode(t, err, codes.Unauthenticated)
	_, err = e.cl.Login(context.Background(), &api.LoginRequest{})
	wantCode(t, err, codes.InvalidArgument)

	_, err = e.cl.ListSessions(context.Background(), &api.ListSessionsRequest{})
	wantCode(t, err, codes.Unauthenticated)

	cadetCtx := e.login(t, e.cadet)
	_, err = e.cl.CreateSession(cadetCtx, &api.CreateSessionRequest{Date: "2024-01-15", Label: "Parade", PointValue: 10, Attendees: []string{e.cadet.ID.String()}})
	wantCode(t, err, codes.PermissionDenied)
	_, err = e.cl.ListRooms(cadetCtx)
	wantCode(t, err, codes.PermissionDenied)
	_, err = e.cl.Provision(cadetCtx, &api.ProvisionRequest{Email: "x@corps.in"})
	wantCode(t, err, codes.PermissionDenied)

	// cadets read their own summary only
	sum, err := e.cl.AttendanceSummary(cadetCtx, &api.SummaryRequest{})
	if err != nil || sum.UserID != e.cadet.ID.String() || sum.Percentage != 75 {
		t.Fatalf("summary: %+v %v", sum, err)
	}
	_, err = e.cl.AttendanceSummary(cadetCtx, &api.SummaryRequest{UserID: e.admin.ID.String()})
	wantCode(t, err, codes.PermissionDenied)

	adminCtx := e.login(t, e.admin)
	sum, err = e.cl.AttendanceSummary(adminCtx, &api.SummaryRequest{UserID: e.cadet.ID.String()})
	if err != nil || sum.UserID != e.cadet.ID.String() {
		t.Fatalf("admin summary: %+v %v", sum, err)
	}
	_, err = e.cl.AttendanceSummary(adminCtx, &api.SummaryRequest{UserID: "bogus"})
	wantCode(t, err, codes.InvalidArgument)
}

func TestServer_E2E_CreateSession(t *testing.T) {
	t.Parallel()
	e := startBufGRPC(t)
	ctx := e.login(t, e.admin)

	req := &api.CreateSessionRequest{Date: "2024-01-15", Label: "Parade", Kind: "normal", PointValue: 10, Attendees: []string{e.cadet.ID.String()}}
	s, err := e.cl.CreateSession(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.TotalEligible != 5 || s.TotalPresent != 1 || s.CreatedBy != e.admin.ID.String() {
		t.Fatalf("session: %+v", s)
	}
	if e.ledger.last.EligibleCount != 5 || e.ledger.last.Kind != model.KindNormal {
		t.Fatalf("service input: %+v", e.ledger.last)
	}

	_, err = e.cl.CreateSession(ctx, req)
	wantCode(t, err, codes.AlreadyExists)

	_, err = e.cl.CreateSession(ctx, &api.CreateSessionRequest{Date: "2024-01-16", Label: "Drill", PointValue: 10})
	wantCode(t, err, codes.InvalidArgument)

	_, err = e.cl.CreateSession(ctx, &api.CreateSessionRequest{Date: "2024-01-16", Label: "Drill", PointValue: 10, Attendees: []string{"x"}})
	wantCode(t, err, codes.InvalidArgument)

	_, err = e.cl.DeleteSession(ctx, &api.IDRequest{ID: uuid.Must(uuid.NewV4()).String()})
	wantCode(t, err, codes.NotFound)
}

func TestServer_E2E_MembersAndContent(t *testing.T) {
	t.Parallel()
	e := startBufGRPC(t)
	ctx := e.login(t, e.cadet)

	// a cadet cannot promote themselves
	e.members.ranks[e.cadet.ID] = "Cadet"
	if _, err := e.cl.UpdateMember(ctx, &api.UpdateMemberRequest{FullName: "Asha", Rank: "Senior Under Officer"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if e.members.lastProfile.Rank != "Cadet" || e.members.lastProfile.FullName != "Asha" {
		t.Fatalf("profile: %+v", e.members.lastProfile)
	}

	d, err := e.cl.SubmitDocument(ctx, &api.SubmitDocumentRequest{FileName: "pan.pdf", Type: "PAN", Link: "drive.google.com/x"})
	if err != nil || d.Status != "pending" || d.UserID != e.cadet.ID.String() {
		t.Fatalf("submit: %+v %v", d, err)
	}
	if _, err := e.cl.SubmitDocument(ctx, &api.SubmitDocumentRequest{ID: d.ID, FileName: "pan.pdf", Type: "PAN", Link: "drive.google.com/y"}); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if e.docs.resubmitted.String() != d.ID {
		t.Fatalf("resubmit not routed: %s", e.docs.resubmitted)
	}
	docs, err := e.cl.ListDocuments(ctx, &api.ListDocumentsRequest{})
	if err != nil || len(docs.Documents) != 1 || docs.Documents[0].UserID != e.cadet.ID.String() {
		t.Fatalf("list documents: %+v %v", docs, err)
	}
	_, err = e.cl.ListDocuments(ctx, &api.ListDocumentsRequest{UserID: e.admin.ID.String()})
	wantCode(t, err, codes.PermissionDenied)

	other := uuid.Must(uuid.NewV4())
	e.mats.items = []model.Material{
		{ID: uuid.Must(uuid.NewV4()), Status: model.ReviewApproved, CreatedBy: other},
		{ID: uuid.Must(uuid.NewV4()), Status: model.ReviewPending, CreatedBy: other},
		{ID: uuid.Must(uuid.NewV4()), Status: model.ReviewRejected, CreatedBy: e.cadet.ID},
	}
	mats, err := e.cl.ListMaterials(ctx, &api.ListMaterialsRequest{})
	if err != nil || len(mats.Materials) != 2 {
		t.Fatalf("cadet materials: %+v %v", mats, err)
	}
	mats, err = e.cl.ListMaterials(e.login(t, e.admin), &api.ListMaterialsRequest{})
	if err != nil || len(mats.Materials) != 3 {
		t.Fatalf("admin materials: %+v %v", mats, err)
	}
}

func TestServer_E2E_WatchChanges(t *testing.T) {
	t.Parallel()
	e := startBufGRPC(t)
	admin := e.login(t, e.admin)

	unauth, err := e.cl.WatchChanges(context.Background(), &api.WatchRequest{})
	if err == nil {
		// stream status surfaces on the first Recv
		_, err = unauth.Recv()
	}
	wantCode(t, err, codes.Unauthenticated)

	ctx, cancel := context.WithTimeout(admin, 5*time.Second)
	defer cancel()
	stream, err := e.cl.WatchChanges(ctx, &api.WatchRequest{Collections: []string{model.CollectionSessions}})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// wait until the server side subscribed before publishing
	deadline := time.Now().Add(2 * time.Second)
	for e.hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscription never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_ = e.hub.Publish(ctx, model.Change{Collection: model.CollectionUsers, Op: model.OpUpdated})
	s, err := e.cl.CreateSession(admin, &api.CreateSessionRequest{Date: "2024-02-01", Label: "Camp", PointValue: 20, Attendees: []string{e.cadet.ID.String()}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ch, err := stream.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if ch.Collection != model.CollectionSessions || ch.ID != s.ID || ch.Op != "created" {
		t.Fatalf("unexpected change: %+v", ch)
	}

	cancel()
	for {
		if _, err := stream.Recv(); err != nil {
			if err != io.EOF && status.Code(err) != codes.Canceled {
				t.Fatalf("stream end: %v", err)
			}
			break
		}
	}
}
