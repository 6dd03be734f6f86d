package api

import (
	"context"

	"google.golang.org/grpc"
)

// CorpsClient is the client API for the Corps service.
type CorpsClient struct {
	cc grpc.ClientConnInterface
}

// NewCorpsClient wraps cc. Every call is sent with the JSON content-subtype.
func NewCorpsClient(cc grpc.ClientConnInterface) *CorpsClient {
	return &CorpsClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CorpsClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, "Login", in, opts)
}

func (c *CorpsClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "ChangePassword", in, opts)
}

func (c *CorpsClient) Provision(ctx context.Context, in *ProvisionRequest, opts ...grpc.CallOption) (*Member, error) {
	return invoke[Member](ctx, c.cc, "Provision", in, opts)
}

func (c *CorpsClient) GetMember(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*Member, error) {
	return invoke[Member](ctx, c.cc, "GetMember", in, opts)
}

func (c *CorpsClient) ListMembers(ctx context.Context, in *ListMembersRequest, opts ...grpc.CallOption) (*ListMembersResponse, error) {
	return invoke[ListMembersResponse](ctx, c.cc, "ListMembers", in, opts)
}

func (c *CorpsClient) UpdateMember(ctx context.Context, in *UpdateMemberRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "UpdateMember", in, opts)
}

func (c *CorpsClient) SetMemberStatus(ctx context.Context, in *SetMemberStatusRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "SetMemberStatus", in, opts)
}

func (c *CorpsClient) Leaderboard(ctx context.Context, opts ...grpc.CallOption) (*ListMembersResponse, error) {
	return invoke[ListMembersResponse](ctx, c.cc, "Leaderboard", &Empty{}, opts)
}

func (c *CorpsClient) CreateSession(ctx context.Context, in *CreateSessionRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[Session](ctx, c.cc, "CreateSession", in, opts)
}

func (c *CorpsClient) DeleteSession(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[Session](ctx, c.cc, "DeleteSession", in, opts)
}

func (c *CorpsClient) GetSession(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke[Session](ctx, c.cc, "GetSession", in, opts)
}

func (c *CorpsClient) ListSessions(ctx context.Context, in *ListSessionsRequest, opts ...grpc.CallOption) (*ListSessionsResponse, error) {
	return invoke[ListSessionsResponse](ctx, c.cc, "ListSessions", in, opts)
}

func (c *CorpsClient) AttendanceSummary(ctx context.Context, in *SummaryRequest, opts ...grpc.CallOption) (*Summary, error) {
	return invoke[Summary](ctx, c.cc, "AttendanceSummary", in, opts)
}

func (c *CorpsClient) AttendanceHistory(ctx context.Context, in *SummaryRequest, opts ...grpc.CallOption) (*ListSessionsResponse, error) {
	return invoke[ListSessionsResponse](ctx, c.cc, "AttendanceHistory", in, opts)
}

func (c *CorpsClient) PostAnnouncement(ctx context.Context, in *PostAnnouncementRequest, opts ...grpc.CallOption) (*Announcement, error) {
	return invoke[Announcement](ctx, c.cc, "PostAnnouncement", in, opts)
}

func (c *CorpsClient) ListAnnouncements(ctx context.Context, opts ...grpc.CallOption) (*ListAnnouncementsResponse, error) {
	return invoke[ListAnnouncementsResponse](ctx, c.cc, "ListAnnouncements", &Empty{}, opts)
}

func (c *CorpsClient) DeleteAnnouncement(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "DeleteAnnouncement", in, opts)
}

func (c *CorpsClient) SubmitDocument(ctx context.Context, in *SubmitDocumentRequest, opts ...grpc.CallOption) (*Document, error) {
	return invoke[Document](ctx, c.cc, "SubmitDocument", in, opts)
}

func (c *CorpsClient) ReviewDocument(ctx context.Context, in *ReviewRequest, opts ...grpc.CallOption) (*Document, error) {
	return invoke[Document](ctx, c.cc, "ReviewDocument", in, opts)
}

func (c *CorpsClient) DeleteDocument(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "DeleteDocument", in, opts)
}

func (c *CorpsClient) ListDocuments(ctx context.Context, in *ListDocumentsRequest, opts ...grpc.CallOption) (*ListDocumentsResponse, error) {
	return invoke[ListDocumentsResponse](ctx, c.cc, "ListDocuments", in, opts)
}

func (c *CorpsClient) AddMaterial(ctx context.Context, in *AddMaterialRequest, opts ...grpc.CallOption) (*Material, error) {
	return invoke[Material](ctx, c.cc, "AddMaterial", in, opts)
}

func (c *CorpsClient) ReviewMaterial(ctx context.Context, in *ReviewRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "ReviewMaterial", in, opts)
}

func (c *CorpsClient) DeleteMaterial(ctx context.Context, in *IDRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "DeleteMaterial", in, opts)
}

func (c *CorpsClient) ListMaterials(ctx context.Context, in *ListMaterialsRequest, opts ...grpc.CallOption) (*ListMaterialsResponse, error) {
	return invoke[ListMaterialsResponse](ctx, c.cc, "ListMaterials", in, opts)
}

func (c *CorpsClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*ChatMessage, error) {
	return invoke[ChatMessage](ctx, c.cc, "SendMessage", in, opts)
}

func (c *CorpsClient) ListThread(ctx context.Context, in *ThreadRequest, opts ...grpc.CallOption) (*ThreadResponse, error) {
	return invoke[ThreadResponse](ctx, c.cc, "ListThread", in, opts)
}

func (c *CorpsClient) ListRooms(ctx context.Context, opts ...grpc.CallOption) (*RoomsResponse, error) {
	return invoke[RoomsResponse](ctx, c.cc, "ListRooms", &Empty{}, opts)
}

func (c *CorpsClient) MarkRead(ctx context.Context, in *ThreadRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "MarkRead", in, opts)
}

// ChangeReceiver is the client side of the WatchChanges stream.
type ChangeReceiver interface {
	Recv() (*Change, error)
	grpc.ClientStream
}

type changeClientStream struct{ grpc.ClientStream }

func (s *changeClientStream) Recv() (*Change, error) {
	m := new(Change)
	if err := s.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// WatchChanges opens the change stream. It ends when ctx is cancelled or the server stops.
func (c *CorpsClient) WatchChanges(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (ChangeReceiver, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], FullMethod("WatchChanges"), opts...)
	if err != nil {
		return nil, err
	}
	x := &changeClientStream{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
