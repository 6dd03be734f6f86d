package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "cadetcorps.v1.Corps"

// FullMethod returns the gRPC method path for name.
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

// CorpsServer is the server API for the Corps service.
type CorpsServer interface {
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*Empty, error)
	Provision(context.Context, *ProvisionRequest) (*Member, error)

	GetMember(context.Context, *IDRequest) (*Member, error)
	ListMembers(context.Context, *ListMembersRequest) (*ListMembersResponse, error)
	UpdateMember(context.Context, *UpdateMemberRequest) (*Empty, error)
	SetMemberStatus(context.Context, *SetMemberStatusRequest) (*Empty, error)
	Leaderboard(context.Context, *Empty) (*ListMembersResponse, error)

	CreateSession(context.Context, *CreateSessionRequest) (*Session, error)
	DeleteSession(context.Context, *IDRequest) (*Session, error)
	GetSession(context.Context, *IDRequest) (*Session, error)
	ListSessions(context.Context, *ListSessionsRequest) (*ListSessionsResponse, error)
	AttendanceSummary(context.Context, *SummaryRequest) (*Summary, error)
	AttendanceHistory(context.Context, *SummaryRequest) (*ListSessionsResponse, error)

	PostAnnouncement(context.Context, *PostAnnouncementRequest) (*Announcement, error)
	ListAnnouncements(context.Context, *Empty) (*ListAnnouncementsResponse, error)
	DeleteAnnouncement(context.Context, *IDRequest) (*Empty, error)

	SubmitDocument(context.Context, *SubmitDocumentRequest) (*Document, error)
	ReviewDocument(context.Context, *ReviewRequest) (*Document, error)
	DeleteDocument(context.Context, *IDRequest) (*Empty, error)
	ListDocuments(context.Context, *ListDocumentsRequest) (*ListDocumentsResponse, error)

	AddMaterial(context.Context, *AddMaterialRequest) (*Material, error)
	ReviewMaterial(context.Context, *ReviewRequest) (*Empty, error)
	DeleteMaterial(context.Context, *IDRequest) (*Empty, error)
	ListMaterials(context.Context, *ListMaterialsRequest) (*ListMaterialsResponse, error)

	SendMessage(context.Context, *SendMessageRequest) (*ChatMessage, error)
	ListThread(context.Context, *ThreadRequest) (*ThreadResponse, error)
	ListRooms(context.Context, *Empty) (*RoomsResponse, error)
	MarkRead(context.Context, *ThreadRequest) (*Empty, error)

	WatchChanges(*WatchRequest, ChangeSender) error
}

// ChangeSender is the server side of the WatchChanges stream.
type ChangeSender interface {
	Send(*Change) error
	Context() context.Context
}

// unary adapts a typed CorpsServer method to a grpc.MethodDesc.
func unary[Req, Resp any](name string, call func(CorpsServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, ic grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if ic == nil {
				return call(srv.(CorpsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CorpsServer), ctx, req.(*Req))
			}
			return ic(ctx, in, info, handler)
		},
	}
}

type changeServerStream struct{ grpc.ServerStream }

func (s *changeServerStream) Send(c *Change) error { return s.ServerStream.SendMsg(c) }

func watchChangesHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CorpsServer).WatchChanges(in, &changeServerStream{stream})
}

// ServiceDesc describes the Corps service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CorpsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Login", CorpsServer.Login),
		unary("ChangePassword", CorpsServer.ChangePassword),
		unary("Provision", CorpsServer.Provision),
		unary("GetMember", CorpsServer.GetMember),
		unary("ListMembers", CorpsServer.ListMembers),
		unary("UpdateMember", CorpsServer.UpdateMember),
		unary("SetMemberStatus", CorpsServer.SetMemberStatus),
		unary("Leaderboard", CorpsServer.Leaderboard),
		unary("CreateSession", CorpsServer.CreateSession),
		unary("DeleteSession", CorpsServer.DeleteSession),
		unary("GetSession", CorpsServer.GetSession),
		unary("ListSessions", CorpsServer.ListSessions),
		unary("AttendanceSummary", CorpsServer.AttendanceSummary),
		unary("AttendanceHistory", CorpsServer.AttendanceHistory),
		unary("PostAnnouncement", CorpsServer.PostAnnouncement),
		unary("ListAnnouncements", CorpsServer.ListAnnouncements),
		unary("DeleteAnnouncement", CorpsServer.DeleteAnnouncement),
		unary("SubmitDocument", CorpsServer.SubmitDocument),
		unary("ReviewDocument", CorpsServer.ReviewDocument),
		unary("DeleteDocument", CorpsServer.DeleteDocument),
		unary("ListDocuments", CorpsServer.ListDocuments),
		unary("AddMaterial", CorpsServer.AddMaterial),
		unary("ReviewMaterial", CorpsServer.ReviewMaterial),
		unary("DeleteMaterial", CorpsServer.DeleteMaterial),
		unary("ListMaterials", CorpsServer.ListMaterials),
		unary("SendMessage", CorpsServer.SendMessage),
		unary("ListThread", CorpsServer.ListThread),
		unary("ListRooms", CorpsServer.ListRooms),
		unary("MarkRead", CorpsServer.MarkRead),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchChanges",
			Handler:       watchChangesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "cadetcorps/v1/corps",
}

// RegisterCorpsServer registers srv on s.
func RegisterCorpsServer(s grpc.ServiceRegistrar, srv CorpsServer) {
	s.RegisterService(&ServiceDesc, srv)
}
