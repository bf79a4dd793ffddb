package api

import (
	"context"

	"google.golang.org/grpc"
)

const MatchingServiceName = "callfirst.v1.MatchingService"

type RecordSwipeRequest struct {
	ToID   string `json:"toId"`
	Action string `json:"action"`
}

type RecordSwipeResponse struct {
	IsMatch bool   `json:"isMatch"`
	MatchID string `json:"matchId,omitempty"`
}

type ListMatchesRequest struct{}

type ListMatchesResponse struct {
	Matches []*Match `json:"matches"`
}

type GetMatchRequest struct {
	ID string `json:"id"`
}

type MatchResponse struct {
	Match *Match `json:"match,omitempty"`
}

type GetThreadForMatchRequest struct {
	MatchID string `json:"matchId"`
}

type ThreadResponse struct {
	Thread *Thread `json:"thread,omitempty"`
}

type ListLikedYouRequest struct {
	PaginationToken *string `json:"paginationToken,omitempty"`
}

type Liker struct {
	UserID        string `json:"userId"`
	UnixTimestamp uint64 `json:"unixTimestamp"`
}

type ListLikedYouResponse struct {
	Likers              []Liker `json:"likers"`
	NextPaginationToken *string `json:"nextPaginationToken,omitempty"`
}

type CountLikedYouRequest struct{}

type CountLikedYouResponse struct {
	Count uint64 `json:"count"`
}

type MatchingServer interface {
	RecordSwipe(context.Context, *RecordSwipeRequest) (*RecordSwipeResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	GetMatch(context.Context, *GetMatchRequest) (*MatchResponse, error)
	GetThreadForMatch(context.Context, *GetThreadForMatchRequest) (*ThreadResponse, error)
	ListLikedYou(context.Context, *ListLikedYouRequest) (*ListLikedYouResponse, error)
	CountLikedYou(context.Context, *CountLikedYouRequest) (*CountLikedYouResponse, error)
}

var MatchingServiceDesc = grpc.ServiceDesc{
	ServiceName: MatchingServiceName,
	HandlerType: (*MatchingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MatchingServiceName, "RecordSwipe", MatchingServer.RecordSwipe),
		unary(MatchingServiceName, "ListMatches", MatchingServer.ListMatches),
		unary(MatchingServiceName, "GetMatch", MatchingServer.GetMatch),
		unary(MatchingServiceName, "GetThreadForMatch", MatchingServer.GetThreadForMatch),
		unary(MatchingServiceName, "ListLikedYou", MatchingServer.ListLikedYou),
		unary(MatchingServiceName, "CountLikedYou", MatchingServer.CountLikedYou),
	},
	Metadata: "callfirst/v1/matching",
}

func RegisterMatchingServer(s grpc.ServiceRegistrar, srv MatchingServer) {
	s.RegisterService(&MatchingServiceDesc, srv)
}

type MatchingClient struct {
	cc grpc.ClientConnInterface
}

func NewMatchingClient(cc grpc.ClientConnInterface) *MatchingClient {
	return &MatchingClient{cc: cc}
}

func (c *MatchingClient) RecordSwipe(ctx context.Context, in *RecordSwipeRequest, opts ...grpc.CallOption) (*RecordSwipeResponse, error) {
	return invoke[RecordSwipeRequest, RecordSwipeResponse](ctx, c.cc, "/"+MatchingServiceName+"/RecordSwipe", in, opts...)
}

func (c *MatchingClient) ListMatches(ctx context.Context, in *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesRequest, ListMatchesResponse](ctx, c.cc, "/"+MatchingServiceName+"/ListMatches", in, opts...)
}

func (c *MatchingClient) GetMatch(ctx context.Context, in *GetMatchRequest, opts ...grpc.CallOption) (*MatchResponse, error) {
	return invoke[GetMatchRequest, MatchResponse](ctx, c.cc, "/"+MatchingServiceName+"/GetMatch", in, opts...)
}

func (c *MatchingClient) GetThreadForMatch(ctx context.Context, in *GetThreadForMatchRequest, opts ...grpc.CallOption) (*ThreadResponse, error) {
	return invoke[GetThreadForMatchRequest, ThreadResponse](ctx, c.cc, "/"+MatchingServiceName+"/GetThreadForMatch", in, opts...)
}

func (c *MatchingClient) ListLikedYou(ctx context.Context, in *ListLikedYouRequest, opts ...grpc.CallOption) (*ListLikedYouResponse, error) {
	return invoke[ListLikedYouRequest, ListLikedYouResponse](ctx, c.cc, "/"+MatchingServiceName+"/ListLikedYou", in, opts...)
}

func (c *MatchingClient) CountLikedYou(ctx context.Context, in *CountLikedYouRequest, opts ...grpc.CallOption) (*CountLikedYouResponse, error) {
	return invoke[CountLikedYouRequest, CountLikedYouResponse](ctx, c.cc, "/"+MatchingServiceName+"/CountLikedYou", in, opts...)
}
