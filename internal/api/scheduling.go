package api

import (
	"context"

	"google.golang.org/grpc"
)

const SchedulingServiceName = "callfirst.v1.SchedulingService"

type CreateProposalRequest struct {
	ThreadID string   `json:"threadId"`
	CallType string   `json:"callType"`
	Slots    []string `json:"slots"`
}

type ProposalResponse struct {
	Proposal *Proposal `json:"proposal,omitempty"`
}

type GetLatestProposalRequest struct {
	ThreadID string `json:"threadId"`
}

type ConfirmSlotRequest struct {
	ThreadID string `json:"threadId"`
	Slot     string `json:"slot"`
}

type CallEventResponse struct {
	Event *CallEvent `json:"event,omitempty"`
}

type GetUpcomingCallRequest struct {
	ThreadID string `json:"threadId"`
}

type GetThreadRequest struct {
	ThreadID string `json:"threadId"`
}

type SchedulingServer interface {
	CreateProposal(context.Context, *CreateProposalRequest) (*ProposalResponse, error)
	GetLatestProposal(context.Context, *GetLatestProposalRequest) (*ProposalResponse, error)
	ConfirmSlot(context.Context, *ConfirmSlotRequest) (*CallEventResponse, error)
	GetUpcomingCall(context.Context, *GetUpcomingCallRequest) (*CallEventResponse, error)
	GetThread(context.Context, *GetThreadRequest) (*ThreadResponse, error)
}

var SchedulingServiceDesc = grpc.ServiceDesc{
	ServiceName: SchedulingServiceName,
	HandlerType: (*SchedulingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(SchedulingServiceName, "CreateProposal", SchedulingServer.CreateProposal),
		unary(SchedulingServiceName, "GetLatestProposal", SchedulingServer.GetLatestProposal),
		unary(SchedulingServiceName, "ConfirmSlot", SchedulingServer.ConfirmSlot),
		unary(SchedulingServiceName, "GetUpcomingCall", SchedulingServer.GetUpcomingCall),
		unary(SchedulingServiceName, "GetThread", SchedulingServer.GetThread),
	},
	Metadata: "callfirst/v1/scheduling",
}

func RegisterSchedulingServer(s grpc.ServiceRegistrar, srv SchedulingServer) {
	s.RegisterService(&SchedulingServiceDesc, srv)
}

type SchedulingClient struct {
	cc grpc.ClientConnInterface
}

func NewSchedulingClient(cc grpc.ClientConnInterface) *SchedulingClient {
	return &SchedulingClient{cc: cc}
}

func (c *SchedulingClient) CreateProposal(ctx context.Context, in *CreateProposalRequest, opts ...grpc.CallOption) (*ProposalResponse, error) {
	return invoke[CreateProposalRequest, ProposalResponse](ctx, c.cc, "/"+SchedulingServiceName+"/CreateProposal", in, opts...)
}

func (c *SchedulingClient) GetLatestProposal(ctx context.Context, in *GetLatestProposalRequest, opts ...grpc.CallOption) (*ProposalResponse, error) {
	return invoke[GetLatestProposalRequest, ProposalResponse](ctx, c.cc, "/"+SchedulingServiceName+"/GetLatestProposal", in, opts...)
}

func (c *SchedulingClient) ConfirmSlot(ctx context.Context, in *ConfirmSlotRequest, opts ...grpc.CallOption) (*CallEventResponse, error) {
	return invoke[ConfirmSlotRequest, CallEventResponse](ctx, c.cc, "/"+SchedulingServiceName+"/ConfirmSlot", in, opts...)
}

func (c *SchedulingClient) GetUpcomingCall(ctx context.Context, in *GetUpcomingCallRequest, opts ...grpc.CallOption) (*CallEventResponse, error) {
	return invoke[GetUpcomingCallRequest, CallEventResponse](ctx, c.cc, "/"+SchedulingServiceName+"/GetUpcomingCall", in, opts...)
}

func (c *SchedulingClient) GetThread(ctx context.Context, in *GetThreadRequest, opts ...grpc.CallOption) (*ThreadResponse, error) {
	return invoke[GetThreadRequest, ThreadResponse](ctx, c.cc, "/"+SchedulingServiceName+"/GetThread", in, opts...)
}
