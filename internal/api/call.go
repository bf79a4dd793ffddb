package api

import (
	"context"

	"google.golang.org/grpc"
)

const CallServiceName = "callfirst.v1.CallService"

type CallEventRequest struct {
	ID string `json:"id"`
}

type GetCallEventResponse struct {
	Event *CallEvent `json:"event,omitempty"`
	// RemainingSeconds is set while the call is live.
	RemainingSeconds int64 `json:"remainingSeconds,omitempty"`
}

type SetCallEventStateRequest struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// EndCallResponse carries a FeedbackPrompt only for the caller whose action
// ended the call.
type EndCallResponse struct {
	Event          *CallEvent      `json:"event"`
	FeedbackPrompt *FeedbackPrompt `json:"feedbackPrompt,omitempty"`
}

type CallServer interface {
	GetCallEvent(context.Context, *CallEventRequest) (*GetCallEventResponse, error)
	SetCallEventState(context.Context, *SetCallEventStateRequest) (*EndCallResponse, error)
	JoinCall(context.Context, *CallEventRequest) (*CallEventResponse, error)
	EndCall(context.Context, *CallEventRequest) (*EndCallResponse, error)
	CancelCall(context.Context, *CallEventRequest) (*CallEventResponse, error)
}

var CallServiceDesc = grpc.ServiceDesc{
	ServiceName: CallServiceName,
	HandlerType: (*CallServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(CallServiceName, "GetCallEvent", CallServer.GetCallEvent),
		unary(CallServiceName, "SetCallEventState", CallServer.SetCallEventState),
		unary(CallServiceName, "JoinCall", CallServer.JoinCall),
		unary(CallServiceName, "EndCall", CallServer.EndCall),
		unary(CallServiceName, "CancelCall", CallServer.CancelCall),
	},
	Metadata: "callfirst/v1/call",
}

func RegisterCallServer(s grpc.ServiceRegistrar, srv CallServer) {
	s.RegisterService(&CallServiceDesc, srv)
}

type CallClient struct {
	cc grpc.ClientConnInterface
}

func NewCallClient(cc grpc.ClientConnInterface) *CallClient {
	return &CallClient{cc: cc}
}

func (c *CallClient) GetCallEvent(ctx context.Context, in *CallEventRequest, opts ...grpc.CallOption) (*GetCallEventResponse, error) {
	return invoke[CallEventRequest, GetCallEventResponse](ctx, c.cc, "/"+CallServiceName+"/GetCallEvent", in, opts...)
}

func (c *CallClient) SetCallEventState(ctx context.Context, in *SetCallEventStateRequest, opts ...grpc.CallOption) (*EndCallResponse, error) {
	return invoke[SetCallEventStateRequest, EndCallResponse](ctx, c.cc, "/"+CallServiceName+"/SetCallEventState", in, opts...)
}

func (c *CallClient) JoinCall(ctx context.Context, in *CallEventRequest, opts ...grpc.CallOption) (*CallEventResponse, error) {
	return invoke[CallEventRequest, CallEventResponse](ctx, c.cc, "/"+CallServiceName+"/JoinCall", in, opts...)
}

func (c *CallClient) EndCall(ctx context.Context, in *CallEventRequest, opts ...grpc.CallOption) (*EndCallResponse, error) {
	return invoke[CallEventRequest, EndCallResponse](ctx, c.cc, "/"+CallServiceName+"/EndCall", in, opts...)
}

func (c *CallClient) CancelCall(ctx context.Context, in *CallEventRequest, opts ...grpc.CallOption) (*CallEventResponse, error) {
	return invoke[CallEventRequest, CallEventResponse](ctx, c.cc, "/"+CallServiceName+"/CancelCall", in, opts...)
}
