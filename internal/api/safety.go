package api

import (
	"context"

	"google.golang.org/grpc"
)

const SafetyServiceName = "callfirst.v1.SafetyService"

type BlockUserRequest struct {
	UserID string `json:"userId"`
}

type ReportUserRequest struct {
	UserID   string `json:"userId"`
	Category string `json:"category"`
	Notes    string `json:"notes,omitempty"`
}

type SubmitFeedbackRequest struct {
	CallEventID string `json:"callEventId"`
	Rating      string `json:"rating"`
}

type SafetyServer interface {
	BlockUser(context.Context, *BlockUserRequest) (*Empty, error)
	ReportUser(context.Context, *ReportUserRequest) (*Empty, error)
	SubmitFeedback(context.Context, *SubmitFeedbackRequest) (*Empty, error)
}

var SafetyServiceDesc = grpc.ServiceDesc{
	ServiceName: SafetyServiceName,
	HandlerType: (*SafetyServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(SafetyServiceName, "BlockUser", SafetyServer.BlockUser),
		unary(SafetyServiceName, "ReportUser", SafetyServer.ReportUser),
		unary(SafetyServiceName, "SubmitFeedback", SafetyServer.SubmitFeedback),
	},
	Metadata: "callfirst/v1/safety",
}

func RegisterSafetyServer(s grpc.ServiceRegistrar, srv SafetyServer) {
	s.RegisterService(&SafetyServiceDesc, srv)
}

type SafetyClient struct {
	cc grpc.ClientConnInterface
}

func NewSafetyClient(cc grpc.ClientConnInterface) *SafetyClient {
	return &SafetyClient{cc: cc}
}

func (c *SafetyClient) BlockUser(ctx context.Context, in *BlockUserRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[BlockUserRequest, Empty](ctx, c.cc, "/"+SafetyServiceName+"/BlockUser", in, opts...)
}

func (c *SafetyClient) ReportUser(ctx context.Context, in *ReportUserRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[ReportUserRequest, Empty](ctx, c.cc, "/"+SafetyServiceName+"/ReportUser", in, opts...)
}

func (c *SafetyClient) SubmitFeedback(ctx context.Context, in *SubmitFeedbackRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[SubmitFeedbackRequest, Empty](ctx, c.cc, "/"+SafetyServiceName+"/SubmitFeedback", in, opts...)
}
