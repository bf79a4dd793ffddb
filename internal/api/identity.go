package api

import (
	"context"

	"google.golang.org/grpc"
)

const IdentityServiceName = "callfirst.v1.IdentityService"

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RequestPhoneCodeRequest struct {
	Phone string `json:"phone"`
}

type RequestPhoneCodeResponse struct {
	ExpiresInSeconds int64 `json:"expiresInSeconds"`
}

type PasswordCredential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PhoneCredential struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type DemoCredential struct {
	UserID string `json:"userId"`
}

// EstablishSessionRequest carries exactly one credential.
type EstablishSessionRequest struct {
	Password *PasswordCredential `json:"password,omitempty"`
	Phone    *PhoneCredential    `json:"phone,omitempty"`
	Demo     *DemoCredential     `json:"demo,omitempty"`
}

type SessionResponse struct {
	Session *Session `json:"session"`
}

type GetSessionRequest struct {
	Token string `json:"token"`
}

// GetSessionResponse has a nil Session when the token is unknown or expired.
type GetSessionResponse struct {
	Session *Session `json:"session,omitempty"`
}

type EndSessionRequest struct {
	Token string `json:"token"`
}

type IdentityServer interface {
	SignUp(context.Context, *SignUpRequest) (*SessionResponse, error)
	RequestPhoneCode(context.Context, *RequestPhoneCodeRequest) (*RequestPhoneCodeResponse, error)
	EstablishSession(context.Context, *EstablishSessionRequest) (*SessionResponse, error)
	GetSession(context.Context, *GetSessionRequest) (*GetSessionResponse, error)
	EndSession(context.Context, *EndSessionRequest) (*Empty, error)
}

var IdentityServiceDesc = grpc.ServiceDesc{
	ServiceName: IdentityServiceName,
	HandlerType: (*IdentityServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(IdentityServiceName, "SignUp", IdentityServer.SignUp),
		unary(IdentityServiceName, "RequestPhoneCode", IdentityServer.RequestPhoneCode),
		unary(IdentityServiceName, "EstablishSession", IdentityServer.EstablishSession),
		unary(IdentityServiceName, "GetSession", IdentityServer.GetSession),
		unary(IdentityServiceName, "EndSession", IdentityServer.EndSession),
	},
	Metadata: "callfirst/v1/identity",
}

func RegisterIdentityServer(s grpc.ServiceRegistrar, srv IdentityServer) {
	s.RegisterService(&IdentityServiceDesc, srv)
}

// PublicMethods can be called without a session.
var PublicMethods = map[string]bool{
	"/" + IdentityServiceName + "/SignUp":           true,
	"/" + IdentityServiceName + "/RequestPhoneCode": true,
	"/" + IdentityServiceName + "/EstablishSession": true,
	"/" + IdentityServiceName + "/GetSession":       true,
}

type IdentityClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityClient(cc grpc.ClientConnInterface) *IdentityClient {
	return &IdentityClient{cc: cc}
}

func (c *IdentityClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SignUpRequest, SessionResponse](ctx, c.cc, "/"+IdentityServiceName+"/SignUp", in, opts...)
}

func (c *IdentityClient) RequestPhoneCode(ctx context.Context, in *RequestPhoneCodeRequest, opts ...grpc.CallOption) (*RequestPhoneCodeResponse, error) {
	return invoke[RequestPhoneCodeRequest, RequestPhoneCodeResponse](ctx, c.cc, "/"+IdentityServiceName+"/RequestPhoneCode", in, opts...)
}

func (c *IdentityClient) EstablishSession(ctx context.Context, in *EstablishSessionRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[EstablishSessionRequest, SessionResponse](ctx, c.cc, "/"+IdentityServiceName+"/EstablishSession", in, opts...)
}

func (c *IdentityClient) GetSession(ctx context.Context, in *GetSessionRequest, opts ...grpc.CallOption) (*GetSessionResponse, error) {
	return invoke[GetSessionRequest, GetSessionResponse](ctx, c.cc, "/"+IdentityServiceName+"/GetSession", in, opts...)
}

func (c *IdentityClient) EndSession(ctx context.Context, in *EndSessionRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[EndSessionRequest, Empty](ctx, c.cc, "/"+IdentityServiceName+"/EndSession", in, opts...)
}
