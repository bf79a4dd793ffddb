package api

import (
	"context"

	"google.golang.org/grpc"
)

const ProfileServiceName = "callfirst.v1.ProfileService"

// ProfileInput is the full set of owner-editable profile fields.
type ProfileInput struct {
	Name      string   `json:"name"`
	Birthday  string   `json:"birthday"`
	Gender    string   `json:"gender"`
	Sexuality string   `json:"sexuality"`
	ShowMe    string   `json:"showMe"`
	Photos    []string `json:"photos"`
	Prompts   []string `json:"prompts"`
	Bio       string   `json:"bio,omitempty"`
}

// ProfilePatch updates only the fields that are set.
type ProfilePatch struct {
	Name      *string   `json:"name,omitempty"`
	Birthday  *string   `json:"birthday,omitempty"`
	Gender    *string   `json:"gender,omitempty"`
	Sexuality *string   `json:"sexuality,omitempty"`
	ShowMe    *string   `json:"showMe,omitempty"`
	Photos    *[]string `json:"photos,omitempty"`
	Prompts   *[]string `json:"prompts,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
}

type GetProfileRequest struct {
	ID string `json:"id"`
}

// ProfileResponse has a nil Profile when it does not exist.
type ProfileResponse struct {
	Profile *Profile `json:"profile,omitempty"`
}

type CreateProfileRequest struct {
	Profile ProfileInput `json:"profile"`
}

type UpdateProfileRequest struct {
	ID    string       `json:"id"`
	Patch ProfilePatch `json:"patch"`
}

type ListCandidatesRequest struct{}

type ListCandidatesResponse struct {
	Profiles []*Profile `json:"profiles"`
}

type ProfileServer interface {
	GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	CreateProfile(context.Context, *CreateProfileRequest) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	ListCandidates(context.Context, *ListCandidatesRequest) (*ListCandidatesResponse, error)
}

var ProfileServiceDesc = grpc.ServiceDesc{
	ServiceName: ProfileServiceName,
	HandlerType: (*ProfileServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ProfileServiceName, "GetProfile", ProfileServer.GetProfile),
		unary(ProfileServiceName, "CreateProfile", ProfileServer.CreateProfile),
		unary(ProfileServiceName, "UpdateProfile", ProfileServer.UpdateProfile),
		unary(ProfileServiceName, "ListCandidates", ProfileServer.ListCandidates),
	},
	Metadata: "callfirst/v1/profile",
}

func RegisterProfileServer(s grpc.ServiceRegistrar, srv ProfileServer) {
	s.RegisterService(&ProfileServiceDesc, srv)
}

type ProfileClient struct {
	cc grpc.ClientConnInterface
}

func NewProfileClient(cc grpc.ClientConnInterface) *ProfileClient {
	return &ProfileClient{cc: cc}
}

func (c *ProfileClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[GetProfileRequest, ProfileResponse](ctx, c.cc, "/"+ProfileServiceName+"/GetProfile", in, opts...)
}

func (c *ProfileClient) CreateProfile(ctx context.Context, in *CreateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[CreateProfileRequest, ProfileResponse](ctx, c.cc, "/"+ProfileServiceName+"/CreateProfile", in, opts...)
}

func (c *ProfileClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[UpdateProfileRequest, ProfileResponse](ctx, c.cc, "/"+ProfileServiceName+"/UpdateProfile", in, opts...)
}

func (c *ProfileClient) ListCandidates(ctx context.Context, in *ListCandidatesRequest, opts ...grpc.CallOption) (*ListCandidatesResponse, error) {
	return invoke[ListCandidatesRequest, ListCandidatesResponse](ctx, c.cc, "/"+ProfileServiceName+"/ListCandidates", in, opts...)
}
