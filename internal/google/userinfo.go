package google

import (
	"context"
	"fmt"
	"strings"

	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// DefaultDisplayName is used when the profile has no name.
const DefaultDisplayName = "AI Assistant"

// UserInfo is the subset of the OpenID profile the assistant uses.
type UserInfo struct {
	Name  string
	Email string
}

// DisplayName returns the user's name or DefaultDisplayName.
func (u UserInfo) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return DefaultDisplayName
}

// FetchUserInfo queries the OAuth2 userinfo endpoint.
func FetchUserInfo(ctx context.Context, opts ...option.ClientOption) (UserInfo, error) {
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to create userinfo service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to fetch user info: %w", err)
	}
	return UserInfo{Name: info.Name, Email: info.Email}, nil
}
