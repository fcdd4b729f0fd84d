package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"salon-booking/internal/domain"
)

type authUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
}

// GetUser devuelve el usuario actual o nil si no hay sesion.
func (c *Client) GetUser(ctx context.Context, creds Credentials) (*domain.User, error) {
	u, err := c.fetchUser(ctx, creds)
	if err != nil || u == nil {
		return nil, err
	}
	return &domain.User{
		ID:           u.ID,
		Email:        u.Email,
		UserMetadata: u.UserMetadata,
		AppMetadata:  u.AppMetadata,
	}, nil
}

// GetSession devuelve la sesion actual con su metadata, o nil.
func (c *Client) GetSession(ctx context.Context, creds Credentials) (*domain.Session, error) {
	u, err := c.fetchUser(ctx, creds)
	if err != nil || u == nil {
		return nil, err
	}
	return &domain.Session{
		User: domain.User{
			ID:           u.ID,
			Email:        u.Email,
			UserMetadata: u.UserMetadata,
			AppMetadata:  u.AppMetadata,
		},
		Metadata: u.UserMetadata,
	}, nil
}

func (c *Client) fetchUser(ctx context.Context, creds Credentials) (*authUser, error) {
	if creds.Empty() {
		return nil, nil
	}
	var u authUser
	err := c.do(ctx, request{
		method:      http.MethodGet,
		path:        "/auth/v1/user",
		accessToken: creds.AccessToken,
	}, &u)
	if errors.Is(err, ErrUnauthenticated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(u.ID) == "" {
		return nil, nil
	}
	return &u, nil
}

// RefreshCredentials canjea un refresh token por un par nuevo.
// Devuelve ErrUnauthenticated si el proveedor rechaza el token.
func (c *Client) RefreshCredentials(ctx context.Context, refreshToken string) (Credentials, *time.Time, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Credentials{}, nil, ErrUnauthenticated
	}
	var tr tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": []string{"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, &tr)
	if err != nil {
		var remote *RemoteError
		if errors.As(err, &remote) && remote.Status == http.StatusBadRequest {
			// invalid_grant: el refresh token fue revocado o ya se uso.
			return Credentials{}, nil, ErrUnauthenticated
		}
		return Credentials{}, nil, err
	}
	if tr.AccessToken == "" {
		return Credentials{}, nil, ErrUnauthenticated
	}
	var expiresAt *time.Time
	switch {
	case tr.ExpiresAt > 0:
		t := time.Unix(tr.ExpiresAt, 0).UTC()
		expiresAt = &t
	case tr.ExpiresIn > 0:
		t := time.Now().UTC().Add(time.Duration(tr.ExpiresIn) * time.Second)
		expiresAt = &t
	}
	next := Credentials{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken}
	if next.RefreshToken == "" {
		next.RefreshToken = refreshToken
	}
	return next, expiresAt, nil
}
