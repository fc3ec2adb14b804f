package api

import (
	"context"

	"haul/internal/domain"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by POST /auth/login.
type AuthResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	User         domain.User `json:"user"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// ProfileUpdate is the body of PATCH /users/profile.
type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone"`
}

// Login exchanges credentials for tokens and the user profile.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.post(ctx, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account. The caller signs in separately.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.post(ctx, "/auth/register", req, nil)
}

// UpdateProfile updates the signed-in user's profile.
func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdate) (*domain.User, error) {
	var user domain.User
	if err := c.patch(ctx, "/users/profile", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserReviews lists reviews left for a user.
func (c *Client) UserReviews(ctx context.Context, userID string) ([]domain.Review, error) {
	var reviews []domain.Review
	if err := c.get(ctx, "/reviews/user/"+pathID(userID), nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
