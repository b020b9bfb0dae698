package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Profile is the provider-side view of a user.
type Profile struct {
	ID       string
	Username string
	Email    string
	Phone    string
}

// ProfileSource fetches profiles from the identity provider.
type ProfileSource interface {
	FetchProfile(ctx context.Context, subject string) (*Profile, error)
}

// clerkUser is the user object shared by the REST API and webhook payloads.
type clerkUser struct {
	ID                    string  `json:"id"`
	Username              *string `json:"username"`
	PrimaryEmailAddressID *string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
	PrimaryPhoneNumberID *string `json:"primary_phone_number_id"`
	PhoneNumbers         []struct {
		ID          string `json:"id"`
		PhoneNumber string `json:"phone_number"`
	} `json:"phone_numbers"`
}

func (u *clerkUser) profile() *Profile {
	p := &Profile{ID: u.ID}
	if u.Username != nil {
		p.Username = *u.Username
	}
	for _, e := range u.EmailAddresses {
		if u.PrimaryEmailAddressID == nil || e.ID == *u.PrimaryEmailAddressID {
			p.Email = e.EmailAddress
			break
		}
	}
	for _, n := range u.PhoneNumbers {
		if u.PrimaryPhoneNumberID == nil || n.ID == *u.PrimaryPhoneNumberID {
			p.Phone = n.PhoneNumber
			break
		}
	}
	return p
}

// ClerkClient reads users from the Clerk Backend API.
type ClerkClient struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewClerkClient creates a profile client for baseURL (e.g. https://api.clerk.com).
func NewClerkClient(baseURL, secretKey string) *ClerkClient {
	return &ClerkClient{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchProfile returns GET {baseURL}/v1/users/{subject}.
func (c *ClerkClient) FetchProfile(ctx context.Context, subject string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/users/"+url.PathEscape(subject), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch profile status: %d", resp.StatusCode)
	}
	var u clerkUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if u.ID == "" {
		u.ID = subject
	}
	return u.profile(), nil
}
