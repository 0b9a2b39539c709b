package webex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a thin REST client for the calling platform's identity and
// people APIs. Call-control lives in the XSI client, not here.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   accessToken,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Me is the authenticated account's identity.
type Me struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// GetMe fetches the identity behind the access token. Used to verify
// token validity and to pin the admin account.
func (c *Client) GetMe(ctx context.Context) (Me, error) {
	var me Me
	if err := c.get(ctx, "/people/me", &me); err != nil {
		return Me{}, err
	}
	return me, nil
}

// NumberInfo is one phone number attached to a calling-enabled person.
type NumberInfo struct {
	DirectNumber string `json:"directNumber"`
	Extension    string `json:"extension"`
	Primary      bool   `json:"primary"`
}

// Person is one calling-enabled member of the organization.
type Person struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"displayName"`
	PhoneNumbers []NumberInfo `json:"phoneNumbers"`
}

// PrimaryNumber picks the primary number, falling back to the first one.
func (p Person) PrimaryNumber() (NumberInfo, bool) {
	for _, n := range p.PhoneNumbers {
		if n.Primary {
			return n, true
		}
	}
	if len(p.PhoneNumbers) > 0 {
		return p.PhoneNumbers[0], true
	}
	return NumberInfo{}, false
}

// ListCallingPeople enumerates the organization's calling-enabled people.
func (c *Client) ListCallingPeople(ctx context.Context) ([]Person, error) {
	var out struct {
		Items []Person `json:"items"`
	}
	if err := c.get(ctx, "/people?callingData=true", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("webex: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webex: %s: status %d: %s", path, resp.StatusCode, body)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
