// Package codepost is a minimal HTTP client for the codePost grading API,
// covering only the read endpoints the notifier polls.
package codepost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production codePost API endpoint.
const DefaultBaseURL = "https://api.codepost.io"

// ErrUnauthorized is returned when the API rejects the configured key.
var ErrUnauthorized = errors.New("codepost: invalid API key")

// Client calls the codePost REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient returns a client for the production API.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, DefaultBaseURL)
}

// NewClientWithBaseURL returns a client against a custom endpoint, used by
// tests.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Course is one course as listed by the API, with assignments resolved to
// name/id pairs.
type Course struct {
	ID          int
	Name        string
	Period      string
	Assignments []Assignment
}

// Assignment identifies one assignment within a course.
type Assignment struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Submission is one student submission's grading state.
type Submission struct {
	ID          int     `json:"id"`
	IsFinalized bool    `json:"isFinalized"`
	Grader      *string `json:"grader"`
}

// courseListing is the raw /courses/ entry; assignments come back as ids.
type courseListing struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Period      string `json:"period"`
	Assignments []int  `json:"assignments"`
}

// apiError is the body codePost returns on failures.
type apiError struct {
	Detail string `json:"detail"`
}

// ValidateKey checks the configured API key with a cheap list call.
func (c *Client) ValidateKey(ctx context.Context) (bool, error) {
	var listings []courseListing
	err := c.get(ctx, "/courses/", &listings)
	if errors.Is(err, ErrUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListCourses returns the available courses matching the given name and
// period, with their assignment names resolved.
func (c *Client) ListCourses(ctx context.Context, name, period string) ([]Course, error) {
	var listings []courseListing
	if err := c.get(ctx, "/courses/", &listings); err != nil {
		return nil, err
	}

	var courses []Course
	for _, listing := range listings {
		if listing.Name != name || listing.Period != period {
			continue
		}
		course := Course{
			ID:     listing.ID,
			Name:   listing.Name,
			Period: listing.Period,
		}
		for _, assignmentID := range listing.Assignments {
			var assignment Assignment
			path := fmt.Sprintf("/assignments/%d/", assignmentID)
			if err := c.get(ctx, path, &assignment); err != nil {
				return nil, err
			}
			course.Assignments = append(course.Assignments, assignment)
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// ListSubmissions returns all submissions of an assignment.
func (c *Client) ListSubmissions(ctx context.Context, assignmentID int) ([]Submission, error) {
	var submissions []Submission
	path := fmt.Sprintf("/assignments/%d/submissions/", assignmentID)
	if err := c.get(ctx, path, &submissions); err != nil {
		return nil, err
	}
	return submissions, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		var detail apiError
		if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
			return fmt.Errorf("codepost: %s returned %d: %s", path, resp.StatusCode, detail.Detail)
		}
		return fmt.Errorf("codepost: %s returned %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
