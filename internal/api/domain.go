package api

import (
	"context"
	"net/http"
)

// The sibling domain resources are scoped server-side by the active
// store context; the client only lists them. Full CRUD lives in the web
// frontend and is out of scope here.

// Space is a bookable or assignable floor area.
type Space struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
}

// Person is a directory entry within the active store.
type Person struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	SpaceID   string `json:"spaceId,omitempty"`
}

// ConferenceRoom is a bookable meeting room.
type ConferenceRoom struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	LabelID  string `json:"labelId,omitempty"`
}

// Label is an electronic shelf label known to the active store.
type Label struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	Status     string `json:"status"`
	LinkedID   string `json:"linkedId,omitempty"`
	LinkedType string `json:"linkedType,omitempty"`
}

// ListSpaces lists spaces in the active store.
func (c *Client) ListSpaces(ctx context.Context) ([]Space, error) {
	var resp struct {
		Spaces []Space `json:"spaces"`
	}
	if err := c.do(ctx, http.MethodGet, "/spaces", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Spaces, nil
}

// ListPeople lists people in the active store.
func (c *Client) ListPeople(ctx context.Context) ([]Person, error) {
	var resp struct {
		People []Person `json:"people"`
	}
	if err := c.do(ctx, http.MethodGet, "/people", nil, &resp); err != nil {
		return nil, err
	}
	return resp.People, nil
}

// ListConferenceRooms lists conference rooms in the active store.
func (c *Client) ListConferenceRooms(ctx context.Context) ([]ConferenceRoom, error) {
	var resp struct {
		Rooms []ConferenceRoom `json:"rooms"`
	}
	if err := c.do(ctx, http.MethodGet, "/conference-rooms", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rooms, nil
}

// ListLabels lists ESL labels in the active store.
func (c *Client) ListLabels(ctx context.Context) ([]Label, error) {
	var resp struct {
		Labels []Label `json:"labels"`
	}
	if err := c.do(ctx, http.MethodGet, "/labels", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Labels, nil
}
