package api

import (
	"context"
	"errors"

	"haul/internal/domain"
)

type startJourneyRequest struct {
	LoadID string `json:"loadId"`
}

// locationReport is the body of POST /journeys/locations.
type locationReport struct {
	JourneyID string `json:"journeyId"`
	domain.LocationSample
}

// StartJourney creates a journey for a load.
func (c *Client) StartJourney(ctx context.Context, loadID string) (*domain.Journey, error) {
	var j domain.Journey
	if err := c.post(ctx, "/journeys/start", startJourneyRequest{LoadID: loadID}, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// StopJourney marks a journey COMPLETED.
func (c *Client) StopJourney(ctx context.Context, journeyID string) (*domain.Journey, error) {
	var j domain.Journey
	if err := c.post(ctx, "/journeys/stop/"+pathID(journeyID), nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// SendLocation reports one location sample for a journey.
func (c *Client) SendLocation(ctx context.Context, journeyID string, sample domain.LocationSample) error {
	return c.post(ctx, "/journeys/locations", locationReport{JourneyID: journeyID, LocationSample: sample}, nil)
}

// ActiveJourney returns the active journey of a load, or nil when there is none.
func (c *Client) ActiveJourney(ctx context.Context, loadID string) (*domain.Journey, error) {
	var j domain.Journey
	if err := c.get(ctx, "/journeys/active/"+pathID(loadID), nil, &j); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}
