package domain

import "time"

// LoadStatus represents the lifecycle status of a load as reported by the backend.
type LoadStatus string

const (
	LoadStatusOpen      LoadStatus = "OPEN"
	LoadStatusAssigned  LoadStatus = "ASSIGNED"
	LoadStatusInTransit LoadStatus = "IN_TRANSIT"
	LoadStatusCompleted LoadStatus = "COMPLETED"
	LoadStatusCancelled LoadStatus = "CANCELLED"
)

// Shipper is the counterparty that posted a load.
type Shipper struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Phone  string   `json:"phone"`
	Rating *float64 `json:"rating,omitempty"`
}

// Load represents a freight shipment posted by a shipper.
// Loading and delivery dates are kept as the backend sends them; they are
// displayed, never computed on.
type Load struct {
	ID                   string        `json:"id"`
	DisplayID            string        `json:"displayId,omitempty"`
	OriginCity           string        `json:"originCity"`
	OriginRegion         string        `json:"originRegion"`
	OriginCountry        string        `json:"originCountry,omitempty"`
	OriginLatitude       *float64      `json:"originLatitude,omitempty"`
	OriginLongitude      *float64      `json:"originLongitude,omitempty"`
	DestinationCity      string        `json:"destinationCity"`
	DestinationRegion    string        `json:"destinationRegion"`
	DestinationCountry   string        `json:"destinationCountry,omitempty"`
	DestinationLatitude  *float64      `json:"destinationLatitude,omitempty"`
	DestinationLongitude *float64      `json:"destinationLongitude,omitempty"`
	CargoType            string        `json:"cargoType"`
	Weight               float64       `json:"weight"`
	Volume               *float64      `json:"volume,omitempty"`
	Price                float64       `json:"price"`
	Currency             string        `json:"currency,omitempty"`
	LoadingDate          string        `json:"loadingDate"`
	DeliveryDate         string        `json:"deliveryDate"`
	Status               LoadStatus    `json:"status"`
	ShipperID            string        `json:"shipperId"`
	Shipper              *Shipper      `json:"shipper,omitempty"`
	Applications         []Application `json:"applications,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
}

// Pagination describes one page of a paginated listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// LoadPage is a page of open loads.
type LoadPage struct {
	Loads      []Load     `json:"loads"`
	Pagination Pagination `json:"pagination"`
}
