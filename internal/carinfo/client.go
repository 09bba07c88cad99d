// Package carinfo decodes vehicle identification numbers through the NHTSA
// vPIC API.
package carinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	requestTimeout = 5 * time.Second
	maxRedirects   = 5
)

// ErrNotFound is returned when the service knows nothing about a VIN
var ErrNotFound = errors.New("vehicle not found")

// Vehicle is the factory data decoded from a VIN
type Vehicle struct {
	VIN          string  `json:"vin"`
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Year         int     `json:"year,omitempty"`
	FuelType     string  `json:"fuel_type,omitempty"`
	Engine       string  `json:"engine,omitempty"`
	PowerHP      int     `json:"power_hp,omitempty"`
	Displacement float64 `json:"displacement,omitempty"`
	Transmission string  `json:"transmission,omitempty"`
	BodyClass    string  `json:"body_class,omitempty"`
}

// Client calls the vPIC API
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL, e.g. https://vpic.nhtsa.dot.gov/api
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: requestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

type decodeResponse struct {
	Count   int              `json:"Count"`
	Message string           `json:"Message"`
	Results []decodedVehicle `json:"Results"`
}

type decodedVehicle struct {
	Make              string `json:"Make"`
	Model             string `json:"Model"`
	ModelYear         string `json:"ModelYear"`
	FuelTypePrimary   string `json:"FuelTypePrimary"`
	EngineModel       string `json:"EngineModel"`
	EngineHP          string `json:"EngineHP"`
	DisplacementL     string `json:"DisplacementL"`
	TransmissionStyle string `json:"TransmissionStyle"`
	BodyClass         string `json:"BodyClass"`
}

// DecodeVIN returns the factory data of vin
func (c *Client) DecodeVIN(ctx context.Context, vin string) (*Vehicle, error) {
	endpoint := fmt.Sprintf("%s/vehicles/DecodeVinValues/%s?format=json", c.baseURL, url.PathEscape(vin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call car data service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("car data service returned %s", resp.Status)
	}

	var body decodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode car data: %w", err)
	}
	if len(body.Results) == 0 || body.Results[0].Make == "" {
		return nil, ErrNotFound
	}

	r := body.Results[0]
	v := &Vehicle{
		VIN:          strings.ToUpper(vin),
		Make:         r.Make,
		Model:        r.Model,
		FuelType:     r.FuelTypePrimary,
		Engine:       r.EngineModel,
		Transmission: r.TransmissionStyle,
		BodyClass:    r.BodyClass,
	}
	// vPIC sends every value as a string, empty when unknown
	if year, err := strconv.Atoi(r.ModelYear); err == nil {
		v.Year = year
	}
	if hp, err := strconv.ParseFloat(r.EngineHP, 64); err == nil {
		v.PowerHP = int(hp)
	}
	if disp, err := strconv.ParseFloat(r.DisplacementL, 64); err == nil {
		v.Displacement = disp
	}
	return v, nil
}
