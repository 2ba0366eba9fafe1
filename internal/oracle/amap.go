package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// AmapClient talks to the AMap (Gaode) web service API for driving route
// planning and geocoding.
type AmapClient struct {
	baseURL string
	key     string
	http    *http.Client
}

// NewAmapClient creates a client for the AMap REST API.
func NewAmapClient(baseURL, key string, timeout time.Duration) *AmapClient {
	if baseURL == "" {
		baseURL = "https://restapi.amap.com"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AmapClient{
		baseURL: baseURL,
		key:     key,
		http:    &http.Client{Timeout: timeout},
	}
}

// flexString tolerates AMap's habit of returning "[]" instead of "" for
// fields it cannot resolve (city in municipalities, for example).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) > 0 {
			*f = flexString(list[0])
		} else {
			*f = ""
		}
		return nil
	}
	*f = ""
	return nil
}

func (c *AmapClient) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.key)
	params.Set("output", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build amap request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("amap request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read amap response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("amap %s returned status %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode amap response: %w", err)
	}
	return nil
}

// DrivingDistance plans a driving route between two "lon,lat" coordinates
// and returns the first path's distance in meters.
func (c *AmapClient) DrivingDistance(ctx context.Context, origin, destination string) (float64, error) {
	params := url.Values{}
	params.Set("origin", origin)
	params.Set("destination", destination)
	params.Set("extensions", "base")

	var resp struct {
		Status string `json:"status"`
		Info   string `json:"info"`
		Route  struct {
			Paths []struct {
				Distance string `json:"distance"`
			} `json:"paths"`
		} `json:"route"`
	}
	if err := c.get(ctx, "/v3/direction/driving", params, &resp); err != nil {
		return 0, err
	}
	if resp.Status != "1" || len(resp.Route.Paths) == 0 {
		return 0, fmt.Errorf("amap driving %s -> %s failed: %s", origin, destination, resp.Info)
	}
	distance, err := strconv.ParseFloat(resp.Route.Paths[0].Distance, 64)
	if err != nil {
		return 0, fmt.Errorf("amap driving distance %q is not numeric: %w", resp.Route.Paths[0].Distance, err)
	}
	return distance, nil
}

// Geocode resolves a free-form address within a city to a "lon,lat"
// coordinate.
func (c *AmapClient) Geocode(ctx context.Context, city, address string) (string, error) {
	params := url.Values{}
	params.Set("city", city)
	params.Set("address", address)

	var resp struct {
		Status   string `json:"status"`
		Info     string `json:"info"`
		Infocode string `json:"infocode"`
		Geocodes []struct {
			Location string `json:"location"`
		} `json:"geocodes"`
	}
	if err := c.get(ctx, "/v3/geocode/geo", params, &resp); err != nil {
		return "", err
	}
	if resp.Status != "1" || len(resp.Geocodes) == 0 {
		// Infocode 30001 means the bare place name was not recognized;
		// retrying with the city prefixed usually resolves landmarks.
		if resp.Infocode == "30001" && address != city+address {
			return c.Geocode(ctx, city, city+address)
		}
		return "", fmt.Errorf("amap geocode %s/%s failed: %s", city, address, resp.Info)
	}
	return resp.Geocodes[0].Location, nil
}

// DrivingDistanceByAddress geocodes both addresses and plans a driving route
// between them.
func (c *AmapClient) DrivingDistanceByAddress(ctx context.Context, city, origin, destination string) (float64, error) {
	originLoc, err := c.Geocode(ctx, city, origin)
	if err != nil {
		return 0, err
	}
	destLoc, err := c.Geocode(ctx, city, destination)
	if err != nil {
		return 0, err
	}
	return c.DrivingDistance(ctx, originLoc, destLoc)
}

// ReverseGeocode resolves a "lon,lat" coordinate to its administrative
// division.
func (c *AmapClient) ReverseGeocode(ctx context.Context, location string) (District, error) {
	params := url.Values{}
	params.Set("location", location)
	params.Set("radius", "1000")
	params.Set("extensions", "base")

	var resp struct {
		Status    string `json:"status"`
		Info      string `json:"info"`
		Regeocode struct {
			AddressComponent struct {
				Province flexString `json:"province"`
				City     flexString `json:"city"`
				District flexString `json:"district"`
				Township flexString `json:"township"`
			} `json:"addressComponent"`
		} `json:"regeocode"`
	}
	if err := c.get(ctx, "/v3/geocode/regeo", params, &resp); err != nil {
		return District{}, err
	}
	if resp.Status != "1" {
		return District{}, fmt.Errorf("amap regeo %s failed: %s", location, resp.Info)
	}
	ac := resp.Regeocode.AddressComponent
	return District{
		Province: string(ac.Province),
		City:     string(ac.City),
		District: string(ac.District),
		Township: string(ac.Township),
	}, nil
}
