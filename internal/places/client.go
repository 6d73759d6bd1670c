package places

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

const DefaultRadius = 5000

var (
	ErrInvalidQuery = errors.New("you must provide either city or coordinates, but not both")
	ErrUpstream     = errors.New("places upstream error")
)

type Query struct {
	City        string
	Coordinates string
	Radius      int
}

func (q Query) Validate() error {
	hasCity := strings.TrimSpace(q.City) != ""
	hasCoords := strings.TrimSpace(q.Coordinates) != ""

	if hasCity == hasCoords {
		return ErrInvalidQuery
	}

	if q.Radius < 0 {
		return fmt.Errorf("%w: radius must not be negative", ErrInvalidQuery)
	}

	return nil
}

// Place is the trimmed view of a search result returned to callers and logged.
type Place struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Rating  *float64 `json:"rating"`
}

type searchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name     string   `json:"name"`
		Vicinity string   `json:"vicinity"`
		Address  string   `json:"formatted_address"`
		Rating   *float64 `json:"rating"`
	} `json:"results"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// Nearby searches restaurants either in a city or around "lat,lng" coordinates.
func (c *Client) Nearby(ctx context.Context, q Query) ([]Place, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	endpoint := c.searchURL(q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: http status %d", ErrUpstream, resp.StatusCode)
	}

	var body searchResponse

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}

	if body.Status != "OK" {
		return nil, fmt.Errorf("%w: status %s", ErrUpstream, body.Status)
	}

	out := make([]Place, 0, len(body.Results))

	for _, r := range body.Results {
		addr := r.Vicinity
		if addr == "" {
			// text search answers with formatted_address only
			addr = r.Address
		}

		rating := r.Rating
		if rating != nil && *rating == 0 {
			// unrated places come back as 0 or not at all
			rating = nil
		}

		out = append(out, Place{Name: r.Name, Address: addr, Rating: rating})
	}

	return out, nil
}

func (c *Client) searchURL(q Query) string {
	radius := q.Radius
	if radius == 0 {
		radius = DefaultRadius
	}

	v := url.Values{}
	v.Set("radius", strconv.Itoa(radius))
	v.Set("key", c.apiKey)

	if strings.TrimSpace(q.City) != "" {
		v.Set("query", "restaurants in "+q.City)
		return c.baseURL + "/textsearch/json?" + v.Encode()
	}

	v.Set("location", q.Coordinates)
	v.Set("type", "restaurant")
	return c.baseURL + "/nearbysearch/json?" + v.Encode()
}
