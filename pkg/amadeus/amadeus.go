package amadeus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const maxResponseSizeBytes = 4 << 20

type Config struct {
	BaseURL      string        `envconfig:"BASE_URL" split_words:"true" default:"https://test.api.amadeus.com"`
	ClientID     string        `envconfig:"CLIENT_ID" split_words:"true" required:"true"`
	ClientSecret string        `envconfig:"CLIENT_SECRET" split_words:"true" required:"true"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Client calls the Amadeus self-service REST API. Access tokens are fetched
// with the client-credentials grant and cached until shortly before expiry.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("amadeus base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid amadeus url: %w", err)
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("amadeus client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("amadeus client secret is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:      baseURL,
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute token request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("amadeus token http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed tokenResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("amadeus token response is missing access_token")
	}

	c.accessToken = parsed.AccessToken
	// Refresh one minute early to avoid racing the expiry.
	c.tokenExpiry = time.Now().Add(time.Duration(parsed.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}

type FlightSearchRequest struct {
	OriginLocationCode      string
	DestinationLocationCode string
	DepartureDate           string
	ReturnDate              string
	Adults                  int
	MaxOffers               int
}

// FlightOffer is a simplified view of one Amadeus flight offer.
type FlightOffer struct {
	Airline     string           `json:"airline"`
	TotalPrice  string           `json:"total_price"`
	Itineraries []OfferItinerary `json:"itineraries"`
}

type OfferItinerary struct {
	Segments []OfferSegment `json:"segments"`
}

type OfferSegment struct {
	DepartureAirport string `json:"departure_airport"`
	DepartureTime    string `json:"departure_time"`
	ArrivalAirport   string `json:"arrival_airport"`
	ArrivalTime      string `json:"arrival_time"`
	FlightNumber     string `json:"flight_number"`
	Duration         string `json:"duration"`
}

type offersResponse struct {
	Data []struct {
		Price struct {
			Total string `json:"total"`
		} `json:"price"`
		Itineraries []struct {
			Segments []struct {
				Departure struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
				Duration    string `json:"duration"`
			} `json:"segments"`
		} `json:"itineraries"`
	} `json:"data"`
	Dictionaries struct {
		Carriers map[string]string `json:"carriers"`
	} `json:"dictionaries"`
}

// SearchFlightOffers queries the flight-offers endpoint and flattens the
// response into FlightOffer records.
func (c *Client) SearchFlightOffers(ctx context.Context, req FlightSearchRequest) ([]FlightOffer, error) {
	if strings.TrimSpace(req.OriginLocationCode) == "" {
		return nil, errors.New("origin location code is required")
	}
	if strings.TrimSpace(req.DestinationLocationCode) == "" {
		return nil, errors.New("destination location code is required")
	}
	if strings.TrimSpace(req.DepartureDate) == "" {
		return nil, errors.New("departure date is required")
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	adults := req.Adults
	if adults <= 0 {
		adults = 1
	}
	maxOffers := req.MaxOffers
	if maxOffers <= 0 {
		maxOffers = 3
	}

	params := url.Values{}
	params.Set("originLocationCode", strings.ToUpper(strings.TrimSpace(req.OriginLocationCode)))
	params.Set("destinationLocationCode", strings.ToUpper(strings.TrimSpace(req.DestinationLocationCode)))
	params.Set("departureDate", strings.TrimSpace(req.DepartureDate))
	params.Set("adults", strconv.Itoa(adults))
	params.Set("nonStop", "false")
	params.Set("max", strconv.Itoa(maxOffers))
	params.Set("currencyCode", "USD")
	if rd := strings.TrimSpace(req.ReturnDate); rd != "" {
		params.Set("returnDate", rd)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/shopping/flight-offers?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build flight offers request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute flight offers request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read flight offers response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("amadeus http status=%d body=%s", resp.StatusCode, string(raw))
	}

	var parsed offersResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode flight offers response: %w", err)
	}

	offers := make([]FlightOffer, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		offer := FlightOffer{TotalPrice: d.Price.Total + " USD"}
		for _, it := range d.Itineraries {
			var itinerary OfferItinerary
			for _, seg := range it.Segments {
				itinerary.Segments = append(itinerary.Segments, OfferSegment{
					DepartureAirport: seg.Departure.IATACode,
					DepartureTime:    seg.Departure.At,
					ArrivalAirport:   seg.Arrival.IATACode,
					ArrivalTime:      seg.Arrival.At,
					FlightNumber:     seg.CarrierCode + " " + seg.Number,
					Duration:         seg.Duration,
				})
			}
			offer.Itineraries = append(offer.Itineraries, itinerary)
		}
		if len(d.Itineraries) > 0 && len(d.Itineraries[0].Segments) > 0 {
			code := d.Itineraries[0].Segments[0].CarrierCode
			if name, ok := parsed.Dictionaries.Carriers[code]; ok {
				offer.Airline = name
			} else {
				offer.Airline = code
			}
		}
		offers = append(offers, offer)
	}
	return offers, nil
}
