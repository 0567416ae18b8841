package tavily

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{BaseURL: "https://api.tavily.com"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewClient(Config{APIKey: "key"}); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewClient(Config{BaseURL: "not a url", APIKey: "key"}); err == nil {
		t.Fatal("expected error for invalid base url")
	}
}

func TestSearchSendsPayload(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		fmt.Fprint(w, `{"results":[{"title":"Tokyo fares","url":"https://example.com","content":"from $780","score":0.9}]}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "secret"}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	results, err := client.Search(context.Background(), SearchRequest{
		Query:       "flight prices to Tokyo",
		SearchDepth: DepthAdvanced,
		MaxResults:  3,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotPath != "/search" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotPayload["api_key"] != "secret" {
		t.Fatalf("api_key = %v", gotPayload["api_key"])
	}
	if gotPayload["search_depth"] != DepthAdvanced {
		t.Fatalf("search_depth = %v", gotPayload["search_depth"])
	}
	if gotPayload["max_results"] != float64(3) {
		t.Fatalf("max_results = %v", gotPayload["max_results"])
	}

	if len(results) != 1 || results[0].Title != "Tokyo fares" || results[0].Score != 0.9 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{BaseURL: "https://api.tavily.com", APIKey: "key"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if _, err := client.Search(context.Background(), SearchRequest{Query: "   "}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"invalid api key"}`)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "bad"}, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.Search(context.Background(), SearchRequest{Query: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status=401") {
		t.Fatalf("unexpected error: %v", err)
	}
}
