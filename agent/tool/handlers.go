package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	amadeusx "github.com/ascend-travel/assistant/pkg/amadeus"
	tavilyx "github.com/ascend-travel/assistant/pkg/tavily"
)

func snippetMaps(results []tavilyx.SearchResult) []map[string]any {
	return lo.Map(results, func(r tavilyx.SearchResult, _ int) map[string]any {
		return map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"content": r.Content,
		}
	})
}

func flightPriceHandler(search SearchClient) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		if search == nil {
			return searchUnavailable, nil
		}
		destination := stringArg(args, "destination")
		if destination == "" {
			return "", errors.New("destination is required")
		}

		results, err := search.Search(ctx, tavilyx.SearchRequest{
			Query:       fmt.Sprintf("typical round-trip flight prices to %s", destination),
			SearchDepth: tavilyx.DepthBasic,
			MaxResults:  3,
		})
		if err != nil {
			return "", err
		}
		return marshalResults(snippetMaps(results))
	}
}

func localEventHandler(search SearchClient) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		if search == nil {
			return searchUnavailable, nil
		}
		destination := stringArg(args, "destination")
		startDate := stringArg(args, "start_date")
		if destination == "" || startDate == "" {
			return "", errors.New("destination and start_date are required")
		}

		results, err := search.Search(ctx, tavilyx.SearchRequest{
			Query:       fmt.Sprintf("events, festivals, and activities in %s around %s", destination, startDate),
			SearchDepth: tavilyx.DepthAdvanced,
			MaxResults:  3,
		})
		if err != nil {
			return "", err
		}
		return marshalResults(snippetMaps(results))
	}
}

func hotelHandler(search SearchClient) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		if search == nil {
			return searchUnavailable, nil
		}
		destination := stringArg(args, "destination")
		if destination == "" {
			return "", errors.New("destination is required")
		}

		query := fmt.Sprintf("recommended hotels in %s", destination)
		if checkIn := stringArg(args, "check_in"); checkIn != "" {
			query = fmt.Sprintf("%s for a stay starting %s", query, checkIn)
		}

		results, err := search.Search(ctx, tavilyx.SearchRequest{
			Query:       query,
			SearchDepth: tavilyx.DepthBasic,
			MaxResults:  3,
		})
		if err != nil {
			return "", err
		}
		return marshalResults(snippetMaps(results))
	}
}

func webSearchHandler(search SearchClient) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		if search == nil {
			return searchUnavailable, nil
		}
		query := stringArg(args, "query")
		if query == "" {
			return "", errors.New("query is required")
		}

		results, err := search.Search(ctx, tavilyx.SearchRequest{
			Query:       query,
			SearchDepth: tavilyx.DepthBasic,
			MaxResults:  3,
		})
		if err != nil {
			return "", err
		}
		return marshalResults(snippetMaps(results))
	}
}

func searchFlightsHandler(flights FlightClient) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		if flights == nil {
			return searchUnavailable, nil
		}
		origin := stringArg(args, "origin_location_code")
		destination := stringArg(args, "destination_location_code")
		departure := stringArg(args, "departure_date")
		if origin == "" || destination == "" || departure == "" {
			return "", errors.New("origin_location_code, destination_location_code and departure_date are required")
		}

		offers, err := flights.SearchFlightOffers(ctx, amadeusx.FlightSearchRequest{
			OriginLocationCode:      origin,
			DestinationLocationCode: destination,
			DepartureDate:           departure,
			ReturnDate:              stringArg(args, "return_date"),
			Adults:                  intArg(args, "adults"),
		})
		if err != nil {
			return "", err
		}
		if len(offers) == 0 {
			return "No flight offers found for the given criteria. Please inform the user.", nil
		}
		return marshalResults(offers)
	}
}

// tripInformationHandler runs the combined flight-price and local-event
// searches once all three slots are known.
func tripInformationHandler(search SearchClient) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		if search == nil {
			return searchUnavailable, nil
		}
		destination := stringArg(args, "destination")
		startDate := stringArg(args, "start_date")
		endDate := stringArg(args, "end_date")
		if destination == "" || startDate == "" || endDate == "" {
			return "", errors.New("destination, start_date and end_date are required")
		}

		prices, err := search.Search(ctx, tavilyx.SearchRequest{
			Query:       fmt.Sprintf("typical round-trip flight prices to %s from %s", destination, startDate),
			SearchDepth: tavilyx.DepthBasic,
			MaxResults:  2,
		})
		if err != nil {
			return "", err
		}
		events, err := search.Search(ctx, tavilyx.SearchRequest{
			Query:       fmt.Sprintf("events and festivals in %s between %s and %s", destination, startDate, endDate),
			SearchDepth: tavilyx.DepthBasic,
			MaxResults:  3,
		})
		if err != nil {
			return "", err
		}

		return marshalResults(map[string]any{
			"flight_info":  snippetMaps(prices),
			"local_events": snippetMaps(events),
		})
	}
}
