package tool

import "github.com/cloudwego/eino/schema"

func toolInfos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: UpdateTripInformation,
			Desc: "Save newly learned trip details (destination, start_date, end_date) to memory. Call this whenever the user provides new information. Omit fields that are still unknown.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"destination": {Type: schema.String, Desc: "The destination city."},
				"start_date":  {Type: schema.String, Desc: "The departure date in YYYY-MM-DD format."},
				"end_date":    {Type: schema.String, Desc: "The return date in YYYY-MM-DD format."},
			}),
		},
		{
			Name: GetTripInformation,
			Desc: "Search for both flight prices and local events. Call this FINAL tool only after destination, start_date and end_date are all stored in memory.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"destination": {Type: schema.String, Desc: "The destination city.", Required: true},
				"start_date":  {Type: schema.String, Desc: "The departure date in YYYY-MM-DD format.", Required: true},
				"end_date":    {Type: schema.String, Desc: "The return date in YYYY-MM-DD format.", Required: true},
			}),
		},
		{
			Name: FlightPriceSearch,
			Desc: "Get typical flight prices for a destination.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"destination": {Type: schema.String, Desc: "The destination city for the flight search.", Required: true},
			}),
		},
		{
			Name: LocalEventSearch,
			Desc: "Find local events and festivals at a destination around a specific date.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"destination": {Type: schema.String, Desc: "The destination city.", Required: true},
				"start_date":  {Type: schema.String, Desc: "The start date for the event search, in YYYY-MM-DD format.", Required: true},
			}),
		},
		{
			Name: SearchFlights,
			Desc: "Search for specific flight offers. This is for flights ONLY and requires IATA airport codes.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"origin_location_code":      {Type: schema.String, Desc: "The IATA code of the departure city.", Required: true},
				"destination_location_code": {Type: schema.String, Desc: "The IATA code of the arrival city.", Required: true},
				"departure_date":            {Type: schema.String, Desc: "The departure date in YYYY-MM-DD format.", Required: true},
				"return_date":               {Type: schema.String, Desc: "The return date for round-trip flights."},
				"adults":                    {Type: schema.Integer, Desc: "The number of adult passengers."},
			}),
		},
		{
			Name: HotelRecommendation,
			Desc: "Recommend hotels at a destination, optionally scoped to the stay dates.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"destination": {Type: schema.String, Desc: "The destination city.", Required: true},
				"check_in":    {Type: schema.String, Desc: "Check-in date in YYYY-MM-DD format."},
				"check_out":   {Type: schema.String, Desc: "Check-out date in YYYY-MM-DD format."},
			}),
		},
		{
			Name: GeneralWebSearch,
			Desc: "Search the internet for general travel information such as weather, restaurants, or other questions that are NOT about specific flight prices.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "A specific, detailed search query for the web.", Required: true},
			}),
		},
	}
}
