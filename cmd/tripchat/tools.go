package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hupe1980/tripsession/tool"
)

type routeArgs struct {
	From string `json:"from" description:"Origin city or IATA code"`
	To   string `json:"to" description:"Destination city or IATA code"`
	Date string `json:"date,omitempty" description:"Travel date (YYYY-MM-DD)"`
}

type placeArgs struct {
	Place string `json:"place" description:"Name of the place"`
}

// demoToolset returns canned travel tools for trying the chat without a backend.
func demoToolset() []tool.Tool {
	return []tool.Tool{
		tool.NewFunctionToolFromStruct("flights_between", "Search flights between two places", routeArgs{},
			func(_ context.Context, args map[string]any) (any, error) {
				return map[string]any{
					"demo": true,
					"flights": []map[string]any{
						{"carrier": "TP", "from": args["from"], "to": args["to"], "departure": "08:40", "price_eur": 129},
						{"carrier": "LH", "from": args["from"], "to": args["to"], "departure": "17:15", "price_eur": 164},
					},
				}, nil
			}),
		tool.NewFunctionToolFromStruct("trains_between", "Search trains between two places", routeArgs{},
			func(_ context.Context, args map[string]any) (any, error) {
				return map[string]any{
					"demo":   true,
					"trains": []map[string]any{{"from": args["from"], "to": args["to"], "departure": "09:02", "duration": "3h10m"}},
				}, nil
			}),
		tool.NewFunctionToolFromStruct("get_about_place", "Describe a place and suggest a photo", placeArgs{},
			func(_ context.Context, args map[string]any) (any, error) {
				place, _ := args["place"].(string)
				return map[string]any{
					"demo":    true,
					"summary": fmt.Sprintf("%s is known for its viewpoints and old town.", place),
					"photo":   "https://places.googleapis.com/v1/places/" + url.PathEscape(place) + "/photos/1/media?key=placeholder_api_key",
				}, nil
			}),
	}
}
