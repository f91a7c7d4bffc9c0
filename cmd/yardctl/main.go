// yardctl is a small operator CLI for a running yard-server: run
// searches, list branch locations, and force cache revalidation.
package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"yardsearch-backend/internal/directory"
	"yardsearch-backend/internal/search"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "yardctl",
	Short: "Operator CLI for the yard inventory search service.",
}

var searchFlags struct {
	query       string
	makes       []string
	models      []string
	colors      []string
	yearMin     int
	yearMax     int
	near        string
	maxDistance float64
	sort        string
	order       string
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search vehicle inventory across every yard.",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		params.Set("q", searchFlags.query)
		for _, m := range searchFlags.makes {
			params.Add("make", m)
		}
		for _, m := range searchFlags.models {
			params.Add("model", m)
		}
		for _, c := range searchFlags.colors {
			params.Add("color", c)
		}
		if searchFlags.yearMin != 0 {
			params.Set("year_min", strconv.Itoa(searchFlags.yearMin))
		}
		if searchFlags.yearMax != 0 {
			params.Set("year_max", strconv.Itoa(searchFlags.yearMax))
		}
		if searchFlags.near != "" {
			params.Set("near", searchFlags.near)
		}
		if searchFlags.maxDistance != 0 {
			params.Set("max_distance", strconv.FormatFloat(searchFlags.maxDistance, 'f', -1, 64))
		}
		if searchFlags.sort != "" {
			params.Set("sort", searchFlags.sort)
		}
		if searchFlags.order != "" {
			params.Set("order", searchFlags.order)
		}

		var result search.SearchResult
		res, err := resty.New().R().
			SetContext(cmd.Context()).
			SetResult(&result).
			Get(serverURL + "/api/search?" + params.Encode())
		if err != nil {
			return err
		}
		if res.IsError() {
			return fmt.Errorf("server returned %s: %s", res.Status(), res.String())
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Year", "Make", "Model", "Color", "Yard", "Row", "VIN", "Available"})
		for _, r := range result.Records {
			t.AppendRow(table.Row{
				r.Year, r.Make, r.Model, r.Color,
				r.Branch.Name, r.Position.Row, r.Vin,
				r.AvailableAt.Format("2006-01-02"),
			})
		}
		t.Render()

		fmt.Printf(
			"%d records, %d yards covered, %d yards errored, took %s\n",
			result.TotalCount,
			result.LocationsCovered,
			len(result.LocationsWithErrors),
			result.Elapsed,
		)
		return nil
	},
}

var locationFlags struct {
	near   string
	radius float64
	region string
	query  string
}

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List yard locations known to the service.",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		if locationFlags.near != "" {
			params.Set("near", locationFlags.near)
			if locationFlags.radius != 0 {
				params.Set("radius", strconv.FormatFloat(locationFlags.radius, 'f', -1, 64))
			}
		}
		if locationFlags.region != "" {
			params.Set("region", locationFlags.region)
		}
		if locationFlags.query != "" {
			params.Set("q", locationFlags.query)
		}

		var branches []directory.Branch
		res, err := resty.New().R().
			SetContext(cmd.Context()).
			SetResult(&branches).
			Get(serverURL + "/api/locations?" + params.Encode())
		if err != nil {
			return err
		}
		if res.IsError() {
			return fmt.Errorf("server returned %s: %s", res.Status(), res.String())
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Code", "Name", "City", "State", "Distance (mi)"})
		for _, b := range branches {
			distance := ""
			if b.DistanceMiles > 0 {
				distance = strconv.FormatFloat(b.DistanceMiles, 'f', 1, 64)
			}
			t.AppendRow(table.Row{b.Code, b.Name, b.Address.City, b.Address.State, distance})
		}
		t.Render()
		return nil
	},
}

var clearLocation string

var cacheClearCmd = &cobra.Command{
	Use:   "cache-clear",
	Short: "Force inventory revalidation without waiting out the TTL.",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := serverURL + "/api/cache/clear"
		if clearLocation != "" {
			endpoint += "?location=" + url.QueryEscape(clearLocation)
		}
		res, err := resty.New().R().
			SetContext(cmd.Context()).
			Post(endpoint)
		if err != nil {
			return err
		}
		if res.IsError() {
			return fmt.Errorf("server returned %s: %s", res.Status(), res.String())
		}
		fmt.Println("cache cleared")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8000", "Base URL of the yard-server instance.")

	searchCmd.Flags().StringVarP(&searchFlags.query, "query", "q", "", "Free-text query forwarded to every yard.")
	searchCmd.Flags().StringSliceVar(&searchFlags.makes, "make", nil, "Accepted makes.")
	searchCmd.Flags().StringSliceVar(&searchFlags.models, "model", nil, "Accepted models.")
	searchCmd.Flags().StringSliceVar(&searchFlags.colors, "color", nil, "Accepted colors.")
	searchCmd.Flags().IntVar(&searchFlags.yearMin, "year-min", 0, "Minimum model year (inclusive).")
	searchCmd.Flags().IntVar(&searchFlags.yearMax, "year-max", 0, "Maximum model year (inclusive).")
	searchCmd.Flags().StringVar(&searchFlags.near, "near", "", "Reference coordinate as lat,lng.")
	searchCmd.Flags().Float64Var(&searchFlags.maxDistance, "max-distance", 0, "Maximum distance in miles from --near.")
	searchCmd.Flags().StringVar(&searchFlags.sort, "sort", "", "Sort key: distance|date|year|make|branch.")
	searchCmd.Flags().StringVar(&searchFlags.order, "order", "", "Sort order: asc|desc.")

	locationsCmd.Flags().StringVar(&locationFlags.near, "near", "", "Reference coordinate as lat,lng.")
	locationsCmd.Flags().Float64Var(&locationFlags.radius, "radius", 0, "Radius in miles around --near.")
	locationsCmd.Flags().StringVar(&locationFlags.region, "region", "", "Filter by state/region code.")
	locationsCmd.Flags().StringVarP(&locationFlags.query, "query", "q", "", "Free-text match against name/city/state.")

	cacheClearCmd.Flags().StringVar(&clearLocation, "location", "", "Only evict one branch's entries.")

	rootCmd.AddCommand(searchCmd, locationsCmd, cacheClearCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
