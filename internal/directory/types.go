package directory

import "yardsearch-backend/lib/geo"

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"zip"`
}

// UrlTemplates are the relative link templates a branch's pages use;
// "{slug}" is replaced with a "2018-honda-civic" style vehicle slug.
type UrlTemplates struct {
	Details string `json:"details"`
	Parts   string `json:"parts"`
	Prices  string `json:"prices"`
}

// Branch is one upstream retail location. Immutable for the lifetime
// of a query; DistanceMiles is filled in per query context when the
// caller supplied a reference coordinate.
type Branch struct {
	Code          string         `json:"code"`
	Name          string         `json:"name"`
	Address       Address        `json:"address"`
	Location      geo.Coordinate `json:"location"`
	Templates     UrlTemplates   `json:"templates"`
	DistanceMiles float64        `json:"distance_miles,omitempty"`
}
