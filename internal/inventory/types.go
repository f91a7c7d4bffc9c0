package inventory

import "time"

type ImageType string

const (
	ImageFrontLeft  ImageType = "front-left"
	ImageFrontRight ImageType = "front-right"
	ImageBackLeft   ImageType = "back-left"
	ImageBackRight  ImageType = "back-right"
	ImageFront      ImageType = "front"
	ImageBack       ImageType = "back"
	ImageLeftSide   ImageType = "left-side"
	ImageRightSide  ImageType = "right-side"
	ImageEngine     ImageType = "engine"
	ImageInterior   ImageType = "interior"
	ImageOdometer   ImageType = "odometer"
	ImageOther      ImageType = "other"
)

type Image struct {
	Url          string    `json:"url"`
	ThumbnailUrl string    `json:"thumbnail_url"`
	Type         ImageType `json:"type"`
}

// YardPosition locates a vehicle physically on the lot.
type YardPosition struct {
	Section string `json:"section"`
	Row     string `json:"row"`
	Space   string `json:"space"`
}

// Links are the outbound pages for one vehicle on the branch's site.
type Links struct {
	Details string `json:"details"`
	Parts   string `json:"parts"`
	Prices  string `json:"prices"`
}

// RawListing is a single parsed inventory entry before it is joined
// with its owning branch. Year/Make/Model are always populated; a row
// that cannot produce all three is dropped by the parser.
type RawListing struct {
	Id          string       `json:"id"`
	Year        int          `json:"year"`
	Make        string       `json:"make"`
	Model       string       `json:"model"`
	Color       string       `json:"color"`
	Vin         string       `json:"vin"`
	StockNumber string       `json:"stock_number"`
	Position    YardPosition `json:"position"`
	AvailableAt time.Time    `json:"available_at"`
	Images      []Image      `json:"images"`
	Links       Links        `json:"links"`
}
