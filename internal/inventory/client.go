package inventory

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"yardsearch-backend/lib/fetch"
	"yardsearch-backend/lib/telemetry"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// NewHttpClient builds the resty client every upstream call goes
// through. The inventory endpoint is not a documented API: it only
// accepts requests shaped like the in-page asynchronous calls the
// branch sites make themselves, so the transport carries a browser
// user agent and the cloudflare bypass wrapper.
func NewHttpClient() (*resty.Client, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", browserUserAgent)
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "yardsearch.inventory.http")

	return client, nil
}

type ClientOptions struct {
	// BaseURL is the scheme+host of the chain's site.
	BaseURL string
	Fetch   *fetch.Client
}

// Client retrieves one branch's inventory page for a free-text query.
type Client struct {
	opts ClientOptions
}

func NewClient(opts ClientOptions) *Client {
	return &Client{opts: opts}
}

// FetchInventory performs the in-page search request for one branch
// and returns the HTML fragment of listing rows.
func (c *Client) FetchInventory(ctx context.Context, branchCode, query string) ([]byte, error) {
	params := url.Values{}
	params.Set("location", branchCode)
	params.Set("filter", query)

	endpoint := fmt.Sprintf("%s/inventory/search?%s", c.opts.BaseURL, params.Encode())
	return c.opts.Fetch.Get(ctx, endpoint, map[string]string{
		"X-Requested-With": "XMLHttpRequest",
		"Accept":           "text/html, */*; q=0.01",
		"Referer":          c.opts.BaseURL + "/inventory",
	})
}
