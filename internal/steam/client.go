// Package steam is the outbound client for the Steam Web API, the storefront
// API, and the Steam OpenID 2.0 sign-on endpoint. It is the only package that
// talks to the network; everything above it consumes typed records and
// sentinel errors.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"playdex/internal/sentinel"
)

const (
	defaultAPIBaseURL       = "https://api.steampowered.com"
	defaultStoreBaseURL     = "https://store.steampowered.com"
	defaultCommunityBaseURL = "https://steamcommunity.com"
)

// AppEntry is one row of the global app index.
type AppEntry struct {
	AppID int64  `json:"appid"`
	Name  string `json:"name"`
}

// AppDetail is the enriched storefront record for a single app.
// Thumbnail and Price are null when the storefront omits them.
type AppDetail struct {
	AppID       int64   `json:"appId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Thumbnail   *string `json:"thumbnail"`
	Price       *string `json:"price"`
}

// OwnedGame is one entry of a player's library.
type OwnedGame struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int64  `json:"playtime_forever"`
	ImgIconURL      string `json:"img_icon_url"`
}

// NewsItem is a single news post for an app.
type NewsItem struct {
	GID      string `json:"gid"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Contents string `json:"contents"`
	Date     int64  `json:"date"`
}

// Friend is one entry of a player's friend list.
type Friend struct {
	SteamID      string `json:"steamid"`
	Relationship string `json:"relationship"`
	FriendSince  int64  `json:"friend_since"`
}

// PlayerSummary is the public profile of a Steam account.
type PlayerSummary struct {
	SteamID     string `json:"steamid"`
	PersonaName string `json:"personaname"`
	AvatarFull  string `json:"avatarfull"`
	ProfileURL  string `json:"profileurl"`
}

// Config carries the credentials and relying-party settings for the client.
type Config struct {
	APIKey string

	// OpenID relying-party parameters. ReturnURL is where the provider sends
	// the browser back; Realm is the trust root presented on the sign-on page.
	ReturnURL string
	Realm     string

	Timeout time.Duration
}

// Client issues outbound calls to Steam. Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer

	apiBaseURL       string
	storeBaseURL     string
	communityBaseURL string
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTracer injects a custom tracer. Defaults to the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

// WithAPIBaseURL overrides the Web API base URL for tests.
func WithAPIBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.apiBaseURL = baseURL
	}
}

// WithStoreBaseURL overrides the storefront base URL for tests.
func WithStoreBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.storeBaseURL = baseURL
	}
}

// WithCommunityBaseURL overrides the community (OpenID) base URL for tests.
func WithCommunityBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.communityBaseURL = baseURL
	}
}

// New constructs a Client with bounded timeouts on every outbound call.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := &Client{
		cfg:              cfg,
		apiBaseURL:       defaultAPIBaseURL,
		storeBaseURL:     defaultStoreBaseURL,
		communityBaseURL: defaultCommunityBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("playdex/steam")
	}
	return c
}

type appListResponse struct {
	AppList struct {
		Apps []AppEntry `json:"apps"`
	} `json:"applist"`
}

// ListApps fetches the full app index. The response is large (hundreds of
// thousands of rows) and slowly changing; callers are expected to cache it.
func (c *Client) ListApps(ctx context.Context) ([]AppEntry, error) {
	var out appListResponse
	err := c.getJSON(ctx, "steam.ListApps",
		c.apiBaseURL+"/ISteamApps/GetAppList/v2/", nil, &out)
	if err != nil {
		return nil, err
	}
	return out.AppList.Apps, nil
}

type appDetailsEnvelope struct {
	Success bool `json:"success"`
	Data    *struct {
		Name             string `json:"name"`
		ShortDescription string `json:"short_description"`
		Screenshots      []struct {
			PathThumbnail string `json:"path_thumbnail"`
		} `json:"screenshots"`
		PriceOverview *struct {
			FinalFormatted string `json:"final_formatted"`
		} `json:"price_overview"`
	} `json:"data"`
}

// AppDetails fetches the storefront record for one app. Unknown or delisted
// apps come back with success=false, surfaced as sentinel.ErrNotFound.
func (c *Client) AppDetails(ctx context.Context, appID int64) (*AppDetail, error) {
	params := url.Values{"appids": {strconv.FormatInt(appID, 10)}}

	var out map[string]appDetailsEnvelope
	err := c.getJSON(ctx, "steam.AppDetails",
		c.storeBaseURL+"/api/appdetails", params, &out)
	if err != nil {
		return nil, err
	}

	envelope, ok := out[strconv.FormatInt(appID, 10)]
	if !ok || !envelope.Success || envelope.Data == nil {
		return nil, fmt.Errorf("app %d has no storefront record: %w", appID, sentinel.ErrNotFound)
	}

	detail := &AppDetail{
		AppID:       appID,
		Name:        envelope.Data.Name,
		Description: envelope.Data.ShortDescription,
	}
	if len(envelope.Data.Screenshots) > 0 {
		detail.Thumbnail = &envelope.Data.Screenshots[0].PathThumbnail
	}
	if envelope.Data.PriceOverview != nil {
		detail.Price = &envelope.Data.PriceOverview.FinalFormatted
	}
	return detail, nil
}

type ownedGamesResponse struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []OwnedGame `json:"games"`
	} `json:"response"`
}

// OwnedGames fetches the library of the given account, including app names
// and free games the player has actually launched.
func (c *Client) OwnedGames(ctx context.Context, steamID string) ([]OwnedGame, error) {
	params := url.Values{
		"key":                       {c.cfg.APIKey},
		"steamid":                   {steamID},
		"include_appinfo":           {"true"},
		"include_played_free_games": {"true"},
	}

	var out ownedGamesResponse
	err := c.getJSON(ctx, "steam.OwnedGames",
		c.apiBaseURL+"/IPlayerService/GetOwnedGames/v1/", params, &out)
	if err != nil {
		return nil, err
	}
	return out.Response.Games, nil
}

type newsResponse struct {
	AppNews struct {
		AppID     int64      `json:"appid"`
		NewsItems []NewsItem `json:"newsitems"`
	} `json:"appnews"`
}

// GameNews fetches the three most recent news posts for an app, truncated to
// 300 characters each.
func (c *Client) GameNews(ctx context.Context, appID int64) ([]NewsItem, error) {
	params := url.Values{
		"key":       {c.cfg.APIKey},
		"appid":     {strconv.FormatInt(appID, 10)},
		"count":     {"3"},
		"maxlength": {"300"},
	}

	var out newsResponse
	err := c.getJSON(ctx, "steam.GameNews",
		c.apiBaseURL+"/ISteamNews/GetNewsForApp/v0002/", params, &out)
	if err != nil {
		return nil, err
	}
	return out.AppNews.NewsItems, nil
}

type friendListResponse struct {
	FriendsList struct {
		Friends []Friend `json:"friends"`
	} `json:"friendslist"`
}

// FriendList fetches the friend list of the given account.
func (c *Client) FriendList(ctx context.Context, steamID string) ([]Friend, error) {
	params := url.Values{
		"key":     {c.cfg.APIKey},
		"steamid": {steamID},
	}

	var out friendListResponse
	err := c.getJSON(ctx, "steam.FriendList",
		c.apiBaseURL+"/ISteamUser/GetFriendList/v1/", params, &out)
	if err != nil {
		return nil, err
	}
	return out.FriendsList.Friends, nil
}

type playerSummariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

// PlayerSummary fetches the public profile of the given account.
func (c *Client) PlayerSummary(ctx context.Context, steamID string) (*PlayerSummary, error) {
	params := url.Values{
		"key":      {c.cfg.APIKey},
		"steamids": {steamID},
	}

	var out playerSummariesResponse
	err := c.getJSON(ctx, "steam.PlayerSummary",
		c.apiBaseURL+"/ISteamUser/GetPlayerSummaries/v2/", params, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Response.Players) == 0 {
		return nil, fmt.Errorf("no profile for steamid %s: %w", steamID, sentinel.ErrNotFound)
	}
	return &out.Response.Players[0], nil
}

// getJSON issues a traced GET and decodes the JSON body into out.
// Transport failures and non-2xx statuses map to sentinel.ErrUnavailable so
// callers can apply their serve-stale and retry policies uniformly.
func (c *Client) getJSON(ctx context.Context, spanName, rawURL string, params url.Values, out any) error {
	ctx, span := c.tracer.Start(ctx, spanName,
		trace.WithAttributes(attribute.String("url", rawURL)))
	var spanErr error
	defer func() {
		if spanErr != nil {
			span.RecordError(spanErr)
			span.SetStatus(codes.Error, spanErr.Error())
		}
		span.End()
	}()

	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		spanErr = fmt.Errorf("build request: %w", err)
		return spanErr
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		spanErr = fmt.Errorf("request failed: %w: %w", err, sentinel.ErrUnavailable)
		return spanErr
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		spanErr = fmt.Errorf("upstream returned status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
		return spanErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		spanErr = fmt.Errorf("decode response: %w: %w", err, sentinel.ErrUnavailable)
		return spanErr
	}
	return nil
}
