package steam

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"playdex/internal/sentinel"
)

// OpenID 2.0 relying-party support. Steam only offers the legacy OpenID
// handshake for third-party sign-on: the browser is redirected to the
// provider, signs on there, and comes back with a signed assertion that we
// replay to the provider for validation (check_authentication). The service
// never sees credentials.

const (
	openIDNamespace  = "http://specs.openid.net/auth/2.0"
	openIDIdentifier = "http://specs.openid.net/auth/2.0/identifier_select"
	openIDLoginPath  = "/openid/login"
)

// AuthURL builds the provider redirect target for initiating sign-on,
// parameterized with the configured return URL and realm.
func (c *Client) AuthURL() string {
	params := url.Values{
		"openid.ns":         {openIDNamespace},
		"openid.mode":       {"checkid_setup"},
		"openid.claimed_id": {openIDIdentifier},
		"openid.identity":   {openIDIdentifier},
		"openid.return_to":  {c.cfg.ReturnURL},
		"openid.realm":      {c.cfg.Realm},
	}
	return c.communityBaseURL + openIDLoginPath + "?" + params.Encode()
}

// VerifyCallback validates the assertion the provider appended to the
// callback request. The signed fields are replayed to the provider with
// mode=check_authentication; only an explicit is_valid:true response is
// accepted. On success it returns the raw claimed identifier and the SteamID
// extracted from it. Every failure path maps to sentinel.ErrVerificationFailed
// except provider outages, which map to sentinel.ErrUnavailable.
func (c *Client) VerifyCallback(ctx context.Context, query url.Values) (claimedID, steamID string, err error) {
	if query.Get("openid.mode") != "id_res" {
		return "", "", fmt.Errorf("unexpected openid.mode %q: %w", query.Get("openid.mode"), sentinel.ErrVerificationFailed)
	}
	if !strings.HasPrefix(query.Get("openid.return_to"), c.cfg.ReturnURL) {
		return "", "", fmt.Errorf("return_to does not match configured return URL: %w", sentinel.ErrVerificationFailed)
	}

	claimedID = query.Get("openid.claimed_id")
	steamID, err = steamIDFromClaimedID(claimedID)
	if err != nil {
		return "", "", err
	}

	valid, err := c.checkAuthentication(ctx, query)
	if err != nil {
		return "", "", err
	}
	if !valid {
		return "", "", fmt.Errorf("provider rejected assertion: %w", sentinel.ErrVerificationFailed)
	}
	return claimedID, steamID, nil
}

// checkAuthentication replays the signed assertion to the provider and
// reports whether the provider vouches for it.
func (c *Client) checkAuthentication(ctx context.Context, query url.Values) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "steam.CheckAuthentication")
	var spanErr error
	defer func() {
		if spanErr != nil {
			span.RecordError(spanErr)
			span.SetStatus(codes.Error, spanErr.Error())
		}
		span.End()
	}()

	form := url.Values{}
	for key, values := range query {
		if strings.HasPrefix(key, "openid.") {
			form[key] = values
		}
	}
	form.Set("openid.mode", "check_authentication")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.communityBaseURL+openIDLoginPath, strings.NewReader(form.Encode()))
	if err != nil {
		spanErr = fmt.Errorf("build verification request: %w", err)
		return false, spanErr
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		spanErr = fmt.Errorf("verification request failed: %w: %w", err, sentinel.ErrUnavailable)
		return false, spanErr
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		spanErr = fmt.Errorf("provider returned status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
		return false, spanErr
	}

	// Key-value response, one "key:value" pair per line.
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "is_valid:true" {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		spanErr = fmt.Errorf("read verification response: %w: %w", err, sentinel.ErrUnavailable)
		return false, spanErr
	}
	return false, nil
}

// steamIDFromClaimedID extracts the 64-bit SteamID from a claimed identifier
// of the form https://steamcommunity.com/openid/id/<steamid64>.
func steamIDFromClaimedID(claimedID string) (string, error) {
	idx := strings.LastIndex(claimedID, "/")
	if idx < 0 || idx == len(claimedID)-1 {
		return "", fmt.Errorf("malformed claimed_id %q: %w", claimedID, sentinel.ErrVerificationFailed)
	}
	steamID := claimedID[idx+1:]
	for _, r := range steamID {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("claimed_id %q does not end in a SteamID: %w", claimedID, sentinel.ErrVerificationFailed)
		}
	}
	return steamID, nil
}
