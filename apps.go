package smartcast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Catalog sources published by the vendor. These are plain-HTTP documents
// maintained outside the devices themselves.
var (
	appPayloadURL = "http://hometest.buddytv.netdna-cdn.com/appservice/app_availability_prod.json"
	appNamesURL   = "http://hometest.buddytv.netdna-cdn.com/appservice/vizio_apps_prod.json"
)

const (
	appCatalogCacheKey = "app_catalog"
	appCatalogCacheTTL = time.Hour
)

// AppPayload is the opaque launch payload identifying an app to a device.
// It is what the device reports as its current app and what LaunchApp
// sends back to start one.
type AppPayload struct {
	NameSpace uint32 `json:"NAME_SPACE"`
	AppID     string `json:"APP_ID"`
	Message   string `json:"MESSAGE"`
}

// App describes an installable app from the vendor's published catalog.
type App struct {
	// ID is the catalog identifier.
	ID string
	// Name is the app's display name.
	Name string
	// Description is the catalog description.
	Description string
	// ImageURL points at the app's icon image.
	ImageURL string

	payload *AppPayload
}

// Payload returns the app's launch payload, or nil when the availability
// catalog does not list one for this device class.
func (a *App) Payload() *AppPayload { return a.payload }

// UnmarshalJSON implements json.Unmarshaler for the catalog entry shape,
// which nests description and icon under mobileAppInfo.
func (a *App) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		MobileAppInfo struct {
			Description string `json:"description"`
			ImageURL    string `json:"app_icon_image_url"`
		} `json:"mobileAppInfo"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*a = App{
		ID:          wire.ID,
		Name:        wire.Name,
		Description: wire.MobileAppInfo.Description,
		ImageURL:    wire.MobileAppInfo.ImageURL,
	}
	return nil
}

// AppCatalog fetches and joins the vendor's app name and payload catalogs.
// Results are cached in memory for an hour; the catalogs change rarely.
type AppCatalog struct {
	httpClient *http.Client
	cache      Cache
}

// NewAppCatalog creates an app catalog with the given HTTP client, or a
// default one when nil.
func NewAppCatalog(client *http.Client) *AppCatalog {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &AppCatalog{
		httpClient: client,
		cache:      NewMemoryCache(),
	}
}

// Apps returns every app in the catalog, with launch payloads attached
// where the availability catalog lists one.
func (c *AppCatalog) Apps(ctx context.Context) ([]App, error) {
	if cached, ok := c.cache.Get(appCatalogCacheKey); ok {
		if apps, ok := cached.([]App); ok {
			return apps, nil
		}
	}

	payloads, err := c.fetchPayloads(ctx)
	if err != nil {
		return nil, err
	}

	body, err := c.fetch(ctx, appNamesURL)
	if err != nil {
		return nil, err
	}
	var apps []App
	if err := json.Unmarshal(body, &apps); err != nil {
		return nil, &DecodeError{What: "app catalog", Err: err, Body: body}
	}

	for i := range apps {
		if p, ok := payloads[apps[i].ID]; ok {
			apps[i].payload = &p
		}
	}

	c.cache.Set(appCatalogCacheKey, apps, appCatalogCacheTTL)
	return apps, nil
}

// FindByPayload looks up the app matching a device-reported payload, as
// returned by Device.CurrentApp. Returns nil when no catalog entry
// matches.
func (c *AppCatalog) FindByPayload(ctx context.Context, payload *AppPayload) (*App, error) {
	apps, err := c.Apps(ctx)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		p := apps[i].payload
		if p != nil && p.NameSpace == payload.NameSpace && p.AppID == payload.AppID {
			return &apps[i], nil
		}
	}
	return nil, nil
}

// fetchPayloads reads the availability catalog and extracts each app's
// launch payload. Payloads arrive either as embedded objects or as JSON
// encoded strings, depending on the entry.
func (c *AppCatalog) fetchPayloads(ctx context.Context) (map[string]AppPayload, error) {
	body, err := c.fetch(ctx, appPayloadURL)
	if err != nil {
		return nil, err
	}

	var entries []struct {
		ID       string `json:"id"`
		Chipsets map[string][]struct {
			AppTypePayload json.RawMessage `json:"app_type_payload"`
		} `json:"chipsets"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, &DecodeError{What: "app availability catalog", Err: err, Body: body}
	}

	payloads := make(map[string]AppPayload, len(entries))
	for _, entry := range entries {
		variants := entry.Chipsets["*"]
		if len(variants) == 0 {
			continue
		}
		raw := variants[0].AppTypePayload

		var payload AppPayload
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err == nil {
			err = json.Unmarshal([]byte(encoded), &payload)
			if err != nil {
				continue
			}
		} else if err := json.Unmarshal(raw, &payload); err != nil {
			continue
		}
		payloads[entry.ID] = payload
	}
	return payloads, nil
}

// fetch performs a plain GET against a catalog URL.
func (c *AppCatalog) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("smartcast: failed to create catalog request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "catalog fetch", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "catalog fetch", Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("smartcast: catalog fetch failed with status %d", resp.StatusCode)
	}
	return body, nil
}

// CurrentApp queries the launch payload of the app running on the device.
// Join it against an AppCatalog to resolve the app's name.
func (d *Device) CurrentApp(ctx context.Context) (*AppPayload, error) {
	env, err := d.sendCommand(ctx, command{kind: cmdGetCurrentApp})
	if err != nil {
		return nil, err
	}
	return env.currentApp()
}

// LaunchApp starts the app identified by the given payload on the device.
func (d *Device) LaunchApp(ctx context.Context, payload *AppPayload) error {
	_, err := d.sendCommand(ctx, command{kind: cmdLaunchApp, payload: payload})
	return err
}
