package sendgrid

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Helveg/sendgrid-template-manager/internal/types"
)

const (
	designPageSize   = 100
	templatePageSize = 200
)

type designPage struct {
	Result   []types.Design `json:"result"`
	Metadata pageMetadata   `json:"_metadata"`
}

// ListDesigns lists every design in the library. With summary set the
// designs come back without their HTML.
func (c *Client) ListDesigns(ctx context.Context, summary bool) ([]types.Design, error) {
	query := url.Values{}
	query.Set("summary", strconv.FormatBool(summary))
	query.Set("page_size", strconv.Itoa(designPageSize))

	var designs []types.Design
	path := "/v3/designs"
	for path != "" {
		var page designPage
		if err := c.do(ctx, http.MethodGet, path, query, nil, &page); err != nil {
			return nil, err
		}
		designs = append(designs, page.Result...)
		// next is an absolute URL carrying its own query
		path, query = page.Metadata.Next, nil
	}
	return designs, nil
}

type templatePage struct {
	Templates []types.Template `json:"templates"`
	Result    []types.Template `json:"result"`
	Metadata  pageMetadata     `json:"_metadata"`
}

// ListTemplates lists the account's dynamic templates with version metadata.
// Version bodies are not included.
func (c *Client) ListTemplates(ctx context.Context) ([]types.Template, error) {
	query := url.Values{}
	query.Set("generations", "dynamic")
	query.Set("page_size", strconv.Itoa(templatePageSize))

	var templates []types.Template
	path := "/v3/templates"
	for path != "" {
		var page templatePage
		if err := c.do(ctx, http.MethodGet, path, query, nil, &page); err != nil {
			return nil, err
		}
		templates = append(templates, page.Templates...)
		templates = append(templates, page.Result...)
		path, query = page.Metadata.Next, nil
	}
	return templates, nil
}

// GetVersion fetches a single template version including its HTML.
func (c *Client) GetVersion(ctx context.Context, templateID, versionID string) (*types.TemplateVersion, error) {
	var version types.TemplateVersion
	path := "/v3/templates/" + url.PathEscape(templateID) + "/versions/" + url.PathEscape(versionID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

// CreateVersion adds a version to a template.
func (c *Client) CreateVersion(ctx context.Context, templateID string, body types.VersionCreate) (*types.TemplateVersion, error) {
	var version types.TemplateVersion
	path := "/v3/templates/" + url.PathEscape(templateID) + "/versions"
	if err := c.do(ctx, http.MethodPost, path, nil, body, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

// UpdateVersion patches an existing version.
func (c *Client) UpdateVersion(ctx context.Context, templateID, versionID string, body types.VersionUpdate) (*types.TemplateVersion, error) {
	var version types.TemplateVersion
	path := "/v3/templates/" + url.PathEscape(templateID) + "/versions/" + url.PathEscape(versionID)
	if err := c.do(ctx, http.MethodPatch, path, nil, body, &version); err != nil {
		return nil, err
	}
	return &version, nil
}
