package sendgrid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"github.com/Helveg/sendgrid-template-manager/internal/types"
	"go.uber.org/zap"
)

// DefaultListPageSize is the page size used when listing contact lists.
const DefaultListPageSize = 1000

type listPage struct {
	Result   []types.List `json:"result"`
	Metadata pageMetadata `json:"_metadata"`
}

// ListLists returns all marketing contact lists.
func (c *Client) ListLists(ctx context.Context, pageSize int) ([]types.List, error) {
	if pageSize <= 0 {
		pageSize = DefaultListPageSize
	}
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(pageSize))

	var lists []types.List
	path := "/v3/marketing/lists"
	for path != "" {
		var page listPage
		if err := c.do(ctx, http.MethodGet, path, query, nil, &page); err != nil {
			return nil, err
		}
		lists = append(lists, page.Result...)
		path, query = page.Metadata.Next, nil
	}
	return lists, nil
}

// DeleteList deletes a contact list, optionally together with its contacts.
func (c *Client) DeleteList(ctx context.Context, id string, deleteContacts bool) error {
	query := url.Values{}
	query.Set("delete_contacts", strconv.FormatBool(deleteContacts))
	return c.do(ctx, http.MethodDelete, "/v3/marketing/lists/"+url.PathEscape(id), query, nil, nil)
}

// CountContacts returns the account-wide contact totals.
func (c *Client) CountContacts(ctx context.Context) (*types.ContactCount, error) {
	var count types.ContactCount
	if err := c.do(ctx, http.MethodGet, "/v3/marketing/contacts/count", nil, nil, &count); err != nil {
		return nil, err
	}
	return &count, nil
}

type fieldDefinitions struct {
	CustomFields   []types.Field `json:"custom_fields"`
	ReservedFields []types.Field `json:"reserved_fields"`
}

// ListFields returns custom fields followed by reserved fields.
func (c *Client) ListFields(ctx context.Context) ([]types.Field, error) {
	var defs fieldDefinitions
	if err := c.do(ctx, http.MethodGet, "/v3/marketing/field_definitions", nil, nil, &defs); err != nil {
		return nil, err
	}
	fields := make([]types.Field, 0, len(defs.CustomFields)+len(defs.ReservedFields))
	fields = append(fields, defs.CustomFields...)
	return append(fields, defs.ReservedFields...), nil
}

// RequestImport starts a contact import and returns where to upload the CSV.
func (c *Client) RequestImport(ctx context.Context, req types.ImportRequest) (*types.ImportJob, error) {
	if req.FileType == "" {
		req.FileType = "csv"
	}
	var job types.ImportJob
	if err := c.do(ctx, http.MethodPut, "/v3/marketing/contacts/imports", nil, req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// UploadResult is the upload server's answer to a CSV upload.
type UploadResult struct {
	StatusCode int
	Body       string
}

// OK reports whether the upload was accepted.
func (r UploadResult) OK() bool {
	return r.StatusCode == http.StatusOK
}

// UploadCSV sends body to the job's signed upload URI. A response of any
// status is returned as a result; only transport failures are errors.
func (c *Client) UploadCSV(ctx context.Context, job types.ImportJob, body io.Reader) (*UploadResult, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, job.UploadURI, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	for _, h := range job.UploadHeaders {
		req.Header.Set(h.Header, h.Value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeRequestFailed, "could not contact the upload server")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeRequestFailed, "failed to read upload response")
	}
	c.logger.Debug("CSV uploaded", zap.String("job", job.JobID), zap.Int("status", resp.StatusCode))
	return &UploadResult{StatusCode: resp.StatusCode, Body: string(data)}, nil
}
