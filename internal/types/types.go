// Package types holds the SendGrid resources sgtm reads and writes.
// Field names follow the upstream JSON; timestamps stay strings because the
// API does not use a single layout for them.
package types

// ContentVersionName is the reserved version name that marks a template's
// canonical content: the version whose modules are merged into designs.
const ContentVersionName = "__content__"

// Editor kinds accepted by the versions endpoint.
const (
	EditorDesign = "design"
	EditorCode   = "code"
)

// Design is a reusable layout from the design library. HTMLContent is empty
// when the design was listed in summary mode.
type Design struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	HTMLContent  string `json:"html_content,omitempty"`
	PlainContent string `json:"plain_content,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// HasContent reports whether d was fetched with its full HTML.
func (d Design) HasContent() bool {
	return d.HTMLContent != ""
}

// Template is a dynamic transactional template with its versions.
type Template struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Generation string            `json:"generation"`
	UpdatedAt  string            `json:"updated_at,omitempty"`
	Versions   []TemplateVersion `json:"versions"`
}

// TemplateVersion is one revision of a template. Active is 0 or 1 on the wire.
type TemplateVersion struct {
	ID                   string `json:"id"`
	TemplateID           string `json:"template_id"`
	Active               int    `json:"active"`
	Name                 string `json:"name"`
	HTMLContent          string `json:"html_content,omitempty"`
	PlainContent         string `json:"plain_content,omitempty"`
	GeneratePlainContent bool   `json:"generate_plain_content"`
	Subject              string `json:"subject"`
	Editor               string `json:"editor,omitempty"`
	UpdatedAt            string `json:"updated_at,omitempty"`
	ThumbnailURL         string `json:"thumbnail_url,omitempty"`
}

// IsActive reports whether v is the template's active version.
func (v TemplateVersion) IsActive() bool {
	return v.Active != 0
}

// VersionCreate is the body of a create-version call.
type VersionCreate struct {
	TemplateID           string `json:"template_id"`
	Active               int    `json:"active"`
	Name                 string `json:"name"`
	HTMLContent          string `json:"html_content"`
	GeneratePlainContent bool   `json:"generate_plain_content"`
	Subject              string `json:"subject"`
	Editor               string `json:"editor"`
}

// VersionUpdate is the body of a partial update-version call.
type VersionUpdate struct {
	HTMLContent string `json:"html_content,omitempty"`
	Active      *int   `json:"active,omitempty"`
}

// Flag converts a boolean to the API's 0/1 representation.
func Flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// List is a marketing contact list.
type List struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContactCount int    `json:"contact_count"`
}

// Field is a contact field definition.
type Field struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FieldType string `json:"field_type"`
	ReadOnly  bool   `json:"read_only,omitempty"`
}

// ContactCount is the response of the contact count endpoint.
type ContactCount struct {
	ContactCount      int `json:"contact_count"`
	BillableCount     int `json:"billable_count"`
	BillableBreakdown struct {
		Total     int            `json:"total"`
		Breakdown map[string]int `json:"breakdown"`
	} `json:"billable_breakdown"`
}

// ImportRequest asks SendGrid for a signed CSV upload location.
type ImportRequest struct {
	ListIDs       []string  `json:"list_ids,omitempty"`
	FileType      string    `json:"file_type"`
	FieldMappings []*string `json:"field_mappings"`
}

// UploadHeader is a header SendGrid requires on the CSV upload.
type UploadHeader struct {
	Header string `json:"header"`
	Value  string `json:"value"`
}

// ImportJob is the response to an ImportRequest.
type ImportJob struct {
	JobID         string         `json:"job_id"`
	UploadURI     string         `json:"upload_uri"`
	UploadHeaders []UploadHeader `json:"upload_headers"`
}
