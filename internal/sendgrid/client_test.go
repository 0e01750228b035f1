package sendgrid

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Helveg/sendgrid-template-manager/internal/apperr"
	"github.com/Helveg/sendgrid-template-manager/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := DefaultConfig("SG.test")
	cfg.BaseURL = server.URL
	cfg.Timeout = 5 * time.Second
	return NewClient(cfg, nil)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestListDesigns_FollowsPagination(t *testing.T) {
	var serverURL string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer SG.test", r.Header.Get("Authorization"))
		assert.Equal(t, "/v3/designs", r.URL.Path)
		if r.URL.Query().Get("page_token") == "" {
			assert.Equal(t, "false", r.URL.Query().Get("summary"))
			assert.Equal(t, "100", r.URL.Query().Get("page_size"))
			writeJSON(t, w, map[string]interface{}{
				"result":    []types.Design{{ID: "d1", Name: "Base", HTMLContent: "<html></html>"}},
				"_metadata": map[string]string{"next": serverURL + "/v3/designs?page_token=2"},
			})
			return
		}
		writeJSON(t, w, map[string]interface{}{
			"result": []types.Design{{ID: "d2", Name: "Other"}},
		})
	})
	serverURL = client.baseURL

	designs, err := client.ListDesigns(context.Background(), false)
	require.NoError(t, err)
	want := []types.Design{
		{ID: "d1", Name: "Base", HTMLContent: "<html></html>"},
		{ID: "d2", Name: "Other"},
	}
	if diff := cmp.Diff(want, designs); diff != "" {
		t.Errorf("designs mismatch (-want +got):\n%s", diff)
	}
}

func TestListTemplates_AcceptsBothEnvelopes(t *testing.T) {
	for _, key := range []string{"templates", "result"} {
		t.Run(key, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "dynamic", r.URL.Query().Get("generations"))
				writeJSON(t, w, map[string]interface{}{
					key: []types.Template{{
						ID:       "t1",
						Name:     "Welcome",
						Versions: []types.TemplateVersion{{ID: "v1", Name: types.ContentVersionName}},
					}},
				})
			})

			templates, err := client.ListTemplates(context.Background())
			require.NoError(t, err)
			require.Len(t, templates, 1)
			assert.Equal(t, "Welcome", templates[0].Name)
			assert.Equal(t, types.ContentVersionName, templates[0].Versions[0].Name)
		})
	}
}

func TestGetVersion_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/templates/t1/versions/v1", r.URL.Path)
		http.Error(w, `{"errors":[{"message":"not found"}]}`, http.StatusNotFound)
	})

	_, err := client.GetVersion(context.Background(), "t1", "v1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, apperr.CodeRequestFailed, apperr.CodeOf(err))
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestCreateVersion_SendsPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/templates/t1/versions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		want := map[string]interface{}{
			"template_id":            "t1",
			"active":                 float64(1),
			"name":                   "latest",
			"html_content":           "<html></html>",
			"generate_plain_content": true,
			"subject":                "",
			"editor":                 "design",
		}
		if diff := cmp.Diff(want, body); diff != "" {
			t.Errorf("payload mismatch (-want +got):\n%s", diff)
		}
		writeJSON(t, w, types.TemplateVersion{ID: "v9", TemplateID: "t1", Name: "latest", Active: 1})
	})

	version, err := client.CreateVersion(context.Background(), "t1", types.VersionCreate{
		TemplateID:           "t1",
		Active:               1,
		Name:                 "latest",
		HTMLContent:          "<html></html>",
		GeneratePlainContent: true,
		Editor:               types.EditorDesign,
	})
	require.NoError(t, err)
	assert.Equal(t, "v9", version.ID)
	assert.True(t, version.IsActive())
}

func TestUpdateVersion_PartialBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"active":0}`, string(data))
		writeJSON(t, w, types.TemplateVersion{ID: "v1"})
	})

	inactive := types.Flag(false)
	_, err := client.UpdateVersion(context.Background(), "t1", "v1", types.VersionUpdate{Active: &inactive})
	require.NoError(t, err)
}

func TestDeleteList_Query(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v3/marketing/lists/abc", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("delete_contacts"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.DeleteList(context.Background(), "abc", true))
}

func TestListFields_CustomThenReserved(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"custom_fields":   []types.Field{{ID: "e1_T", Name: "company"}},
			"reserved_fields": []types.Field{{ID: "_rf0_T", Name: "email", ReadOnly: false}},
		})
	})

	fields, err := client.ListFields(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "company", fields[0].Name)
	assert.Equal(t, "email", fields[1].Name)
}

func TestCountContacts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/marketing/contacts/count", r.URL.Path)
		_, _ = io.WriteString(w, `{"contact_count":12,"billable_count":10}`)
	})

	count, err := client.CountContacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, count.ContactCount)
	assert.Equal(t, 10, count.BillableCount)
}

func TestImportAndUpload(t *testing.T) {
	var uploaded string
	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "gzip", r.Header.Get("Content-Encoding"))
		assert.Empty(t, r.Header.Get("Authorization"))
		data, _ := io.ReadAll(r.Body)
		uploaded = string(data)
	}))
	defer upload.Close()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req types.ImportRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "csv", req.FileType)
		assert.Equal(t, []string{"l1"}, req.ListIDs)
		writeJSON(t, w, types.ImportJob{
			JobID:         "job-1",
			UploadURI:     upload.URL,
			UploadHeaders: []types.UploadHeader{{Header: "Content-Encoding", Value: "gzip"}},
		})
	})

	job, err := client.RequestImport(context.Background(), types.ImportRequest{ListIDs: []string{"l1"}})
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.JobID)

	result, err := client.UploadCSV(context.Background(), *job, strings.NewReader("email\na@b.c\n"))
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, "email\na@b.c\n", uploaded)
}

func TestClient_CapsInFlightRequests(t *testing.T) {
	var inFlight, peak int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		_, _ = io.WriteString(w, `{"contact_count":1}`)
	}))
	defer server.Close()

	cfg := DefaultConfig("SG.test")
	cfg.BaseURL = server.URL
	cfg.MaxConcurrent = 2
	client := NewClient(cfg, nil)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.CountContacts(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestClient_CanceledWhileWaiting(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0", MaxConcurrent: 1}, nil)
	client.sem <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.CountContacts(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
