package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ai-companion-be/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postFilter(t *testing.T, app *fiber.App, values map[string]string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/companions/filter", formBody(values))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSubjectFilterHandler_Filter(t *testing.T) {
	tests := []struct {
		name         string
		form         map[string]string
		headers      map[string]string
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "value is set and other params kept",
			form:         map[string]string{"subject": "science", "from": "/companions?topic=space"},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/companions?subject=science&topic=space",
		},
		{
			name:         "value replaces existing value",
			form:         map[string]string{"subject": "maths", "from": "/companions?subject=science"},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/companions?subject=maths",
		},
		{
			name:         "sentinel on listing removes key",
			form:         map[string]string{"subject": "all", "from": "/companions?subject=science&topic=space"},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/companions?topic=space",
		},
		{
			name:         "sentinel on listing with trailing slash removes key",
			form:         map[string]string{"subject": "all", "from": "/companions/?subject=science"},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/companions/",
		},
		{
			name:         "empty selection behaves as sentinel",
			form:         map[string]string{"subject": "", "from": "/companions?subject=maths"},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/companions",
		},
		{
			name:       "sentinel elsewhere does not navigate",
			form:       map[string]string{"subject": "all", "from": "/"},
			wantStatus: http.StatusNoContent,
		},
		{
			name:         "value elsewhere navigates on that page",
			form:         map[string]string{"subject": "coding", "from": "/"},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/?subject=coding",
		},
		{
			name:         "referer is used when from is missing",
			form:         map[string]string{"subject": "history"},
			headers:      map[string]string{"Referer": "http://localhost:3000/companions?page=2"},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/companions?page=2&subject=history",
		},
		{
			name:         "listing page is the last resort",
			form:         map[string]string{"subject": "history"},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/companions?subject=history",
		},
		{
			name:         "absolute from is reduced to path and query",
			form:         map[string]string{"subject": "maths", "from": "https://evil.example/companions"},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/companions?subject=maths",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeCompanionService{})
			resp := postFilter(t, app, tt.form, tt.headers)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantLocation, resp.Header.Get("Location"))
		})
	}
}

func TestSubjectFilterHandler_FilterJSON(t *testing.T) {
	app := newTestApp(&fakeCompanionService{})

	req := httptest.NewRequest(http.MethodPost, "/companions/filter",
		strings.NewReader(`{"subject":"science","from":"/companions"}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	req.Header.Set("Accept", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := decode(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, "/companions?subject=science", data["location"])
	assert.Equal(t, true, data["replace"])
	assert.Equal(t, true, data["preserve_scroll"])
}

func TestSubjectFilterHandler_List(t *testing.T) {
	tests := []struct {
		name          string
		target        string
		wantSubject   string
		wantTopic     string
		wantSelection string
	}{
		{name: "no subject selects sentinel", target: "/companions", wantSubject: "all", wantSelection: "all"},
		{name: "subject from url", target: "/companions?subject=science&topic=stars", wantSubject: "science", wantTopic: "stars", wantSelection: "science"},
		{name: "empty subject is sentinel", target: "/companions?subject=", wantSubject: "all", wantSelection: "all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeCompanionService{}
			app := newTestApp(svc)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil), -1)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			require.Len(t, svc.queries, 1)
			assert.Equal(t, tt.wantSubject, svc.queries[0].Subject)
			assert.Equal(t, tt.wantTopic, svc.queries[0].Topic)

			data := decode(t, resp)["data"].(map[string]interface{})
			assert.Equal(t, tt.wantSelection, data["selection"])
		})
	}
}

func TestSubjectFilterHandler_ListRejectsBadPaging(t *testing.T) {
	app := newTestApp(&fakeCompanionService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/companions?limit=1000", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSubjectFilterHandler_Show(t *testing.T) {
	id := uuid.New()
	svc := &fakeCompanionService{shown: map[uuid.UUID]*dto.CompanionResponse{
		id: {Id: id, Name: "Neura"},
	}}
	app := newTestApp(svc)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{name: "found", target: "/companions/" + id.String(), wantStatus: http.StatusOK},
		{name: "unknown id", target: "/companions/" + uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "malformed id", target: "/companions/not-a-uuid", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.target, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
