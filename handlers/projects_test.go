package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectLifecycle(t *testing.T) {
	e := newEnv(t)
	e.register(t, aliceID)
	e.register(t, bobID)

	w := e.do(t, http.MethodPost, "/api/projects", aliceID, surveyDraft("Beta"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	pid := created["id"].(string)
	assert.Nil(t, created["warnings"])
	assert.Equal(t, "dark", created["theme"])
	assert.Equal(t, "https://feedback.example/embed/"+pid, created["embedUrl"])

	w = e.do(t, http.MethodGet, "/api/projects", aliceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeList(t, w), 1)

	w = e.do(t, http.MethodGet, "/api/projects", bobID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeList(t, w))

	// anonymous read, as the widget does
	w = e.do(t, http.MethodGet, "/api/projects/"+pid, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	fields := decode(t, w)["fields"].([]interface{})
	require.Len(t, fields, 2)
	assert.Equal(t, "email", fields[0].(map[string]interface{})["id"])
	assert.Equal(t, "score", fields[1].(map[string]interface{})["id"])

	w = e.do(t, http.MethodPut, "/api/projects/"+pid, bobID, surveyDraft("hijack"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = e.do(t, http.MethodDelete, "/api/projects/"+pid, bobID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(t, http.MethodPut, "/api/projects/"+pid, aliceID, surveyDraft("Beta 2"))
	require.Equal(t, http.StatusOK, w.Code)
	replaced := decode(t, w)
	assert.Equal(t, pid, replaced["id"])
	assert.Equal(t, "Beta 2", replaced["name"])
	assert.Equal(t, created["createdAt"], replaced["createdAt"])

	w = e.do(t, http.MethodDelete, "/api/projects/"+pid, aliceID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/projects/"+pid, "", nil).Code)
}

func TestProjectRoutesNeedAccount(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/projects", "", nil).Code)
	// verified identity without a registered account
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/api/projects", bobID, nil).Code)
}

func TestCreateProjectViolations(t *testing.T) {
	e := newEnv(t)
	e.register(t, aliceID)

	w := e.do(t, http.MethodPost, "/api/projects", aliceID, map[string]interface{}{"name": "x", "fields": []interface{}{}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "EmptyForm", body["code"])
	assert.EqualValues(t, -1, body["index"])

	w = e.do(t, http.MethodPost, "/api/projects", aliceID, map[string]interface{}{
		"name": "x",
		"fields": []map[string]interface{}{
			{"type": "email", "label": "Email", "required": true},
			{"type": "mcq", "label": "Pick one"},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body = decode(t, w)
	assert.Equal(t, "InvalidOptions", body["code"])
	assert.EqualValues(t, 1, body["index"])

	w = e.do(t, http.MethodPost, "/api/projects", aliceID, map[string]interface{}{
		"name":   "x",
		"fields": []map[string]interface{}{{"type": "text", "label": "Hello"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	warnings := decode(t, w)["warnings"].([]interface{})
	require.Len(t, warnings, 1)
	assert.Equal(t, "FirstFieldNotEmail", warnings[0].(map[string]interface{})["code"])
}

func TestSummaryRoutes(t *testing.T) {
	e := newEnv(t)
	e.register(t, aliceID)
	pid := e.createProject(t, aliceID, "Beta")

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/projects/"+pid+"/summary", aliceID, nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/projects/"+pid+"/summary", aliceID, nil).Code)

	require.Equal(t, http.StatusCreated, e.submit(t, pid, map[string]interface{}{"email": "a@b.co", "score": 4}).Code)
	w := e.do(t, http.MethodPost, "/api/projects/"+pid+"/summary", aliceID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sum := decode(t, w)["summary"].(map[string]interface{})
	assert.Equal(t, "People like it", sum["tldr"])
	assert.Equal(t, []interface{}{"speed"}, sum["keyFeatures"])

	w = e.do(t, http.MethodGet, "/api/projects/"+pid+"/summary", aliceID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["responses"])
}

func TestSummaryWithoutModel(t *testing.T) {
	e := newEnv(t, envOptions{noModel: true})
	e.register(t, aliceID)
	pid := e.createProject(t, aliceID, "Beta")
	w := e.do(t, http.MethodPost, "/api/projects/"+pid+"/summary", aliceID, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExportRoute(t *testing.T) {
	e := newEnv(t)
	e.register(t, aliceID)
	pid := e.createProject(t, aliceID, "Beta")
	require.Equal(t, http.StatusCreated, e.submit(t, pid, map[string]interface{}{"email": "a@b.co", "score": 4}).Code)

	w := e.do(t, http.MethodPost, "/api/projects/"+pid+"/export", aliceID, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode(t, w)
	assert.EqualValues(t, 1, res["rows"])
	assert.Contains(t, res["url"], "exports/"+pid+"/")
	require.Len(t, e.up.objects, 1)

	require.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/api/projects/"+pid, aliceID, nil).Code)
	assert.Empty(t, e.up.objects)
}
