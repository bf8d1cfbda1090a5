package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagpulse/internal/adapter/events"
	"tagpulse/internal/config"
	"tagpulse/internal/domain/thread"
	"tagpulse/internal/domain/trend"
	"tagpulse/internal/server/handlers"
	"tagpulse/internal/service/listening"
)

type stubSource struct {
	items    []trend.Item
	comments map[string][]thread.CommentRecord
	err      error
}

func (s *stubSource) ListItems(ctx context.Context) ([]trend.Item, error) {
	return s.items, s.err
}

func (s *stubSource) ListComments(ctx context.Context, postID string) ([]thread.CommentRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if postID == "bad" {
		return nil, fmt.Errorf("%w: %q", listening.ErrInvalidPostID, postID)
	}
	return s.comments[postID], nil
}

func (s *stubSource) ListPostIDs(ctx context.Context) ([]string, error) {
	return nil, s.err
}

func ref(s string) *string { return &s }

func newTestServer(t *testing.T, src *stubSource, stream *events.Hub) *httptest.Server {
	t.Helper()

	var pub listening.Publisher
	var sub handlers.Subscriber
	if stream != nil {
		pub = stream
		sub = stream
	}

	analyzer := listening.NewAnalyzer(src, pub, listening.DefaultAnalyzerConfig())
	srv := NewServer(config.ServerConfig{CorsOrigins: []string{"*"}}, analyzer, sub)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func demo() *stubSource {
	return &stubSource{
		items: []trend.Item{
			{ID: "1", Labels: []string{"sports", "football"}},
			{ID: "2", Labels: []string{"music", "concert"}},
			{ID: "3", Labels: []string{"news", "sports"}},
		},
		comments: map[string][]thread.CommentRecord{
			"1": {
				{ID: "1", Content: "Wow!", PostID: "1"},
				{ID: "2", Content: "Indeed!", PostID: "1", ParentID: ref("1")},
				{ID: "3", Content: "Agree", PostID: "1", ParentID: ref("2")},
			},
		},
	}
}

func getJSON(t *testing.T, url string, dst interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, dst interface{}) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, demo(), nil)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetTrending(t *testing.T) {
	ts := newTestServer(t, demo(), nil)

	var report listening.TrendReport
	code := getJSON(t, ts.URL+"/api/v1/trending?top=2", &report)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, []trend.LabelCount{{Tag: "sports", Count: 2}, {Tag: "football", Count: 1}}, report.Top)
	assert.Equal(t, "sports", report.Target)
	require.Len(t, report.Recommendations, 2)
	assert.Equal(t, "football", report.Recommendations[0].Tag)
	assert.InDelta(t, 0.5, report.Recommendations[0].Rate, 1e-9)
	assert.Equal(t, 3, report.ItemCount)
}

func TestGetTrendingInvalidTop(t *testing.T) {
	ts := newTestServer(t, demo(), nil)

	for _, q := range []string{"top=abc", "top=0", "top=-2"} {
		var body map[string]string
		code := getJSON(t, ts.URL+"/api/v1/trending?"+q, &body)
		assert.Equal(t, http.StatusBadRequest, code, q)
		assert.NotEmpty(t, body["error"])
	}
}

func TestGetTrendingSourceUnavailable(t *testing.T) {
	src := demo()
	src.err = fmt.Errorf("%w: connection refused", listening.ErrSourceUnavailable)
	ts := newTestServer(t, src, nil)

	assert.Equal(t, http.StatusBadGateway, getJSON(t, ts.URL+"/api/v1/trending", nil))
}

func TestGetRecommendations(t *testing.T) {
	ts := newTestServer(t, demo(), nil)

	var body struct {
		Label           string                 `json:"label"`
		Recommendations []trend.Recommendation `json:"recommendations"`
	}
	code := getJSON(t, ts.URL+"/api/v1/trending/recommendations?label=sports&threshold=0.5&top_k=1", &body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "sports", body.Label)
	require.Len(t, body.Recommendations, 1)
	assert.Equal(t, "football", body.Recommendations[0].Tag)

	code = getJSON(t, ts.URL+"/api/v1/trending/recommendations?label=unknown", &body)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body.Recommendations)
}

func TestGetRecommendationsBadRequest(t *testing.T) {
	ts := newTestServer(t, demo(), nil)

	for _, q := range []string{"", "label=sports&threshold=x", "label=sports&threshold=1.5", "label=sports&top_k=0"} {
		assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/v1/trending/recommendations?"+q, nil), q)
	}
}

func TestAnalyzeItems(t *testing.T) {
	ts := newTestServer(t, &stubSource{}, nil)

	var report listening.TrendReport
	code := postJSON(t, ts.URL+"/api/v1/trending/analyze?top=1",
		`{"items":[{"id":"a","hashtags":["go","rust"]},{"id":"b","hashtags":["go"]}]}`, &report)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []trend.LabelCount{{Tag: "go", Count: 2}}, report.Top)
	assert.Equal(t, 2, report.ItemCount)

	code = postJSON(t, ts.URL+"/api/v1/trending/analyze", `{"items":[]}`, &report)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, report.Top)
	assert.Empty(t, report.Target)

	assert.Equal(t, http.StatusBadRequest, postJSON(t, ts.URL+"/api/v1/trending/analyze", `{}`, nil))
	assert.Equal(t, http.StatusBadRequest, postJSON(t, ts.URL+"/api/v1/trending/analyze", `not json`, nil))
}

func TestAnalyzeStoredThread(t *testing.T) {
	ts := newTestServer(t, demo(), nil)

	var report listening.ThreadReport
	code := getJSON(t, ts.URL+"/api/v1/comments/analyze", &report)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "1", report.PostID)
	assert.Equal(t, []thread.RootDepth{{RootID: "1", Depth: 3}}, report.Depths)
	require.Len(t, report.Chains, 1)
	assert.Equal(t, "Wow!", report.Chains[0][0].Content)
	assert.Equal(t, "Agree", report.Chains[0][2].Content)

	code = getJSON(t, ts.URL+"/api/v1/comments/analyze?postId=1&min_depth=4", &report)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, report.Chains)
}

func TestAnalyzeStoredThreadErrors(t *testing.T) {
	ts := newTestServer(t, demo(), nil)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/v1/comments/analyze?postId=bad", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/api/v1/comments/analyze?min_depth=x", nil))

	var report listening.ThreadReport
	code := getJSON(t, ts.URL+"/api/v1/comments/analyze?postId=42", &report)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, report.Depths)
}

func TestAnalyzePostedComments(t *testing.T) {
	ts := newTestServer(t, &stubSource{}, nil)

	body := `{"postId":"p","comments":[
		{"id":"c","content":"third","parentId":"b"},
		{"id":"a","content":"first"},
		{"id":"b","content":"second","parentId":"a"},
		{"id":"x","content":"orphan","parentId":"missing"}
	]}`

	var report listening.ThreadReport
	code := postJSON(t, ts.URL+"/api/v1/comments/analyze?min_depth=2", body, &report)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "p", report.PostID)
	assert.Equal(t, 4, report.CommentCount)
	assert.Equal(t, []thread.RootDepth{{RootID: "a", Depth: 3}, {RootID: "x", Depth: 1}}, report.Depths)
	require.Len(t, report.Chains, 1)
	assert.Len(t, report.Chains[0], 3)

	assert.Equal(t, http.StatusBadRequest, postJSON(t, ts.URL+"/api/v1/comments/analyze", `{"postId":"p"}`, nil))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, demo(), nil)
	getJSON(t, ts.URL+"/api/v1/trending", nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalysisStreamUnavailable(t *testing.T) {
	ts := newTestServer(t, demo(), nil)

	resp, err := http.Get(ts.URL + "/ws/analysis")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAnalysisStream(t *testing.T) {
	hub := events.NewHub()
	ts := newTestServer(t, demo(), hub)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/analysis"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var welcome map[string]interface{}
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "welcome", welcome["type"])

	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/v1/trending", nil))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env events.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "analysis.trending", env.Type)

	var report listening.TrendReport
	require.NoError(t, json.Unmarshal(env.Payload, &report))
	assert.Equal(t, "sports", report.Target)
}

func TestAnalyzeNumericIDs(t *testing.T) {
	ts := newTestServer(t, &stubSource{}, nil)

	var trendReport listening.TrendReport
	code := postJSON(t, ts.URL+"/api/v1/trending/analyze?top=1", `{"items":[
		{"id":1,"labels":["sports","football"]},
		{"id":2,"labels":["music","concert"]},
		{"id":3,"labels":["news","sports"]}
	]}`, &trendReport)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []trend.LabelCount{{Tag: "sports", Count: 2}}, trendReport.Top)

	var threadReport listening.ThreadReport
	code = postJSON(t, ts.URL+"/api/v1/comments/analyze", `{"postId":1,"comments":[
		{"id":1,"content":"Wow!","authorId":2,"postId":1,"parentId":null},
		{"id":2,"content":"Indeed!","authorId":1,"postId":1,"parentId":1},
		{"id":3,"content":"Agree","authorId":2,"postId":1,"parentId":2}
	]}`, &threadReport)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1", threadReport.PostID)
	assert.Equal(t, []thread.RootDepth{{RootID: "1", Depth: 3}}, threadReport.Depths)
	require.Len(t, threadReport.Chains, 1)
}

func TestCORSCredentials(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		wantOrigin  string
		credentials string
	}{
		{name: "wildcard", origins: []string{"*"}, wantOrigin: "*", credentials: ""},
		{name: "explicit", origins: []string{"https://app.example"}, wantOrigin: "https://app.example", credentials: "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := listening.NewAnalyzer(demo(), nil, listening.DefaultAnalyzerConfig())
			srv := NewServer(config.ServerConfig{CorsOrigins: tt.origins}, analyzer, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
			req.Header.Set("Origin", "https://app.example")
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.credentials, rec.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}
