package serve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/Vansh-04/buildfirst/internal/artifact"
	"github.com/Vansh-04/buildfirst/internal/ml"
	artifactrepo "github.com/Vansh-04/buildfirst/internal/repository/artifact"
	"github.com/Vansh-04/buildfirst/internal/runner"
	"github.com/Vansh-04/buildfirst/internal/workers/chat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var recommendation = artifact.Strategy{
	AIRequired:       true,
	Reason:           "Dataset available",
	LearningParadigm: "ml",
	TaskType:         artifact.TaskRecommendation,
	ModelStrategy: &artifact.ModelStrategy{
		ModelFamily:     artifact.FamilyKNN,
		Hyperparameters: map[string]int{artifact.HPNeighbors: 2},
	},
}

func plan(name string) artifact.ApplicationPlan {
	return artifact.ApplicationPlan{
		Application:   artifact.ApplicationInfo{Name: name, Type: "website"},
		Pages:         []artifact.Page{{ID: "home", Title: "Home", Route: "/home", Components: []string{}}},
		AIWidgets:     map[string]artifact.AIWidget{},
		BackendRoutes: []string{"/context"},
	}
}

func put(t *testing.T, store artifactrepo.Store, p string, v any) {
	t.Helper()
	if err := artifactrepo.Write(context.Background(), store, p, v); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}

func putRaw(t *testing.T, store artifactrepo.Store, p string, b []byte) {
	t.Helper()
	if err := store.Put(context.Background(), p, b); err != nil {
		t.Fatalf("put %s: %v", p, err)
	}
}

// seedModel stores a two-feature knn model over three points.
func seedModel(t *testing.T, store artifactrepo.Store) {
	t.Helper()
	X := [][]float64{{1, 10}, {2, 20}, {3, 30}}
	scaler, err := ml.FitStandardizer(X)
	require.NoError(t, err)
	Z, err := scaler.Transform(X)
	require.NoError(t, err)
	model, err := ml.DefaultFitter{}.Fit(Z, nil, ml.Params{Family: artifact.FamilyKNN, Hyper: map[string]int{artifact.HPNeighbors: 2}})
	require.NoError(t, err)

	put(t, store, artifact.StrategyFile, recommendation)
	b, err := ml.Encode(model)
	require.NoError(t, err)
	putRaw(t, store, artifact.ModelFile, b)
	b, err = ml.Encode(scaler)
	require.NoError(t, err)
	putRaw(t, store, artifact.PreprocessorFile, b)
	put(t, store, artifact.ModelMetadataFile, artifact.ModelMetadata{
		FeatureCount: 2,
		FeatureNames: []string{"rating", "year"},
		ModelFamily:  artifact.FamilyKNN,
		TaskType:     artifact.TaskRecommendation,
		Rows:         3,
	})
}

func newTestServer(t *testing.T, store artifactrepo.Store, build BuildFunc) (*Handler, *httptest.Server) {
	t.Helper()
	h, err := NewHandler(context.Background(), Options{
		Store:  store,
		Chat:   chat.Agent{Store: store},
		Build:  build,
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(func() {
		srv.Close()
		h.Close()
	})
	return h, srv
}

func postJSON(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestLoadContextRefusesIncompleteModelSet(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	seedModel(t, store)
	require.NoError(t, store.Remove(context.Background(), artifact.PreprocessorFile))

	_, err := LoadContext(context.Background(), store)
	if !errors.Is(err, ErrIncompleteModel) {
		t.Fatalf("LoadContext err = %v, want ErrIncompleteModel", err)
	}
	_, err = NewHandler(context.Background(), Options{Store: store})
	require.ErrorIs(t, err, ErrIncompleteModel)
}

func TestLoadContextRefusesMismatchedMetadata(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	seedModel(t, store)
	put(t, store, artifact.ModelMetadataFile, artifact.ModelMetadata{
		FeatureCount: 3,
		FeatureNames: []string{"a", "b", "c"},
		ModelFamily:  artifact.FamilyKNN,
		TaskType:     artifact.TaskRecommendation,
	})
	_, err := LoadContext(context.Background(), store)
	require.ErrorIs(t, err, ErrIncompleteModel)
}

func TestNoModelWithoutAI(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	put(t, store, artifact.StrategyFile, artifact.Strategy{AIRequired: false, Reason: "No dataset"})
	_, srv := newTestServer(t, store, nil)

	resp, body := postJSON(t, srv.URL+"/predict", predictRequest{Features: []float64{1, 2}})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, body["error"], "does not serve a model")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, false, health["ai_enabled"])
}

func TestPredict(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	seedModel(t, store)
	_, srv := newTestServer(t, store, nil)

	resp, body := postJSON(t, srv.URL+"/predict", predictRequest{Features: []float64{1, 10}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "recommendation", body["task"])
	pred := body["prediction"].(map[string]any)
	neighbors := pred["neighbors"].([]any)
	require.Len(t, neighbors, 2)
	first := neighbors[0].(map[string]any)
	require.Equal(t, float64(0), first["index"])
	require.InDelta(t, 0, first["distance"], 1e-9)

	resp, body = postJSON(t, srv.URL+"/predict", predictRequest{Features: []float64{1}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, body["error"], "expected 2 features")

	resp, _ = postJSON(t, srv.URL+"/predict", map[string]any{"values": 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestContextRoutesAndIndex(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	seedModel(t, store)
	put(t, store, artifact.ApplicationPlanFile, plan("Shop"))
	putRaw(t, store, artifact.FrontendDir("Shop")+"/"+artifact.IndexFile, []byte("<html><body>shop</body></html>"))
	_, srv := newTestServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, buf.String(), "shop")

	resp, err = http.Get(srv.URL + "/context")
	require.NoError(t, err)
	var cr contextResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cr))
	resp.Body.Close()
	require.True(t, cr.AIEnabled)
	require.Equal(t, 2, cr.Metadata.FeatureCount)
	require.Equal(t, "Shop", cr.Application.Application.Name)

	resp, err = http.Get(srv.URL + "/routes")
	require.NoError(t, err)
	var routes struct {
		Routes []artifact.Route `json:"routes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&routes))
	resp.Body.Close()
	require.Equal(t, []artifact.Route{{Path: "/context", Method: http.MethodGet}}, routes.Routes)
}

func TestGoRequiresApproval(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	called := false
	_, srv := newTestServer(t, store, func(context.Context) (artifact.RunStatus, error) {
		called = true
		return artifact.RunStatus{}, nil
	})

	resp, body := postJSON(t, srv.URL+"/go", map[string]any{})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, body["error"], "not approved")
	require.False(t, called)
}

func TestChatApprovalThenGoStartsOneBuild(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	release := make(chan struct{})
	started := make(chan struct{})
	runs := 0
	h, srv := newTestServer(t, store, func(ctx context.Context) (artifact.RunStatus, error) {
		runs++
		close(started)
		<-release
		st := artifact.RunStatus{RunID: "r1", Status: artifact.RunDone, Stages: []artifact.StageRecord{}}
		runner.EmitterFrom(ctx).Emit(runner.RunEvent{Type: runner.EventTypeComplete, Status: st})
		return st, nil
	})

	resp, body := postJSON(t, srv.URL+"/chat", chatRequest{Message: "yes build"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "approved", body["status"])

	resp, _ = postJSON(t, srv.URL+"/go", goRequest{Name: "Movie Finder"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	<-started

	resp, body = postJSON(t, srv.URL+"/go", goRequest{})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, body["error"], "already running")

	close(release)
	h.Wait()
	require.Equal(t, 1, runs)

	spec, err := artifactrepo.Read[artifact.ApplicationSpec](context.Background(), store, artifact.KindApplicationSpec, artifact.ApplicationSpecFile)
	require.NoError(t, err)
	require.Equal(t, "Movie Finder", spec.Application.Name)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	_, srv := newTestServer(t, artifactrepo.NewMemoryStore(), nil)
	resp, _ := postJSON(t, srv.URL+"/chat", chatRequest{Message: "  "})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusStream(t *testing.T) {
	store := artifactrepo.NewMemoryStore()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	put(t, store, artifact.RunStatusFile, artifact.RunStatus{
		RunID:       "r0",
		Status:      artifact.RunFailed,
		FailedStage: 5,
		StartedAt:   now,
		UpdatedAt:   now,
		Stages:      []artifact.StageRecord{},
	})
	h, srv := newTestServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	var st statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	require.Equal(t, "FAILED-at-stage-5", st.Label)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/status"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var first statusResponse
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, "r0", first.RunID)

	require.Eventually(t, func() bool { return h.hub.watchers() == 1 }, 2*time.Second, 10*time.Millisecond)
	h.hub.Emit(runner.RunEvent{Type: runner.EventTypeStageStart, Status: artifact.RunStatus{RunID: "r1", Status: artifact.RunStarted}})
	var next statusResponse
	require.NoError(t, conn.ReadJSON(&next))
	require.Equal(t, "r1", next.RunID)
	require.Equal(t, "STARTED", next.Label)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return h.hub.watchers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestCORSPreflight(t *testing.T) {
	_, srv := newTestServer(t, artifactrepo.NewMemoryStore(), nil)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/predict", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
