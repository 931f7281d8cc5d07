package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *testEnv) {
	t.Helper()
	env := newTestService(t)
	server := httptest.NewServer(NewHTTPServer(env.service, "*").Handler())
	t.Cleanup(server.Close)
	return server, env
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func loginHTTP(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/session/login", "", map[string]any{"name": "alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body = %v", resp.StatusCode, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}
	return token
}

func createDeckHTTP(t *testing.T, server *httptest.Server, token, name string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/decks", token, map[string]any{"name": name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create deck status = %d, body = %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatal("create deck returned no id")
	}
	return id
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ok, _ := body["ok"].(bool); !ok {
		t.Errorf("body = %v", body)
	}
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	server, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/decks", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["code"] != "UNAUTHORIZED" {
		t.Errorf("code = %v", body["code"])
	}
}

func TestSessionEndpointReportsState(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/session", "", nil)
	if resp.StatusCode != http.StatusOK || body["authenticated"] != false {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}

	token := loginHTTP(t, server)
	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/session", token, nil)
	if resp.StatusCode != http.StatusOK || body["authenticated"] != true {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["userName"] != "alice" {
		t.Errorf("userName = %v", body["userName"])
	}
}

func TestDeckCardLifecycleOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	token := loginHTTP(t, server)
	deckID := createDeckHTTP(t, server, token, "Sprint board")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/decks/"+deckID+"/cards", token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create card status = %d, body = %v", resp.StatusCode, body)
	}
	card, _ := body["card"].(map[string]any)
	if card["id"] != float64(1) {
		t.Fatalf("card = %v", card)
	}

	resp, body = doJSON(t, http.MethodPatch, server.URL+"/api/decks/"+deckID+"/cards/1", token,
		map[string]any{"title": "Plan", "rows": "one\ntwo"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update card status = %d, body = %v", resp.StatusCode, body)
	}
	cards, _ := body["cards"].([]any)
	first, _ := cards[0].(map[string]any)
	if first["title"] != "Plan" || first["rows"] != "one\ntwo" {
		t.Errorf("card = %v", first)
	}

	resp, body = doJSON(t, http.MethodDelete, server.URL+"/api/decks/"+deckID+"/cards/1", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete card status = %d, body = %v", resp.StatusCode, body)
	}
	if cards, _ := body["cards"].([]any); len(cards) != 0 {
		t.Errorf("cards = %v", cards)
	}
}

func TestReorderOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	token := loginHTTP(t, server)
	deckID := createDeckHTTP(t, server, token, "Board")

	for i := 0; i < 4; i++ {
		resp, body := doJSON(t, http.MethodPost, server.URL+"/api/decks/"+deckID+"/cards", token, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create card status = %d, body = %v", resp.StatusCode, body)
		}
	}

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/decks/"+deckID+"/reorder", token,
		map[string]any{"draggedId": 4, "targetId": 1, "insertBefore": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder status = %d, body = %v", resp.StatusCode, body)
	}
	cards, _ := body["cards"].([]any)
	var got []int
	for _, c := range cards {
		m, _ := c.(map[string]any)
		got = append(got, int(m["id"].(float64)))
	}
	want := []int{4, 1, 2, 3}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestRenderEndpointReturnsHTML(t *testing.T) {
	server, _ := newTestServer(t)
	token := loginHTTP(t, server)
	deckID := createDeckHTTP(t, server, token, "Board")
	doJSON(t, http.MethodPost, server.URL+"/api/decks/"+deckID+"/cards", token, nil)

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/decks/"+deckID+"/render", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("render request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `<div class="cards">`) {
		t.Error("response should be the canonical document")
	}
}

func TestImportEndpointRejectsUnrecognizedMarkup(t *testing.T) {
	server, _ := newTestServer(t)
	token := loginHTTP(t, server)
	deckID := createDeckHTTP(t, server, token, "Board")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/decks/"+deckID+"/import", token,
		map[string]any{"html": "<p>nothing card-like here</p>"})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["code"] != "NO_CARDS_FOUND" {
		t.Errorf("code = %v", body["code"])
	}
}

func TestExportEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	token := loginHTTP(t, server)
	deckID := createDeckHTTP(t, server, token, "Board")

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/decks/"+deckID+"/export", token,
		map[string]any{"format": "html"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	if body["filename"] != "deck.html" {
		t.Errorf("filename = %v", body["filename"])
	}
	if data, _ := body["data"].(string); data == "" {
		t.Error("export should return the artifact inline")
	}
}

func TestShareLinkOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	token := loginHTTP(t, server)
	deckID := createDeckHTTP(t, server, token, "Board")
	doJSON(t, http.MethodPost, server.URL+"/api/decks/"+deckID+"/cards", token, nil)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/decks/"+deckID+"/share", token,
		map[string]any{"passcode": "hunter2"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("share status = %d, body = %v", resp.StatusCode, body)
	}
	shareToken, _ := body["token"].(string)
	if shareToken == "" {
		t.Fatal("share returned no token")
	}

	// Public endpoint, no bearer token.
	resp, body = doJSON(t, http.MethodGet, server.URL+"/share/"+shareToken, "", nil)
	if resp.StatusCode != http.StatusUnauthorized || body["code"] != "PASSCODE_REQUIRED" {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/share/"+shareToken+"?passcode=hunter2", nil)
	htmlResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open share: %v", err)
	}
	defer htmlResp.Body.Close()
	if htmlResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", htmlResp.StatusCode)
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(htmlResp.Body)
	if !strings.Contains(buf.String(), `<div class="card">`) {
		t.Error("shared page should carry the rendered cards")
	}
}

func TestHistoryOverHTTP(t *testing.T) {
	server, _ := newTestServer(t)
	token := loginHTTP(t, server)
	deckID := createDeckHTTP(t, server, token, "Board")
	doJSON(t, http.MethodPost, server.URL+"/api/decks/"+deckID+"/cards", token, nil)

	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/decks/"+deckID+"/history", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	items, _ := body["history"].([]any)
	if len(items) != 2 {
		t.Fatalf("history = %v", items)
	}
	first, _ := items[0].(map[string]any)
	hash, _ := first["hash"].(string)

	resp, body = doJSON(t, http.MethodGet, server.URL+"/api/decks/"+deckID+"/history/"+hash, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot status = %d, body = %v", resp.StatusCode, body)
	}
	if html, _ := body["html"].(string); !strings.Contains(html, `<div class="cards">`) {
		t.Error("snapshot should include the rendered document")
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	server, _ := newTestServer(t)
	token := loginHTTP(t, server)
	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/nope", token, nil)
	if resp.StatusCode != http.StatusNotFound || body["code"] != "NOT_FOUND" {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
}

func TestDeckNotFound(t *testing.T) {
	server, _ := newTestServer(t)
	token := loginHTTP(t, server)
	resp, body := doJSON(t, http.MethodGet, server.URL+"/api/decks/missing", token, nil)
	if resp.StatusCode != http.StatusNotFound || body["code"] != "NOT_FOUND" {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
}
