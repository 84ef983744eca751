/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenSignVerifyRoundTrip(t *testing.T) {
	tok, err := signToken("s3cret", "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	sub, err := verifyToken("s3cret", tok)
	if err != nil {
		t.Fatalf("verifyToken: %v", err)
	}
	if sub != "alice" {
		t.Fatalf("subject = %q", sub)
	}
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	tok, err := signToken("s3cret", "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	if _, err := verifyToken("wrong-secret", tok); err == nil {
		t.Fatalf("wrong secret accepted")
	}
	if _, err := verifyToken("s3cret", tok+"x"); err == nil {
		t.Fatalf("tampered signature accepted")
	}
	expired, err := signToken("s3cret", "alice", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("signToken: %v", err)
	}
	if _, err := verifyToken("s3cret", expired); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestWithAuthRejectsMissingToken(t *testing.T) {
	h := withAuth("s3cret", func(w http.ResponseWriter, r *http.Request, sub string) {
		t.Fatalf("handler reached without auth")
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/diagrams", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestClientPublishAndList(t *testing.T) {
	published := Diagram{ID: 7, StableID: "abc", Name: "arch", PublishedBy: "alice", Version: 1, UpdatedAt: time.Now().UTC()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/diagrams":
			var req map[string]string
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode publish body: %v", err)
			}
			if req["name"] != "arch" || req["xml"] == "" {
				t.Errorf("publish body = %v", req)
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(published)
		case r.Method == http.MethodGet && r.URL.Path == "/api/diagrams":
			_ = json.NewEncoder(w).Encode([]Diagram{published})
		case r.Method == http.MethodGet && r.URL.Path == "/api/diagrams/search":
			if r.URL.Query().Get("q") != "ar" {
				t.Errorf("q = %q", r.URL.Query().Get("q"))
			}
			_ = json.NewEncoder(w).Encode([]Diagram{published})
		case r.Method == http.MethodGet && r.URL.Path == "/api/diagrams/7":
			_ = json.NewEncoder(w).Encode(map[string]any{"diagram": published, "xml": "<mxGraphModel/>"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok", time.Second)
	ctx := context.Background()

	d, err := c.Publish(ctx, "arch", "<mxGraphModel/>")
	if err != nil || d.ID != 7 {
		t.Fatalf("Publish: d=%+v err=%v", d, err)
	}
	list, err := c.List(ctx)
	if err != nil || len(list) != 1 || list[0].Name != "arch" {
		t.Fatalf("List: %v err=%v", list, err)
	}
	found, err := c.Search(ctx, "ar")
	if err != nil || len(found) != 1 {
		t.Fatalf("Search: %v err=%v", found, err)
	}
	meta, xml, err := c.FetchDiagram(ctx, 7)
	if err != nil || meta.StableID != "abc" || xml != "<mxGraphModel/>" {
		t.Fatalf("FetchDiagram: meta=%+v xml=%q err=%v", meta, xml, err)
	}
}

func TestClientReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "tok", time.Second)
	if _, err := c.List(context.Background()); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestHealthEndpoints(t *testing.T) {
	mux := newMux(nil, "s3cret")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz without db = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Fatalf("version = %d body=%q", rec.Code, rec.Body.String())
	}
}
