/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Diagram is the listing projection of a published diagram. The XML body is
// fetched separately via FetchDiagram.
type Diagram struct {
	ID          int64     `json:"id"`
	StableID    string    `json:"stable_id"`
	Name        string    `json:"name"`
	PublishedBy string    `json:"published_by"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Client talks to the share server.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a share-server client. baseURL may include a trailing
// slash; it is normalized.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// RequestToken asks the server for a bearer token and stores it on the client.
func (c *Client) RequestToken(ctx context.Context, subject string, ttl time.Duration) (string, error) {
	var out struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	body := map[string]any{"subject": subject, "ttl_seconds": int64(ttl / time.Second)}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", body, &out); err != nil {
		return "", err
	}
	c.Token = out.Token
	return out.Token, nil
}

// Publish uploads a diagram document under the given name.
func (c *Client) Publish(ctx context.Context, name, xmlText string) (*Diagram, error) {
	var d Diagram
	body := map[string]string{"name": name, "xml": xmlText}
	if err := c.doJSON(ctx, http.MethodPost, "/api/diagrams", body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns published diagrams, newest first.
func (c *Client) List(ctx context.Context) ([]Diagram, error) {
	var list []Diagram
	if err := c.doJSON(ctx, http.MethodGet, "/api/diagrams", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Search finds published diagrams whose name contains q.
func (c *Client) Search(ctx context.Context, q string) ([]Diagram, error) {
	var list []Diagram
	path := "/api/diagrams/search?q=" + url.QueryEscape(q)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// FetchDiagram downloads a published diagram and its XML body.
func (c *Client) FetchDiagram(ctx context.Context, id int64) (*Diagram, string, error) {
	var out struct {
		Diagram Diagram `json:"diagram"`
		XML     string  `json:"xml"`
	}
	path := fmt.Sprintf("/api/diagrams/%d", id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, "", err
	}
	return &out.Diagram, out.XML, nil
}
