/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"testing"
)

// fakeStore keeps tokens in memory so tests never touch the OS keychain.
type fakeStore struct{ vals map[string]string }

func (f *fakeStore) Get(service, key string) (string, error) {
	v, ok := f.vals[service+"/"+key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}
func (f *fakeStore) Set(service, key, value string) error {
	f.vals[service+"/"+key] = value
	return nil
}
func (f *fakeStore) Delete(service, key string) error {
	delete(f.vals, service+"/"+key)
	return nil
}

func withFakeStore(t *testing.T) *fakeStore {
	t.Helper()
	old := tokenStore
	f := &fakeStore{vals: map[string]string{}}
	tokenStore = f
	t.Cleanup(func() { tokenStore = old })
	return f
}

func TestEnvOverridesBackendURL(t *testing.T) {
	withFakeStore(t)
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesEditor(t *testing.T) {
	withFakeStore(t)
	t.Setenv(EnvHistoryMaxDepth, "250")
	t.Setenv(EnvAutosaveSeconds, "15")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryMaxDepth != 250 || cfg.Editor.AutosaveSeconds != 15 {
		t.Fatalf("editor env overrides not applied: %#v", cfg.Editor)
	}
}

func TestMergeIncludesEditor(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Editor.HistoryMaxDepth = 99
	src.Editor.DefaultShape = "rounded"
	mergeInto(&dst, &src)
	if dst.Editor.HistoryMaxDepth != 99 || dst.Editor.DefaultShape != "rounded" {
		t.Fatalf("editor fields not merged: %#v", dst.Editor)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/gdg.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/gdg.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	withFakeStore(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "/tmp/gdg-test.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/tmp/gdg-test.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestTokenRoundTripThroughStore(t *testing.T) {
	f := withFakeStore(t)
	t.Setenv("HOME", t.TempDir())
	if err := Save(Defaults(), "secret-token"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := f.vals[keyringService+"/"+keyringToken]; got != "secret-token" {
		t.Fatalf("token not persisted to store: %q", got)
	}
	_, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tok != "secret-token" {
		t.Fatalf("token not loaded: %q", tok)
	}
	if err := ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if _, ok := f.vals[keyringService+"/"+keyringToken]; ok {
		t.Fatalf("token not cleared")
	}
}
