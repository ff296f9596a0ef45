package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"venuely/internal/venues"
)

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(base string, hc *http.Client) *apiClient {
	return &apiClient{baseURL: strings.TrimRight(base, "/"), http: hc}
}

type apiRequest struct {
	method         string
	path           string
	token          string
	idempotencyKey string
	body           interface{}
}

func (c *apiClient) do(ctx context.Context, r apiRequest) (int, []byte, error) {
	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return 0, nil, err
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", r.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	return resp.StatusCode, raw, err
}

func (c *apiClient) availability(ctx context.Context, venueID string) (venues.AvailabilityResponse, error) {
	var envelope struct {
		Data venues.AvailabilityResponse `json:"data"`
	}
	code, raw, err := c.do(ctx, apiRequest{method: http.MethodGet, path: "/venues/" + venueID + "/availability"})
	if err != nil {
		return envelope.Data, err
	}
	if code != http.StatusOK {
		return envelope.Data, fmt.Errorf("availability returned HTTP %d: %s", code, raw)
	}
	err = json.Unmarshal(raw, &envelope)
	return envelope.Data, err
}
