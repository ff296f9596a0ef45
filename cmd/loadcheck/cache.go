package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"venuely/internal/shared/constants"
	"venuely/pkg/devtoken"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const (
	cacheHit     = "HIT"
	cacheMiss    = "MISS"
	cacheNone    = "NOCACHE"
	cacheErrored = "ERROR"
)

type CacheCheck struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	CacheKey string `json:"cache_key"`
	Admin    bool   `json:"admin"`
}

type CacheCheckResult struct {
	Endpoint     string        `json:"endpoint"`
	CacheStatus  string        `json:"cache_status"`
	ResponseTime time.Duration `json:"response_time"`
	DataSize     int           `json:"data_size"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
}

var cacheVenueID string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Request cached endpoints twice and confirm the second read is served from Redis",
	Long: `Each endpoint is requested twice. The Redis key behind it is checked before every request,
so a HIT means the key existed and a MISS means the request populated it.

Examples:
  loadcheck cache --venue 1f0c...`,
	RunE: runCache,
}

func init() {
	cacheCmd.Flags().StringVar(&cacheVenueID, "venue", "", "venue id used for the detail checks")
}

func venueChecks(venueID string) []CacheCheck {
	checks := []CacheCheck{
		{"Venue List Page 1", "/venues?page=1&limit=10", constants.BuildVenueListKey(1, 10, "", ""), false},
		{"Venue List Coworking", "/venues?page=1&limit=10&kind=COWORKING", constants.BuildVenueListKey(1, 10, "COWORKING", ""), false},
		{"Dashboard Analytics", "/admin/analytics/dashboard", constants.CACHE_KEY_ANALYTICS_DASHBOARD, true},
		{"Venue Occupancy", "/admin/analytics/venues", constants.CACHE_KEY_ANALYTICS_OCCUPANCY, true},
	}
	if venueID != "" {
		checks = append(checks, CacheCheck{"Venue Detail", "/venues/" + venueID, constants.BuildVenueDetailKey(venueID), false})
	}
	return checks
}

func runCache(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	fmt.Println("✅ Redis connection: OK")

	adminToken, err := devtoken.Sign(cfg.JWT, "loadcheck-admin", "admin", time.Hour)
	if err != nil {
		return err
	}

	client := newAPIClient(baseURL, &http.Client{Timeout: timeout})
	var results []CacheCheckResult
	for _, check := range venueChecks(cacheVenueID) {
		fmt.Printf("\n🔍 %s\n", check.Name)
		first := checkEndpoint(ctx, client, rdb, check, adminToken)
		second := checkEndpoint(ctx, client, rdb, check, adminToken)
		results = append(results, first, second)
		printCheck(first)
		printCheck(second)
	}

	summary := summarizeChecks(results)
	fmt.Printf("\n📊 %d requests, %d succeeded, %d hits, %d misses, %d uncached\n",
		summary.Total, summary.Succeeded, summary.Hits, summary.Misses, summary.Uncached)
	if summary.Succeeded < summary.Total {
		return fmt.Errorf("%d cache checks failed", summary.Total-summary.Succeeded)
	}
	return nil
}

func checkEndpoint(ctx context.Context, client *apiClient, rdb *redis.Client, check CacheCheck, adminToken string) CacheCheckResult {
	result := CacheCheckResult{Endpoint: check.Endpoint}

	before, err := rdb.Exists(ctx, check.CacheKey).Result()
	if err != nil {
		result.CacheStatus = cacheErrored
		result.Error = err.Error()
		return result
	}

	req := apiRequest{method: http.MethodGet, path: check.Endpoint}
	if check.Admin {
		req.token = adminToken
	}
	start := time.Now()
	code, body, err := client.do(ctx, req)
	result.ResponseTime = time.Since(start)
	if err != nil {
		result.CacheStatus = cacheErrored
		result.Error = err.Error()
		return result
	}
	result.DataSize = len(body)
	result.Success = code >= 200 && code < 400
	if !result.Success {
		result.Error = fmt.Sprintf("HTTP %d", code)
	}

	after, err := rdb.Exists(ctx, check.CacheKey).Result()
	if err != nil {
		result.CacheStatus = cacheErrored
		result.Error = err.Error()
		return result
	}
	result.CacheStatus = classifyCache(before > 0, after > 0)
	return result
}

func classifyCache(existedBefore, existsAfter bool) string {
	switch {
	case existedBefore:
		return cacheHit
	case existsAfter:
		return cacheMiss
	default:
		return cacheNone
	}
}

type checkSummary struct {
	Total     int
	Succeeded int
	Hits      int
	Misses    int
	Uncached  int
}

func summarizeChecks(results []CacheCheckResult) checkSummary {
	s := checkSummary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		}
		switch r.CacheStatus {
		case cacheHit:
			s.Hits++
		case cacheMiss:
			s.Misses++
		case cacheNone:
			s.Uncached++
		}
	}
	return s
}

func printCheck(r CacheCheckResult) {
	icon := "✅"
	if !r.Success {
		icon = "❌"
	}
	fmt.Printf("   %s [%s] %v (%d bytes) %s\n", icon, r.CacheStatus, r.ResponseTime, r.DataSize, r.Error)
}
