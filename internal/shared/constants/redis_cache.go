package constants

import (
	"fmt"
	"time"
)

// Redis keys and TTL values for the venuely service
// Pattern: venuely:{module}:{operation}:{identifier}:{params?}

// ================== CACHE TTL DURATIONS ==================

const (
	TTL_STATIC_MEDIUM = 12 * time.Hour   // venue layouts rarely change
	TTL_SEMI_STATIC   = 10 * time.Minute // venue details (counter changes invalidate)
	TTL_DYNAMIC_SHORT = 2 * time.Minute  // listings
	TTL_REALTIME      = 30 * time.Second // availability snapshots
)

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "venuely"
)

// ================== VENUES MODULE ==================

const (
	CACHE_KEY_VENUE_DETAIL = CACHE_PREFIX + ":venues:detail:uuid:" // + venue-id
	CACHE_KEY_VENUES_LIST  = CACHE_PREFIX + ":venues:list"         // + :page:X:limit:Y:kind:Z:q:S
)

const (
	TTL_VENUE_DETAIL = TTL_SEMI_STATIC
	TTL_VENUES_LIST  = TTL_DYNAMIC_SHORT
)

// ================== ANALYTICS MODULE ==================

const (
	CACHE_KEY_ANALYTICS_DASHBOARD     = CACHE_PREFIX + ":analytics:dashboard"
	CACHE_KEY_ANALYTICS_OCCUPANCY     = CACHE_PREFIX + ":analytics:occupancy"
	CACHE_KEY_ANALYTICS_CANCELLATIONS = CACHE_PREFIX + ":analytics:cancellations"
	CACHE_KEY_ANALYTICS_DAILY         = CACHE_PREFIX + ":analytics:daily:days:" // + days
)

const (
	TTL_ANALYTICS_DASHBOARD = TTL_DYNAMIC_SHORT
	TTL_ANALYTICS_OCCUPANCY = TTL_REALTIME
	TTL_ANALYTICS_DAILY     = TTL_DYNAMIC_SHORT
)

// ================== LOCKS ==================

const (
	LOCK_KEY_VENUE = CACHE_PREFIX + ":locks:venue:" // + venue-id
)

// ================== RATE LIMITING ==================

const (
	RATE_LIMIT_PREFIX = CACHE_PREFIX + ":ratelimit:" // + type:client
)

// ================== CACHE INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_VENUES_ALL  = CACHE_PREFIX + ":venues:*"
	PATTERN_INVALIDATE_VENUES_LIST = CACHE_KEY_VENUES_LIST + "*"
)

// ================== HELPER FUNCTIONS ==================

func BuildVenueDetailKey(venueID string) string {
	return CACHE_KEY_VENUE_DETAIL + venueID
}

// BuildVenueListKey -> "venuely:venues:list:page:1:limit:10:kind:RESTAURANT:q:cafe"
func BuildVenueListKey(page, limit int, kind, search string) string {
	return fmt.Sprintf("%s:page:%d:limit:%d:kind:%s:q:%s", CACHE_KEY_VENUES_LIST, page, limit, kind, search)
}

func BuildAnalyticsDailyKey(days int) string {
	return fmt.Sprintf("%s%d", CACHE_KEY_ANALYTICS_DAILY, days)
}

func BuildVenueLockKey(venueID string) string {
	return LOCK_KEY_VENUE + venueID
}

func BuildRateLimitKey(limitType, client string) string {
	return RATE_LIMIT_PREFIX + limitType + ":" + client
}
