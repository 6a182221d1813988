package config

import "time"

// RateLimitConfig drives the Redis token bucket placed in front of the
// /v1/auth endpoints (login, register, refresh). Defaults allow a burst of
// 10 attempts per client and route, refilled one every six seconds.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int           // bucket size
	RefillTokens   int           // tokens added per RefillInterval
	RefillInterval time.Duration
	TTL            time.Duration // idle buckets expire after this
	KeyStrategy    string        // ip, user, route, ip_user, ip_route, user_route
	Prefix         string
	Debug          bool // log every decision
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables. RATE_LIMIT_BURST is
// accepted as an alias for RATE_LIMIT_CAPACITY.
func LoadRateLimitConfig() RateLimitConfig {
	capacity := envInt("RATE_LIMIT_CAPACITY", 10)
	if burst := envInt("RATE_LIMIT_BURST", 0); burst > 0 {
		capacity = burst
	}
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       capacity,
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "shop:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	cfg.normalize()
	return cfg
}

// normalize clamps values the Lua script cannot work with. A bucket must
// outlive at least five refill intervals or it would reset to full.
func (c *RateLimitConfig) normalize() {
	c.Capacity = max(c.Capacity, 1)
	c.RefillTokens = max(c.RefillTokens, 1)
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	c.TTL = max(c.TTL, 5*c.RefillInterval)
}
