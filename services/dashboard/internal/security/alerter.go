// Package security raises alerts when audit events from one client repeat
// too often.
package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alliancedash/internal/ratelimit"
)

// AlertResult contains alert evaluation output.
type AlertResult struct {
	Triggered bool
	Count     int64
	Threshold int64
	Window    time.Duration
}

// AuditAlerter counts security events per event, outcome and client.
type AuditAlerter struct {
	counter ratelimit.Counter
	prefix  string
	now     func() time.Time
}

// NewAuditAlerter returns nil without a counter; a nil alerter observes
// nothing.
func NewAuditAlerter(counter ratelimit.Counter, prefix string) *AuditAlerter {
	if counter == nil {
		return nil
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "alliancedash:alerts"
	}
	return &AuditAlerter{counter: counter, prefix: prefix, now: time.Now}
}

// Observe records one event and reports whether its threshold is reached.
func (a *AuditAlerter) Observe(ctx context.Context, event, outcome, ip string) (AlertResult, error) {
	result := AlertResult{}
	if a == nil {
		return result, nil
	}
	threshold, window, ok := alertRule(event, outcome)
	if !ok {
		return result, nil
	}
	slot := a.now().UTC().UnixMilli() / window.Milliseconds()
	key := fmt.Sprintf("%s:%s:%s:%s:%d", a.prefix, sanitizeSegment(event), sanitizeSegment(outcome), sanitizeSegment(ip), slot)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := a.counter.Incr(ctx, key, window)
	if err != nil {
		return result, err
	}
	result.Count = count
	result.Threshold = threshold
	result.Window = window
	result.Triggered = count >= threshold
	return result, nil
}

func alertRule(event, outcome string) (threshold int64, window time.Duration, ok bool) {
	event = strings.TrimSpace(event)
	switch strings.TrimSpace(outcome) {
	case "rate_limited":
		return 20, time.Minute, true
	case "fail":
	default:
		return 0, 0, false
	}
	switch event {
	case "dashboard.login":
		return 10, 5 * time.Minute, true
	case "dashboard.password.change":
		return 5, 15 * time.Minute, true
	case "dashboard.authorize", "dashboard.admin.authorize":
		return 25, 5 * time.Minute, true
	case "dashboard.upload":
		return 10, 10 * time.Minute, true
	default:
		return 0, 0, false
	}
}

var segmentReplacer = strings.NewReplacer(":", "_", "|", "_", " ", "_")

func sanitizeSegment(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return "unknown"
	}
	return segmentReplacer.Replace(in)
}
