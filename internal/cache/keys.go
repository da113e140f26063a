package cache

import (
	"fmt"
	"time"
)

// Caches groups the two cache instances the services share.
type Caches struct {
	Tests    *Cache
	Attempts *Cache
}

func NewCaches(testTTL, attemptTTL time.Duration) *Caches {
	return &Caches{
		Tests:    New("tests", testTTL),
		Attempts: New("attempts", attemptTTL),
	}
}

func (c *Caches) All() []*Cache {
	return []*Cache{c.Tests, c.Attempts}
}

func (c *Caches) Clear() {
	for _, cc := range c.All() {
		cc.Clear()
	}
}

func AvailableTestsKey(candidateID uint) string {
	return fmt.Sprintf("available_tests_%d", candidateID)
}

func DashboardTestsKey(candidateID uint) string {
	return fmt.Sprintf("dashboard_tests_%d", candidateID)
}

func MyAttemptsKey(candidateID uint) string {
	return fmt.Sprintf("my_attempts_%d", candidateID)
}

func TestReportsKey(hrID uint) string {
	return fmt.Sprintf("test_reports_%d", hrID)
}

func TestResultsKey(testID uint) string {
	return fmt.Sprintf("test_results_%d", testID)
}

func MonitorSessionsKey(hrID uint) string {
	return fmt.Sprintf("monitor_sessions_%d", hrID)
}

const (
	AvailableTestsPrefix = "available_tests_"
	DashboardTestsPrefix = "dashboard_tests_"
)
