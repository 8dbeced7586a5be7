package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/recuerdame/webapp/app/models"
	"github.com/recuerdame/webapp/app/repository"
	"github.com/recuerdame/webapp/internal/pkg/cache"
	"github.com/recuerdame/webapp/internal/pkg/database"
)

const (
	CacheKeyUsersTotal     = "statistics:users:total"
	CacheKeyRemindersTotal = "statistics:reminders:total"
	CacheKeyRemindersDaily = "statistics:reminders:daily:%s" // date YYYY-MM-DD
	CacheExpiration        = 30 * time.Minute
)

// DashboardData holds the counters shown on the admin dashboard.
type DashboardData struct {
	TotalUsers     int64 `json:"users"`
	TotalReminders int64 `json:"reminders"`
	TodayReminders int64 `json:"reminders_today"`
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

func shouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()
	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached counters when the interval passed.
func UpdateCacheIfNeeded() {
	if !shouldUpdateCache() {
		return
	}
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	if err := UpdateStatisticsCache(); err != nil {
		log.Printf("[Statistics] cache refresh failed: %v", err)
		return
	}
	lastCacheUpdate = time.Now()
}

// UpdateStatisticsCache recounts everything and writes the cache keys.
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalReminders int64
	if err := db.Model(&models.Reminder{}).Count(&totalReminders).Error; err != nil {
		return err
	}

	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	var todayReminders int64
	if err := db.Model(&models.Reminder{}).
		Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).
		Count(&todayReminders).Error; err != nil {
		return err
	}

	if err := cache.Set(CacheKeyUsersTotal, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		return err
	}
	if err := cache.Set(CacheKeyRemindersTotal, strconv.FormatInt(totalReminders, 10), CacheExpiration); err != nil {
		return err
	}
	dailyKey := fmt.Sprintf(CacheKeyRemindersDaily, today)
	return cache.Set(dailyKey, strconv.FormatInt(todayReminders, 10), CacheExpiration)
}

// GetDashboardData returns the admin counters, refreshing the cache when stale.
func GetDashboardData() DashboardData {
	UpdateCacheIfNeeded()

	today := time.Now().Format("2006-01-02")
	return DashboardData{
		TotalUsers: cachedCount(CacheKeyUsersTotal, func() (int64, error) {
			return repository.GetGlobalRepositories().User.Count()
		}),
		TotalReminders: cachedCount(CacheKeyRemindersTotal, func() (int64, error) {
			return repository.GetGlobalRepositories().Reminder.Count()
		}),
		TodayReminders: cachedCount(fmt.Sprintf(CacheKeyRemindersDaily, today), func() (int64, error) {
			db := database.GetDB()
			todayStart, _ := time.Parse("2006-01-02", today)
			var count int64
			err := db.Model(&models.Reminder{}).
				Where("created_at BETWEEN ? AND ?", todayStart, todayStart.Add(24*time.Hour)).
				Count(&count).Error
			return count, err
		}),
	}
}

// cachedCount reads a counter from redis, falling back to the database and
// re-priming the cache on a miss.
func cachedCount(key string, recount func() (int64, error)) int64 {
	if val, err := cache.Get(key); err == nil {
		if count, err := strconv.ParseInt(val, 10, 64); err == nil {
			return count
		}
	}

	count, err := recount()
	if err != nil {
		log.Printf("[Statistics] recount for %s failed: %v", key, err)
		return 0
	}
	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("[Statistics] caching %s failed: %v", key, err)
	}
	return count
}
