package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
)

const leaderboardSize = 10

const (
	TimeframeAll    = "all"
	TimeframeWeekly = "weekly"
)

// LeaderboardCache stores rendered leaderboards. Invalidate drops every
// cached board at once.
type LeaderboardCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context) error
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (noopCache) Set(context.Context, string, []byte) error { return nil }

func (noopCache) Invalidate(context.Context) error { return nil }

func orNoopCache(c LeaderboardCache) LeaderboardCache {
	if c == nil {
		return noopCache{}
	}
	return c
}

func invalidateLeaderboard(ctx context.Context, cache LeaderboardCache, log *utils.Logger) {
	if err := cache.Invalidate(ctx); err != nil {
		log.Warn("leaderboard cache invalidation failed", "error", err)
	}
}

type LeaderboardEntry struct {
	Position   int    `json:"position"`
	UserID     uint   `json:"userId"`
	Username   string `json:"username"`
	FullName   string `json:"fullName,omitempty"`
	SchoolName string `json:"schoolName,omitempty"`
	Province   string `json:"province,omitempty"`
	Points     int    `json:"points"`
	Level      int    `json:"level"`
	Rank       string `json:"rank"`
}

type SchoolRanking struct {
	Position                  int     `json:"position"`
	SchoolID                  uint    `json:"schoolId"`
	Name                      string  `json:"name"`
	Province                  string  `json:"province"`
	StudentCount              int     `json:"studentCount"`
	TotalPoints               int     `json:"totalPoints"`
	AveragePoints             float64 `json:"averagePoints"`
	AverageStudyTime          float64 `json:"averageStudyTime"`
	AverageCompletedMaterials float64 `json:"averageCompletedMaterials"`
}

type LeaderboardService struct {
	db    *gorm.DB
	log   *utils.Logger
	cache LeaderboardCache
	loc   *time.Location
	now   func() time.Time
}

func NewLeaderboardService(db *gorm.DB, log *utils.Logger, cfg *config.Config, cache LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{
		db:    db,
		log:   log.With("service", "leaderboard"),
		cache: orNoopCache(cache),
		loc:   cfg.Location(),
		now:   time.Now,
	}
}

func (s *LeaderboardService) SetClock(now func() time.Time) {
	s.now = now
}

// NormalizeScope maps an empty or "all" scope to no province filter.
func NormalizeScope(scope string) string {
	scope = strings.TrimSpace(scope)
	if strings.EqualFold(scope, TimeframeAll) {
		return ""
	}
	return scope
}

// Leaderboard returns the top users for timeframe, optionally restricted to
// one province.
func (s *LeaderboardService) Leaderboard(ctx context.Context, timeframe, scope string) ([]LeaderboardEntry, error) {
	timeframe = strings.ToLower(timeframe)
	if timeframe != TimeframeAll && timeframe != TimeframeWeekly {
		return nil, utils.ErrBadRequest("timeframe must be 'all' or 'weekly'")
	}
	scope = NormalizeScope(scope)

	key := timeframe + ":" + scope
	if raw, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warn("leaderboard cache read failed", "key", key, "error", err)
	} else if ok {
		var cached []LeaderboardEntry
		if err := sonic.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		s.log.Warn("leaderboard cache entry is corrupt", "key", key)
	}

	var (
		entries []LeaderboardEntry
		err     error
	)
	if timeframe == TimeframeAll {
		entries, err = s.allTime(ctx, scope)
	} else {
		entries, err = s.weekly(ctx, scope)
	}
	if err != nil {
		return nil, err
	}

	if raw, err := sonic.Marshal(entries); err == nil {
		if err := s.cache.Set(ctx, key, raw); err != nil {
			s.log.Warn("leaderboard cache write failed", "key", key, "error", err)
		}
	}
	return entries, nil
}

func (s *LeaderboardService) allTime(ctx context.Context, province string) ([]LeaderboardEntry, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).Preload("School")
	if province != "" {
		query = query.
			Joins("JOIN schools ON schools.id = users.school_id AND schools.deleted_at IS NULL").
			Where("schools.province = ?", province)
	}

	var users []models.User
	err := query.Order("users.total_points DESC, users.id ASC").Limit(leaderboardSize).Find(&users).Error
	if err != nil {
		return nil, utils.ErrInternal(err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i := range users {
		entries = append(entries, entryFor(len(entries)+1, &users[i], users[i].TotalPoints))
	}
	return entries, nil
}

// weekly sums points created since the start of the current week (Sunday
// 00:00 local time).
func (s *LeaderboardService) weekly(ctx context.Context, province string) ([]LeaderboardEntry, error) {
	db := s.db.WithContext(ctx)
	since := utils.StartOfWeek(s.now(), s.loc).UTC()

	type weeklyRow struct {
		UserID uint
		Total  int
	}
	query := db.Model(&models.Point{}).
		Select("points.user_id AS user_id, SUM(points.value) AS total").
		Where("points.created_at >= ?", since)
	if province != "" {
		query = query.
			Joins("JOIN users ON users.id = points.user_id").
			Joins("JOIN schools ON schools.id = users.school_id").
			Where("schools.province = ?", province)
	}

	var rows []weeklyRow
	err := query.Group("points.user_id").
		Order("total DESC, points.user_id ASC").
		Limit(leaderboardSize).
		Scan(&rows).Error
	if err != nil {
		return nil, utils.ErrInternal(err)
	}
	if len(rows) == 0 {
		return []LeaderboardEntry{}, nil
	}

	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.UserID
	}
	var users []models.User
	if err := db.Preload("School").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, utils.ErrInternal(err)
	}
	byID := make(map[uint]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		user, ok := byID[r.UserID]
		if !ok {
			continue
		}
		entries = append(entries, entryFor(len(entries)+1, user, r.Total))
	}
	return entries, nil
}

func entryFor(position int, user *models.User, points int) LeaderboardEntry {
	entry := LeaderboardEntry{
		Position: position,
		UserID:   user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Points:   points,
		Level:    user.Level,
		Rank:     user.Rank,
	}
	if user.School != nil {
		entry.SchoolName = user.School.Name
		entry.Province = user.School.Province
	}
	return entry
}

// SchoolRankings aggregates student points and activity per school.
func (s *LeaderboardService) SchoolRankings(ctx context.Context, province string) ([]SchoolRanking, error) {
	db := s.db.WithContext(ctx)
	province = NormalizeScope(province)

	var schools []models.School
	query := db.Model(&models.School{})
	if province != "" {
		query = query.Where("province = ?", province)
	}
	if err := query.Find(&schools).Error; err != nil {
		return nil, utils.ErrInternal(err)
	}
	if len(schools) == 0 {
		return []SchoolRanking{}, nil
	}

	type studentRow struct {
		SchoolID       uint
		StudentCount   int
		StudyTime      int
		CompletedTotal int
	}
	var students []studentRow
	err := db.Model(&models.User{}).
		Select("school_id, COUNT(*) AS student_count, COALESCE(SUM(total_study_time), 0) AS study_time, COALESCE(SUM(completed_materials), 0) AS completed_total").
		Where("school_id IS NOT NULL AND role = ?", models.RoleUser).
		Group("school_id").
		Scan(&students).Error
	if err != nil {
		return nil, utils.ErrInternal(err)
	}

	type pointRow struct {
		SchoolID uint
		Total    int
	}
	var points []pointRow
	err = db.Model(&models.Point{}).
		Select("users.school_id AS school_id, COALESCE(SUM(points.value), 0) AS total").
		Joins("JOIN users ON users.id = points.user_id AND users.deleted_at IS NULL").
		Where("users.school_id IS NOT NULL AND users.role = ?", models.RoleUser).
		Group("users.school_id").
		Scan(&points).Error
	if err != nil {
		return nil, utils.ErrInternal(err)
	}

	studentsBySchool := make(map[uint]studentRow, len(students))
	for _, r := range students {
		studentsBySchool[r.SchoolID] = r
	}
	pointsBySchool := make(map[uint]int, len(points))
	for _, r := range points {
		pointsBySchool[r.SchoolID] = r.Total
	}

	rankings := make([]SchoolRanking, 0, len(schools))
	for _, school := range schools {
		st := studentsBySchool[school.ID]
		r := SchoolRanking{
			SchoolID:     school.ID,
			Name:         school.Name,
			Province:     school.Province,
			StudentCount: st.StudentCount,
			TotalPoints:  pointsBySchool[school.ID],
		}
		if st.StudentCount > 0 {
			n := float64(st.StudentCount)
			r.AveragePoints = round2(float64(r.TotalPoints) / n)
			r.AverageStudyTime = round2(float64(st.StudyTime) / n)
			r.AverageCompletedMaterials = round2(float64(st.CompletedTotal) / n)
		}
		rankings = append(rankings, r)
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		if rankings[i].TotalPoints != rankings[j].TotalPoints {
			return rankings[i].TotalPoints > rankings[j].TotalPoints
		}
		return rankings[i].Name < rankings[j].Name
	})
	for i := range rankings {
		rankings[i].Position = i + 1
	}
	return rankings, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
