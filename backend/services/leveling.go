package services

const baseLevelRequirement = 100

// LevelInfo describes where a cumulative XP total sits on the level curve.
// CurrentLevelXP and NextLevelXP are cumulative totals.
type LevelInfo struct {
	Level           int `json:"level"`
	CurrentLevelXP  int `json:"currentLevelXP"`
	NextLevelXP     int `json:"nextLevelXP"`
	XPNeededForNext int `json:"xpNeededForNext"`
}

// CalculateLevel walks the level curve: the first level-up costs 100 XP and
// each next one costs floor(previous * 1.5).
func CalculateLevel(xp int) LevelInfo {
	if xp < 0 {
		xp = 0
	}

	level := 1
	total := 0
	requirement := baseLevelRequirement
	for xp >= total+requirement {
		total += requirement
		level++
		requirement = requirement * 3 / 2
	}

	return LevelInfo{
		Level:           level,
		CurrentLevelXP:  total,
		NextLevelXP:     total + requirement,
		XPNeededForNext: total + requirement - xp,
	}
}

var rankThresholds = []struct {
	level int
	name  string
}{
	{50, "Grandmaster"},
	{40, "Master"},
	{30, "Expert"},
	{20, "Adept"},
	{10, "Apprentice"},
	{5, "Novice"},
}

const DefaultRank = "Beginner"

// CalculateRank returns the label of the highest threshold not above level.
func CalculateRank(level int) string {
	for _, t := range rankThresholds {
		if level >= t.level {
			return t.name
		}
	}
	return DefaultRank
}
