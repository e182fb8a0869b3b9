package models

import (
	"bytes"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StageEntry is the stored progress of one stage. Contents maps a content
// block index to its 0..100 completion.
type StageEntry struct {
	Progress float64         `json:"progress"`
	Contents map[int]float64 `json:"contents"`
}

// UnmarshalJSON also accepts the older shape where a stage was stored as a
// bare number, and upgrades it to {progress, contents: {}}.
func (e *StageEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' && !bytes.Equal(trimmed, []byte("null")) {
		var progress float64
		if err := json.Unmarshal(trimmed, &progress); err != nil {
			return err
		}
		*e = StageEntry{Progress: progress, Contents: map[int]float64{}}
		return nil
	}

	type plain StageEntry
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	if p.Contents == nil {
		p.Contents = map[int]float64{}
	}
	*e = StageEntry(p)
	return nil
}

// StageProgressMap is keyed by stage index.
type StageProgressMap map[int]StageEntry

type MaterialProgress struct {
	gorm.Model
	UserID          uint                                 `gorm:"uniqueIndex:idx_progress_user_material;not null" json:"userId"`
	MaterialID      uint                                 `gorm:"uniqueIndex:idx_progress_user_material;not null" json:"materialId"`
	Progress        float64                              `gorm:"not null;default:0" json:"progress"`
	Completed       bool                                 `gorm:"not null;default:false" json:"completed"`
	StageProgress   datatypes.JSONType[StageProgressMap] `json:"stageProgress"`
	CompletedStages datatypes.JSONSlice[int]             `json:"completedStages"`
	ActiveStage     int                                  `gorm:"not null;default:0" json:"activeStage"`
	LastAccessed    time.Time                            `json:"lastAccessed"`
}

// Stages returns the decoded stage map, never nil.
func (mp *MaterialProgress) Stages() StageProgressMap {
	stages := mp.StageProgress.Data()
	if stages == nil {
		stages = StageProgressMap{}
	}
	return stages
}

func (mp *MaterialProgress) SetStages(stages StageProgressMap) {
	mp.StageProgress = datatypes.NewJSONType(stages)
}

// HasCompletedStage reports whether index is in CompletedStages.
func (mp *MaterialProgress) HasCompletedStage(index int) bool {
	for _, i := range mp.CompletedStages {
		if i == index {
			return true
		}
	}
	return false
}
