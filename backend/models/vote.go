package models

import (
	"fmt"
	"time"
)

// VoteTargetKind names what a vote is cast on.
type VoteTargetKind string

const (
	VoteTargetPost    VoteTargetKind = "post"
	VoteTargetAnswer  VoteTargetKind = "answer"
	VoteTargetComment VoteTargetKind = "comment"
)

// ParseVoteTargetKind accepts the lowercase kind names only.
func ParseVoteTargetKind(s string) (VoteTargetKind, error) {
	switch VoteTargetKind(s) {
	case VoteTargetPost, VoteTargetAnswer, VoteTargetComment:
		return VoteTargetKind(s), nil
	default:
		return "", fmt.Errorf("unknown vote target %q", s)
	}
}

// VoteTarget identifies a votable record.
type VoteTarget struct {
	Kind VoteTargetKind
	ID   uint
}

// Table is the forum table the target lives in.
func (t VoteTarget) Table() string {
	switch t.Kind {
	case VoteTargetPost:
		return "posts"
	case VoteTargetAnswer:
		return "answers"
	case VoteTargetComment:
		return "comments"
	default:
		return ""
	}
}

func (t VoteTarget) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

type Vote struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"uniqueIndex:idx_vote_user_target,priority:1;not null" json:"userId"`
	TargetKind VoteTargetKind `gorm:"uniqueIndex:idx_vote_user_target,priority:2;index:idx_vote_target,priority:1;size:16;not null" json:"targetType"`
	TargetID   uint           `gorm:"uniqueIndex:idx_vote_user_target,priority:3;index:idx_vote_target,priority:2;not null" json:"targetId"`
	Value      int            `gorm:"not null" json:"value"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (v Vote) Target() VoteTarget {
	return VoteTarget{Kind: v.TargetKind, ID: v.TargetID}
}
