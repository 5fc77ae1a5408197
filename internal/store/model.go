// Package store is the Postgres-backed implementation of
// matchtxn.Store: one row per Uid in a "states" table, an append-only
// "logs" table for matchtxn.LogEntry, a Postgres advisory lock enforcing
// the single-writer assumption (spec.md §5/§7), and an optional Kafka
// fan-out of the same log entries for downstream consumers. Grounded on
// the teacher's gorm-tagged domain model
// (user-management-service/internal/domain/user.go) and its raw
// lib/pq-backed repository (chat-service/internal/repository).
package store

import (
	"time"

	"github.com/shopmindai/voicematch/internal/clock"
	"github.com/shopmindai/voicematch/internal/matchstate"
)

// stateRow is the gorm-mapped persistence shape of matchstate.UserState.
// Fields irrelevant to the current Tag are persisted as whatever the
// UserState holds (the zero value for constructor-built states); fromRow
// copies every column back field by field, so a row round-trips to an
// equal UserState.
type stateRow struct {
	Uid int64 `gorm:"primaryKey;column:uid"`
	Tag int   `gorm:"column:tag;index"`

	DisplayName string `gorm:"column:display_name"`
	Name        string `gorm:"column:name"`
	Sex         int    `gorm:"column:sex"`
	Opinion     int    `gorm:"column:opinion"`

	SurveyTs    int64 `gorm:"column:survey_ts"`
	HasSurveyTs bool  `gorm:"column:has_survey_ts"`

	SearchingUntil int64 `gorm:"column:searching_until"`
	NextRefresh    int64 `gorm:"column:next_refresh;index"`

	AskedUid    int64 `gorm:"column:asked_uid"`
	AskingUntil int64 `gorm:"column:asking_until"`
	WaitedBy    int64 `gorm:"column:waited_by"`
	HasWaitedBy bool  `gorm:"column:has_waited_by"`

	WaitingFor    int64 `gorm:"column:waiting_for"`
	HasWaitingFor bool  `gorm:"column:has_waiting_for"`

	Since int64 `gorm:"column:since"`

	Until   int64 `gorm:"column:until"`
	AskedBy int64 `gorm:"column:asked_by"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (stateRow) TableName() string { return "states" }

func toRow(s matchstate.UserState) stateRow {
	return stateRow{
		Uid: int64(s.Uid), Tag: int(s.Tag),
		DisplayName: s.DisplayName, Name: s.Name, Sex: int(s.Sex), Opinion: int(s.Opinion),
		SurveyTs: int64(s.SurveyTs), HasSurveyTs: s.HasSurveyTs,
		SearchingUntil: int64(s.SearchingUntil), NextRefresh: int64(s.NextRefresh),
		AskedUid: int64(s.AskedUid), AskingUntil: int64(s.AskingUntil),
		WaitedBy: int64(s.WaitedBy), HasWaitedBy: s.HasWaitedBy,
		WaitingFor: int64(s.WaitingFor), HasWaitingFor: s.HasWaitingFor,
		Since: int64(s.Since),
		Until: int64(s.Until), AskedBy: int64(s.AskedBy),
	}
}

func fromRow(r stateRow) matchstate.UserState {
	return matchstate.UserState{
		Tag: matchstate.Tag(r.Tag), Uid: matchstate.Uid(r.Uid),
		DisplayName: r.DisplayName, Name: r.Name,
		Sex: matchstate.Sex(r.Sex), Opinion: matchstate.Opinion(r.Opinion),
		SurveyTs: clock.Timestamp(r.SurveyTs), HasSurveyTs: r.HasSurveyTs,
		SearchingUntil: clock.Timestamp(r.SearchingUntil), NextRefresh: clock.Timestamp(r.NextRefresh),
		AskedUid: matchstate.Uid(r.AskedUid), AskingUntil: clock.Timestamp(r.AskingUntil),
		WaitedBy: matchstate.Uid(r.WaitedBy), HasWaitedBy: r.HasWaitedBy,
		WaitingFor: matchstate.Uid(r.WaitingFor), HasWaitingFor: r.HasWaitingFor,
		Since: clock.Timestamp(r.Since),
		Until: clock.Timestamp(r.Until), AskedBy: matchstate.Uid(r.AskedBy),
	}
}

// logRow is the gorm-mapped shape of matchtxn.LogEntry; Fields is stored
// as jsonb, mirroring the teacher's Preferences jsonb column.
type logRow struct {
	ID     int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Ts     int64     `gorm:"column:ts;index"`
	Kind   string    `gorm:"column:kind"`
	Fields string    `gorm:"column:data;type:jsonb"`
	Logged time.Time `gorm:"column:logged_at;autoCreateTime"`
}

func (logRow) TableName() string { return "logs" }
