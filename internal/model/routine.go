package model

import "time"

// EntryDateFormat はルーティン実施日の表現形式。時刻は持たない。
const EntryDateFormat = "2006-01-02"

// Routine はユーザーが毎日続けたい習慣を表す。
type Routine struct {
	ID        string
	Title     string
	Color     string // "#rrggbb" 形式
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoutineEntry はルーティンの1日分の実施記録を表す。
// (RoutineID, Date) の組で一意。存在すれば「実施済み」。
type RoutineEntry struct {
	RoutineID string
	Date      time.Time
}

// DateString はエントリの日付をEntryDateFormat形式で返す。
func (e *RoutineEntry) DateString() string {
	return e.Date.Format(EntryDateFormat)
}
