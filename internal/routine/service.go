// Package routine はルーティン管理のドメインロジックを提供する。
package routine

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/routinely/internal/model"
	"github.com/hitoshi/routinely/internal/repository"
	"github.com/hitoshi/routinely/internal/security"
)

// maxTitleLength はルーティンタイトルの最大文字数。
const maxTitleLength = 100

// colorPattern は許可するカラーコードの形式。
var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// RoutineWithEntries はルーティンと実施記録を結合したドメインオブジェクト。
type RoutineWithEntries struct {
	Routine *model.Routine
	Dates   []string // EntryDateFormat形式の実施日
}

// Service はルーティン管理のサービス層。
// 一覧取得、作成、削除、実施記録の反転のビジネスロジックを提供する。
type Service struct {
	routines  repository.RoutineRepository
	entries   repository.EntryRepository
	sanitizer security.TitleSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	routines repository.RoutineRepository,
	entries repository.EntryRepository,
	sanitizer security.TitleSanitizerService,
) *Service {
	return &Service{
		routines:  routines,
		entries:   entries,
		sanitizer: sanitizer,
	}
}

// List はユーザーのルーティン一覧を実施記録付きで返す。
func (s *Service) List(ctx context.Context, userID string) ([]RoutineWithEntries, error) {
	routines, err := s.routines.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ルーティン一覧の取得に失敗しました: %w", err)
	}

	results := make([]RoutineWithEntries, len(routines))
	for i, r := range routines {
		entries, err := s.entries.ListByRoutineID(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("実施記録の取得に失敗しました: %w", err)
		}
		dates := make([]string, len(entries))
		for j, e := range entries {
			dates[j] = e.DateString()
		}
		results[i] = RoutineWithEntries{Routine: r, Dates: dates}
	}

	return results, nil
}

// Create はルーティンを作成する。
// タイトルはHTMLタグを除去した上で長さを検証する。
func (s *Service) Create(ctx context.Context, userID, title, color string) (*model.Routine, error) {
	title = s.sanitizer.Sanitize(title)
	if title == "" {
		return nil, model.NewInvalidTitleError("タイトルが空です")
	}
	if len([]rune(title)) > maxTitleLength {
		return nil, model.NewInvalidTitleError("タイトルが長すぎます")
	}
	if !colorPattern.MatchString(color) {
		return nil, model.NewInvalidColorError(color)
	}

	now := time.Now()
	routine := &model.Routine{
		ID:        uuid.NewString(),
		Title:     title,
		Color:     color,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.routines.Create(ctx, routine); err != nil {
		return nil, fmt.Errorf("ルーティンの作成に失敗しました: %w", err)
	}

	return routine, nil
}

// Delete はルーティンを削除する。
// 他ユーザーのルーティンは存在を漏らさないよう未検出として扱う。
func (s *Service) Delete(ctx context.Context, userID, routineID string) error {
	routine, err := s.findOwned(ctx, userID, routineID)
	if err != nil {
		return err
	}

	if err := s.routines.DeleteByID(ctx, routine.ID); err != nil {
		return fmt.Errorf("ルーティンの削除に失敗しました: %w", err)
	}

	return nil
}

// ToggleEntry は指定日の実施記録を反転し、反転後に実施済みかどうかを返す。
// dateStrはEntryDateFormat形式であること。
func (s *Service) ToggleEntry(ctx context.Context, userID, routineID, dateStr string) (bool, error) {
	date, err := time.Parse(model.EntryDateFormat, dateStr)
	if err != nil {
		return false, model.NewInvalidDateError(dateStr)
	}

	if _, err := s.findOwned(ctx, userID, routineID); err != nil {
		return false, err
	}

	completed, err := s.entries.Toggle(ctx, routineID, date)
	if err != nil {
		return false, fmt.Errorf("実施記録の反転に失敗しました: %w", err)
	}

	return completed, nil
}

// findOwned はルーティンを取得し、所有者を検証する。
func (s *Service) findOwned(ctx context.Context, userID, routineID string) (*model.Routine, error) {
	routine, err := s.routines.FindByID(ctx, routineID)
	if err != nil {
		return nil, fmt.Errorf("ルーティンの取得に失敗しました: %w", err)
	}
	if routine == nil {
		return nil, model.NewRoutineNotFoundError(routineID)
	}
	if routine.UserID != userID {
		return nil, model.NewRoutineNotFoundError(routineID)
	}
	return routine, nil
}
