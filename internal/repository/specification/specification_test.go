package specification

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type row struct {
	Id uuid.UUID
}

func (row) TableName() string { return "cv_sessions" }

func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestApply_BuildsOwnerQuery(t *testing.T) {
	db := dryRun(t)
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	stmt := Apply(db.Model(&row{}),
		OwnedBy{UserId: "user-1"},
		CreatedAfter{Cutoff: cutoff},
		OrderBy{Field: "created_at"},
	).Find(&[]row{}).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "user_id = $1")
	assert.Contains(t, sql, "created_at > $2")
	assert.Contains(t, sql, "ORDER BY created_at ASC")
	assert.Equal(t, []interface{}{"user-1", cutoff}, stmt.Vars)
}

func TestPromptSpecifications(t *testing.T) {
	db := dryRun(t)
	id := uuid.New()

	sql := Apply(db.Model(&row{}), ByID{ID: id}, PromptAvailable{}).Find(&[]row{}).Statement.SQL.String()
	assert.Contains(t, sql, "prompt_count < max_prompts")

	sql = Apply(db.Model(&row{}), PromptUsed{}, OrderBy{Field: "created_at", Desc: true}).Find(&[]row{}).Statement.SQL.String()
	assert.Contains(t, sql, "prompt_count > 0")
	assert.Contains(t, sql, "ORDER BY created_at DESC")

	stmt := Apply(db.Model(&row{}), ByID{ID: id}, AtGeneration{Generation: 3}).Find(&[]row{}).Statement
	assert.Contains(t, stmt.SQL.String(), "generation = $2")
	assert.Equal(t, []interface{}{id, 3}, stmt.Vars)
}
