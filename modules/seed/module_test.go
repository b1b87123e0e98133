package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/example/task-tracker/database"
	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

type plainHasher struct{ err error }

func (h plainHasher) Hash(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + password, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestSeed_EmptyDatabase(t *testing.T) {
	db := setupTestDB(t)
	m := NewModule(db, plainHasher{}, &mockLogger{})

	require.NoError(t, m.Start(context.Background()))

	var users []user.User
	require.NoError(t, db.Order("id").Find(&users).Error)
	require.Len(t, users, 4)

	active := 0
	for _, u := range users {
		assert.Equal(t, "hashed:"+DemoPassword, u.PasswordHash)
		if u.IsActive {
			active++
		}
	}
	assert.Equal(t, 3, active)
	assert.False(t, users[3].IsActive, "inactive account must stay inactive")

	var tasks []task.Task
	require.NoError(t, db.Find(&tasks).Error)
	assert.Len(t, tasks, len(demoTasks))
	for _, tk := range tasks {
		assert.True(t, tk.Status.Valid())
		assert.NotZero(t, tk.OwnerID)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	m := NewModule(db, plainHasher{}, &mockLogger{})

	seeded, err := m.Seed(context.Background())
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = m.Seed(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)

	var count int64
	require.NoError(t, db.Model(&user.User{}).Count(&count).Error)
	assert.EqualValues(t, 4, count)
}

func TestSeed_SkipsPopulatedDatabase(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&user.User{Email: "existing@example.com", PasswordHash: "x", IsActive: true}).Error)

	m := NewModule(db, plainHasher{}, &mockLogger{})
	seeded, err := m.Seed(context.Background())
	require.NoError(t, err)
	assert.False(t, seeded)

	var count int64
	require.NoError(t, db.Model(&task.Task{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSeed_HashFailure(t *testing.T) {
	db := setupTestDB(t)
	m := NewModule(db, plainHasher{err: errors.New("boom")}, &mockLogger{})

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to hash demo password")
}
