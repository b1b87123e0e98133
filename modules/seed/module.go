// Package seed fills an empty database with demo users and tasks.
package seed

import (
	"context"
	"fmt"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "admin123"

// Hasher produces the stored form of a password.
type Hasher interface {
	Hash(password string) (string, error)
}

type demoUser struct {
	email    string
	fullName string
	active   bool
}

var demoUsers = []demoUser{
	{"admin@example.com", "Admin User", true},
	{"alice@example.com", "Alice Johnson", true},
	{"bob@example.com", "Bob Smith", true},
	{"inactive@example.com", "Inactive User", false},
}

type demoTask struct {
	title       string
	description string
	status      task.Status
	priority    task.Priority
	owner       int
	assignee    int // -1 for none
}

var demoTasks = []demoTask{
	{"Set up CI pipeline", "Run tests and lint on every push", task.StatusDone, task.PriorityHigh, 0, 1},
	{"Design task board", "Columns follow the workflow states", task.StatusReview, task.PriorityMedium, 1, 2},
	{"Write API docs", "Document every endpoint and error code", task.StatusInProgress, task.PriorityMedium, 1, 1},
	{"Fix login timeout", "Sessions expire too early on mobile", task.StatusTodo, task.PriorityUrgent, 2, 0},
	{"Plan Q3 roadmap", "", task.StatusTodo, task.PriorityLow, 0, -1},
}

// SeedModule inserts demo data at start when the users table is empty.
type SeedModule struct {
	db     *gorm.DB
	hasher Hasher
	logger types.Logger
}

var _ mono.Module = (*SeedModule)(nil)

// NewModule creates a new SeedModule.
func NewModule(db *gorm.DB, hasher Hasher, logger types.Logger) *SeedModule {
	return &SeedModule{
		db:     db,
		hasher: hasher,
		logger: logger.WithModule("seed"),
	}
}

func (m *SeedModule) Name() string {
	return "seed"
}

// Start seeds the database. It does nothing when any user exists.
func (m *SeedModule) Start(ctx context.Context) error {
	seeded, err := m.Seed(ctx)
	if err != nil {
		return err
	}
	if !seeded {
		m.logger.Info("Database already populated, skipping demo data")
		return nil
	}
	m.logger.Info("Demo data seeded", "users", len(demoUsers), "tasks", len(demoTasks))
	return nil
}

func (m *SeedModule) Stop(_ context.Context) error {
	return nil
}

// Seed inserts the demo data in one transaction and reports whether it did.
func (m *SeedModule) Seed(ctx context.Context) (bool, error) {
	var count int64
	if err := m.db.WithContext(ctx).Model(&user.User{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	hash, err := m.hasher.Hash(DemoPassword)
	if err != nil {
		return false, fmt.Errorf("failed to hash demo password: %w", err)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make([]*user.User, len(demoUsers))
		for i, du := range demoUsers {
			name := du.fullName
			users[i] = &user.User{
				Email:        du.email,
				PasswordHash: hash,
				FullName:     &name,
				IsActive:     du.active,
			}
			if err := tx.Create(users[i]).Error; err != nil {
				return fmt.Errorf("failed to create user %s: %w", du.email, err)
			}
		}

		for _, dt := range demoTasks {
			t := &task.Task{
				Title:    dt.title,
				Status:   dt.status,
				Priority: dt.priority,
				OwnerID:  users[dt.owner].ID,
			}
			if dt.description != "" {
				desc := dt.description
				t.Description = &desc
			}
			if dt.assignee >= 0 {
				id := users[dt.assignee].ID
				t.AssigneeID = &id
			}
			if err := tx.Omit("Owner", "Assignee").Create(t).Error; err != nil {
				return fmt.Errorf("failed to create task %q: %w", dt.title, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
