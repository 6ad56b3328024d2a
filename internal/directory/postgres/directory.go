package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/frahmantamala/org-chat/internal/directory"
	"gorm.io/gorm"
)

// UserRecord is the storage shape of a directory user. Role is kept as the
// raw stored string and normalized on the way out.
type UserRecord struct {
	ID           string    `gorm:"primaryKey;column:id"`
	FirstName    string    `gorm:"column:first_name;not null"`
	LastName     string    `gorm:"column:last_name"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	EmployeeID   string    `gorm:"column:employee_id"`
	PasswordHash string    `gorm:"column:password_hash"`
	Role         string    `gorm:"column:role;not null"`
	DepartmentID string    `gorm:"column:department_id;index"`
	AvatarURL    string    `gorm:"column:avatar_url"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (UserRecord) TableName() string {
	return "users"
}

type DepartmentRecord struct {
	ID   string `gorm:"primaryKey;column:id"`
	Name string `gorm:"column:name;not null"`
}

func (DepartmentRecord) TableName() string {
	return "departments"
}

type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) directory.RepositoryAPI {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) GetUser(ctx context.Context, id string) (*directory.User, error) {
	var rec UserRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, directory.ErrUserNotFound
		}
		return nil, err
	}
	return r.toUser(ctx, &rec), nil
}

func (r *DirectoryRepository) GetUserByEmail(ctx context.Context, email string) (*directory.User, error) {
	var rec UserRecord
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, directory.ErrUserNotFound
		}
		return nil, err
	}
	return r.toUser(ctx, &rec), nil
}

func (r *DirectoryRepository) GetPasswordForEmail(ctx context.Context, email string) (string, string, error) {
	var rec UserRecord
	err := r.db.WithContext(ctx).Select("id", "password_hash").Where("email = ?", email).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", "", directory.ErrUserNotFound
		}
		return "", "", err
	}
	return rec.PasswordHash, rec.ID, nil
}

func (r *DirectoryRepository) GetDepartment(ctx context.Context, id string) (*directory.Department, error) {
	var rec DepartmentRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, directory.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &directory.Department{ID: rec.ID, Name: rec.Name}, nil
}

func (r *DirectoryRepository) DepartmentHeads(ctx context.Context, departmentID string) ([]*directory.User, error) {
	var recs []UserRecord
	err := r.db.WithContext(ctx).
		Where("department_id = ? AND role = ?", departmentID, string(directory.RoleDepartmentHead)).
		Order("first_name ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return r.toUsers(ctx, recs), nil
}

func (r *DirectoryRepository) DepartmentEmployees(ctx context.Context, departmentID string) ([]*directory.User, error) {
	var recs []UserRecord
	err := r.db.WithContext(ctx).
		Where("department_id = ? AND LOWER(role) = ?", departmentID, "employee").
		Order("first_name ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return r.toUsers(ctx, recs), nil
}

func (r *DirectoryRepository) SearchUsers(ctx context.Context, query string, limit int) ([]*directory.User, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var recs []UserRecord
	err := r.db.WithContext(ctx).
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(employee_id) LIKE ?",
			pattern, pattern, pattern).
		Order("first_name ASC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return r.toUsers(ctx, recs), nil
}

func (r *DirectoryRepository) toUser(ctx context.Context, rec *UserRecord) *directory.User {
	user := &directory.User{
		ID:           rec.ID,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		Email:        rec.Email,
		EmployeeID:   rec.EmployeeID,
		Role:         directory.ParseRole(rec.Role),
		DepartmentID: rec.DepartmentID,
		AvatarURL:    rec.AvatarURL,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
	if rec.DepartmentID != "" {
		var dept DepartmentRecord
		if err := r.db.WithContext(ctx).Where("id = ?", rec.DepartmentID).First(&dept).Error; err == nil {
			user.DepartmentName = dept.Name
		}
	}
	return user
}

func (r *DirectoryRepository) toUsers(ctx context.Context, recs []UserRecord) []*directory.User {
	users := make([]*directory.User, len(recs))
	for i := range recs {
		users[i] = r.toUser(ctx, &recs[i])
	}
	return users
}
