package store

import (
	"context"
	"errors"

	"github.com/junaidrashid-git/storefront/models"
	"gorm.io/gorm"
)

// UpsertUser creates the user on first sign-in or refreshes name/picture.
// An existing role is never downgraded here.
func (s *Store) UpsertUser(ctx context.Context, u *models.User) error {
	var existing models.User
	err := s.conn(ctx).Where("id = ?", u.ID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if u.Role == "" {
			u.Role = models.RoleUser
		}
		return s.conn(ctx).Create(u).Error
	}
	if err != nil {
		return err
	}

	updates := models.User{Name: u.Name, Picture: u.Picture}
	if u.Role == models.RoleSuperAdmin {
		updates.Role = models.RoleSuperAdmin
	}
	if err := s.conn(ctx).Model(&existing).Updates(updates).Error; err != nil {
		return err
	}
	return s.conn(ctx).First(u, "id = ?", u.ID).Error
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.conn(ctx).First(&user, "id = ?", id).Error
	return user, err
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.conn(ctx).
		Select("id", "email", "name", "picture", "provider", "role", "created_at").
		Order("created_at desc").
		Find(&users).Error
	return users, err
}

func (s *Store) UpdateUser(ctx context.Context, id string, updates map[string]interface{}) (models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, "id = ?", id).Error; err != nil {
		return user, err
	}
	if len(updates) > 0 {
		if err := s.conn(ctx).Model(&user).Updates(updates).Error; err != nil {
			return user, err
		}
	}
	err := s.conn(ctx).First(&user, "id = ?", id).Error
	return user, err
}

func (s *Store) SetUserRole(ctx context.Context, id string, role models.Role) error {
	result := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) CreateGuest(ctx context.Context, g *models.GuestUser) error {
	return s.conn(ctx).Create(g).Error
}

// ListAdmins returns users holding an admin role.
func (s *Store) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.conn(ctx).
		Where("role IN ?", []models.Role{models.RoleAdmin, models.RoleSuperAdmin}).
		Order("created_at desc").
		Find(&users).Error
	return users, err
}
