package services

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ekaya/yolda/models"
	"github.com/ekaya/yolda/pkg"
	"github.com/ekaya/yolda/repository"
)

// UserService interface'i — profil okuma ve admin moderasyon işlemleri.
type UserService interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	// ResolveUserID, token subject'i olan email'i kalıcı kullanıcı ID'sine
	// çevirir. Bloklu/pasif hesaplar pkg.ErrUnknownIdentity ile reddedilir —
	// WS handshake bu hatayı anonim bağlantıya düşürür.
	ResolveUserID(ctx context.Context, email string) (string, error)
	List(ctx context.Context) ([]models.User, error)
	SetBlocked(ctx context.Context, userID string, blocked bool) error
	// CreateWithRole, admin'in driver/admin hesabı açması. Register yolu
	// her zaman passenger üretir — yükseltilmiş roller buradan gelir.
	CreateWithRole(ctx context.Context, req *models.CreateUserRequest, role models.Role) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService, constructor.
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) ResolveUserID(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%w: %s", pkg.ErrUnknownIdentity, email)
	}
	if user.IsBlocked || !user.IsActive {
		return "", fmt.Errorf("%w: account disabled: %s", pkg.ErrUnknownIdentity, email)
	}
	return user.ID, nil
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) SetBlocked(ctx context.Context, userID string, blocked bool) error {
	return s.userRepo.SetBlocked(ctx, userID, blocked)
}

func (s *userService) CreateWithRole(ctx context.Context, req *models.CreateUserRequest, role models.Role) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	if _, err := models.ParseRole(string(role)); err != nil {
		return nil, fmt.Errorf("%w: invalid role", pkg.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Surname:      req.Surname,
		Phone:        req.Phone,
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}
