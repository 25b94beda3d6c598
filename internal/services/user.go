package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/social-media/social-backend/internal/models"
	"github.com/social-media/social-backend/internal/repository"
	"github.com/social-media/social-backend/pkg/logger"
	"github.com/social-media/social-backend/pkg/queue"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost factor for stored passwords.
const passwordHashCost = 10

type UserService struct {
	userRepo  *repository.UserRepository
	graph     *FollowService
	feedCache FeedCache
	producer  queue.Publisher
	logger    *logger.Logger
}

func NewUserService(userRepo *repository.UserRepository, graph *FollowService, feedCache FeedCache, producer queue.Publisher, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo:  userRepo,
		graph:     graph,
		feedCache: feedCache,
		producer:  producer,
		logger:    logger,
	}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest fields left nil are not touched.
type UpdateProfileRequest struct {
	FullName       *string `json:"full_name"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profile_picture"`
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (uint, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return 0, ErrMissingFields
	}

	// 检查用户名或邮箱是否已存在
	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return 0, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return 0, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordHashCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName = username
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		FullName: fullName,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, ErrUserExists
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventUserCreated, user.ID, nil))

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return user.ID, nil
}

// Login returns the same error for an unknown email and a wrong password.
func (s *UserService) Login(ctx context.Context, req *LoginRequest) (uint, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return 0, ErrMissingCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return 0, ErrInvalidCredentials
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return user.ID, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	followers, err := s.graph.CountFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	following, err := s.graph.CountFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &models.Profile{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		FullName:       user.FullName,
		Bio:            user.Bio,
		ProfilePicture: user.ProfilePicture,
		CreatedAt:      user.CreatedAt,
		FollowersCount: followers,
		FollowingCount: following,
	}, nil
}

// UpdateProfile lets a user edit only their own profile.
func (s *UserService) UpdateProfile(ctx context.Context, actorID, userID uint, req *UpdateProfileRequest) error {
	if !isOwner(&models.User{ID: userID}, actorID) {
		return ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	fields := map[string]interface{}{}
	if req.FullName != nil {
		fields["full_name"] = *req.FullName
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.ProfilePicture != nil {
		fields["profile_picture"] = *req.ProfilePicture
	}
	if len(fields) == 0 {
		return nil
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, fields); err != nil {
		return err
	}

	// feed rows embed the author's name and picture
	s.feedCache.Invalidate(ctx)
	publishEvent(ctx, s.producer, s.logger, queue.NewEvent(queue.EventUserUpdated, userID, nil))

	s.logger.WithField("user_id", userID).Info("User updated successfully")
	return nil
}
