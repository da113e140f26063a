package service

import (
	"context"
	"strings"

	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/auth"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/lshigami/Assessa/internal/repository"
	"github.com/rs/zerolog/log"
)

const invalidCredentials = "invalid email or password"

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Me(ctx context.Context, userID uint) (*dto.UserResponse, error)
}

type authService struct {
	userRepo       repository.UserRepository
	assignmentRepo repository.AssignmentRepository
	tokens         *auth.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, assignmentRepo repository.AssignmentRepository, tokens *auth.TokenManager) AuthService {
	return &authService{userRepo: userRepo, assignmentRepo: assignmentRepo, tokens: tokens}
}

// Register hashes every password with bcrypt regardless of role.
func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" {
		return nil, apperror.Validation("name and email are required")
	}
	if len(req.Password) < 6 {
		return nil, apperror.Validation("password must be at least 6 characters")
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		return nil, apperror.Validation("password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	role := model.Role(strings.ToLower(req.Role))
	if role == "" {
		role = model.RoleCandidate
	}
	if !role.Valid() {
		return nil, apperror.Validation("role must be hr or candidate")
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, apperror.Validation("user already exists")
	} else if !repository.IsNotFound(err) {
		return nil, apperror.Internal(err, "failed to check user")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Internal(err, "failed to hash password")
	}
	user := &model.User{Name: name, Email: email, PasswordHash: hash, Role: role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apperror.Validation("user already exists")
		}
		log.Error().Err(err).Str("email", email).Msg("Failed to create user")
		return nil, apperror.Internal(err, "failed to register user")
	}

	if role == model.RoleCandidate {
		linked, err := s.assignmentRepo.LinkCandidateByEmail(ctx, email, user.ID)
		if err != nil {
			log.Warn().Err(err).Uint("userID", user.ID).Msg("Failed to link pending invitations")
		} else if linked > 0 {
			log.Info().Uint("userID", user.ID).Int64("assignments", linked).Msg("Linked invitations to new candidate")
		}
	}

	log.Info().Uint("userID", user.ID).Str("role", string(role)).Msg("User registered")
	return s.respond(user)
}

// Login answers the same error for an unknown email and a wrong password.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, apperror.Internal(err, "failed to load user")
	}
	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		log.Warn().Err(err).Uint("userID", user.ID).Msg("Stored password hash is unreadable")
		return nil, apperror.Unauthorized(invalidCredentials)
	}
	if !ok {
		return nil, apperror.Unauthorized(invalidCredentials)
	}
	return s.respond(user)
}

func (s *authService) Me(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "failed to load user")
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) respond(user *model.User) (*dto.AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperror.Internal(err, "failed to issue token")
	}
	return &dto.AuthResponse{Token: token, Role: string(user.Role), User: toUserResponse(user)}, nil
}
