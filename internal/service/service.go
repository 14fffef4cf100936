// Package service реализует бизнес-логику: создание первого администратора,
// вход и приём заявок на возврат.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmeshcher/claimdesk/internal/model"
	"github.com/mmeshcher/claimdesk/internal/repository"
	"github.com/mmeshcher/claimdesk/internal/validation"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	Ping(ctx context.Context) error
	CountUsers(ctx context.Context) (int64, error)
	CreateAdmin(ctx context.Context, email string, passwordHash []byte) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateClaim(ctx context.Context, c model.Claim) (*model.Claim, error)
}

// Service содержит бизнес-логику сервиса приёма возвратов.
type Service struct {
	repo  Repository
	newID func() string
}

// NewService создаёт новый сервис поверх указанного хранилища.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		newID: uuid.NewString,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

func storeError(err error) error {
	if errors.Is(err, repository.ErrStoreUnavailable) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// CheckUsersExist сообщает, создана ли хотя бы одна учётная запись.
func (s *Service) CheckUsersExist(ctx context.Context) (bool, error) {
	n, err := s.repo.CountUsers(ctx)
	if err != nil {
		return false, storeError(err)
	}
	return n > 0, nil
}

// CreateAdmin создаёт первого и единственного администратора.
// Подсчёт пользователей лишь даёт быструю понятную ошибку; единственность
// гарантирует ограничение хранилища.
func (s *Service) CreateAdmin(ctx context.Context, email, password string) error {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes long", ErrInvalidInput, MaxPasswordBytes)
	}

	exists, err := s.CheckUsersExist(ctx)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInitialized
	}

	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	if _, err := s.repo.CreateAdmin(ctx, email, hash); err != nil {
		if errors.Is(err, repository.ErrAdminExists) {
			return ErrAlreadyInitialized
		}
		return storeError(err)
	}
	return nil
}

// Login проверяет учётные данные. Неизвестный или пустой email и неверный
// или пустой пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, password string) (*model.Principal, error) {
	exists, err := s.CheckUsersExist(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrSystemUninitialized
	}

	u, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			checkPassword(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(err)
	}

	if !checkPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return &model.Principal{
		ID:      u.ID,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
	}, nil
}

// SubmitClaim проверяет и сохраняет заявку со статусом Pending.
func (s *Service) SubmitClaim(ctx context.Context, sub model.ClaimSubmission) (*model.Claim, error) {
	sub = trimSubmission(sub)
	if err := validation.Struct(sub); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	c := model.Claim{
		ID:                 s.newID(),
		OrderNumber:        sub.OrderNumber,
		Email:              sub.Email,
		Name:               sub.Name,
		Address:            sub.Address,
		PhoneNumber:        sub.PhoneNumber,
		Brand:              sub.Brand,
		ProblemDescription: sub.ProblemDescription,
		Status:             model.ClaimStatusPending,
	}

	created, err := s.repo.CreateClaim(ctx, c)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNumberExists) {
			return nil, ErrDuplicateOrderNumber
		}
		return nil, storeError(err)
	}
	return created, nil
}

func trimSubmission(sub model.ClaimSubmission) model.ClaimSubmission {
	return model.ClaimSubmission{
		OrderNumber:        strings.TrimSpace(sub.OrderNumber),
		Email:              strings.TrimSpace(sub.Email),
		Name:               strings.TrimSpace(sub.Name),
		Address:            strings.TrimSpace(sub.Address),
		PhoneNumber:        strings.TrimSpace(sub.PhoneNumber),
		Brand:              strings.TrimSpace(sub.Brand),
		ProblemDescription: strings.TrimSpace(sub.ProblemDescription),
	}
}
