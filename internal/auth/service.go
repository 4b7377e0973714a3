package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-gpstracker/internal/db"
	"backend-gpstracker/internal/shared/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrPhoneTaken         = errors.New("phone number is already taken")
)

type Service struct {
	secret []byte
	ttl    time.Duration
	db     db.Querier
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

func NewService(secret string, ttl time.Duration, db db.Querier) *Service {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		db:     db,
	}
}

var (
	hashPasswordFn = bcrypt.GenerateFromPassword
	signTokenFn    = (*Service).signToken
)

func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	if req.Email == "" || req.FullName == "" || req.Password == "" {
		return User{}, fmt.Errorf("%w: email, full_name, password required", apperr.ErrValidation)
	}

	if taken, err := s.EmailTaken(ctx, req.Email); err != nil {
		return User{}, err
	} else if taken {
		return User{}, ErrEmailTaken
	}
	if req.Phone != "" {
		if taken, err := s.PhoneTaken(ctx, req.Phone); err != nil {
			return User{}, err
		} else if taken {
			return User{}, ErrPhoneTaken
		}
	}

	hash, err := hashPasswordFn([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		PasswordHash: string(hash),
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (id, email, full_name, phone, password_hash)
		VALUES ($1,$2,$3,NULLIF($4,''),$5)
		RETURNING created_at
	`, user.ID, user.Email, user.FullName, user.Phone, user.PasswordHash)
	if err := row.Scan(&user.CreatedAt); err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, full_name, COALESCE(phone,''), password_hash, created_at
		FROM users WHERE email = $1
	`, req.Email)

	var user User
	if err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.Phone, &user.PasswordHash, &user.CreatedAt); err != nil {
		return AuthResponse{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return AuthResponse{}, ErrInvalidCredentials
	}

	token, err := signTokenFn(s, user.ID)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		ExpiresIn: int64(s.ttl.Seconds()),
	}, nil
}

// ValidateToken returns the user id carried by a valid access token.
func (s *Service) ValidateToken(token string) (string, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *Service) EmailTaken(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email=$1)`, email)
}

func (s *Service) PhoneTaken(ctx context.Context, phone string) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE phone=$1)`, phone)
}

func (s *Service) exists(ctx context.Context, query string, arg any) (bool, error) {
	var ok bool
	if err := s.db.QueryRow(ctx, query, arg).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Service) signToken(userID string) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}
