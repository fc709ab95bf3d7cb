package services

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/tradejournal/brokergate/internal/models"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	Authenticate(username, password string) (models.User, error)
	GenerateToken(user models.User, secretKey []byte) (string, error)
	CreateUser(username, password, email, role string) (models.User, error)
}

// authService implements the AuthService interface over an in-memory user
// store scoped to the process lifetime
type authService struct {
	mu     sync.RWMutex
	nextID uint
	users  map[string]models.User
}

// NewAuthService creates a new authentication service with a default admin
// user so the API is usable out of the box
func NewAuthService() AuthService {
	s := &authService{
		nextID: 1,
		users:  make(map[string]models.User),
	}
	if _, err := s.CreateUser("admin", "admin", "admin@localhost", "admin"); err == nil {
		log.Println("Created default admin user")
	}
	return s
}

// CreateUser adds a user with a bcrypt-hashed password
func (s *authService) CreateUser(username, password, email, role string) (models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return models.User{}, errors.New("username already taken")
	}

	user := models.User{
		ID:             s.nextID,
		Username:       username,
		HashedPassword: string(hashed),
		Email:          email,
		Role:           role,
	}
	s.nextID++
	s.users[username] = user
	return user, nil
}

// Authenticate verifies user credentials and returns the user if valid
func (s *authService) Authenticate(username, password string) (models.User, error) {
	s.mu.RLock()
	user, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return models.User{}, errors.New("user not found")
	}

	// Check password
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return models.User{}, err
	}

	return user, nil
}

// GenerateToken creates a new JWT token for the user
func (s *authService) GenerateToken(user models.User, secretKey []byte) (string, error) {
	expirationTime := time.Now().Add(60 * time.Minute)
	claims := &models.Claims{
		Username: user.Username,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expirationTime.Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
