package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/models"
	"storefront/repository"
	"storefront/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserController handles user-related requests
type UserController struct {
	Users     repository.UserStore
	Tokens    *utils.TokenIssuer
	Mailer    utils.Mailer
	PublicURL string
	Timeout   time.Duration
	Log       *logrus.Logger
}

// NewUserController creates a new UserController
func NewUserController(users repository.UserStore, tokens *utils.TokenIssuer, mailer utils.Mailer, publicURL string, timeout time.Duration, logger *logrus.Logger) *UserController {
	return &UserController{
		Users:     users,
		Tokens:    tokens,
		Mailer:    mailer,
		PublicURL: publicURL,
		Timeout:   timeout,
		Log:       logger,
	}
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, uc.Log, err)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !strings.Contains(req.Email, "@") {
		fail(w, http.StatusBadRequest, "Please enter a valid email")
		return
	}
	if len(req.Password) < minPasswordLength {
		fail(w, http.StatusBadRequest, "Please enter a strong password")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, uc.Log, err)
		return
	}
	user := models.User{
		ID:       primitive.NewObjectID(),
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}
	// Opaque, so it is never accepted as a bearer token.
	user.VerificationToken = uuid.NewString()

	ctx, cancel := context.WithTimeout(r.Context(), uc.Timeout)
	defer cancel()
	if err := uc.Users.Create(ctx, &user); err != nil {
		writeError(w, uc.Log, err)
		return
	}

	if err := utils.SendVerificationEmail(uc.Mailer, uc.PublicURL, user.Email, user.VerificationToken); err != nil {
		uc.Log.WithError(err).WithField("user_id", user.ID.Hex()).Warn("Failed to send verification email")
	}
	writeJSON(w, http.StatusCreated, envelope{
		"success": true,
		"message": "User registered successfully. Please check your email to verify your account.",
	})
}

// VerifyEmail handles email verification
func (uc *UserController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		fail(w, http.StatusBadRequest, "Verification token missing")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), uc.Timeout)
	defer cancel()
	user, err := uc.Users.GetByVerificationToken(ctx, token)
	if err != nil {
		fail(w, http.StatusBadRequest, "User not found or already verified")
		return
	}
	if err := uc.Users.MarkVerified(ctx, user.ID); err != nil {
		writeError(w, uc.Log, err)
		return
	}
	ok(w, envelope{"message": "Email verified successfully. You can now log in."})
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &creds); err != nil {
		writeError(w, uc.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), uc.Timeout)
	defer cancel()
	user, err := uc.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		var nf *models.NotFoundError
		if errors.As(err, &nf) {
			fail(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeError(w, uc.Log, err)
		return
	}
	if !user.IsVerified {
		fail(w, http.StatusUnauthorized, "Email not verified")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := uc.Tokens.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		writeError(w, uc.Log, err)
		return
	}
	ok(w, envelope{"token": token})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, found := currentUserID(r)
	if !found {
		fail(w, http.StatusUnauthorized, "Could not parse user from context")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), uc.Timeout)
	defer cancel()

	user, err := uc.Users.GetByID(ctx, userID)
	if err != nil {
		writeError(w, uc.Log, err)
		return
	}
	user.Password = ""
	ok(w, envelope{"user": user})
}
