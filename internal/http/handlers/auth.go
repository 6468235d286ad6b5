package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagedesk/blogapi/internal/auth"
	"github.com/pagedesk/blogapi/internal/config"
	"github.com/pagedesk/blogapi/internal/domain/user"
	"github.com/pagedesk/blogapi/internal/repo/postgres"
	"github.com/pagedesk/blogapi/internal/security"
)

type UserReader interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, username, passwordHash string) (user.User, error)
}

// CaptchaVerifier is the bot gate. A nil error admits the request.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	jwt        *auth.Manager
	captcha    CaptchaVerifier
}

func NewAuthHandler(users UserReader, userWriter UserWriter, jwtManager *auth.Manager, captcha CaptchaVerifier) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwtManager,
		captcha:    captcha,
	}
}

type LoginRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	CaptchaToken string `json:"captchaToken"`
}

type VerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	// bcrypt only hashes the first 72 bytes, so longer passwords are
	// rejected up front instead of silently truncated
	Password string `json:"password" binding:"required,min=8,max=72"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bot gate runs before anything touches the database
	err := h.captcha.Verify(ctx.Request.Context(), req.CaptchaToken, ctx.ClientIP())

	if err != nil {
		RespondBadRequest(ctx, "Captcha verification failed", nil)
		return
	}

	// short timeout for the DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByUsername(cctx, req.Username)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			// same response as a wrong password, so usernames cannot be enumerated
			RespondUnauthorized(ctx, "invalid_credentials", "Username or password is incorrect.")
			return
		}

		RespondInternal(ctx, "Could not sign in")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Username or password is incorrect.")
		return
	}

	token, err := h.jwt.GenerateAccessToken(foundUser.ID, foundUser.Username)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
	})
}

// Verify is the introspection endpoint: it reports token validity instead of
// gating anything, so an invalid token is a 200 with valid=false, never an
// auth failure.
func (h *AuthHandler) Verify(ctx *gin.Context) {
	var req VerifyRequest

	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.jwt.VerifyAccessToken(req.Token)

	if err != nil {
		ctx.JSON(http.StatusOK, gin.H{
			"valid": false,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"valid": true,
		"identity": gin.H{
			"username": claims.Username,
		},
	})
}

func (h *AuthHandler) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.userWriter.Create(cctx, req.Username, hash)

	if err != nil {
		if errors.Is(err, postgres.ErrUsernameTaken) {
			RespondConflict(ctx, "username_taken", "Username is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User created",
		"userId":  u.ID,
	})
}
