package serverutils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingToken = errors.New("missing token")

// JwtMiddleware accepts the token from the Authorization header and
// stores the user_id claim in ctx.Locals.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		userId, err := ParseUserToken(secret, authHeader[7:])
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}

		ctx.Locals("user_id", userId)
		return ctx.Next()
	}
}

// ParseUserToken validates an HS256 token and returns its user_id claim.
func ParseUserToken(secret, tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", ErrMissingToken
	}
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	userId, ok := claims["user_id"].(string)
	if !ok || userId == "" {
		return "", errors.New("token has no user_id")
	}
	return userId, nil
}

// IssueUserToken signs a token for the desktop shell and the CLI.
func IssueUserToken(secret, userId string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userId,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
