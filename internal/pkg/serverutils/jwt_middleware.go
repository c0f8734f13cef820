package serverutils

import (
	"fmt"
	"strings"

	"cv-evaluator-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const userIdLocal = "user_id"

// JwtMiddleware binds the asserted userId to a verified identity when a
// secret is configured. With an empty secret every request passes through
// and the userId in the request is trusted as-is.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}

		authHeader := ctx.Get(fiber.HeaderAuthorization)
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenStr == "" {
			return apperror.Unauthorized("Missing token")
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return apperror.Unauthorized("Invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return apperror.Unauthorized("Invalid claims")
		}
		userId, _ := claims[userIdLocal].(string)
		if userId == "" {
			return apperror.Unauthorized("Invalid claims")
		}

		ctx.Locals(userIdLocal, userId)
		return ctx.Next()
	}
}

// AssertOwner rejects a request whose asserted userId differs from the token
// identity. Without a verified identity it accepts anything.
func AssertOwner(ctx *fiber.Ctx, userId string) error {
	verified, ok := ctx.Locals(userIdLocal).(string)
	if !ok || verified == "" {
		return nil
	}
	if verified != userId {
		return apperror.Unauthorized("userId does not match token")
	}
	return nil
}
