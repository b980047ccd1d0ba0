package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const LocalUserID = "user_id"

// JwtMiddleware rejects requests without a valid bearer token and stores the
// user_id claim in ctx.Locals.
func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
		}

		userID, err := parseUserID(authHeader[7:], secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		}

		ctx.Locals(LocalUserID, userID)
		return ctx.Next()
	}
}

// OptionalJwtMiddleware attaches user_id when a valid token is present and
// lets anonymous requests through.
func OptionalJwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			if userID, err := parseUserID(authHeader[7:], secret); err == nil {
				ctx.Locals(LocalUserID, userID)
			}
		}
		return ctx.Next()
	}
}

func parseUserID(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidClaims
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errInvalidClaims
	}
	return userID, nil
}

var (
	errInvalidToken  = fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	errInvalidClaims = fiber.NewError(fiber.StatusUnauthorized, "Invalid claims")
)
