package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

// The token can carry the user id under different claim names depending on
// which identity provider of the platform issued it; first match wins.
func claimNames() []string {
	if names := viper.GetStringSlice("auth.claim_names"); len(names) > 0 {
		return names
	}
	return []string{"user_id", "sub", "uid", "nameid"}
}

func authMiddleware(c *fiber.Ctx) error {
	tk := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if len(tk) == 0 {
		tk = c.Query("tk")
	}
	if len(tk) == 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}

	claims, err := parseToken(tk)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}

	userID := firstClaim(claims, claimNames())
	if len(userID) == 0 {
		return fiber.NewError(fiber.StatusUnauthorized, "token carries no resolvable identity")
	}

	c.Locals("principal", userID)
	c.Locals("principal_name", firstClaim(claims, []string{"name", "preferred_username"}))
	c.Locals("client_ip", c.IP())
	c.Locals("user_agent", c.Get(fiber.HeaderUserAgent))

	return c.Next()
}

func parseToken(tk string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tk, func(t *jwt.Token) (any, error) {
		return []byte(viper.GetString("auth.secret")), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func firstClaim(claims jwt.MapClaims, names []string) string {
	for _, name := range names {
		switch val := claims[name].(type) {
		case string:
			if len(val) > 0 {
				return val
			}
		case float64:
			return strconv.FormatInt(int64(val), 10)
		}
	}
	return ""
}
