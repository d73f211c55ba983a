package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/graderly/core/user"
)

const contextClaimsKey = "claims"

// authMiddleware rejects requests without a valid bearer token and stores its claims in the echo.Context.
func authMiddleware(auth *user.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := auth.VerifyToken(ctx.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return err
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (user.Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(user.Claims); ok {
		return claims, nil
	}
	return user.Claims{}, errUnauthorized
}

func getContextPrincipal(ctx echo.Context) (user.Principal, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.Principal{}, err
	}
	return claims.Principal(), nil
}
