package utils

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kataras/iris/v12"
)

// Firebase publishes the signing keys for ID tokens as a JWK set. When
// FIREBASE_PROJECT_ID is unset the verifier stays nil and VerifyIdentity is a
// pass-through, preserving the legacy trust-the-caller-uid model.
const firebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

var identityJWKS *keyfunc.JWKS

func InitializeIdentityVerifier() {
	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	if projectID == "" {
		log.Println("⚠️  FIREBASE_PROJECT_ID not set, identity verification disabled (legacy trust mode)")
		return
	}

	jwks, err := keyfunc.Get(firebaseJWKSURL, keyfunc.Options{
		RefreshInterval:  time.Hour,
		RefreshRateLimit: time.Minute * 5,
		RefreshErrorHandler: func(err error) {
			log.Println("❌ Failed to refresh identity JWKS:", err)
		},
	})
	if err != nil {
		log.Panic("failed to load identity provider JWKS: " + err.Error())
	}

	identityJWKS = jwks
	log.Println("🔐 Identity verification enabled for project:", projectID)
}

// VerifyIdentity checks the Bearer ID token when verification is enabled and
// stores the verified uid in the request context.
func VerifyIdentity(ctx iris.Context) {
	if identityJWKS == nil {
		ctx.Next()
		return
	}

	header := ctx.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		CreateError(iris.StatusUnauthorized, "Unauthorized", "Missing Bearer token", ctx)
		return
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")
	token, err := jwt.Parse(tokenString, identityJWKS.Keyfunc,
		jwt.WithAudience(os.Getenv("FIREBASE_PROJECT_ID")),
		jwt.WithIssuer("https://securetoken.google.com/"+os.Getenv("FIREBASE_PROJECT_ID")),
	)
	if err != nil || !token.Valid {
		CreateError(iris.StatusUnauthorized, "Unauthorized", "Invalid identity token", ctx)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		CreateError(iris.StatusUnauthorized, "Unauthorized", "Invalid identity token", ctx)
		return
	}

	uid, _ := claims["user_id"].(string)
	if uid == "" {
		uid, _ = claims["sub"].(string)
	}

	ctx.Values().Set("authUID", uid)
	ctx.Next()
}

// UIDAllowed reports whether the caller may act as the given uid. Always true
// in legacy trust mode.
func UIDAllowed(ctx iris.Context, uid string) bool {
	if identityJWKS == nil {
		return true
	}
	return ctx.Values().GetString("authUID") == uid
}
