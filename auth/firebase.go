// Package auth signs shoppers in with a Google ID token (verified through
// Firebase) and hands out the API's own JWTs.
package auth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go"
	fbauth "firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

var ErrInvalidIDToken = errors.New("invalid or revoked ID token")

// Identity is what a verified ID token says about the caller.
type Identity struct {
	UID     string
	Email   string
	Name    string
	Picture string
}

// TokenVerifier checks a client-side ID token.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

type FirebaseVerifier struct {
	client    *fbauth.Client
	projectID string
}

// NewFirebaseVerifier builds a Firebase app from the service-account JSON.
func NewFirebaseVerifier(ctx context.Context, credentialsJSON, projectID string) (*FirebaseVerifier, error) {
	if credentialsJSON == "" || projectID == "" {
		return nil, errors.New("FIREBASE_CREDENTIALS_JSON and FIREBASE_PROJECT_ID must be set")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON([]byte(credentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting firebase auth client: %w", err)
	}
	return &FirebaseVerifier{client: client, projectID: projectID}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (Identity, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	if token.Audience != v.projectID {
		return Identity{}, fmt.Errorf("%w: audience %q", ErrInvalidIDToken, token.Audience)
	}

	email, _ := token.Claims["email"].(string)
	if email == "" {
		return Identity{}, fmt.Errorf("%w: no email claim", ErrInvalidIDToken)
	}
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)
	return Identity{UID: token.UID, Email: email, Name: name, Picture: picture}, nil
}
