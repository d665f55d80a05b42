// Package gcp builds the Google Cloud and Firebase clients shared by the server.
package gcp

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"github.com/shinyyama/fleamarket-backend/internal/config"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// ClientOptions returns the options every Google client should be created with.
func ClientOptions(cfg *config.Config) []option.ClientOption {
	if cfg.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
}

// ProjectID returns the configured project, or the one of the default credentials.
func ProjectID(ctx context.Context, cfg *config.Config) string {
	if cfg.FirebaseProjectID != "" {
		return cfg.FirebaseProjectID
	}
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		log.Printf("[gcp] no default credentials: %v", err)
		return ""
	}
	return creds.ProjectID
}

// NewApp initialises the Firebase app used for auth, firestore and storage.
func NewApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	fcfg := &firebase.Config{ProjectID: ProjectID(ctx, cfg)}
	if cfg.StorageBucket != "" {
		fcfg.StorageBucket = cfg.StorageBucket
	}
	app, err := firebase.NewApp(ctx, fcfg, ClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	log.Printf("[gcp] firebase app ready project=%s", fcfg.ProjectID)
	return app, nil
}
