package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	BlobOpUpload   = "put"
	BlobOpDownload = "get"

	blobIssuer = "vaultify-blobs"
)

type BlobClaims struct {
	Path string `json:"path"`
	Op   string `json:"op"`
	jwt.RegisteredClaims
}

// LocalBlobStore serves LocalStorage through signed URLs of the form
// <publicURL>/api/blobs/<token>. The token pins one path and one operation.
type LocalBlobStore struct {
	files     *LocalStorage
	publicURL string
	secret    []byte
}

func NewLocalBlobStore(files *LocalStorage, publicURL, secret string) (*LocalBlobStore, error) {
	if secret == "" {
		return nil, errors.New("blob signing secret is required")
	}
	if _, err := url.Parse(publicURL); err != nil {
		return nil, fmt.Errorf("parse public url: %w", err)
	}
	return &LocalBlobStore{
		files:     files,
		publicURL: strings.TrimRight(publicURL, "/"),
		secret:    []byte(secret),
	}, nil
}

var _ BlobStore = (*LocalBlobStore)(nil)

func (s *LocalBlobStore) Files() *LocalStorage {
	return s.files
}

func (s *LocalBlobStore) sign(path, op string, ttl time.Duration) (string, error) {
	if _, err := s.files.resolve(path); err != nil {
		return "", err
	}
	now := time.Now()
	claims := &BlobClaims{
		Path: path,
		Op:   op,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    blobIssuer,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return s.publicURL + "/api/blobs/" + token, nil
}

func (s *LocalBlobStore) PresignUpload(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return s.sign(path, BlobOpUpload, ttl)
}

func (s *LocalBlobStore) PresignDownload(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return s.sign(path, BlobOpDownload, ttl)
}

func (s *LocalBlobStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.files.Delete(path)
}

// Verify checks a token minted by PresignUpload or PresignDownload and that
// it was issued for op.
func (s *LocalBlobStore) Verify(token, op string) (*BlobClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &BlobClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithIssuer(blobIssuer))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*BlobClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrInvalidKey
	}
	if claims.Op != op {
		return nil, fmt.Errorf("token issued for %q, not %q", claims.Op, op)
	}
	return claims, nil
}
