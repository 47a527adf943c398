package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	pkgerrors "github.com/mariellesantos/floracart-backend/pkg/errors"
)

const maxUploadBytes = 10 * 1024 * 1024

// UploadKind names the storefront surfaces a file can be uploaded for.
type UploadKind string

const (
	// KindReceipt is a GCash or bank transfer payment proof.
	KindReceipt UploadKind = "receipt"
	// KindReference is an inspiration photo attached to a custom request.
	KindReference UploadKind = "reference"
	// KindProduct is a catalog listing photo, admin only.
	KindProduct UploadKind = "product"
	// KindContent is an image embedded in a CMS block, admin only.
	KindContent UploadKind = "content"
)

var validKinds = []UploadKind{KindReceipt, KindReference, KindProduct, KindContent}

// IsValid reports whether the value is a known UploadKind.
func (k UploadKind) IsValid() bool {
	for _, candidate := range validKinds {
		if k == candidate {
			return true
		}
	}
	return false
}

// AdminOnly reports whether only staff may upload files of this kind.
func (k UploadKind) AdminOnly() bool {
	return k == KindProduct || k == KindContent
}

var mimeTypesByKind = map[UploadKind][]string{
	KindReceipt:   {"image/png", "image/jpeg", "image/webp", "application/pdf"},
	KindReference: {"image/png", "image/jpeg", "image/webp"},
	KindProduct:   {"image/png", "image/jpeg", "image/webp"},
	KindContent:   {"image/png", "image/jpeg", "image/webp", "image/gif"},
}

type signer interface {
	SignedUploadURL(objectName, contentType string, expires time.Duration) (string, error)
	ObjectURL(objectName string) string
}

// PresignInput models the payload required to request an upload URL.
type PresignInput struct {
	Kind      UploadKind
	MimeType  string
	FileName  string
	SizeBytes int64
}

// PresignOutput is handed back to the client so it can PUT the file and
// then reference it by its public URL.
type PresignOutput struct {
	ObjectKey    string    `json:"object_key"`
	SignedPUTURL string    `json:"signed_put_url"`
	PublicURL    string    `json:"public_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Service exposes upload-presign semantics.
type Service interface {
	PresignUpload(ctx context.Context, userID uuid.UUID, isAdmin bool, input PresignInput) (*PresignOutput, error)
}

type service struct {
	gcs       signer
	uploadTTL time.Duration
}

// NewService constructs a media service backed by the provided GCS signer.
func NewService(gcs signer, uploadTTL time.Duration) (Service, error) {
	if gcs == nil {
		return nil, fmt.Errorf("gcs client required")
	}
	if uploadTTL <= 0 {
		return nil, fmt.Errorf("upload ttl must be positive")
	}
	return &service{gcs: gcs, uploadTTL: uploadTTL}, nil
}

func (s *service) PresignUpload(ctx context.Context, userID uuid.UUID, isAdmin bool, input PresignInput) (*PresignOutput, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid upload kind")
	}
	if input.Kind.AdminOnly() && !isAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "upload kind reserved for staff")
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be at most %d bytes", maxUploadBytes))
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type is required")
	}
	if !isAllowedMime(input.Kind, mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type not allowed for upload kind")
	}

	objectKey := buildObjectKey(input.Kind, userID, fileName)
	expiresAt := time.Now().Add(s.uploadTTL)

	signedURL, err := s.gcs.SignedUploadURL(objectKey, mimeType, s.uploadTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		ObjectKey:    objectKey,
		SignedPUTURL: signedURL,
		PublicURL:    s.gcs.ObjectURL(objectKey),
		ContentType:  mimeType,
		ExpiresAt:    expiresAt,
	}, nil
}

func isAllowedMime(kind UploadKind, mimeType string) bool {
	for _, candidate := range mimeTypesByKind[kind] {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildObjectKey(kind UploadKind, userID uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	id := uuid.New()
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("uploads/%s/%s/%s-%s", kind, userID.String(), id.String()[:8], cleanName)
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-.")
}
