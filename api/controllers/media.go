package controllers

import (
	"net/http"
	"strings"

	"github.com/mariellesantos/floracart-backend/api/middleware"
	"github.com/mariellesantos/floracart-backend/api/responses"
	"github.com/mariellesantos/floracart-backend/api/validators"
	"github.com/mariellesantos/floracart-backend/internal/media"
	"github.com/mariellesantos/floracart-backend/pkg/enums"
	"github.com/mariellesantos/floracart-backend/pkg/logger"
)

type mediaPresignRequest struct {
	Kind      string `json:"kind" validate:"required"`
	MimeType  string `json:"mime_type" validate:"required"`
	FileName  string `json:"file_name" validate:"required"`
	SizeBytes int64  `json:"size_bytes" validate:"required,min=1"`
}

// MediaPresign returns a signed PUT URL so the client uploads straight to
// the bucket instead of proxying the file through the API.
func MediaPresign(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload mediaPresignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		isAdmin := middleware.RoleFromContext(r.Context()) == string(enums.UserRoleAdmin)

		out, err := svc.PresignUpload(r.Context(), userID, isAdmin, media.PresignInput{
			Kind:      media.UploadKind(strings.TrimSpace(payload.Kind)),
			MimeType:  payload.MimeType,
			FileName:  payload.FileName,
			SizeBytes: payload.SizeBytes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, out)
	}
}
