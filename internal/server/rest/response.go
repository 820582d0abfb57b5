package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophbooks/internal/common"
	"github.com/samber/oops"
)

// Response details. Failure bodies always have the shape {"detail": ...}.
const (
	detailEmailRegistered      = "Email already registered"
	detailPasswordMismatch     = "Password and Confirm Password mismatch"
	detailIncorrectCredentials = "Incorrect email or password"
	detailCouldNotValidate     = "Could not validate credentials"
	detailInternal             = "Internal server error"
	detailInvalidBody          = "Request body is not valid JSON"
	detailInvalidBookID        = "book_id must be an integer"
)

type detailResponse struct {
	Detail any `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set(common.AuthenticateHeaderName, common.BearerScheme)
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeInternal(w http.ResponseWriter) {
	writeDetail(w, http.StatusInternalServerError, detailInternal)
}

// inputDetail strips the sentinel prefix from an ErrInvalidInput message.
func inputDetail(err error) string {
	return strings.TrimPrefix(err.Error(), common.ErrInvalidInput.Error()+": ")
}

// errorFields builds log attributes for an internal failure. Coded errors
// contribute their code and attributes.
func errorFields(ctx context.Context, err error) []any {
	kv := []any{"request_id", RequestIDFromContext(ctx), "error", err.Error()}
	if oopsErr, ok := oops.AsOops(err); ok {
		kv = append(kv, "code", oopsErr.Code())
		for k, v := range oopsErr.Context() {
			kv = append(kv, k, v)
		}
	}
	return kv
}
