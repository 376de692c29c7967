package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/middleware"
	"storefront/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// envelope is the uniform response body: {"success": bool, "message": ..., payload...}.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func ok(w http.ResponseWriter, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	writeJSON(w, http.StatusOK, body)
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

// writeError maps the error taxonomy to a status code. Unknown errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, log *logrus.Logger, err error) {
	var (
		ve *models.ValidationError
		nf *models.NotFoundError
		ge *models.GatewayError
	)
	switch {
	case errors.As(err, &ve):
		fail(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &nf):
		fail(w, http.StatusNotFound, nf.Error())
	case errors.As(err, &ge):
		fail(w, http.StatusBadGateway, "Payment provider is unavailable, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		log.WithError(err).Error("request timed out")
		fail(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		log.WithError(err).Error("request failed")
		fail(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.Invalid("Invalid request body")
	}
	return nil
}

func parseObjectID(kind, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, models.Invalid("Invalid %s ID", kind)
	}
	return id, nil
}

// currentUserID reads the authenticated user's id from the request context.
func currentUserID(r *http.Request) (primitive.ObjectID, bool) {
	claims, found := middleware.ClaimsFromContext(r.Context())
	if !found {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func pageFromQuery(r *http.Request) models.Page {
	q := r.URL.Query()
	limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
	offset, _ := strconv.ParseInt(q.Get("offset"), 10, 64)
	return models.Page{Limit: limit, Offset: offset}
}

// flexBool accepts true/false as JSON booleans or strings.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(strings.ToLower(string(data)), `"`) {
	case "true":
		*b = true
	case "false", "", "null":
		*b = false
	default:
		return errors.New("invalid boolean")
	}
	return nil
}
