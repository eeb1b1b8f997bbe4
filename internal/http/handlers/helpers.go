package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"swad-order-service/internal/middleware"

	"github.com/go-chi/chi/v5"
)

var errMissingParam = errors.New("missing param")

// Indian mobile numbers: optional +91 / 0 prefix then ten digits starting 6-9.
var phonePattern = regexp.MustCompile(`^(\+91|0)?[6-9][0-9]{9}$`)

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	var out int64
	_, err := fmt.Sscan(value, &out)
	return out, err
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func getOperator(r *http.Request) (*middleware.OperatorContext, bool) {
	return middleware.GetOperatorContext(r.Context())
}

func normalizePhone(raw string) (string, bool) {
	value := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if !phonePattern.MatchString(value) {
		return "", false
	}
	value = strings.TrimPrefix(value, "+91")
	value = strings.TrimPrefix(value, "0")
	return value, true
}
