// Package errclass maps failures to a small set of user-facing error kinds,
// each with a localized message and an error page.
package errclass

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type Kind string

const (
	KindOffline     Kind = "offline"
	KindNetwork     Kind = "network"
	KindValidation  Kind = "validation"
	KindCredentials Kind = "credentials"
	KindPermission  Kind = "permission"
	KindNotFound    Kind = "not_found"
	KindServer      Kind = "server"
	KindMaintenance Kind = "maintenance"
	KindUnknown     Kind = "unknown"
)

// Kinds lists every kind in classification priority order.
var Kinds = []Kind{
	KindOffline, KindValidation, KindCredentials, KindPermission, KindNotFound,
	KindNetwork, KindServer, KindMaintenance, KindUnknown,
}

// Tag returns the status-like tag used to pick an error page.
func (k Kind) Tag() string {
	switch k {
	case KindOffline:
		return "offline"
	case KindValidation:
		return "400"
	case KindCredentials:
		return "401"
	case KindPermission:
		return "403"
	case KindNotFound:
		return "404"
	case KindNetwork:
		return "network"
	case KindServer:
		return "500"
	case KindMaintenance:
		return "503"
	default:
		return "unknown"
	}
}

// Status returns the HTTP status a page of this kind is served with.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindCredentials:
		return http.StatusUnauthorized
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindNetwork:
		return http.StatusBadGateway
	case KindMaintenance:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Input describes a failure. Offline is set when the client reports no
// connectivity; Status is 0 when no response was received.
type Input struct {
	Offline bool   `json:"offline"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Classification is the outcome of Classify.
type Classification struct {
	Kind    Kind   `json:"kind"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

var (
	validationCodes  = []string{"VALIDATION_FAILED", "INVALID_PAYLOAD", "UNKNOWN_FIELD"}
	credentialCodes  = []string{"UNAUTHORIZED", "INVALID_CREDENTIALS"}
	permissionCodes  = []string{"FORBIDDEN"}
	notFoundCodes    = []string{"NOT_FOUND", "UNKNOWN_ENTITY", "UNKNOWN_SECTION"}
	networkCodes     = []string{"TIMEOUT", "NETWORK_ERROR"}
	validationWords  = []string{"validation", "invalid input", "invalid payload", "is required"}
	credentialWords  = []string{"credentials", "incorrect username or password", "unauthorized", "not authenticated", "jwt"}
	permissionWords  = []string{"permission", "forbidden", "not allowed", "access denied"}
	notFoundWords    = []string{"not found", "no rows"}
	networkWords     = []string{"network", "fetch", "timeout", "timed out", "connection refused", "connection reset", "no such host"}
	serverWords      = []string{"internal server", "database", "sql", "relation", "constraint"}
	maintenanceWords = []string{"maintenance", "unavailable"}
)

// Kind classifies in without localizing. Rules are checked in priority order.
func (in Input) Kind() Kind {
	msg := strings.ToLower(in.Message)
	switch {
	case in.Offline:
		return KindOffline
	case in.Status == http.StatusBadRequest || hasCode(in.Code, validationCodes) || contains(msg, validationWords):
		return KindValidation
	case in.Status == http.StatusUnauthorized || hasCode(in.Code, credentialCodes) || contains(msg, credentialWords):
		return KindCredentials
	case in.Status == http.StatusForbidden || hasCode(in.Code, permissionCodes) || contains(msg, permissionWords):
		return KindPermission
	case in.Status == http.StatusNotFound || hasCode(in.Code, notFoundCodes) || contains(msg, notFoundWords):
		return KindNotFound
	case hasCode(in.Code, networkCodes) || contains(msg, networkWords):
		return KindNetwork
	case (in.Status >= 500 && in.Status != http.StatusServiceUnavailable) || contains(msg, serverWords):
		return KindServer
	case in.Status == http.StatusServiceUnavailable || contains(msg, maintenanceWords):
		return KindMaintenance
	default:
		return KindUnknown
	}
}

// Classify returns the kind, page tag and localized message for in.
func Classify(in Input, lang language.Tag) Classification {
	k := in.Kind()
	return Classification{Kind: k, Tag: k.Tag(), Message: lookup(printer(lang), messageKey(k))}
}

func hasCode(code string, codes []string) bool {
	for _, c := range codes {
		if strings.EqualFold(code, c) {
			return true
		}
	}
	return false
}

func contains(msg string, words []string) bool {
	for _, w := range words {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}
