package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"checklist/config"
	"checklist/internal/database"
	"checklist/internal/models"
	"checklist/internal/utils"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/valkey-io/valkey-go"
)

// EmployeeRecord is what the employee directory knows about one employee.
type EmployeeRecord struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// IdentityProvider looks employees up in an external directory.
type IdentityProvider interface {
	Lookup(ctx context.Context, employeeID string) (EmployeeRecord, error)
}

// DirectoryClient calls the employee directory over HTTP. Successful lookups
// are cached in valkey when a client is configured.
type DirectoryClient struct {
	baseURL    string
	signingKey []byte
	httpClient *http.Client
	cache      valkey.Client
	cacheTTL   time.Duration
	log        logger.Logger
}

func NewDirectoryClient(cfg config.Config, cache valkey.Client) *DirectoryClient {
	return &DirectoryClient{
		baseURL:    strings.TrimSuffix(cfg.IdentityBaseURL, "/"),
		signingKey: []byte(cfg.IdentitySigningKey),
		httpClient: &http.Client{Timeout: cfg.IdentityTimeout()},
		cache:      cache,
		cacheTTL:   cfg.IdentityCacheTTL(),
		log:        logger.New("DirectoryClient"),
	}
}

func (dc *DirectoryClient) Lookup(ctx context.Context, employeeID string) (EmployeeRecord, error) {
	log := dc.log.TraceFromContext(ctx).Function("Lookup")

	employeeID = utils.CleanEmployeeID(employeeID)
	if employeeID == "" {
		return EmployeeRecord{}, log.ErrMsg("employee id is required")
	}

	if record, ok := dc.cached(ctx, employeeID); ok {
		log.Debug("identity cache hit", "employeeID", employeeID)
		return record, nil
	}

	if dc.baseURL == "" {
		return EmployeeRecord{}, log.ErrMsg("employee directory is not configured")
	}

	record, err := dc.fetch(ctx, employeeID)
	if err != nil {
		return EmployeeRecord{}, err
	}

	dc.store(ctx, record)
	return record, nil
}

func (dc *DirectoryClient) fetch(ctx context.Context, employeeID string) (EmployeeRecord, error) {
	log := dc.log.TraceFromContext(ctx).Function("fetch")

	token, err := dc.serviceToken(employeeID)
	if err != nil {
		return EmployeeRecord{}, log.Err("failed to sign directory token", err)
	}

	endpoint := dc.baseURL + "/employees/" + url.PathEscape(employeeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return EmployeeRecord{}, log.Err("failed to create directory request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := dc.httpClient.Do(req)
	if err != nil {
		return EmployeeRecord{}, log.Err("failed to reach employee directory", err, "employeeID", employeeID)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Info("failed to close directory response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return EmployeeRecord{}, log.Error(
			"employee directory request failed",
			"statusCode", resp.StatusCode,
			"employeeID", employeeID,
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return EmployeeRecord{}, log.Err("failed to read directory response", err)
	}

	record, err := parseEmployeeRecord(body, employeeID)
	if err != nil {
		return EmployeeRecord{}, log.Err("failed to parse directory response", err, "employeeID", employeeID)
	}

	log.Debug("employee resolved from directory", "employeeID", employeeID)
	return record, nil
}

// serviceToken signs a short-lived HS256 bearer token identifying this
// service to the directory.
func (dc *DirectoryClient) serviceToken(employeeID string) (string, error) {
	if len(dc.signingKey) == 0 {
		return "", fmt.Errorf("identity signing key is not configured")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    identityTokenIssuer,
		Subject:   employeeID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(identityTokenTTL)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(dc.signingKey)
}

func (dc *DirectoryClient) cached(ctx context.Context, employeeID string) (EmployeeRecord, bool) {
	if dc.cache == nil {
		return EmployeeRecord{}, false
	}

	var record EmployeeRecord
	found, err := database.NewCacheBuilder(dc.cache, employeeID).
		WithHash(IDENTITY_HASH).
		WithContext(ctx).
		Get(&record)
	if err != nil {
		dc.log.Function("cached").Warn("identity cache read failed", "employeeID", employeeID, "error", err)
		return EmployeeRecord{}, false
	}

	return record, found
}

func (dc *DirectoryClient) store(ctx context.Context, record EmployeeRecord) {
	if dc.cache == nil || dc.cacheTTL <= 0 {
		return
	}

	err := database.NewCacheBuilder(dc.cache, record.EmployeeID).
		WithHash(IDENTITY_HASH).
		WithContext(ctx).
		WithStruct(record).
		WithTTL(dc.cacheTTL).
		Set()
	if err != nil {
		dc.log.Function("store").Warn("identity cache write failed", "employeeID", record.EmployeeID, "error", err)
	}
}

// parseEmployeeRecord accepts the response shapes the directory is known to
// return: a bare object, an array of objects, or either wrapped in "data".
func parseEmployeeRecord(body []byte, employeeID string) (EmployeeRecord, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return EmployeeRecord{}, err
	}

	obj := firstEmployeeObject(raw)
	if obj == nil {
		return EmployeeRecord{}, fmt.Errorf("employee %s not found in directory response", employeeID)
	}

	record := EmployeeRecord{
		EmployeeID: employeeID,
		Name:       firstString(obj, "name", "nama", "nama_karyawan"),
		Email:      firstString(obj, "email", "email_karyawan"),
	}
	if record.Name == "" {
		record.Name = models.PlaceholderName(employeeID)
	}
	if record.Email == "" {
		record.Email = models.PlaceholderEmail(employeeID)
	}

	return record, nil
}

func firstEmployeeObject(raw any) map[string]any {
	switch v := raw.(type) {
	case []any:
		if len(v) == 0 {
			return nil
		}
		return firstEmployeeObject(v[0])
	case map[string]any:
		if data, ok := v["data"]; ok {
			return firstEmployeeObject(data)
		}
		if len(v) == 0 {
			return nil
		}
		return v
	}
	return nil
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := obj[key].(string); ok {
			if cleaned, _ := utils.CleanUTF8(strings.TrimSpace(value)); cleaned != "" {
				return cleaned
			}
		}
	}
	return ""
}
