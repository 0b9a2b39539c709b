package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	OAuth    OAuthConfig
	Webex    WebexConfig
	Geofence GeofenceConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicURL is the externally reachable base URL used to build
	// OAuth redirect URIs.
	PublicURL string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	SessionSecret   string
	AdminSessionTTL time.Duration
	UserSessionTTL  time.Duration
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	Scopes       []string

	AuthorizeURL string
	TokenURL     string

	// AdminUserID pins the one platform account allowed to complete
	// the admin flow.
	AdminUserID string
}

type WebexConfig struct {
	// APIBaseURL is the REST API root (people, identity).
	APIBaseURL string

	// XSIActionsURL and XSIEventsURL are the call-control and
	// event-channel roots for the organization.
	XSIActionsURL string
	XSIEventsURL  string
}

type GeofenceConfig struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64

	// SampleTimeout is how long a reported location sample stays valid.
	SampleTimeout time.Duration

	// SweepInterval controls how often stale allow-list entries are purged.
	SweepInterval time.Duration
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PublicURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_URL")), "/")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.SessionSecret = os.Getenv("SESSION_SECRET")
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AdminSessionTTL = mustDuration("ADMIN_SESSION_TTL")
	c.Auth.UserSessionTTL = mustDuration("USER_SESSION_TTL")

	c.OAuth.ClientID = strings.TrimSpace(os.Getenv("WEBEX_CLIENT_ID"))
	c.OAuth.ClientSecret = os.Getenv("WEBEX_CLIENT_SECRET")
	if raw := strings.TrimSpace(os.Getenv("WEBEX_SCOPES")); raw != "" {
		c.OAuth.Scopes = strings.Fields(raw)
	}
	c.OAuth.AuthorizeURL = strings.TrimSpace(os.Getenv("WEBEX_AUTHORIZE_URL"))
	c.OAuth.TokenURL = strings.TrimSpace(os.Getenv("WEBEX_TOKEN_URL"))
	c.OAuth.AdminUserID = strings.TrimSpace(os.Getenv("WEBEX_ADMIN_UID"))

	c.Webex.APIBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("WEBEX_API_BASE_URL")), "/")
	c.Webex.XSIActionsURL = strings.TrimRight(strings.TrimSpace(os.Getenv("XSI_ACTIONS_URL")), "/")
	c.Webex.XSIEventsURL = strings.TrimRight(strings.TrimSpace(os.Getenv("XSI_EVENTS_URL")), "/")

	{
		f, err := mustFloat("GEOFENCE_LAT_MIN")
		f, parseErrs = appendParseErrF(parseErrs, f, err)
		c.Geofence.LatMin = f
	}
	{
		f, err := mustFloat("GEOFENCE_LAT_MAX")
		f, parseErrs = appendParseErrF(parseErrs, f, err)
		c.Geofence.LatMax = f
	}
	{
		f, err := mustFloat("GEOFENCE_LON_MIN")
		f, parseErrs = appendParseErrF(parseErrs, f, err)
		c.Geofence.LonMin = f
	}
	{
		f, err := mustFloat("GEOFENCE_LON_MAX")
		f, parseErrs = appendParseErrF(parseErrs, f, err)
		c.Geofence.LonMax = f
	}
	{
		n, err := mustInt("GEOFENCE_TIMEOUT_SECONDS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Geofence.SampleTimeout = time.Duration(n) * time.Second
	}
	c.Geofence.SweepInterval = mustDuration("GEOFENCE_SWEEP_INTERVAL")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.PublicURL == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("PUBLIC_URL is required in production"))
		} else {
			c.App.PublicURL = "http://localhost:8000"
		}
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	if c.Auth.AdminSessionTTL <= 0 {
		c.Auth.AdminSessionTTL = 12 * time.Hour
	}
	if c.Auth.UserSessionTTL <= 0 {
		c.Auth.UserSessionTTL = 24 * time.Hour
	}

	if c.OAuth.ClientID == "" {
		errs = append(errs, errors.New("WEBEX_CLIENT_ID is required"))
	}
	if c.OAuth.ClientSecret == "" {
		errs = append(errs, errors.New("WEBEX_CLIENT_SECRET is required"))
	}
	if len(c.OAuth.Scopes) == 0 {
		errs = append(errs, errors.New("WEBEX_SCOPES is required"))
	}
	if c.OAuth.AuthorizeURL == "" {
		c.OAuth.AuthorizeURL = "https://webexapis.com/v1/authorize"
	}
	if c.OAuth.TokenURL == "" {
		c.OAuth.TokenURL = "https://webexapis.com/v1/access_token"
	}
	if c.OAuth.AdminUserID == "" {
		errs = append(errs, errors.New("WEBEX_ADMIN_UID is required"))
	}

	if c.Webex.APIBaseURL == "" {
		c.Webex.APIBaseURL = "https://webexapis.com/v1"
	}
	if c.Webex.XSIActionsURL == "" {
		errs = append(errs, errors.New("XSI_ACTIONS_URL is required"))
	}
	if c.Webex.XSIEventsURL == "" {
		errs = append(errs, errors.New("XSI_EVENTS_URL is required"))
	}

	if c.Geofence.LatMin >= c.Geofence.LatMax {
		errs = append(errs, fmt.Errorf("GEOFENCE_LAT_MIN (%v) must be less than GEOFENCE_LAT_MAX (%v)", c.Geofence.LatMin, c.Geofence.LatMax))
	}
	if c.Geofence.LonMin >= c.Geofence.LonMax {
		errs = append(errs, fmt.Errorf("GEOFENCE_LON_MIN (%v) must be less than GEOFENCE_LON_MAX (%v)", c.Geofence.LonMin, c.Geofence.LonMax))
	}
	if c.Geofence.SampleTimeout <= 0 {
		errs = append(errs, errors.New("GEOFENCE_TIMEOUT_SECONDS must be a positive integer"))
	}
	if c.Geofence.SweepInterval <= 0 {
		c.Geofence.SweepInterval = 5 * time.Minute
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c Config) UserRedirectURI() string {
	return c.App.PublicURL + "/user/callback"
}

func (c Config) AdminRedirectURI() string {
	return c.App.PublicURL + "/admin/callback"
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustFloat(key string) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, v)
	}
	return f, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func appendParseErrF(errs []error, f float64, err error) (float64, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return f, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
