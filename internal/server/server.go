package server

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dosetrack/dosetrack/internal/serverstore"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// codeAlphabet and codeLength define the account-code format: six characters
// of uppercase letters and digits, easy to read out loud between devices.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// tokenBytes is the entropy of an issued bearer token (hex-encoded on the
// wire, so 64 characters).
const tokenBytes = 32

// Server wires the HTTP handlers over the store.
type Server struct {
	store *serverstore.Store
	log   zerolog.Logger

	// Seams for tests; default to the real generators and clock.
	now      func() time.Time
	newCode  func() (string, error)
	newToken func() (string, error)
}

// New creates a server over an open store.
func New(store *serverstore.Store, log zerolog.Logger) *Server {
	return &Server{
		store:    store,
		log:      log,
		now:      time.Now,
		newCode:  generateCode,
		newToken: generateToken,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/generate-code", s.handleGenerateCode)
	r.POST("/login", s.handleLogin)
	r.POST("/generate-token", s.handleGenerateToken)
	r.GET("/health", s.handleHealth)

	authed := r.Group("/", s.requireAuth())
	authed.GET("/code", s.handleGetCode)
	authed.POST("/events", s.handlePushEvent)
	authed.GET("/events", s.handleListEvents)

	return r
}

// generateCode picks codeLength characters from codeAlphabet.
func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// generateToken returns 32 bytes of entropy as 64 hex characters.
func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
