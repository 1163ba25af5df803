package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"videohub/internal/blobstore"
	"videohub/internal/logging"
	"videohub/internal/metastore"
)

// DefaultMaxUploadBytes is the largest accepted video file (100 MiB).
const DefaultMaxUploadBytes int64 = 100 << 20

// multipartOverhead is how much larger than the file limit a request body may
// be before the transfer is cut off.
const multipartOverhead int64 = 10 << 20

type BuildInfo struct {
	Version string
	Commit  string
}

type Config struct {
	Addr  string // e.g. ":8080"
	Build BuildInfo

	Store metastore.Store
	Blobs blobstore.Store

	// MaxUploadBytes bounds the size of the video file itself.
	MaxUploadBytes int64
	// MaxBodyBytes bounds the whole request body. Defaults to
	// MaxUploadBytes plus room for the multipart framing and title.
	MaxBodyBytes int64

	// UploadRateLimit is the number of uploads one client IP may make per
	// UploadRateWindow (default one hour). Zero disables the limit.
	UploadRateLimit  int
	UploadRateWindow time.Duration

	CORSOrigin string
	Logger     *logging.Logger
	Now        func() time.Time
}

type Server struct {
	cfg        Config
	log        *logging.Logger
	metrics    *Metrics
	uploads    *uploadLimiter // nil when unlimited
	started    time.Time
	httpServer *http.Server
}

func New(cfg Config) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = cfg.MaxUploadBytes + multipartOverhead
	}
	if cfg.UploadRateWindow <= 0 {
		cfg.UploadRateWindow = time.Hour
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Build.Version == "" {
		cfg.Build.Version = "dev"
	}

	s := &Server{
		cfg:     cfg,
		log:     cfg.Logger,
		metrics: NewMetrics(),
		started: cfg.Now(),
	}
	if cfg.UploadRateLimit > 0 {
		s.uploads = newUploadLimiter(cfg.UploadRateLimit, cfg.UploadRateWindow, cfg.Now)
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	var upload http.Handler = http.HandlerFunc(s.handleUpload)
	if s.uploads != nil {
		upload = s.uploads.middleware(upload)
	}
	mux.Handle("/upload.php", upload)
	mux.HandleFunc("/videos.php", s.handleList)
	mux.HandleFunc("GET /videos/{name}", s.handleVideo)

	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/health/live", s.HandleLive)
	mux.Handle("/metrics", s.metrics.PrometheusHandler(s.cfg.Build, s.started))

	// requestID -> logging -> cors -> security headers -> compression -> mux
	var handler http.Handler = mux
	handler = compressionMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = corsMiddleware(s.cfg.CORSOrigin)(handler)
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
