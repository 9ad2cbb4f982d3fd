package rpcinterface

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/scp-network/scpx-wallet/internal/core/application"
	interfaces "github.com/scp-network/scpx-wallet/internal/interfaces"
)

const (
	maxBodySize     = 1 << 20
	shutdownTimeout = 5 * time.Second
)

type ServiceOpts struct {
	Addr        string
	Username    string
	Password    string
	RemoteHosts []string
	// RateLimit is the number of requests per second accepted by the server.
	RateLimit float64
	RateBurst int

	WalletSvc application.WalletService
	// MetricsHandler serves GET /metrics, defaults to the prometheus default
	// gatherer.
	MetricsHandler http.Handler
}

func (o ServiceOpts) validate() error {
	_, port, err := net.SplitHostPort(o.Addr)
	if err != nil {
		return fmt.Errorf("invalid rpc address %s: %s", o.Addr, err)
	}
	if p, err := strconv.Atoi(port); err != nil || p < 1024 || p > 65535 {
		return fmt.Errorf("invalid rpc port %s: must be between 1024 and 65535", port)
	}
	if len(o.RemoteHosts) <= 0 {
		return fmt.Errorf("remote host restriction for rpc is mandatory")
	}
	if o.Username == "" || o.Password == "" {
		return fmt.Errorf("username and password for rpc are mandatory")
	}
	if o.WalletSvc == nil {
		return fmt.Errorf("wallet app service must not be null")
	}
	return nil
}

type service struct {
	opts    ServiceOpts
	handler *walletHandler
	server  *http.Server
}

func NewService(opts ServiceOpts) (interfaces.Service, error) {
	return newService(opts)
}

func newService(opts ServiceOpts) (*service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}
	svc := &service{
		opts:    opts,
		handler: newWalletHandler(opts.WalletSvc),
	}
	svc.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           svc.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return svc, nil
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("rpc: server stopped")
		}
	}()
	log.Infof("rpc server listening on %s", lis.Addr())
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("rpc: failed to gracefully stop server")
		return
	}
	log.Info("rpc server stopped")
}

func (s *service) router() http.Handler {
	r := chi.NewRouter()
	r.Use(remoteHostFilter(s.opts.RemoteHosts))
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(rateLimiter(s.opts.RateLimit, s.opts.RateBurst))

	r.Post("/", s.serveJSONRPC)
	r.Method(http.MethodGet, "/metrics", s.opts.MetricsHandler)
	return r
}

func (s *service) serveJSONRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeResponse(w, nil, nil, errParse)
		return
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		writeResponse(w, nil, nil, errParse)
		return
	}
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		writeResponse(w, req.ID, nil, errInvalidReq)
		return
	}
	if req.Method != execMethod {
		writeResponse(w, req.ID, nil, errMethodMissing)
		return
	}

	result, rpcErr := s.exec(r.Context(), req.Params)
	writeResponse(w, req.ID, result, rpcErr)
}

// exec authenticates the call and runs the command. The expected params are
// [credentials, command, commandParams].
func (s *service) exec(ctx context.Context, rawParams json.RawMessage) (result interface{}, rpcErr *rpcError) {
	var args []json.RawMessage
	if err := json.Unmarshal(rawParams, &args); err != nil || len(args) != 3 {
		log.Warn("rpc: invalid exec request")
		return nil, errInvalidReq
	}

	var creds Credentials
	if err := json.Unmarshal(args[0], &creds); err != nil ||
		creds.Username == "" || creds.Password == "" {
		log.Warn("rpc: authentication absent")
		return nil, errAccessDenied
	}
	if !s.authorized(creds) {
		log.Warn("rpc: invalid credentials supplied")
		return nil, errAccessDenied
	}

	var cmd string
	if err := json.Unmarshal(args[1], &cmd); err != nil {
		return nil, errInvalidReq
	}
	fn, ok := s.handler.commands[cmd]
	if !ok {
		log.Warnf("rpc: unknown command %q", cmd)
		return nil, errUnknownCmd
	}

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("rpc: internal error on command %s: %v", cmd, r)
			result, rpcErr = nil, errInternal
		}
	}()

	log.Debugf("rpc: exec %s", cmd)
	res, err := fn(ctx, args[2])
	if err != nil {
		return nil, &rpcError{Code: codeCommandFailed, Message: err.Error()}
	}
	if res == nil {
		log.Errorf("rpc: unexpected empty result on command %s", cmd)
		return nil, errInternal
	}
	return res, nil
}

func (s *service) authorized(creds Credentials) bool {
	userOk := subtle.ConstantTimeCompare([]byte(creds.Username), []byte(s.opts.Username)) == 1
	passOk := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(s.opts.Password)) == 1
	return userOk && passOk
}
