package rpcinterface

import (
	"net"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugf("rpc: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// remoteHostFilter drops every request whose remote host is not in the
// allow-list. "localhost" admits any loopback address.
func remoteHostFilter(allowed []string) func(http.Handler) http.Handler {
	hosts := make(map[string]struct{}, len(allowed))
	allowLoopback := false
	for _, h := range allowed {
		if h == "localhost" {
			allowLoopback = true
			continue
		}
		hosts[h] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			_, ok := hosts[host]
			if !ok && allowLoopback {
				ip := net.ParseIP(host)
				ok = ip != nil && ip.IsLoopback()
			}
			if !ok {
				log.Warnf("rpc: dropping request from disallowed remote address %s", host)
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter bounds the request rate of the whole server. A non-positive
// limit disables it.
func rateLimiter(limit float64, burst int) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
