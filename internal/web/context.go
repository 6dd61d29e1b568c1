package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/recon/internal/core"
	appmw "github.com/JonMunkholm/recon/internal/web/middleware"
)

// withRequestMetadata adds the client IP to ctx so it is stored with the run.
// RemoteAddr has already been resolved by TrustedRealIP.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr
	if addr, ok := appmw.ClientAddr(r.RemoteAddr); ok {
		ip = addr.String()
	}
	return core.ContextWithIPAddress(ctx, ip)
}
