// callback.go
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
)

const callbackPage = `<!DOCTYPE html>
<html>
<head><title>Authorization complete</title></head>
<body>
<p>Authorization complete. You can close this window and return to the client.</p>
</body>
</html>`

// CallbackHandler returns the HTTP handler for the OAuth redirect URI. It
// redeems the code carried by the provider redirect and reports the outcome
// to the browser; the MCP client keeps running either way.
func CallbackHandler(p *Provider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errCode := q.Get("error"); errCode != "" {
			desc := q.Get("error_description")
			fmt.Fprintf(os.Stderr, "[ERROR] Authorization denied: %s %s\n", errCode, desc)
			http.Error(w, "Authorization denied: "+errCode, http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		state := q.Get("state")
		if code == "" || state == "" {
			http.Error(w, "Missing code or state parameter", http.StatusBadRequest)
			return
		}
		if err := p.CompleteAuthorization(r.Context(), code, state); err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, ErrUnknownState) {
				status = http.StatusBadRequest
			}
			fmt.Fprintf(os.Stderr, "[ERROR] Authorization failed: %v\n", err)
			http.Error(w, "Authorization failed: "+err.Error(), status)
			return
		}
		fmt.Fprintf(os.Stderr, "[INFO] Authorization complete\n")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, callbackPage)
	})
}
