package server

import (
	_ "embed"
	"net/http"
)

// ClientScriptPath is where the client script is served.
const ClientScriptPath = "/_reconcile/client.js"

//go:embed client.js
var clientScript []byte

func serveClientScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(clientScript)
}
