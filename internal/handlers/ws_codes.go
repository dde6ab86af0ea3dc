// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes. These give clients a more specific reason
// than the standard policy-violation code.
const (
	// BadSubprotocolError: client connected without the 'duel' subprotocol.
	BadSubprotocolError websocket.StatusCode = 3000
)
